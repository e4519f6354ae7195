package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/businessapi/organization-backend-go/internal/domain/employee"
	"github.com/businessapi/organization-backend-go/internal/domain/onboarding"
	"github.com/businessapi/organization-backend-go/internal/pkg/broker"
	"github.com/businessapi/organization-backend-go/internal/pkg/validator"
)

// Routing keys and queues this service answers on. Sibling services of the
// suite reach us through the shared direct exchange with the same
// correlation-id/reply-to convention we use toward the identity service.
const (
	KeySaveEmployee         = "keySaveEmployeeFromOtherServices"
	KeyGetEmployeeHierarchy = "keyGetEmployeeHierarchy"

	queueSaveEmployee      = "queueSaveEmployeeFromOtherServices"
	queueEmployeeHierarchy = "queueGetEmployeeHierarchy"
)

// saveEmployeeRequest carries the tenant explicitly: the caller is another
// trusted service forwarding its authenticated session's member id, never an
// end user.
type saveEmployeeRequest struct {
	MemberID int64 `json:"member_id"`
	employee.CreateEmployeeRequest
}

type saveEmployeeReply struct {
	EmployeeID int64             `json:"employee_id,omitempty"`
	AuthID     int64             `json:"auth_id,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

type hierarchyRequest struct {
	MemberID int64 `json:"member_id"`
}

type hierarchyReply struct {
	Nodes []employee.HierarchyNode `json:"nodes,omitempty"`
	Error string                   `json:"error,omitempty"`
}

type EmployeeHandler struct {
	transport         broker.Transport
	exchange          string
	onboardingService onboarding.OnboardingService
	employeeService   employee.EmployeeService
}

func NewEmployeeHandler(
	transport broker.Transport,
	exchange string,
	onboardingService onboarding.OnboardingService,
	employeeService employee.EmployeeService,
) *EmployeeHandler {
	return &EmployeeHandler{
		transport:         transport,
		exchange:          exchange,
		onboardingService: onboardingService,
		employeeService:   employeeService,
	}
}

// Start binds the handler's queues and begins consuming.
func (h *EmployeeHandler) Start() error {
	if _, err := h.transport.Subscribe(h.exchange, KeySaveEmployee, queueSaveEmployee, h.handleSaveEmployee); err != nil {
		return err
	}
	if _, err := h.transport.Subscribe(h.exchange, KeyGetEmployeeHierarchy, queueEmployeeHierarchy, h.handleHierarchy); err != nil {
		return err
	}
	return nil
}

func (h *EmployeeHandler) handleSaveEmployee(ctx context.Context, msg broker.Message) {
	var req saveEmployeeRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		slog.Error("Failed to decode save-employee request", "error", err)
		h.reply(ctx, msg, saveEmployeeReply{Error: "malformed request"})
		return
	}

	emp, err := h.onboardingService.Onboard(ctx, req.MemberID, req.CreateEmployeeRequest)
	if err != nil {
		slog.Error("Save-employee request failed", "member_id", req.MemberID, "error", err)
		failure := saveEmployeeReply{Error: err.Error()}
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			failure.Fields = validationErrs.ToMap()
		}
		h.reply(ctx, msg, failure)
		return
	}

	h.reply(ctx, msg, saveEmployeeReply{EmployeeID: emp.ID, AuthID: emp.AuthID})
}

func (h *EmployeeHandler) handleHierarchy(ctx context.Context, msg broker.Message) {
	var req hierarchyRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		slog.Error("Failed to decode hierarchy request", "error", err)
		h.reply(ctx, msg, hierarchyReply{Error: "malformed request"})
		return
	}

	nodes, err := h.employeeService.Hierarchy(ctx, req.MemberID)
	if err != nil {
		slog.Error("Hierarchy request failed", "member_id", req.MemberID, "error", err)
		h.reply(ctx, msg, hierarchyReply{Error: err.Error()})
		return
	}

	h.reply(ctx, msg, hierarchyReply{Nodes: nodes})
}

// reply answers a request on its reply-to queue, echoing the correlation id.
// Requests without a reply address are one-way; nothing to answer.
func (h *EmployeeHandler) reply(ctx context.Context, req broker.Message, payload any) {
	if req.ReplyTo == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal reply", "error", err)
		return
	}

	err = h.transport.Publish(ctx, "", req.ReplyTo, broker.Message{
		CorrelationID: req.CorrelationID,
		Body:          body,
	})
	if err != nil {
		slog.Error("Failed to publish reply", "reply_to", req.ReplyTo, "error", err)
	}
}
