package amqp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/businessapi/organization-backend-go/internal/domain/employee"
	"github.com/businessapi/organization-backend-go/internal/domain/onboarding"
	"github.com/businessapi/organization-backend-go/internal/pkg/broker"
	"github.com/businessapi/organization-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange   string
	routingKey string
	msg        broker.Message
}

type recordingTransport struct {
	published     []published
	subscriptions map[string]broker.Handler
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{subscriptions: make(map[string]broker.Handler)}
}

func (r *recordingTransport) Publish(_ context.Context, exchange, routingKey string, msg broker.Message) error {
	r.published = append(r.published, published{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

func (r *recordingTransport) Subscribe(_, routingKey, queue string, handler broker.Handler) (string, error) {
	r.subscriptions[routingKey] = handler
	return queue, nil
}

func (r *recordingTransport) NotifyReturn(_ broker.ReturnHandler) {}

func (r *recordingTransport) Close() error { return nil }

type stubOnboardingService struct {
	emp employee.Employee
	err error
}

func (s *stubOnboardingService) Onboard(_ context.Context, memberID int64, _ employee.CreateEmployeeRequest) (employee.Employee, error) {
	if s.err != nil {
		return employee.Employee{}, s.err
	}
	emp := s.emp
	emp.MemberID = memberID
	return emp, nil
}

type stubEmployeeService struct {
	employee.EmployeeService

	nodes []employee.HierarchyNode
	err   error
}

func (s *stubEmployeeService) Hierarchy(_ context.Context, _ int64) ([]employee.HierarchyNode, error) {
	return s.nodes, s.err
}

func TestEmployeeHandler_Start_BindsBothKeys(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{}, &stubEmployeeService{})

	require.NoError(t, handler.Start())
	assert.Contains(t, transport.subscriptions, KeySaveEmployee)
	assert.Contains(t, transport.subscriptions, KeyGetEmployeeHierarchy)
}

func TestEmployeeHandler_SaveEmployee_RepliesWithIDs(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	handler := NewEmployeeHandler(
		transport,
		"businessDirectExchange",
		&stubOnboardingService{emp: employee.Employee{ID: 5, AuthID: 77}},
		&stubEmployeeService{},
	)
	require.NoError(t, handler.Start())

	body, err := json.Marshal(map[string]any{
		"member_id":     1,
		"name":          "Alice",
		"surname":       "Smith",
		"email":         "alice@example.com",
		"department_id": 10,
	})
	require.NoError(t, err)

	transport.subscriptions[KeySaveEmployee](context.Background(), broker.Message{
		CorrelationID: "corr-1",
		ReplyTo:       "amq.gen-caller",
		Body:          body,
	})

	require.Len(t, transport.published, 1)
	reply := transport.published[0]
	assert.Empty(t, reply.exchange, "replies go through the default exchange")
	assert.Equal(t, "amq.gen-caller", reply.routingKey)
	assert.Equal(t, "corr-1", reply.msg.CorrelationID)

	var decoded saveEmployeeReply
	require.NoError(t, json.Unmarshal(reply.msg.Body, &decoded))
	assert.Equal(t, int64(5), decoded.EmployeeID)
	assert.Equal(t, int64(77), decoded.AuthID)
	assert.Empty(t, decoded.Error)
}

func TestEmployeeHandler_SaveEmployee_ReportsPartialFailure(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	partial := &onboarding.PartialFailureError{AuthID: 77, Err: employee.ErrManagerNotFound}
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{err: partial}, &stubEmployeeService{})
	require.NoError(t, handler.Start())

	transport.subscriptions[KeySaveEmployee](context.Background(), broker.Message{
		CorrelationID: "corr-2",
		ReplyTo:       "amq.gen-caller",
		Body:          []byte(`{"member_id":1,"name":"Alice","surname":"Smith","email":"alice@example.com","department_id":10}`),
	})

	require.Len(t, transport.published, 1)
	var decoded saveEmployeeReply
	require.NoError(t, json.Unmarshal(transport.published[0].msg.Body, &decoded))
	assert.Contains(t, decoded.Error, "77", "the caller learns the orphaned account id")
}

func TestEmployeeHandler_SaveEmployee_ValidationFields(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	validationErrs := validator.ValidationErrors{
		{Field: "identity_no", Message: "must be numeric"},
	}
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{err: validationErrs}, &stubEmployeeService{})
	require.NoError(t, handler.Start())

	transport.subscriptions[KeySaveEmployee](context.Background(), broker.Message{
		CorrelationID: "corr-5",
		ReplyTo:       "amq.gen-caller",
		Body:          []byte(`{"member_id":1,"name":"Alice","surname":"Smith","email":"alice@example.com","department_id":10,"identity_no":"11111111x11"}`),
	})

	require.Len(t, transport.published, 1)
	var decoded saveEmployeeReply
	require.NoError(t, json.Unmarshal(transport.published[0].msg.Body, &decoded))
	assert.Equal(t, map[string]string{"identity_no": "must be numeric"}, decoded.Fields)
	assert.Zero(t, decoded.EmployeeID)
}

func TestEmployeeHandler_SaveEmployee_NoReplyAddress(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{}, &stubEmployeeService{})
	require.NoError(t, handler.Start())

	transport.subscriptions[KeySaveEmployee](context.Background(), broker.Message{
		Body: []byte(`{"member_id":1,"name":"Alice","surname":"Smith","email":"alice@example.com","department_id":10}`),
	})

	assert.Empty(t, transport.published, "one-way requests get no reply")
}

func TestEmployeeHandler_Hierarchy(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	nodes := []employee.HierarchyNode{{
		ID:       1,
		Name:     "Root Smith",
		Children: []employee.HierarchyNode{{ID: 2, Name: "Alice Smith", Children: []employee.HierarchyNode{}}},
	}}
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{}, &stubEmployeeService{nodes: nodes})
	require.NoError(t, handler.Start())

	transport.subscriptions[KeyGetEmployeeHierarchy](context.Background(), broker.Message{
		CorrelationID: "corr-3",
		ReplyTo:       "amq.gen-caller",
		Body:          []byte(`{"member_id":1}`),
	})

	require.Len(t, transport.published, 1)
	var decoded hierarchyReply
	require.NoError(t, json.Unmarshal(transport.published[0].msg.Body, &decoded))
	require.Len(t, decoded.Nodes, 1)
	require.Len(t, decoded.Nodes[0].Children, 1)
	assert.Equal(t, int64(2), decoded.Nodes[0].Children[0].ID)
}

func TestEmployeeHandler_MalformedRequest(t *testing.T) {
	t.Parallel()
	transport := newRecordingTransport()
	handler := NewEmployeeHandler(transport, "businessDirectExchange", &stubOnboardingService{}, &stubEmployeeService{})
	require.NoError(t, handler.Start())

	transport.subscriptions[KeyGetEmployeeHierarchy](context.Background(), broker.Message{
		CorrelationID: "corr-4",
		ReplyTo:       "amq.gen-caller",
		Body:          []byte(`not json`),
	})

	require.Len(t, transport.published, 1)
	var decoded hierarchyReply
	require.NoError(t, json.Unmarshal(transport.published[0].msg.Body, &decoded))
	assert.Equal(t, "malformed request", decoded.Error)
}
