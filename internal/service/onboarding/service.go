package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/businessapi/organization-backend-go/internal/domain/employee"
	"github.com/businessapi/organization-backend-go/internal/domain/onboarding"
	"github.com/businessapi/organization-backend-go/internal/pkg/identity"
	"github.com/businessapi/organization-backend-go/internal/pkg/mailer"
	"github.com/businessapi/organization-backend-go/internal/pkg/password"
)

type OnboardingServiceImpl struct {
	identityClient  identity.Client
	mailer          mailer.Mailer
	employeeService employee.EmployeeService
}

func NewOnboardingService(
	identityClient identity.Client,
	mailer mailer.Mailer,
	employeeService employee.EmployeeService,
) onboarding.OnboardingService {
	return &OnboardingServiceImpl{
		identityClient:  identityClient,
		mailer:          mailer,
		employeeService: employeeService,
	}
}

// Onboard implements onboarding.OnboardingService.
//
// There is no transaction spanning the identity service and the hierarchy
// store. Everything before CreateAccount is side-effect-free and may be
// retried by the caller; CreateAccount is the irreversible step. A failure
// after it returns PartialFailureError carrying the orphaned account id, and
// is never retried here: repeating CreateAccount could mint a second account.
func (s *OnboardingServiceImpl) Onboard(ctx context.Context, memberID int64, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	// Local shape validation; no remote call happens on bad input.
	if err := req.Validate(); err != nil {
		return employee.Employee{}, err
	}

	exists, err := s.identityClient.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return employee.Employee{}, onboarding.ErrEmailAlreadyExists
	}

	oneTimePassword, err := password.Generate()
	if err != nil {
		return employee.Employee{}, err
	}

	authID, err := s.identityClient.CreateAccount(ctx, identity.CreateAccountRequest{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: oneTimePassword,
	})
	if err != nil {
		// Ambiguous on timeout: the account may or may not exist remotely.
		// Surfaced as-is so the caller does not blindly retry.
		return employee.Employee{}, fmt.Errorf("failed to create account: %w", err)
	}

	// Best-effort: a lost mail is recovered through password reset, so a
	// send failure must not abort provisioning.
	if err := s.mailer.SendPassword(ctx, req.Email, oneTimePassword); err != nil {
		slog.Warn("Failed to send password mail", "email", req.Email, "error", err)
	}

	emp, err := s.employeeService.Insert(ctx, memberID, authID, req)
	if err != nil {
		slog.Error("Provisioning failed after remote account creation",
			"auth_id", authID,
			"email", req.Email,
			"member_id", memberID,
			"error", err,
		)
		return employee.Employee{}, &onboarding.PartialFailureError{AuthID: authID, Err: err}
	}

	slog.Info("Employee onboarded",
		"employee_id", emp.ID,
		"auth_id", authID,
		"member_id", memberID,
		"is_root", emp.IsRoot(),
	)
	return emp, nil
}
