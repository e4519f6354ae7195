package onboarding

import (
	"context"

	"github.com/businessapi/organization-backend-go/internal/domain/employee"
)

// OnboardingService provisions a new employee end to end: account creation in
// the identity service, the welcome mail, and the local hierarchy node. A nil
// ManagerID on the request onboards a top-level manager rooting a new tree.
type OnboardingService interface {
	Onboard(ctx context.Context, memberID int64, req employee.CreateEmployeeRequest) (employee.Employee, error)
}
