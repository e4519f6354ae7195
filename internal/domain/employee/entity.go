package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is one node of a tenant's organizational forest. The manager edge
// is stored exactly once, child to parent; the subordinate view is always
// derived from it, never maintained separately.
type Employee struct {
	ID              int64
	MemberID        int64 // tenant scope, immutable after creation
	AuthID          int64 // account id in the identity service, set once at creation
	DepartmentID    int64
	ManagerID       *int64 // nil for forest roots
	TopLevelManager bool
	Name            string
	Surname         string
	Email           string
	PhoneNo         string
	IdentityNo      string
	Salary          *decimal.Decimal
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName returns the display name used across listings and mail.
func (e Employee) FullName() string {
	return e.Name + " " + e.Surname
}

// IsRoot reports whether the employee roots one of the tenant's trees.
func (e Employee) IsRoot() bool {
	return e.ManagerID == nil
}

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

// EmployeeWithDetails joins display fields resolved from related rows.
type EmployeeWithDetails struct {
	Employee
	DepartmentName string
	ManagerName    *string
}
