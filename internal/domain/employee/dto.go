package employee

import (
	"github.com/shopspring/decimal"

	"github.com/businessapi/organization-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	Name         string           `json:"name"`
	Surname      string           `json:"surname"`
	Email        string           `json:"email"`
	PhoneNo      string           `json:"phone_no"`
	IdentityNo   string           `json:"identity_no"`
	DepartmentID int64            `json:"department_id"`
	ManagerID    *int64           `json:"manager_id,omitempty"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
}

func (r CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if validator.IsEmpty(r.Surname) {
		errs = append(errs, validator.ValidationError{Field: "surname", Message: "is required"})
	}
	if r.DepartmentID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "department_id", Message: "is required"})
	}
	if !validator.IsEmpty(r.IdentityNo) && !validator.IsNumeric(r.IdentityNo) {
		errs = append(errs, validator.ValidationError{Field: "identity_no", Message: "must be numeric"})
	}
	if len(errs) > 0 {
		return errs
	}
	if !validator.IsValidEmail(r.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// UpdateEmployeeRequest is a partial update: nil fields keep their previous
// value. ManagerID, when set, reparents the employee.
type UpdateEmployeeRequest struct {
	ID           int64            `json:"id"`
	Name         *string          `json:"name,omitempty"`
	Surname      *string          `json:"surname,omitempty"`
	PhoneNo      *string          `json:"phone_no,omitempty"`
	IdentityNo   *string          `json:"identity_no,omitempty"`
	DepartmentID *int64           `json:"department_id,omitempty"`
	ManagerID    *int64           `json:"manager_id,omitempty"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
}

func (r UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.ID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "cannot be blank"})
	}
	if r.Surname != nil && validator.IsEmpty(*r.Surname) {
		errs = append(errs, validator.ValidationError{Field: "surname", Message: "cannot be blank"})
	}
	if r.IdentityNo != nil && !validator.IsEmpty(*r.IdentityNo) && !validator.IsNumeric(*r.IdentityNo) {
		errs = append(errs, validator.ValidationError{Field: "identity_no", Message: "must be numeric"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListEmployeesRequest struct {
	SearchText string `json:"search_text"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
}

func (r ListEmployeesRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "cannot be negative"})
	}
	if r.Size <= 0 || r.Size > 100 {
		errs = append(errs, validator.ValidationError{Field: "size", Message: "must be between 1 and 100"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EmployeeResponse is one row of the paginated listing.
type EmployeeResponse struct {
	ID             int64  `json:"id"`
	ManagerName    string `json:"manager_name"`
	DepartmentName string `json:"department_name"`
	IdentityNo     string `json:"identity_no"`
	PhoneNo        string `json:"phone_no"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
}

// EmployeeDetailResponse is the single-employee read used by edit screens.
type EmployeeDetailResponse struct {
	ID           int64            `json:"id"`
	ManagerID    *int64           `json:"manager_id,omitempty"`
	DepartmentID int64            `json:"department_id"`
	IdentityNo   string           `json:"identity_no"`
	PhoneNo      string           `json:"phone_no"`
	Name         string           `json:"name"`
	Surname      string           `json:"surname"`
	Email        string           `json:"email"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
}

// HierarchyNode is one node of the rendered organization view. Children only
// ever contain ACTIVE employees.
type HierarchyNode struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Title    string          `json:"title"`
	Children []HierarchyNode `json:"children"`
}
