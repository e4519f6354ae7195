package employee

import "context"

// EmployeeService is the hierarchy engine: all structural mutation and read
// access to a tenant's organizational forest goes through it. Every operation
// takes the tenant id explicitly; nothing is read from ambient session state.
type EmployeeService interface {
	// Insert creates the local node for an already-provisioned account.
	// authID comes from the identity service and never changes afterwards.
	Insert(ctx context.Context, memberID, authID int64, req CreateEmployeeRequest) (Employee, error)
	Update(ctx context.Context, memberID int64, req UpdateEmployeeRequest) error
	// Delete soft-deletes the employee. Edges are left untouched: children of
	// a deleted manager stay attached until explicitly reparented.
	Delete(ctx context.Context, memberID, id int64) error
	FindByID(ctx context.Context, memberID, id int64) (EmployeeDetailResponse, error)
	List(ctx context.Context, memberID int64, req ListEmployeesRequest) ([]EmployeeResponse, error)
	// Hierarchy renders the tenant's forest of ACTIVE employees, roots first.
	Hierarchy(ctx context.Context, memberID int64) ([]HierarchyNode, error)
}
