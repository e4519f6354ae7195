package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByIDAndMemberID(ctx context.Context, id, memberID int64) (Employee, error)
	// UpdateProfile persists the mutable profile fields of emp (name, surname,
	// phone, identity number, department, salary). Manager and status are
	// changed through their dedicated operations.
	UpdateProfile(ctx context.Context, emp Employee) error
	// UpdateManager moves the single stored edge of the employee in one
	// statement: the old manager loses the subordinate and the new one gains
	// it atomically, because both views derive from this column.
	UpdateManager(ctx context.Context, id, memberID int64, managerID *int64) error
	UpdateStatus(ctx context.Context, id, memberID int64, status Status) error
	// ListActiveWithDetails returns every ACTIVE employee of the tenant with
	// department and manager display names resolved.
	ListActiveWithDetails(ctx context.Context, memberID int64) ([]EmployeeWithDetails, error)
	// SearchByName pages through non-deleted employees whose name contains
	// searchText (case-insensitive), ordered by name.
	SearchByName(ctx context.Context, memberID int64, searchText string, page, size int) ([]EmployeeWithDetails, error)
	// LockForest serializes edge mutations on the tenant's forest. Only valid
	// inside a transaction; the lock is released when it ends.
	LockForest(ctx context.Context, memberID int64) error
}
