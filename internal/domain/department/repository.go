package department

import "context"

type DepartmentRepository interface {
	GetByIDAndMemberID(ctx context.Context, id, memberID int64) (Department, error)
}
