package postgresql

import (
	"context"
	"errors"

	"github.com/businessapi/organization-backend-go/internal/domain/department"
	"github.com/businessapi/organization-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) department.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

// GetByIDAndMemberID implements department.DepartmentRepository.
func (d *departmentRepositoryImpl) GetByIDAndMemberID(ctx context.Context, id, memberID int64) (department.Department, error) {
	q := GetQuerier(ctx, d.db)

	query := `
		SELECT id, member_id, name, created_at, updated_at
		FROM departments
		WHERE id = $1 AND member_id = $2
	`

	var dep department.Department
	err := q.QueryRow(ctx, query, id, memberID).Scan(
		&dep.ID, &dep.MemberID, &dep.Name, &dep.CreatedAt, &dep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return department.Department{}, department.ErrDepartmentNotFound
		}
		return department.Department{}, err
	}
	return dep, nil
}
