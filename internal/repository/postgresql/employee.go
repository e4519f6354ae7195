package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/businessapi/organization-backend-go/internal/domain/employee"
	"github.com/businessapi/organization-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		INSERT INTO employees (
			member_id, auth_id, department_id, manager_id, top_level_manager,
			name, surname, email, phone_no, identity_no, salary, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12
		)
		RETURNING id, member_id, auth_id, department_id, manager_id, top_level_manager,
			name, surname, email, phone_no, identity_no, salary, status, created_at, updated_at
	`

	var created employee.Employee
	err := q.QueryRow(ctx, query,
		newEmployee.MemberID, newEmployee.AuthID, newEmployee.DepartmentID,
		newEmployee.ManagerID, newEmployee.TopLevelManager,
		newEmployee.Name, newEmployee.Surname, newEmployee.Email,
		newEmployee.PhoneNo, newEmployee.IdentityNo, newEmployee.Salary, newEmployee.Status,
	).Scan(
		&created.ID, &created.MemberID, &created.AuthID, &created.DepartmentID,
		&created.ManagerID, &created.TopLevelManager,
		&created.Name, &created.Surname, &created.Email,
		&created.PhoneNo, &created.IdentityNo, &created.Salary, &created.Status,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}
	return created, nil
}

// GetByIDAndMemberID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDAndMemberID(ctx context.Context, id, memberID int64) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, member_id, auth_id, department_id, manager_id, top_level_manager,
			name, surname, email, phone_no, identity_no, salary, status, created_at, updated_at
		FROM employees
		WHERE id = $1 AND member_id = $2
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, id, memberID).Scan(
		&emp.ID, &emp.MemberID, &emp.AuthID, &emp.DepartmentID,
		&emp.ManagerID, &emp.TopLevelManager,
		&emp.Name, &emp.Surname, &emp.Email,
		&emp.PhoneNo, &emp.IdentityNo, &emp.Salary, &emp.Status,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return emp, nil
}

// UpdateProfile implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateProfile(ctx context.Context, emp employee.Employee) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET name = $1, surname = $2, phone_no = $3, identity_no = $4,
			department_id = $5, salary = $6, updated_at = NOW()
		WHERE id = $7 AND member_id = $8
		RETURNING id
	`

	var updatedID int64
	err := q.QueryRow(ctx, query,
		emp.Name, emp.Surname, emp.PhoneNo, emp.IdentityNo,
		emp.DepartmentID, emp.Salary, emp.ID, emp.MemberID,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to update employee %d: %w", emp.ID, err)
	}
	return nil
}

// UpdateManager implements employee.EmployeeRepository. The manager edge is
// stored once on the child row, so this single statement is the whole edge
// transition.
func (e *employeeRepositoryImpl) UpdateManager(ctx context.Context, id, memberID int64, managerID *int64) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET manager_id = $1, updated_at = NOW()
		WHERE id = $2 AND member_id = $3
		RETURNING id
	`

	var updatedID int64
	err := q.QueryRow(ctx, query, managerID, id, memberID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to update manager for employee %d: %w", id, err)
	}
	return nil
}

// UpdateStatus implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpdateStatus(ctx context.Context, id, memberID int64, status employee.Status) error {
	q := GetQuerier(ctx, e.db)

	query := `
		UPDATE employees
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND member_id = $3
		RETURNING id
	`

	var updatedID int64
	err := q.QueryRow(ctx, query, status, id, memberID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to update status for employee %d: %w", id, err)
	}
	return nil
}

// ListActiveWithDetails implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveWithDetails(ctx context.Context, memberID int64) ([]employee.EmployeeWithDetails, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT e.id, e.member_id, e.auth_id, e.department_id, e.manager_id, e.top_level_manager,
			e.name, e.surname, e.email, e.phone_no, e.identity_no, e.salary, e.status,
			e.created_at, e.updated_at,
			d.name AS department_name,
			m.name || ' ' || m.surname AS manager_name
		FROM employees e
		JOIN departments d ON d.id = e.department_id
		LEFT JOIN employees m ON m.id = e.manager_id
		WHERE e.member_id = $1 AND e.status = $2
	`

	rows, err := q.Query(ctx, query, memberID, employee.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmployeesWithDetails(rows)
}

// SearchByName implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) SearchByName(ctx context.Context, memberID int64, searchText string, page, size int) ([]employee.EmployeeWithDetails, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT e.id, e.member_id, e.auth_id, e.department_id, e.manager_id, e.top_level_manager,
			e.name, e.surname, e.email, e.phone_no, e.identity_no, e.salary, e.status,
			e.created_at, e.updated_at,
			d.name AS department_name,
			m.name || ' ' || m.surname AS manager_name
		FROM employees e
		JOIN departments d ON d.id = e.department_id
		LEFT JOIN employees m ON m.id = e.manager_id
		WHERE e.member_id = $1 AND e.status <> $2 AND e.name ILIKE '%' || $3 || '%'
		ORDER BY e.name ASC
		LIMIT $4 OFFSET $5
	`

	rows, err := q.Query(ctx, query, memberID, employee.StatusDeleted, searchText, size, page*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmployeesWithDetails(rows)
}

// LockForest implements employee.EmployeeRepository. Uses a transaction-level
// advisory lock keyed by tenant, so concurrent edge mutations on one forest
// serialize while other tenants proceed.
func (e *employeeRepositoryImpl) LockForest(ctx context.Context, memberID int64) error {
	q := GetQuerier(ctx, e.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, memberID); err != nil {
		return fmt.Errorf("failed to lock forest for member %d: %w", memberID, err)
	}
	return nil
}

func scanEmployeesWithDetails(rows pgx.Rows) ([]employee.EmployeeWithDetails, error) {
	var employees []employee.EmployeeWithDetails
	for rows.Next() {
		var emp employee.EmployeeWithDetails
		err := rows.Scan(
			&emp.ID, &emp.MemberID, &emp.AuthID, &emp.DepartmentID,
			&emp.ManagerID, &emp.TopLevelManager,
			&emp.Name, &emp.Surname, &emp.Email,
			&emp.PhoneNo, &emp.IdentityNo, &emp.Salary, &emp.Status,
			&emp.CreatedAt, &emp.UpdatedAt,
			&emp.DepartmentName, &emp.ManagerName,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}
