package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/businessapi/organization-backend-go/internal/domain/department"
	"github.com/businessapi/organization-backend-go/internal/domain/employee"
	"github.com/businessapi/organization-backend-go/internal/pkg/database"
)

const noManagerLabel = "No Manager"

type EmployeeServiceImpl struct {
	txm            database.TxManager
	employeeRepo   employee.EmployeeRepository
	departmentRepo department.DepartmentRepository
}

func NewEmployeeService(
	txm database.TxManager,
	employeeRepo employee.EmployeeRepository,
	departmentRepo department.DepartmentRepository,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		txm:            txm,
		employeeRepo:   employeeRepo,
		departmentRepo: departmentRepo,
	}
}

// Insert implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Insert(ctx context.Context, memberID, authID int64, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	if err := req.Validate(); err != nil {
		return employee.Employee{}, err
	}

	var created employee.Employee
	err := s.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.employeeRepo.LockForest(ctx, memberID); err != nil {
			return err
		}

		if _, err := s.departmentRepo.GetByIDAndMemberID(ctx, req.DepartmentID, memberID); err != nil {
			return err
		}

		if req.ManagerID != nil {
			if _, err := s.getActiveManager(ctx, *req.ManagerID, memberID); err != nil {
				return err
			}
		}

		newEmployee := employee.Employee{
			MemberID:        memberID,
			AuthID:          authID,
			DepartmentID:    req.DepartmentID,
			ManagerID:       req.ManagerID,
			TopLevelManager: req.ManagerID == nil,
			Name:            req.Name,
			Surname:         req.Surname,
			Email:           req.Email,
			PhoneNo:         req.PhoneNo,
			IdentityNo:      req.IdentityNo,
			Salary:          req.Salary,
			Status:          employee.StatusActive,
		}

		var err error
		created, err = s.employeeRepo.Create(ctx, newEmployee)
		if err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return nil
	})
	if err != nil {
		return employee.Employee{}, err
	}

	slog.Info("Employee inserted", "employee_id", created.ID, "member_id", memberID, "is_root", created.IsRoot())
	return created, nil
}

// Update implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Update(ctx context.Context, memberID int64, req employee.UpdateEmployeeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	return s.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.employeeRepo.LockForest(ctx, memberID); err != nil {
			return err
		}

		emp, err := s.employeeRepo.GetByIDAndMemberID(ctx, req.ID, memberID)
		if err != nil {
			return err
		}
		if emp.Status == employee.StatusDeleted {
			return employee.ErrEmployeeDeleted
		}

		// Reparent when a new manager is requested and it differs from the
		// current one.
		if req.ManagerID != nil && (emp.ManagerID == nil || *emp.ManagerID != *req.ManagerID) {
			if err := s.reparent(ctx, memberID, emp, *req.ManagerID); err != nil {
				return err
			}
		}

		// Partial profile update: unset fields keep their previous value.
		if req.Name != nil {
			emp.Name = *req.Name
		}
		if req.Surname != nil {
			emp.Surname = *req.Surname
		}
		if req.PhoneNo != nil {
			emp.PhoneNo = *req.PhoneNo
		}
		if req.IdentityNo != nil {
			emp.IdentityNo = *req.IdentityNo
		}
		if req.Salary != nil {
			emp.Salary = req.Salary
		}
		if req.DepartmentID != nil && *req.DepartmentID != emp.DepartmentID {
			if _, err := s.departmentRepo.GetByIDAndMemberID(ctx, *req.DepartmentID, memberID); err != nil {
				return err
			}
			emp.DepartmentID = *req.DepartmentID
		}

		return s.employeeRepo.UpdateProfile(ctx, emp)
	})
}

// reparent validates and performs a single edge transition. The edge is one
// stored column, so the old manager loses the subordinate exactly when the
// new one gains it.
func (s *EmployeeServiceImpl) reparent(ctx context.Context, memberID int64, emp employee.Employee, newManagerID int64) error {
	if newManagerID == emp.ID {
		return employee.ErrSelfManagement
	}

	newManager, err := s.getActiveManager(ctx, newManagerID, memberID)
	if err != nil {
		return err
	}

	if err := s.assertNoCycle(ctx, memberID, emp.ID, newManager); err != nil {
		return err
	}

	managerID := newManager.ID
	return s.employeeRepo.UpdateManager(ctx, emp.ID, memberID, &managerID)
}

// assertNoCycle walks the ancestor chain upward from the candidate manager.
// If the chain passes through the employee being moved, the candidate is one
// of its descendants and the reparent would create a cycle.
func (s *EmployeeServiceImpl) assertNoCycle(ctx context.Context, memberID, employeeID int64, newManager employee.Employee) error {
	visited := make(map[int64]bool)
	current := newManager
	for {
		if current.ID == employeeID {
			return employee.ErrCyclicManagement
		}
		if current.ManagerID == nil {
			return nil
		}
		if visited[current.ID] {
			// A pre-existing cycle in stored data; refuse to extend it.
			return employee.ErrCyclicManagement
		}
		visited[current.ID] = true

		parent, err := s.employeeRepo.GetByIDAndMemberID(ctx, *current.ManagerID, memberID)
		if err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				// Chain ends at a node outside the tenant's view.
				return nil
			}
			return err
		}
		current = parent
	}
}

// Delete implements employee.EmployeeService. Soft delete only: the row
// keeps its manager edge so history stays intact, and children stay attached
// to this id until a caller reparents them.
func (s *EmployeeServiceImpl) Delete(ctx context.Context, memberID, id int64) error {
	return s.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.employeeRepo.LockForest(ctx, memberID); err != nil {
			return err
		}

		emp, err := s.employeeRepo.GetByIDAndMemberID(ctx, id, memberID)
		if err != nil {
			return err
		}
		if emp.Status == employee.StatusDeleted {
			return employee.ErrEmployeeDeleted
		}

		if err := s.employeeRepo.UpdateStatus(ctx, id, memberID, employee.StatusDeleted); err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}

		slog.Info("Employee soft-deleted", "employee_id", id, "member_id", memberID)
		return nil
	})
}

// FindByID implements employee.EmployeeService.
func (s *EmployeeServiceImpl) FindByID(ctx context.Context, memberID, id int64) (employee.EmployeeDetailResponse, error) {
	emp, err := s.employeeRepo.GetByIDAndMemberID(ctx, id, memberID)
	if err != nil {
		return employee.EmployeeDetailResponse{}, err
	}

	return employee.EmployeeDetailResponse{
		ID:           emp.ID,
		ManagerID:    emp.ManagerID,
		DepartmentID: emp.DepartmentID,
		IdentityNo:   emp.IdentityNo,
		PhoneNo:      emp.PhoneNo,
		Name:         emp.Name,
		Surname:      emp.Surname,
		Email:        emp.Email,
		Salary:       emp.Salary,
	}, nil
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, memberID int64, req employee.ListEmployeesRequest) ([]employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	employees, err := s.employeeRepo.SearchByName(ctx, memberID, req.SearchText, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		managerName := noManagerLabel
		if emp.ManagerName != nil {
			managerName = *emp.ManagerName
		}
		responses = append(responses, employee.EmployeeResponse{
			ID:             emp.ID,
			ManagerName:    managerName,
			DepartmentName: emp.DepartmentName,
			IdentityNo:     emp.IdentityNo,
			PhoneNo:        emp.PhoneNo,
			Name:           emp.Name,
			Surname:        emp.Surname,
			Email:          emp.Email,
		})
	}

	return responses, nil
}

// Hierarchy implements employee.EmployeeService. A pure read over a snapshot
// of the tenant's ACTIVE employees: group by manager id, then emit each root
// with its subtree. Acyclicity of the stored forest makes the recursion
// depth-safe.
func (s *EmployeeServiceImpl) Hierarchy(ctx context.Context, memberID int64) ([]employee.HierarchyNode, error) {
	employees, err := s.employeeRepo.ListActiveWithDetails(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	byManager := make(map[int64][]employee.EmployeeWithDetails)
	var roots []employee.EmployeeWithDetails
	for _, emp := range employees {
		if emp.ManagerID == nil {
			roots = append(roots, emp)
			continue
		}
		byManager[*emp.ManagerID] = append(byManager[*emp.ManagerID], emp)
	}

	nodes := make([]employee.HierarchyNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, buildHierarchyNode(root, byManager))
	}

	return nodes, nil
}

func buildHierarchyNode(emp employee.EmployeeWithDetails, byManager map[int64][]employee.EmployeeWithDetails) employee.HierarchyNode {
	node := employee.HierarchyNode{
		ID:       emp.ID,
		Name:     emp.FullName(),
		Email:    emp.Email,
		Title:    emp.DepartmentName,
		Children: []employee.HierarchyNode{},
	}
	for _, sub := range byManager[emp.ID] {
		node.Children = append(node.Children, buildHierarchyNode(sub, byManager))
	}
	return node
}

// getActiveManager resolves a manager candidate in-tenant, mapping any miss
// or deleted row to ErrManagerNotFound.
func (s *EmployeeServiceImpl) getActiveManager(ctx context.Context, managerID, memberID int64) (employee.Employee, error) {
	manager, err := s.employeeRepo.GetByIDAndMemberID(ctx, managerID, memberID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, employee.ErrManagerNotFound
		}
		return employee.Employee{}, err
	}
	if manager.Status != employee.StatusActive {
		return employee.Employee{}, employee.ErrManagerNotFound
	}
	return manager, nil
}
