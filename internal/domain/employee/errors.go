package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrManagerNotFound  = errors.New("manager not found")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrSelfManagement   = errors.New("employee cannot be their own manager")
	ErrCyclicManagement = errors.New("manager change would create a reporting cycle")
	ErrEmployeeDeleted  = errors.New("employee has been deleted")
)
