package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/threebee1/hrms-sub001/pkg/database"
)

// Employee roles
const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
)

// Employee is a row in the employees table.
type Employee struct {
	ID           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name, first name first.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, first_name, last_name, email, role, password_hash, active, created_at, updated_at`

// FindByEmail returns the employee with the given email, or nil.
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	var emp Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`

	if err := r.db.GetContext(ctx, &emp, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

// FindByID returns the employee with the given ID, or nil.
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*Employee, error) {
	var emp Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	if err := r.db.GetContext(ctx, &emp, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}
