package employee

import (
	"strings"
	"time"

	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
)

const (
	RoleCook       = "cook"
	RoleServer     = "server"
	RoleHost       = "host"
	RoleBartender  = "bartender"
	RoleDishwasher = "dishwasher"
	RoleManager    = "manager"
)

var Roles = []string{RoleCook, RoleServer, RoleHost, RoleBartender, RoleDishwasher, RoleManager}

type Employee struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	HireDate  time.Time `json:"hire_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewEmployee(firstName, lastName, email, role string, hireDate time.Time) *Employee {
	now := time.Now().UTC()
	return &Employee{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		HireDate:  hireDate,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e *Employee) Deactivate() {
	e.IsActive = false
	e.UpdatedAt = time.Now().UTC()
}

func (e *Employee) Activate() {
	e.IsActive = true
	e.UpdatedAt = time.Now().UTC()
}

func (e *Employee) ToResponse() EmployeeResponse {
	resp := EmployeeResponse{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		FullName:  e.FullName(),
		Email:     e.Email,
		Role:      e.Role,
		IsActive:  e.IsActive,
	}
	if !e.HireDate.IsZero() {
		resp.HireDate = e.HireDate.Format("2006-01-02")
	}
	return resp
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	row := &employeeDatamodel.Employee{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Role:      e.Role,
		HireDate:  e.HireDate,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Email != "" {
		email := e.Email
		row.Email = &email
	}
	return row
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	emp := &Employee{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Role:      e.Role,
		HireDate:  e.HireDate,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Email != nil {
		emp.Email = *e.Email
	}
	return emp
}
