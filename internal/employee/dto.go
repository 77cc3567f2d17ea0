package employee

import (
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/core/common/validation"
)

type CreateEmployeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	HireDate  string `json:"hire_date"`
}

func (r *CreateEmployeeRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("first_name", r.FirstName).Required().MaxLength(50)
	v.Field("last_name", r.LastName).Required().MaxLength(50)
	v.Field("email", r.Email).MaxLength(255)
	v.Field("role", r.Role).Required().OneOf(Roles...)
	v.Field("hire_date", r.HireDate).Layout(validation.DateLayout, internal.ErrCodeInvalidDate)
	return v.Validate()
}

func (r *CreateEmployeeRequest) ParsedHireDate() time.Time {
	return parseOptionalDate(r.HireDate)
}

// UpdateEmployeeRequest carries only the fields to change.
type UpdateEmployeeRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      *string `json:"role,omitempty"`
	HireDate  *string `json:"hire_date,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	if r.FirstName != nil {
		v.Field("first_name", *r.FirstName).Required().MaxLength(50)
	}
	if r.LastName != nil {
		v.Field("last_name", *r.LastName).Required().MaxLength(50)
	}
	if r.Email != nil {
		v.Field("email", *r.Email).MaxLength(255)
	}
	if r.Role != nil {
		v.Field("role", *r.Role).Required().OneOf(Roles...)
	}
	if r.HireDate != nil {
		v.Field("hire_date", *r.HireDate).Layout(validation.DateLayout, internal.ErrCodeInvalidDate)
	}
	return v.Validate()
}

type EmployeeResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	HireDate  string `json:"hire_date,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type EmployeesResponse struct {
	Employees []EmployeeResponse `json:"employees"`
}

func parseOptionalDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
