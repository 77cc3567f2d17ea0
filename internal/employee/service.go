package employee

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
)

type RepositoryAPI interface {
	List(ctx context.Context, includeInactive bool) ([]*employeeDatamodel.Employee, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error)
	GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	Create(ctx context.Context, emp *employeeDatamodel.Employee) error
	Update(ctx context.Context, emp *employeeDatamodel.Employee) error
	// Delete removes the employee with their shifts and time-off requests.
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo    RepositoryAPI
	logger  *slog.Logger
	timeout time.Duration
}

func NewService(repo RepositoryAPI, logger *slog.Logger, queryTimeout time.Duration) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		timeout: queryTimeout,
	}
}

// List returns employees ordered by last then first name.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, internal.NewStoreUnavailableError("list employees", err)
	}

	employees := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, FromDataModel(row))
	}
	return employees, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "employee_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("get employee", err)
	}
	if row == nil {
		return nil, internal.ErrEmployeeNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, req CreateEmployeeRequest) (*Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	emp := NewEmployee(req.FirstName, req.LastName, req.Email, req.Role, req.ParsedHireDate())
	if err := s.ensureEmailFree(ctx, emp.Email, 0); err != nil {
		return nil, err
	}

	row := ToDataModel(emp)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create employee", "error", err)
		return nil, internal.NewStoreUnavailableError("create employee", err)
	}

	created := FromDataModel(row)
	s.logger.Info("employee created", "employee_id", created.ID, "role", created.Role)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEmployeeRequest) (*Employee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		emp.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		emp.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		emp.Email = email
	}
	if req.Role != nil {
		emp.Role = *req.Role
	}
	if req.HireDate != nil {
		emp.HireDate = parseOptionalDate(*req.HireDate)
	}
	if req.IsActive != nil {
		if *req.IsActive {
			emp.Activate()
		} else {
			emp.Deactivate()
		}
	}
	emp.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, ToDataModel(emp)); err != nil {
		s.logger.Error("failed to update employee", "employee_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("update employee", err)
	}

	s.logger.Info("employee updated", "employee_id", id)
	return emp, nil
}

// Deactivate keeps the record and its history but blocks new shifts and
// time-off requests.
func (s *Service) Deactivate(ctx context.Context, id int64) (*Employee, error) {
	active := false
	return s.Update(ctx, id, UpdateEmployeeRequest{IsActive: &active})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete employee", "employee_id", id, "error", err)
		return internal.NewStoreUnavailableError("delete employee", err)
	}
	if !deleted {
		return internal.ErrEmployeeNotFound
	}

	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	if email == "" {
		return nil
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return internal.NewStoreUnavailableError("check email", err)
	}
	if existing != nil && existing.ID != selfID {
		return internal.ErrEmailTaken
	}
	return nil
}
