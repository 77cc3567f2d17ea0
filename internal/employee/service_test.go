package employee_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	"github.com/frahmantamala/restaurant-ops/internal/employee"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEmployeeService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Service Suite")
}

// MockRepository implements employee.RepositoryAPI for testing
type MockRepository struct {
	employees  map[int64]*employeeDatamodel.Employee
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{employees: make(map[int64]*employeeDatamodel.Employee)}
}

func (m *MockRepository) List(ctx context.Context, includeInactive bool) ([]*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*employeeDatamodel.Employee
	for _, e := range m.employees {
		if includeInactive || e.IsActive {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, e := range m.employees {
		if e.Email != nil && *e.Email == email {
			return e, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) Create(ctx context.Context, emp *employeeDatamodel.Employee) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	emp.ID = m.nextID
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *MockRepository) Update(ctx context.Context, emp *employeeDatamodel.Employee) error {
	if m.shouldFail {
		return m.failError
	}
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.shouldFail {
		return false, m.failError
	}
	if _, ok := m.employees[id]; !ok {
		return false, nil
	}
	delete(m.employees, id)
	return true, nil
}

var _ = Describe("Employee Service", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		service *employee.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = employee.NewService(repo, logger, time.Second)
	})

	create := func(first, last, email, role string) *employee.Employee {
		emp, err := service.Create(ctx, employee.CreateEmployeeRequest{FirstName: first, LastName: last, Email: email, Role: role, HireDate: "2023-01-15"})
		Expect(err).NotTo(HaveOccurred())
		return emp
	}

	Describe("Create", func() {
		It("creates an active employee", func() {
			emp := create(" Ada ", "Lovelace", "ADA@example.com", employee.RoleCook)
			Expect(emp.ID).NotTo(BeZero())
			Expect(emp.FirstName).To(Equal("Ada"))
			Expect(emp.Email).To(Equal("ada@example.com"))
			Expect(emp.IsActive).To(BeTrue())
			Expect(emp.ToResponse().HireDate).To(Equal("2023-01-15"))
		})

		It("validates names and role", func() {
			_, err := service.Create(ctx, employee.CreateEmployeeRequest{FirstName: "", LastName: "X", Role: "astronaut"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(appErr.Details.(internal.ValidationErrors).Errors).To(HaveLen(2))
		})

		It("rejects a duplicate email", func() {
			create("Ada", "Lovelace", "ada@example.com", employee.RoleCook)
			_, err := service.Create(ctx, employee.CreateEmployeeRequest{FirstName: "Other", LastName: "Ada", Email: "ada@example.com", Role: employee.RoleServer})
			Expect(err).To(MatchError(internal.ErrEmailTaken))
		})

		It("wraps repository failures as STORE_UNAVAILABLE", func() {
			repo.shouldFail = true
			repo.failError = errors.New("db down")
			_, err := service.Create(ctx, employee.CreateEmployeeRequest{FirstName: "Ada", LastName: "L", Role: employee.RoleCook})
			Expect(internal.ReasonOf(err)).To(Equal(internal.ErrCodeStoreUnavailable))
		})
	})

	Describe("List", func() {
		It("orders by last name and hides inactive employees by default", func() {
			create("Zed", "Baker", "", employee.RoleCook)
			ada := create("Ada", "Baker", "", employee.RoleServer)
			create("Bob", "Adams", "", employee.RoleHost)
			_, err := service.Deactivate(ctx, ada.ID)
			Expect(err).NotTo(HaveOccurred())

			active, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(2))
			Expect(active[0].FullName()).To(Equal("Bob Adams"))
			Expect(active[1].FullName()).To(Equal("Zed Baker"))

			all, err := service.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[1].FullName()).To(Equal("Ada Baker"))
		})
	})

	Describe("Update", func() {
		It("changes only the given fields", func() {
			emp := create("Ada", "Lovelace", "ada@example.com", employee.RoleCook)
			role := employee.RoleManager
			updated, err := service.Update(ctx, emp.ID, employee.UpdateEmployeeRequest{Role: &role})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(employee.RoleManager))
			Expect(updated.FirstName).To(Equal("Ada"))
			Expect(updated.Email).To(Equal("ada@example.com"))
		})

		It("allows keeping the same email", func() {
			emp := create("Ada", "Lovelace", "ada@example.com", employee.RoleCook)
			email := "ada@example.com"
			_, err := service.Update(ctx, emp.ID, employee.UpdateEmployeeRequest{Email: &email})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports unknown employees", func() {
			name := "X"
			_, err := service.Update(ctx, 42, employee.UpdateEmployeeRequest{FirstName: &name})
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})

		It("reactivates an employee", func() {
			emp := create("Ada", "Lovelace", "", employee.RoleCook)
			_, err := service.Deactivate(ctx, emp.ID)
			Expect(err).NotTo(HaveOccurred())

			active := true
			updated, err := service.Update(ctx, emp.ID, employee.UpdateEmployeeRequest{IsActive: &active})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsActive).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("removes the employee", func() {
			emp := create("Ada", "Lovelace", "", employee.RoleCook)
			Expect(service.Delete(ctx, emp.ID)).To(Succeed())
			_, err := service.GetByID(ctx, emp.ID)
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
			Expect(service.Delete(ctx, emp.ID)).To(MatchError(internal.ErrEmployeeNotFound))
		})
	})
})
