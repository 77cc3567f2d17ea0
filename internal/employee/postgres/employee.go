package postgres

import (
	"context"
	"errors"

	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	scheduleDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/schedule"
	"github.com/frahmantamala/restaurant-ops/internal/employee"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) List(ctx context.Context, includeInactive bool) ([]*employeeDatamodel.Employee, error) {
	var employees []*employeeDatamodel.Employee
	query := r.db.WithContext(ctx).Order("last_name ASC").Order("first_name ASC").Order("id ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, emp *employeeDatamodel.Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

// Update writes every column, including false and empty values.
func (r *EmployeeRepository) Update(ctx context.Context, emp *employeeDatamodel.Employee) error {
	return r.db.WithContext(ctx).Save(emp).Error
}

// Delete removes dependent rows explicitly so the cascade also holds on
// databases where foreign keys are not enforced.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", id).Delete(&scheduleDatamodel.Shift{}).Error; err != nil {
			return err
		}
		if err := tx.Where("employee_id = ?", id).Delete(&scheduleDatamodel.TimeOffRequest{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&employeeDatamodel.Employee{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}
