package schedule

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
)

type Shift struct {
	ID          int64                       `gorm:"primaryKey"`
	EmployeeID  int64                       `gorm:"column:employee_id;not null;index:idx_shifts_employee_date,priority:1"`
	ShiftDate   time.Time                   `gorm:"column:shift_date;type:date;not null;index:idx_shifts_employee_date,priority:2;index:idx_shifts_date"`
	StartMinute int                         `gorm:"column:start_minute;not null"`
	EndMinute   int                         `gorm:"column:end_minute;not null"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
	Employee    *employeeDatamodel.Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
}

func (Shift) TableName() string {
	return "shifts"
}

type TimeOffRequest struct {
	ID         int64                       `gorm:"primaryKey"`
	EmployeeID int64                       `gorm:"column:employee_id;not null;index:idx_time_off_employee_status,priority:1"`
	StartDate  time.Time                   `gorm:"column:start_date;type:date;not null"`
	EndDate    time.Time                   `gorm:"column:end_date;type:date;not null"`
	Reason     string                      `gorm:"column:reason;size:500"`
	Status     string                      `gorm:"column:status;size:20;not null;index:idx_time_off_employee_status,priority:2"`
	DecidedBy  *int64                      `gorm:"column:decided_by"`
	DecidedAt  *time.Time                  `gorm:"column:decided_at"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
	Employee   *employeeDatamodel.Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
}

func (TimeOffRequest) TableName() string {
	return "time_off_requests"
}
