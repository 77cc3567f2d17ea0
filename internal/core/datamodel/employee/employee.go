package employee

import "time"

type Employee struct {
	ID        int64     `gorm:"primaryKey"`
	FirstName string    `gorm:"column:first_name;size:50;not null"`
	LastName  string    `gorm:"column:last_name;size:50;not null"`
	Email     *string   `gorm:"column:email;size:255;uniqueIndex"`
	Role      string    `gorm:"column:role;size:30;not null"`
	HireDate  time.Time `gorm:"column:hire_date;type:date"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
