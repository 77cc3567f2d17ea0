package schedule

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	scheduleDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/schedule"
)

type TimeOffStatus string

const (
	StatusPending  TimeOffStatus = "Pending"
	StatusApproved TimeOffStatus = "Approved"
	StatusDenied   TimeOffStatus = "Denied"
)

// IsDecision reports whether s is a status a manager can move a request to.
func (s TimeOffStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusDenied
}

// EmployeeRef is the slice of an employee record scheduling needs.
type EmployeeRef struct {
	ID       int64
	Name     string
	IsActive bool
}

type Shift struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeName string    `json:"employee_name,omitempty"`
	Date         time.Time `json:"date"`
	Start        TimeOfDay `json:"start_time"`
	End          TimeOfDay `json:"end_time"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewShift(employeeID int64, date time.Time, interval Interval) *Shift {
	return &Shift{
		EmployeeID: employeeID,
		Date:       DateOf(date),
		Start:      interval.Start,
		End:        interval.End,
		CreatedAt:  time.Now(),
	}
}

func (s *Shift) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

func (s *Shift) ToResponse() ShiftResponse {
	return ShiftResponse{
		ID:           s.ID,
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.EmployeeName,
		Date:         FormatDate(s.Date),
		StartTime:    s.Start.String(),
		EndTime:      s.End.String(),
	}
}

type TimeOffRequest struct {
	ID           int64         `json:"id"`
	EmployeeID   int64         `json:"employee_id"`
	EmployeeName string        `json:"employee_name,omitempty"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Reason       string        `json:"reason,omitempty"`
	Status       TimeOffStatus `json:"status"`
	DecidedBy    *int64        `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func NewTimeOffRequest(employeeID int64, dates DateRange, reason string) *TimeOffRequest {
	now := time.Now()
	return &TimeOffRequest{
		EmployeeID: employeeID,
		StartDate:  dates.Start,
		EndDate:    dates.End,
		Reason:     reason,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (t *TimeOffRequest) Dates() DateRange {
	return DateRange{Start: t.StartDate, End: t.EndDate}
}

func (t *TimeOffRequest) IsPending() bool {
	return t.Status == StatusPending
}

func (t *TimeOffRequest) Covers(date time.Time) bool {
	return t.Status == StatusApproved && t.Dates().Contains(date)
}

// ApplyDecision moves a pending request to its terminal status in memory.
// Persisting it is the store's job.
func (t *TimeOffRequest) ApplyDecision(status TimeOffStatus, decidedBy int64, at time.Time) {
	t.Status = status
	t.DecidedBy = &decidedBy
	t.DecidedAt = &at
	t.UpdatedAt = at
}

func (t *TimeOffRequest) ToResponse() TimeOffResponse {
	resp := TimeOffResponse{
		ID:           t.ID,
		EmployeeID:   t.EmployeeID,
		EmployeeName: t.EmployeeName,
		StartDate:    FormatDate(t.StartDate),
		EndDate:      FormatDate(t.EndDate),
		Reason:       t.Reason,
		Status:       string(t.Status),
		DecidedBy:    t.DecidedBy,
		CreatedAt:    t.CreatedAt,
	}
	if t.DecidedAt != nil {
		at := *t.DecidedAt
		resp.DecidedAt = &at
	}
	return resp
}

func ShiftToDataModel(s *Shift) *scheduleDatamodel.Shift {
	return &scheduleDatamodel.Shift{
		ID:          s.ID,
		EmployeeID:  s.EmployeeID,
		ShiftDate:   DateOf(s.Date),
		StartMinute: int(s.Start),
		EndMinute:   int(s.End),
		CreatedAt:   s.CreatedAt,
	}
}

func ShiftFromDataModel(s *scheduleDatamodel.Shift) *Shift {
	shift := &Shift{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Date:       DateOf(s.ShiftDate),
		Start:      TimeOfDay(s.StartMinute),
		End:        TimeOfDay(s.EndMinute),
		CreatedAt:  s.CreatedAt,
	}
	if s.Employee != nil {
		shift.EmployeeName = EmployeeName(s.Employee)
	}
	return shift
}

func TimeOffToDataModel(t *TimeOffRequest) *scheduleDatamodel.TimeOffRequest {
	return &scheduleDatamodel.TimeOffRequest{
		ID:         t.ID,
		EmployeeID: t.EmployeeID,
		StartDate:  DateOf(t.StartDate),
		EndDate:    DateOf(t.EndDate),
		Reason:     t.Reason,
		Status:     string(t.Status),
		DecidedBy:  t.DecidedBy,
		DecidedAt:  t.DecidedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func TimeOffFromDataModel(t *scheduleDatamodel.TimeOffRequest) *TimeOffRequest {
	req := &TimeOffRequest{
		ID:         t.ID,
		EmployeeID: t.EmployeeID,
		StartDate:  DateOf(t.StartDate),
		EndDate:    DateOf(t.EndDate),
		Reason:     t.Reason,
		Status:     TimeOffStatus(t.Status),
		DecidedBy:  t.DecidedBy,
		DecidedAt:  t.DecidedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Employee != nil {
		req.EmployeeName = EmployeeName(t.Employee)
	}
	return req
}

func EmployeeRefFromDataModel(e *employeeDatamodel.Employee) *EmployeeRef {
	return &EmployeeRef{
		ID:       e.ID,
		Name:     EmployeeName(e),
		IsActive: e.IsActive,
	}
}

func EmployeeName(e *employeeDatamodel.Employee) string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
