package schedule

import (
	"context"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal/core/events"
)

// Store persists shifts and time-off requests. Lookups of a missing record
// return the matching *_NOT_FOUND error from the internal package; any other
// failure is reported as STORE_UNAVAILABLE.
type Store interface {
	GetEmployee(ctx context.Context, id int64) (*EmployeeRef, error)

	ShiftsForEmployeeOnDate(ctx context.Context, employeeID int64, date time.Time) ([]*Shift, error)
	ShiftsForEmployeeInRange(ctx context.Context, employeeID int64, from, to time.Time) ([]*Shift, error)
	// ShiftsInRange returns every shift dated within [from, to], ordered by
	// date then start time, with EmployeeName filled in.
	ShiftsInRange(ctx context.Context, from, to time.Time) ([]*Shift, error)
	GetShift(ctx context.Context, id int64) (*Shift, error)
	InsertShift(ctx context.Context, shift *Shift) error
	DeleteShift(ctx context.Context, id int64) error

	HasApprovedTimeOffOn(ctx context.Context, employeeID int64, date time.Time) (bool, error)
	InsertTimeOff(ctx context.Context, req *TimeOffRequest) error
	GetTimeOff(ctx context.Context, id int64) (*TimeOffRequest, error)
	// UpdateTimeOffStatus moves a Pending request to status. It reports false
	// when the request was no longer Pending and nothing changed.
	UpdateTimeOffStatus(ctx context.Context, id int64, status TimeOffStatus, decidedBy int64, decidedAt time.Time) (bool, error)
	// PendingTimeOff lists Pending requests oldest first.
	PendingTimeOff(ctx context.Context) ([]*TimeOffRequest, error)

	// WithinEmployee runs fn as one atomic unit serialized against every other
	// unit for the same employee. fn must do all of its reads and writes
	// through tx. An error from fn aborts the unit and is returned as is.
	WithinEmployee(ctx context.Context, employeeID int64, fn func(tx Store) error) error
}

// Publisher receives domain events after a successful write.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}
