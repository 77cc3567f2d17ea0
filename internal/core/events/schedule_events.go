package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeShiftScheduled   = "shift.scheduled"
	EventTypeShiftCancelled   = "shift.cancelled"
	EventTypeTimeOffRequested = "timeoff.requested"
	EventTypeTimeOffApproved  = "timeoff.approved"
	EventTypeTimeOffDenied    = "timeoff.denied"
)

var ScheduleEventTypes = []string{
	EventTypeShiftScheduled,
	EventTypeShiftCancelled,
	EventTypeTimeOffRequested,
	EventTypeTimeOffApproved,
	EventTypeTimeOffDenied,
}

// Keyed events carry the key used to partition them downstream. Every
// schedule event is keyed by employee so per-employee ordering survives.
type Keyed interface {
	PartitionKey() string
}

type EmployeeEvent struct {
	BaseEvent
	EmployeeID int64 `json:"employee_id"`
}

func (e EmployeeEvent) PartitionKey() string {
	return strconv.FormatInt(e.EmployeeID, 10)
}

func newEmployeeEvent(eventType string, employeeID int64, data map[string]interface{}) EmployeeEvent {
	data["employee_id"] = employeeID
	return EmployeeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		EmployeeID: employeeID,
	}
}

type ShiftScheduledEvent struct {
	EmployeeEvent
	ShiftID   int64  `json:"shift_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func NewShiftScheduledEvent(shiftID, employeeID int64, date, startTime, endTime string) *ShiftScheduledEvent {
	return &ShiftScheduledEvent{
		EmployeeEvent: newEmployeeEvent(EventTypeShiftScheduled, employeeID, map[string]interface{}{
			"shift_id":   shiftID,
			"date":       date,
			"start_time": startTime,
			"end_time":   endTime,
		}),
		ShiftID:   shiftID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
	}
}

type ShiftCancelledEvent struct {
	EmployeeEvent
	ShiftID int64  `json:"shift_id"`
	Date    string `json:"date"`
}

func NewShiftCancelledEvent(shiftID, employeeID int64, date string) *ShiftCancelledEvent {
	return &ShiftCancelledEvent{
		EmployeeEvent: newEmployeeEvent(EventTypeShiftCancelled, employeeID, map[string]interface{}{
			"shift_id": shiftID,
			"date":     date,
		}),
		ShiftID: shiftID,
		Date:    date,
	}
}

type TimeOffRequestedEvent struct {
	EmployeeEvent
	TimeOffID int64  `json:"time_off_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func NewTimeOffRequestedEvent(timeOffID, employeeID int64, startDate, endDate string) *TimeOffRequestedEvent {
	return &TimeOffRequestedEvent{
		EmployeeEvent: newEmployeeEvent(EventTypeTimeOffRequested, employeeID, map[string]interface{}{
			"time_off_id": timeOffID,
			"start_date":  startDate,
			"end_date":    endDate,
		}),
		TimeOffID: timeOffID,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

type TimeOffDecidedEvent struct {
	EmployeeEvent
	TimeOffID         int64   `json:"time_off_id"`
	Status            string  `json:"status"`
	DecidedBy         int64   `json:"decided_by"`
	ConflictingShifts []int64 `json:"conflicting_shifts,omitempty"`
}

// NewTimeOffDecidedEvent builds timeoff.approved or timeoff.denied depending
// on approved. Approved requests list the shift ids they now conflict with.
func NewTimeOffDecidedEvent(timeOffID, employeeID int64, approved bool, decidedBy int64, conflictingShifts []int64) *TimeOffDecidedEvent {
	eventType, status := EventTypeTimeOffDenied, "Denied"
	if approved {
		eventType, status = EventTypeTimeOffApproved, "Approved"
	}
	data := map[string]interface{}{
		"time_off_id": timeOffID,
		"status":      status,
		"decided_by":  decidedBy,
	}
	if len(conflictingShifts) > 0 {
		data["conflicting_shifts"] = conflictingShifts
	}
	return &TimeOffDecidedEvent{
		EmployeeEvent:     newEmployeeEvent(eventType, employeeID, data),
		TimeOffID:         timeOffID,
		Status:            status,
		DecidedBy:         decidedBy,
		ConflictingShifts: conflictingShifts,
	}
}
