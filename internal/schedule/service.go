package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/core/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/frahmantamala/restaurant-ops/internal/schedule"

// ShiftProposal is a shift that has not been admitted yet.
type ShiftProposal struct {
	EmployeeID int64
	Date       time.Time
	Start      TimeOfDay
	End        TimeOfDay
}

func (p ShiftProposal) Interval() Interval {
	return Interval{Start: p.Start, End: p.End}
}

type TimeOffProposal struct {
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// DecisionResult is a decided request plus, for approvals, the already
// scheduled shifts that fall inside it. Those shifts are left in place.
type DecisionResult struct {
	Request           *TimeOffRequest
	ConflictingShifts []*Shift
}

// CheckResult is the admission verdict for one proposal of a batch.
type CheckResult struct {
	Index      int
	Proposal   ShiftProposal
	Admissible bool
	Reason     internal.ErrorCode
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time
}

// NewService builds the scheduling engine. publisher may be nil.
func NewService(store Store, publisher Publisher, logger *slog.Logger, queryTimeout time.Duration) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		timeout:   queryTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, context.CancelFunc) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span, cancel
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(internal.ReasonOf(err)))
	}
	span.End()
}

// HasOverlap reports whether the employee already has a shift on date that
// overlaps [start, end).
func (s *Service) HasOverlap(ctx context.Context, employeeID int64, date time.Time, start, end TimeOfDay) (overlaps bool, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.HasOverlap", attribute.Int64("employee.id", employeeID))
	defer cancel()
	defer func() { finish(span, err) }()

	interval := Interval{Start: start, End: end}
	if !interval.Valid() {
		return false, internal.ErrInvalidInterval
	}
	return s.overlapsExisting(ctx, s.store, employeeID, DateOf(date), interval)
}

// IsDuringApprovedTimeOff reports whether date falls inside any approved
// time-off request of the employee. Pending and denied requests never count.
func (s *Service) IsDuringApprovedTimeOff(ctx context.Context, employeeID int64, date time.Time) (onLeave bool, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.IsDuringApprovedTimeOff", attribute.Int64("employee.id", employeeID))
	defer cancel()
	defer func() { finish(span, err) }()

	return s.store.HasApprovedTimeOffOn(ctx, employeeID, DateOf(date))
}

// TryScheduleShift admits and persists a shift. Checks run in a fixed order
// and the first failure wins: interval, employee, approved time off, then
// overlap with existing shifts.
func (s *Service) TryScheduleShift(ctx context.Context, proposal ShiftProposal) (shift *Shift, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.TryScheduleShift",
		attribute.Int64("employee.id", proposal.EmployeeID),
		attribute.String("shift.date", FormatDate(proposal.Date)))
	defer cancel()
	defer func() { finish(span, err) }()

	date := DateOf(proposal.Date)
	interval := proposal.Interval()
	if !interval.Valid() {
		s.logger.Info("shift rejected", "employee_id", proposal.EmployeeID, "reason", internal.ErrCodeInvalidInterval,
			"start", proposal.Start.String(), "end", proposal.End.String())
		return nil, internal.ErrInvalidInterval
	}

	err = s.store.WithinEmployee(ctx, proposal.EmployeeID, func(tx Store) error {
		if err := s.requireActiveEmployee(ctx, tx, proposal.EmployeeID); err != nil {
			return err
		}
		if err := s.admit(ctx, tx, proposal.EmployeeID, date, interval); err != nil {
			return err
		}
		candidate := NewShift(proposal.EmployeeID, date, interval)
		candidate.CreatedAt = s.now()
		if err := tx.InsertShift(ctx, candidate); err != nil {
			return err
		}
		shift = candidate
		return nil
	})
	if err != nil {
		s.logRejection("shift rejected", err, "employee_id", proposal.EmployeeID, "date", FormatDate(date), "interval", interval.String())
		return nil, err
	}

	s.logger.Info("shift scheduled",
		"shift_id", shift.ID,
		"employee_id", shift.EmployeeID,
		"date", FormatDate(shift.Date),
		"interval", interval.String())
	s.publish(ctx, events.NewShiftScheduledEvent(shift.ID, shift.EmployeeID, FormatDate(shift.Date), shift.Start.String(), shift.End.String()))
	return shift, nil
}

// CheckShifts runs admission for every proposal without writing anything.
// Proposals admitted earlier in the batch count as existing shifts for the
// ones after them.
func (s *Service) CheckShifts(ctx context.Context, proposals []ShiftProposal) (results []CheckResult, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.CheckShifts", attribute.Int("batch.size", len(proposals)))
	defer cancel()
	defer func() { finish(span, err) }()

	type dayKey struct {
		employeeID int64
		date       time.Time
	}
	accepted := make(map[dayKey][]Interval)
	employees := make(map[int64]error)

	results = make([]CheckResult, 0, len(proposals))
	for i, p := range proposals {
		result := CheckResult{Index: i, Proposal: p}
		date := DateOf(p.Date)
		interval := p.Interval()

		verdict := func() error {
			if !interval.Valid() {
				return internal.ErrInvalidInterval
			}
			empErr, seen := employees[p.EmployeeID]
			if !seen {
				empErr = s.requireActiveEmployee(ctx, s.store, p.EmployeeID)
				employees[p.EmployeeID] = empErr
			}
			if empErr != nil {
				return empErr
			}
			if err := s.admit(ctx, s.store, p.EmployeeID, date, interval); err != nil {
				return err
			}
			for _, other := range accepted[dayKey{p.EmployeeID, date}] {
				if interval.Overlaps(other) {
					return internal.ErrShiftOverlap
				}
			}
			return nil
		}()

		if verdict != nil {
			if internal.ReasonOf(verdict) == internal.ErrCodeStoreUnavailable {
				return nil, verdict
			}
			result.Reason = internal.ReasonOf(verdict)
		} else {
			result.Admissible = true
			key := dayKey{p.EmployeeID, date}
			accepted[key] = append(accepted[key], interval)
		}
		results = append(results, result)
	}
	return results, nil
}

// CancelShift removes a shift. It never touches time-off requests.
func (s *Service) CancelShift(ctx context.Context, shiftID int64) (err error) {
	ctx, span, cancel := s.start(ctx, "schedule.CancelShift", attribute.Int64("shift.id", shiftID))
	defer cancel()
	defer func() { finish(span, err) }()

	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return err
	}

	err = s.store.WithinEmployee(ctx, shift.EmployeeID, func(tx Store) error {
		return tx.DeleteShift(ctx, shiftID)
	})
	if err != nil {
		s.logRejection("shift cancellation failed", err, "shift_id", shiftID)
		return err
	}

	s.logger.Info("shift cancelled", "shift_id", shiftID, "employee_id", shift.EmployeeID)
	s.publish(ctx, events.NewShiftCancelledEvent(shiftID, shift.EmployeeID, FormatDate(shift.Date)))
	return nil
}

// ListShifts returns every shift whose date lies in [from, to], ordered by
// date then start time.
func (s *Service) ListShifts(ctx context.Context, from, to time.Time) (shifts []*Shift, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.ListShifts",
		attribute.String("range.from", FormatDate(from)),
		attribute.String("range.to", FormatDate(to)))
	defer cancel()
	defer func() { finish(span, err) }()

	dates := NewDateRange(from, to)
	if !dates.Valid() {
		return nil, internal.ErrInvalidDateRange
	}

	shifts, err = s.store.ShiftsInRange(ctx, dates.Start, dates.End)
	if err != nil {
		s.logger.Error("failed to list shifts", "range", dates.String(), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("shifts.count", len(shifts)))
	return shifts, nil
}

// RequestTimeOff records a new Pending request for an active employee.
func (s *Service) RequestTimeOff(ctx context.Context, proposal TimeOffProposal) (req *TimeOffRequest, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.RequestTimeOff", attribute.Int64("employee.id", proposal.EmployeeID))
	defer cancel()
	defer func() { finish(span, err) }()

	dates := NewDateRange(proposal.StartDate, proposal.EndDate)
	if !dates.Valid() {
		return nil, internal.ErrInvalidDateRange
	}

	err = s.store.WithinEmployee(ctx, proposal.EmployeeID, func(tx Store) error {
		if err := s.requireActiveEmployee(ctx, tx, proposal.EmployeeID); err != nil {
			return err
		}
		candidate := NewTimeOffRequest(proposal.EmployeeID, dates, proposal.Reason)
		candidate.CreatedAt = s.now()
		candidate.UpdatedAt = candidate.CreatedAt
		if err := tx.InsertTimeOff(ctx, candidate); err != nil {
			return err
		}
		req = candidate
		return nil
	})
	if err != nil {
		s.logRejection("time-off request rejected", err, "employee_id", proposal.EmployeeID, "range", dates.String())
		return nil, err
	}

	s.logger.Info("time-off requested", "time_off_id", req.ID, "employee_id", req.EmployeeID, "range", dates.String())
	s.publish(ctx, events.NewTimeOffRequestedEvent(req.ID, req.EmployeeID, FormatDate(req.StartDate), FormatDate(req.EndDate)))
	return req, nil
}

// Decide moves a Pending request to Approved or Denied exactly once. Any
// later decision, including a repeat of the same one, fails with
// ALREADY_DECIDED.
func (s *Service) Decide(ctx context.Context, timeOffID int64, decision TimeOffStatus, decidedBy int64) (result *DecisionResult, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.Decide",
		attribute.Int64("time_off.id", timeOffID),
		attribute.String("time_off.decision", string(decision)))
	defer cancel()
	defer func() { finish(span, err) }()

	if !decision.IsDecision() {
		return nil, internal.ErrInvalidDecision
	}

	req, err := s.store.GetTimeOff(ctx, timeOffID)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		s.logger.Info("time-off decision rejected", "time_off_id", timeOffID, "status", req.Status, "reason", internal.ErrCodeAlreadyDecided)
		return nil, internal.ErrAlreadyDecided
	}

	err = s.store.WithinEmployee(ctx, req.EmployeeID, func(tx Store) error {
		decidedAt := s.now()
		updated, err := tx.UpdateTimeOffStatus(ctx, timeOffID, decision, decidedBy, decidedAt)
		if err != nil {
			return err
		}
		if !updated {
			return internal.ErrAlreadyDecided
		}
		req.ApplyDecision(decision, decidedBy, decidedAt)

		result = &DecisionResult{Request: req}
		if decision == StatusApproved {
			conflicts, err := tx.ShiftsForEmployeeInRange(ctx, req.EmployeeID, req.StartDate, req.EndDate)
			if err != nil {
				return err
			}
			result.ConflictingShifts = conflicts
		}
		return nil
	})
	if err != nil {
		s.logRejection("time-off decision rejected", err, "time_off_id", timeOffID)
		return nil, err
	}

	shiftIDs := make([]int64, 0, len(result.ConflictingShifts))
	for _, sh := range result.ConflictingShifts {
		shiftIDs = append(shiftIDs, sh.ID)
	}
	if len(shiftIDs) > 0 {
		s.logger.Warn("approved time off overlaps scheduled shifts",
			"time_off_id", timeOffID,
			"employee_id", req.EmployeeID,
			"shift_ids", shiftIDs)
	}
	s.logger.Info("time-off decided", "time_off_id", timeOffID, "status", decision, "decided_by", decidedBy)
	s.publish(ctx, events.NewTimeOffDecidedEvent(timeOffID, req.EmployeeID, decision == StatusApproved, decidedBy, shiftIDs))
	return result, nil
}

// ListPendingTimeOff returns undecided requests, oldest first.
func (s *Service) ListPendingTimeOff(ctx context.Context) (reqs []*TimeOffRequest, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.ListPendingTimeOff")
	defer cancel()
	defer func() { finish(span, err) }()

	return s.store.PendingTimeOff(ctx)
}

// ConflictingShifts lists the employee's shifts that fall inside the
// request's dates, whatever the request's status.
func (s *Service) ConflictingShifts(ctx context.Context, timeOffID int64) (shifts []*Shift, err error) {
	ctx, span, cancel := s.start(ctx, "schedule.ConflictingShifts", attribute.Int64("time_off.id", timeOffID))
	defer cancel()
	defer func() { finish(span, err) }()

	req, err := s.store.GetTimeOff(ctx, timeOffID)
	if err != nil {
		return nil, err
	}
	return s.store.ShiftsForEmployeeInRange(ctx, req.EmployeeID, req.StartDate, req.EndDate)
}

func (s *Service) requireActiveEmployee(ctx context.Context, st Store, employeeID int64) error {
	emp, err := st.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if !emp.IsActive {
		return internal.ErrEmployeeInactive
	}
	return nil
}

// admit applies the time-off check before the overlap check.
func (s *Service) admit(ctx context.Context, st Store, employeeID int64, date time.Time, interval Interval) error {
	onLeave, err := st.HasApprovedTimeOffOn(ctx, employeeID, date)
	if err != nil {
		return err
	}
	if onLeave {
		return internal.ErrApprovedTimeOffConflict
	}

	overlaps, err := s.overlapsExisting(ctx, st, employeeID, date, interval)
	if err != nil {
		return err
	}
	if overlaps {
		return internal.ErrShiftOverlap
	}
	return nil
}

func (s *Service) overlapsExisting(ctx context.Context, st Store, employeeID int64, date time.Time, interval Interval) (bool, error) {
	existing, err := st.ShiftsForEmployeeOnDate(ctx, employeeID, date)
	if err != nil {
		return false, err
	}
	for _, shift := range existing {
		if interval.Overlaps(shift.Interval()) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
	}
}

func (s *Service) logRejection(msg string, err error, fields ...any) {
	fields = append(fields, "reason", internal.ReasonOf(err), "error", err)
	if internal.ReasonOf(err) == internal.ErrCodeStoreUnavailable {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}
