// Package memory is an in-process schedule.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
)

var _ schedule.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	employees map[int64]schedule.EmployeeRef
	shifts    map[int64]schedule.Shift
	timeOff   map[int64]schedule.TimeOffRequest
	nextID    int64
	failWith  error

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		employees: make(map[int64]schedule.EmployeeRef),
		shifts:    make(map[int64]schedule.Shift),
		timeOff:   make(map[int64]schedule.TimeOffRequest),
		locks:     make(map[int64]*sync.Mutex),
	}
}

// PutEmployee adds or replaces an employee record.
func (m *Store) PutEmployee(emp schedule.EmployeeRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
}

// FailWith makes every later call fail with STORE_UNAVAILABLE wrapping err.
// A nil err restores normal behaviour.
func (m *Store) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Store) failed(op string) error {
	if m.failWith != nil {
		return internal.NewStoreUnavailableError(op, m.failWith)
	}
	return nil
}

func (m *Store) GetEmployee(_ context.Context, id int64) (*schedule.EmployeeRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("get employee"); err != nil {
		return nil, err
	}
	emp, ok := m.employees[id]
	if !ok {
		return nil, internal.ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *Store) ShiftsForEmployeeOnDate(_ context.Context, employeeID int64, date time.Time) ([]*schedule.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("load shifts"); err != nil {
		return nil, err
	}
	day := schedule.DateOf(date)
	return m.collectShifts(func(s schedule.Shift) bool {
		return s.EmployeeID == employeeID && s.Date.Equal(day)
	}), nil
}

func (m *Store) ShiftsForEmployeeInRange(_ context.Context, employeeID int64, from, to time.Time) ([]*schedule.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("load shifts"); err != nil {
		return nil, err
	}
	dates := schedule.NewDateRange(from, to)
	return m.collectShifts(func(s schedule.Shift) bool {
		return s.EmployeeID == employeeID && dates.Contains(s.Date)
	}), nil
}

func (m *Store) ShiftsInRange(_ context.Context, from, to time.Time) ([]*schedule.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("list shifts"); err != nil {
		return nil, err
	}
	dates := schedule.NewDateRange(from, to)
	return m.collectShifts(func(s schedule.Shift) bool {
		return dates.Contains(s.Date)
	}), nil
}

// collectShifts expects m.mu to be held.
func (m *Store) collectShifts(keep func(schedule.Shift) bool) []*schedule.Shift {
	result := make([]*schedule.Shift, 0)
	for _, s := range m.shifts {
		if !keep(s) {
			continue
		}
		shift := s
		if emp, ok := m.employees[s.EmployeeID]; ok {
			shift.EmployeeName = emp.Name
		}
		result = append(result, &shift)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
	return result
}

func (m *Store) GetShift(_ context.Context, id int64) (*schedule.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("get shift"); err != nil {
		return nil, err
	}
	s, ok := m.shifts[id]
	if !ok {
		return nil, internal.ErrShiftNotFound
	}
	return &s, nil
}

func (m *Store) InsertShift(_ context.Context, shift *schedule.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("insert shift"); err != nil {
		return err
	}
	m.nextID++
	shift.ID = m.nextID
	shift.Date = schedule.DateOf(shift.Date)
	m.shifts[shift.ID] = *shift
	return nil
}

func (m *Store) DeleteShift(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("delete shift"); err != nil {
		return err
	}
	if _, ok := m.shifts[id]; !ok {
		return internal.ErrShiftNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *Store) HasApprovedTimeOffOn(_ context.Context, employeeID int64, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("check time off"); err != nil {
		return false, err
	}
	for _, req := range m.timeOff {
		if req.EmployeeID == employeeID && req.Covers(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) PendingTimeOff(_ context.Context) ([]*schedule.TimeOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("load time off"); err != nil {
		return nil, err
	}
	return m.collectTimeOff(func(r schedule.TimeOffRequest) bool {
		return r.Status == schedule.StatusPending
	}), nil
}

// collectTimeOff expects m.mu to be held.
func (m *Store) collectTimeOff(keep func(schedule.TimeOffRequest) bool) []*schedule.TimeOffRequest {
	result := make([]*schedule.TimeOffRequest, 0)
	for _, r := range m.timeOff {
		if keep(r) {
			result = append(result, m.withEmployeeName(r))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *Store) InsertTimeOff(_ context.Context, req *schedule.TimeOffRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("insert time off"); err != nil {
		return err
	}
	m.nextID++
	req.ID = m.nextID
	m.timeOff[req.ID] = *req
	return nil
}

func (m *Store) GetTimeOff(_ context.Context, id int64) (*schedule.TimeOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failed("get time off"); err != nil {
		return nil, err
	}
	req, ok := m.timeOff[id]
	if !ok {
		return nil, internal.ErrTimeOffNotFound
	}
	return m.withEmployeeName(req), nil
}

// withEmployeeName expects m.mu to be held.
func (m *Store) withEmployeeName(r schedule.TimeOffRequest) *schedule.TimeOffRequest {
	if emp, ok := m.employees[r.EmployeeID]; ok {
		r.EmployeeName = emp.Name
	}
	return &r
}

func (m *Store) UpdateTimeOffStatus(_ context.Context, id int64, status schedule.TimeOffStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("update time off"); err != nil {
		return false, err
	}
	req, ok := m.timeOff[id]
	if !ok {
		return false, internal.ErrTimeOffNotFound
	}
	if !req.IsPending() {
		return false, nil
	}
	req.ApplyDecision(status, decidedBy, decidedAt)
	m.timeOff[id] = req
	return true, nil
}

func (m *Store) employeeLock(employeeID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[employeeID] = l
	}
	return l
}

// WithinEmployee holds the employee's lock while fn runs. Writes made by fn
// are applied immediately; fn performs them only after its checks pass.
func (m *Store) WithinEmployee(ctx context.Context, employeeID int64, fn func(tx schedule.Store) error) error {
	if _, err := m.GetEmployee(ctx, employeeID); err != nil {
		return err
	}

	l := m.employeeLock(employeeID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return internal.NewStoreUnavailableError("begin unit", err)
	}
	return fn(m)
}
