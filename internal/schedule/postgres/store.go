package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	scheduleDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/schedule"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScheduleStore is the gorm implementation of schedule.Store. Per-employee
// serialization comes from SELECT ... FOR UPDATE on the employee row.
type ScheduleStore struct {
	db *gorm.DB
}

func NewScheduleStore(db *gorm.DB) schedule.Store {
	return &ScheduleStore{db: db}
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewStoreUnavailableError(op, err)
}

func (s *ScheduleStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *ScheduleStore) GetEmployee(ctx context.Context, id int64) (*schedule.EmployeeRef, error) {
	var emp employeeDatamodel.Employee
	err := s.conn(ctx).Where("id = ?", id).Take(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, unavailable("get employee", err)
	}
	return schedule.EmployeeRefFromDataModel(&emp), nil
}

func (s *ScheduleStore) findShifts(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]*schedule.Shift, error) {
	var rows []*scheduleDatamodel.Shift
	err := scope(s.conn(ctx).Preload("Employee")).
		Order("shift_date ASC").
		Order("start_minute ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, unavailable(op, err)
	}

	shifts := make([]*schedule.Shift, 0, len(rows))
	for _, row := range rows {
		shifts = append(shifts, schedule.ShiftFromDataModel(row))
	}
	return shifts, nil
}

func (s *ScheduleStore) ShiftsForEmployeeOnDate(ctx context.Context, employeeID int64, date time.Time) ([]*schedule.Shift, error) {
	return s.findShifts(ctx, "load shifts", func(db *gorm.DB) *gorm.DB {
		return db.Where("employee_id = ? AND shift_date = ?", employeeID, schedule.DateOf(date))
	})
}

func (s *ScheduleStore) ShiftsForEmployeeInRange(ctx context.Context, employeeID int64, from, to time.Time) ([]*schedule.Shift, error) {
	return s.findShifts(ctx, "load shifts", func(db *gorm.DB) *gorm.DB {
		return db.Where("employee_id = ? AND shift_date >= ? AND shift_date <= ?", employeeID, schedule.DateOf(from), schedule.DateOf(to))
	})
}

func (s *ScheduleStore) ShiftsInRange(ctx context.Context, from, to time.Time) ([]*schedule.Shift, error) {
	return s.findShifts(ctx, "list shifts", func(db *gorm.DB) *gorm.DB {
		return db.Where("shift_date >= ? AND shift_date <= ?", schedule.DateOf(from), schedule.DateOf(to))
	})
}

func (s *ScheduleStore) GetShift(ctx context.Context, id int64) (*schedule.Shift, error) {
	var row scheduleDatamodel.Shift
	err := s.conn(ctx).Preload("Employee").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrShiftNotFound
		}
		return nil, unavailable("get shift", err)
	}
	return schedule.ShiftFromDataModel(&row), nil
}

func (s *ScheduleStore) InsertShift(ctx context.Context, shift *schedule.Shift) error {
	row := schedule.ShiftToDataModel(shift)
	if err := s.conn(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return unavailable("insert shift", err)
	}
	shift.ID = row.ID
	shift.CreatedAt = row.CreatedAt
	return nil
}

func (s *ScheduleStore) DeleteShift(ctx context.Context, id int64) error {
	result := s.conn(ctx).Where("id = ?", id).Delete(&scheduleDatamodel.Shift{})
	if result.Error != nil {
		return unavailable("delete shift", result.Error)
	}
	if result.RowsAffected == 0 {
		return internal.ErrShiftNotFound
	}
	return nil
}

func (s *ScheduleStore) HasApprovedTimeOffOn(ctx context.Context, employeeID int64, date time.Time) (bool, error) {
	var count int64
	day := schedule.DateOf(date)
	err := s.conn(ctx).Model(&scheduleDatamodel.TimeOffRequest{}).
		Where("employee_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			employeeID, string(schedule.StatusApproved), day, day).
		Count(&count).Error
	if err != nil {
		return false, unavailable("check time off", err)
	}
	return count > 0, nil
}

func (s *ScheduleStore) findTimeOff(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]*schedule.TimeOffRequest, error) {
	var rows []*scheduleDatamodel.TimeOffRequest
	err := scope(s.conn(ctx).Preload("Employee")).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, unavailable(op, err)
	}

	reqs := make([]*schedule.TimeOffRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, schedule.TimeOffFromDataModel(row))
	}
	return reqs, nil
}

func (s *ScheduleStore) PendingTimeOff(ctx context.Context) ([]*schedule.TimeOffRequest, error) {
	return s.findTimeOff(ctx, "load time off", func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", string(schedule.StatusPending))
	})
}

func (s *ScheduleStore) InsertTimeOff(ctx context.Context, req *schedule.TimeOffRequest) error {
	row := schedule.TimeOffToDataModel(req)
	if err := s.conn(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return unavailable("insert time off", err)
	}
	req.ID = row.ID
	return nil
}

func (s *ScheduleStore) GetTimeOff(ctx context.Context, id int64) (*schedule.TimeOffRequest, error) {
	var row scheduleDatamodel.TimeOffRequest
	err := s.conn(ctx).Preload("Employee").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTimeOffNotFound
		}
		return nil, unavailable("get time off", err)
	}
	return schedule.TimeOffFromDataModel(&row), nil
}

// UpdateTimeOffStatus only matches rows still Pending, so a lost race shows
// up as zero rows affected.
func (s *ScheduleStore) UpdateTimeOffStatus(ctx context.Context, id int64, status schedule.TimeOffStatus, decidedBy int64, decidedAt time.Time) (bool, error) {
	result := s.conn(ctx).Model(&scheduleDatamodel.TimeOffRequest{}).
		Where("id = ? AND status = ?", id, string(schedule.StatusPending)).
		Updates(map[string]interface{}{
			"status":     string(status),
			"decided_by": decidedBy,
			"decided_at": decidedAt,
			"updated_at": decidedAt,
		})
	if result.Error != nil {
		return false, unavailable("update time off", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// WithinEmployee opens a transaction and locks the employee row before
// running fn. Concurrent units for the same employee queue on that lock.
func (s *ScheduleStore) WithinEmployee(ctx context.Context, employeeID int64, fn func(tx schedule.Store) error) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var emp employeeDatamodel.Employee
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", employeeID).
			Take(&emp).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrEmployeeNotFound
			}
			return unavailable("lock employee", err)
		}
		return fn(&ScheduleStore{db: tx})
	})
	return unavailable("commit", err)
}
