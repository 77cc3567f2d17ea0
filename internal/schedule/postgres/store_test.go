package postgres_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	employeeDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/employee"
	scheduleDatamodel "github.com/frahmantamala/restaurant-ops/internal/core/datamodel/schedule"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
	schedulePostgres "github.com/frahmantamala/restaurant-ops/internal/schedule/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSchedulePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Schedule Postgres Suite")
}

func mustDate(s string) time.Time {
	d, err := schedule.ParseDate(s)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Schedule Store", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		store   schedule.Store
		service *schedule.Service
		cook    *employeeDatamodel.Employee
		waiter  *employeeDatamodel.Employee
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&employeeDatamodel.Employee{}, &scheduleDatamodel.Shift{}, &scheduleDatamodel.TimeOffRequest{})
		Expect(err).NotTo(HaveOccurred())

		cook = &employeeDatamodel.Employee{FirstName: "Carla", LastName: "Cook", Role: "cook", IsActive: true}
		waiter = &employeeDatamodel.Employee{FirstName: "Walt", LastName: "Waiter", Role: "server", IsActive: true}
		Expect(db.Create(cook).Error).To(Succeed())
		Expect(db.Create(waiter).Error).To(Succeed())

		store = schedulePostgres.NewScheduleStore(db)
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = schedule.NewService(store, nil, slogger, 5*time.Second)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	shiftAt := func(employeeID int64, date string, startH, endH int) schedule.ShiftProposal {
		return schedule.ShiftProposal{
			EmployeeID: employeeID,
			Date:       mustDate(date),
			Start:      schedule.NewTimeOfDay(startH, 0),
			End:        schedule.NewTimeOfDay(endH, 0),
		}
	}

	Describe("shifts", func() {
		It("round-trips a shift with its employee name", func() {
			created, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 9, 17))
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeZero())

			got, err := store.GetShift(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Date).To(Equal(mustDate("2024-06-10")))
			Expect(got.Start).To(Equal(schedule.NewTimeOfDay(9, 0)))
			Expect(got.End).To(Equal(schedule.NewTimeOfDay(17, 0)))
			Expect(got.EmployeeName).To(Equal("Carla Cook"))
		})

		It("finds shifts by employee and exact date", func() {
			_, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 9, 17))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-11", 9, 17))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.TryScheduleShift(ctx, shiftAt(waiter.ID, "2024-06-10", 9, 17))
			Expect(err).NotTo(HaveOccurred())

			shifts, err := store.ShiftsForEmployeeOnDate(ctx, cook.ID, mustDate("2024-06-10"))
			Expect(err).NotTo(HaveOccurred())
			Expect(shifts).To(HaveLen(1))
			Expect(shifts[0].EmployeeID).To(Equal(cook.ID))
		})

		It("rejects overlaps and accepts back-to-back shifts", func() {
			_, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 9, 17))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 16, 20))
			Expect(err).To(MatchError(internal.ErrShiftOverlap))

			_, err = service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 17, 21))
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists a range ordered by date and start, inclusive on both ends", func() {
			for _, p := range []schedule.ShiftProposal{
				shiftAt(waiter.ID, "2024-06-12", 10, 18),
				shiftAt(cook.ID, "2024-06-10", 12, 20),
				shiftAt(waiter.ID, "2024-06-10", 6, 12),
				shiftAt(cook.ID, "2024-06-09", 9, 17),
				shiftAt(cook.ID, "2024-06-13", 9, 17),
			} {
				_, err := service.TryScheduleShift(ctx, p)
				Expect(err).NotTo(HaveOccurred())
			}

			shifts, err := service.ListShifts(ctx, mustDate("2024-06-10"), mustDate("2024-06-12"))
			Expect(err).NotTo(HaveOccurred())
			Expect(shifts).To(HaveLen(3))
			Expect(schedule.FormatDate(shifts[0].Date)).To(Equal("2024-06-10"))
			Expect(shifts[0].EmployeeName).To(Equal("Walt Waiter"))
			Expect(shifts[1].Start).To(Equal(schedule.NewTimeOfDay(12, 0)))
			Expect(schedule.FormatDate(shifts[2].Date)).To(Equal("2024-06-12"))
		})

		It("deletes shifts and reports missing ones", func() {
			created, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 9, 17))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.CancelShift(ctx, created.ID)).To(Succeed())
			_, err = store.GetShift(ctx, created.ID)
			Expect(err).To(MatchError(internal.ErrShiftNotFound))
			Expect(store.DeleteShift(ctx, created.ID)).To(MatchError(internal.ErrShiftNotFound))
		})

		It("reports unknown and inactive employees", func() {
			_, err := service.TryScheduleShift(ctx, shiftAt(4040, "2024-06-10", 9, 17))
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))

			Expect(db.Model(&employeeDatamodel.Employee{}).Where("id = ?", waiter.ID).Update("is_active", false).Error).To(Succeed())
			_, err = service.TryScheduleShift(ctx, shiftAt(waiter.ID, "2024-06-10", 9, 17))
			Expect(err).To(MatchError(internal.ErrEmployeeInactive))
		})

		It("admits exactly one of several concurrent overlapping proposals", func() {
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				ok       int
				rejected int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-10", 9+i%3, 18))
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						ok++
					} else if internal.ReasonOf(err) == internal.ErrCodeShiftOverlap {
						rejected++
					}
				}(i)
			}
			wg.Wait()

			Expect(ok).To(Equal(1))
			Expect(rejected).To(Equal(7))
			var count int64
			Expect(db.Model(&scheduleDatamodel.Shift{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("time off", func() {
		var req *schedule.TimeOffRequest

		BeforeEach(func() {
			var err error
			req, err = service.RequestTimeOff(ctx, schedule.TimeOffProposal{
				EmployeeID: cook.ID, StartDate: mustDate("2024-06-15"), EndDate: mustDate("2024-06-20"), Reason: "wedding",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("stores new requests as pending and lists them oldest first", func() {
			later, err := service.RequestTimeOff(ctx, schedule.TimeOffProposal{
				EmployeeID: waiter.ID, StartDate: mustDate("2024-07-01"), EndDate: mustDate("2024-07-02"),
			})
			Expect(err).NotTo(HaveOccurred())

			pending, err := store.PendingTimeOff(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))
			Expect(pending[0].ID).To(Equal(req.ID))
			Expect(pending[0].Status).To(Equal(schedule.StatusPending))
			Expect(pending[0].Reason).To(Equal("wedding"))
			Expect(pending[0].EmployeeName).To(Equal("Carla Cook"))
			Expect(pending[1].ID).To(Equal(later.ID))
			Expect(pending[1].EmployeeName).To(Equal("Walt Waiter"))

			got, err := store.GetTimeOff(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.EmployeeName).To(Equal("Carla Cook"))
		})

		It("updates status only from pending", func() {
			decidedAt := time.Now().UTC()
			updated, err := store.UpdateTimeOffStatus(ctx, req.ID, schedule.StatusApproved, 1, decidedAt)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeTrue())

			updated, err = store.UpdateTimeOffStatus(ctx, req.ID, schedule.StatusDenied, 1, decidedAt)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeFalse())

			got, err := store.GetTimeOff(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(schedule.StatusApproved))
			Expect(*got.DecidedBy).To(Equal(int64(1)))
		})

		It("answers date membership for approved requests only", func() {
			onLeave, err := store.HasApprovedTimeOffOn(ctx, cook.ID, mustDate("2024-06-15"))
			Expect(err).NotTo(HaveOccurred())
			Expect(onLeave).To(BeFalse())

			_, err = service.Decide(ctx, req.ID, schedule.StatusApproved, 1)
			Expect(err).NotTo(HaveOccurred())

			for date, want := range map[string]bool{
				"2024-06-14": false,
				"2024-06-15": true,
				"2024-06-17": true,
				"2024-06-20": true,
				"2024-06-21": false,
			} {
				onLeave, err := store.HasApprovedTimeOffOn(ctx, cook.ID, mustDate(date))
				Expect(err).NotTo(HaveOccurred())
				Expect(onLeave).To(Equal(want), date)
			}
		})

		It("returns conflicting shifts on approval and blocks new ones", func() {
			existing, err := service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-17", 9, 17))
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Decide(ctx, req.ID, schedule.StatusApproved, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ConflictingShifts).To(HaveLen(1))
			Expect(result.ConflictingShifts[0].ID).To(Equal(existing.ID))

			_, err = service.TryScheduleShift(ctx, shiftAt(cook.ID, "2024-06-18", 9, 17))
			Expect(err).To(MatchError(internal.ErrApprovedTimeOffConflict))

			_, err = service.Decide(ctx, req.ID, schedule.StatusApproved, 1)
			Expect(err).To(MatchError(internal.ErrAlreadyDecided))
		})

		It("reports unknown requests", func() {
			_, err := store.GetTimeOff(ctx, 9999)
			Expect(err).To(MatchError(internal.ErrTimeOffNotFound))
		})
	})

	It("surfaces a closed database as STORE_UNAVAILABLE", func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())

		_, err = store.PendingTimeOff(ctx)
		Expect(internal.ReasonOf(err)).To(Equal(internal.ErrCodeStoreUnavailable))

		// reopen so AfterEach has something to close
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
	})
})
