package schedule_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
	"github.com/frahmantamala/restaurant-ops/internal/schedule/memory"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schedule Handler", func() {
	var (
		router  chi.Router
		store   *memory.Store
		service *schedule.Service
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		store = memory.NewStore()
		store.PutEmployee(schedule.EmployeeRef{ID: 1, Name: "Alice Cook", IsActive: true})
		service = schedule.NewService(store, nil, slogger, time.Second)
		handler := schedule.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := internal.ContextWithPrincipal(r.Context(), &internal.Principal{ID: 99, Permissions: []string{"admin"}})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/shifts", handler.ListShifts)
		router.Post("/shifts", handler.CreateShift)
		router.Post("/shifts/check", handler.CheckShifts)
		router.Delete("/shifts/{id}", handler.CancelShift)
		router.Post("/time-off", handler.CreateTimeOff)
		router.Get("/time-off/pending", handler.ListPendingTimeOff)
		router.Get("/time-off/{id}/conflicts", handler.TimeOffConflicts)
		router.Patch("/time-off/{id}/decision", handler.DecideTimeOff)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Error.Code
	}

	It("creates a shift and lists it back", func() {
		w := do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-10", StartTime: "09:00", EndTime: "17:00"})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created schedule.ShiftResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).NotTo(BeZero())
		Expect(created.Date).To(Equal("2024-06-10"))
		Expect(created.StartTime).To(Equal("09:00"))

		w = do(http.MethodGet, "/shifts?start=2024-06-10&end=2024-06-10", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list schedule.ShiftsResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Shifts).To(HaveLen(1))
		Expect(list.Shifts[0].EmployeeName).To(Equal("Alice Cook"))
	})

	It("maps rejections onto status codes", func() {
		w := do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-10", StartTime: "17:00", EndTime: "09:00"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_INTERVAL"))

		Expect(do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-10", StartTime: "09:00", EndTime: "17:00"}).Code).
			To(Equal(http.StatusCreated))
		w = do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-10", StartTime: "16:00", EndTime: "20:00"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("SHIFT_OVERLAP"))

		w = do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 2, Date: "2024-06-10", StartTime: "09:00", EndTime: "17:00"})
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(w)).To(Equal("EMPLOYEE_NOT_FOUND"))
	})

	It("rejects malformed input before reaching the engine", func() {
		w := do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "10/06/2024", StartTime: "9am", EndTime: "17:00"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("VALIDATION_FAILED"))

		w = do(http.MethodGet, "/shifts?start=2024-06-11", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodGet, "/shifts?start=2024-06-11&end=2024-06-10", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_DATE_RANGE"))

		w = do(http.MethodDelete, "/shifts/abc", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("runs the time-off workflow", func() {
		w := do(http.MethodPost, "/time-off", schedule.CreateTimeOffRequest{EmployeeID: 1, StartDate: "2024-06-15", EndDate: "2024-06-20", Reason: "vacation"})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created schedule.TimeOffResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Status).To(Equal("Pending"))

		w = do(http.MethodGet, "/time-off/pending", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var pending schedule.TimeOffListResponse
		Expect(json.NewDecoder(w.Body).Decode(&pending)).To(Succeed())
		Expect(pending.Requests).To(HaveLen(1))
		Expect(pending.Requests[0].EmployeeName).To(Equal("Alice Cook"))

		w = do(http.MethodPatch, "/time-off/"+jsonID(created.ID)+"/decision", schedule.DecisionRequest{Status: "Maybe"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal("INVALID_DECISION"))

		w = do(http.MethodPatch, "/time-off/"+jsonID(created.ID)+"/decision", schedule.DecisionRequest{Status: "Approved"})
		Expect(w.Code).To(Equal(http.StatusOK))
		var decided schedule.DecisionResponse
		Expect(json.NewDecoder(w.Body).Decode(&decided)).To(Succeed())
		Expect(decided.Request.Status).To(Equal("Approved"))
		Expect(*decided.Request.DecidedBy).To(Equal(int64(99)))

		w = do(http.MethodPatch, "/time-off/"+jsonID(created.ID)+"/decision", schedule.DecisionRequest{Status: "Approved"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("ALREADY_DECIDED"))

		w = do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-17", StartTime: "09:00", EndTime: "17:00"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("APPROVED_TIME_OFF_CONFLICT"))

		w = do(http.MethodGet, "/time-off/"+jsonID(created.ID)+"/conflicts", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("checks a batch and cancels shifts", func() {
		w := do(http.MethodPost, "/shifts/check", schedule.CheckShiftsRequest{Shifts: []schedule.CreateShiftRequest{
			{EmployeeID: 1, Date: "2024-06-10", StartTime: "09:00", EndTime: "17:00"},
			{EmployeeID: 1, Date: "2024-06-10", StartTime: "12:00", EndTime: "18:00"},
		}})
		Expect(w.Code).To(Equal(http.StatusOK))
		var checked schedule.CheckShiftsResponse
		Expect(json.NewDecoder(w.Body).Decode(&checked)).To(Succeed())
		Expect(checked.Results).To(HaveLen(2))
		Expect(checked.Results[0].Admissible).To(BeTrue())
		Expect(checked.Results[1].Reason).To(Equal("SHIFT_OVERLAP"))

		w = do(http.MethodPost, "/shifts", schedule.CreateShiftRequest{EmployeeID: 1, Date: "2024-06-10", StartTime: "09:00", EndTime: "17:00"})
		var created schedule.ShiftResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		Expect(do(http.MethodDelete, "/shifts/"+jsonID(created.ID), nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, "/shifts/"+jsonID(created.ID), nil).Code).To(Equal(http.StatusNotFound))
	})

	It("reports an unavailable store as 503", func() {
		store.FailWith(errBoom)
		w := do(http.MethodGet, "/time-off/pending", nil)
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(errorCode(w)).To(Equal("STORE_UNAVAILABLE"))
	})
})
