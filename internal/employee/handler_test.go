package employee_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal/employee"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Employee Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := employee.NewService(NewMockRepository(), slogger, time.Second)
		handler := employee.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/employees", handler.ListEmployees)
		router.Post("/employees", handler.CreateEmployee)
		router.Get("/employees/{id}", handler.GetEmployee)
		router.Patch("/employees/{id}", handler.UpdateEmployee)
		router.Post("/employees/{id}/deactivate", handler.DeactivateEmployee)
		router.Delete("/employees/{id}", handler.DeleteEmployee)
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

	createAda := func() employee.EmployeeResponse {
		w := do(http.MethodPost, "/employees", employee.CreateEmployeeRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: employee.RoleCook, HireDate: "2023-01-15",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp employee.EmployeeResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	It("creates and fetches an employee", func() {
		created := createAda()
		Expect(created.FullName).To(Equal("Ada Lovelace"))
		Expect(created.IsActive).To(BeTrue())

		w := do(http.MethodGet, "/employees/"+strconv.FormatInt(created.ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var got employee.EmployeeResponse
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.HireDate).To(Equal("2023-01-15"))
	})

	It("rejects invalid bodies", func() {
		w := do(http.MethodPost, "/employees", employee.CreateEmployeeRequest{FirstName: "Ada", Role: "juggler"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		req := httptest.NewRequest(http.MethodPost, "/employees", bytes.NewBufferString(`{"first_name":"A","nickname":"x"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 409 for a taken email", func() {
		createAda()
		w := do(http.MethodPost, "/employees", employee.CreateEmployeeRequest{FirstName: "B", LastName: "C", Email: "ada@example.com", Role: employee.RoleHost})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("deactivates and filters the listing", func() {
		created := createAda()
		w := do(http.MethodPost, "/employees/"+strconv.FormatInt(created.ID, 10)+"/deactivate", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/employees", nil)
		var list employee.EmployeesResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Employees).To(BeEmpty())

		w = do(http.MethodGet, "/employees?include_inactive=true", nil)
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Employees).To(HaveLen(1))
		Expect(list.Employees[0].IsActive).To(BeFalse())

		Expect(do(http.MethodGet, "/employees?include_inactive=maybe", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("updates and deletes", func() {
		created := createAda()
		path := "/employees/" + strconv.FormatInt(created.ID, 10)

		role := employee.RoleManager
		w := do(http.MethodPatch, path, employee.UpdateEmployeeRequest{Role: &role})
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated employee.EmployeeResponse
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Role).To(Equal(employee.RoleManager))

		Expect(do(http.MethodDelete, path, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, path, nil).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/employees/0", nil).Code).To(Equal(http.StatusBadRequest))
	})
})
