package schedule

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
)

type ServiceAPI interface {
	TryScheduleShift(ctx context.Context, proposal ShiftProposal) (*Shift, error)
	CheckShifts(ctx context.Context, proposals []ShiftProposal) ([]CheckResult, error)
	CancelShift(ctx context.Context, shiftID int64) error
	ListShifts(ctx context.Context, from, to time.Time) ([]*Shift, error)
	RequestTimeOff(ctx context.Context, proposal TimeOffProposal) (*TimeOffRequest, error)
	Decide(ctx context.Context, timeOffID int64, decision TimeOffStatus, decidedBy int64) (*DecisionResult, error)
	ListPendingTimeOff(ctx context.Context) ([]*TimeOffRequest, error)
	ConflictingShifts(ctx context.Context, timeOffID int64) ([]*Shift, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListShifts serves GET /shifts?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := ParseDate(q.Get("start"))
	if err != nil {
		h.WriteAppError(w, r, internal.NewValidationFieldError("start", err.Error(), internal.ErrCodeInvalidDate))
		return
	}
	to, err := ParseDate(q.Get("end"))
	if err != nil {
		h.WriteAppError(w, r, internal.NewValidationFieldError("end", err.Error(), internal.ErrCodeInvalidDate))
		return
	}

	shifts, err := h.Service.ListShifts(r.Context(), from, to)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ShiftsResponse{
		Start:  FormatDate(from),
		End:    FormatDate(to),
		Shifts: ToShiftResponses(shifts),
	})
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	proposal, appErr := req.ToProposal()
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	shift, err := h.Service.TryScheduleShift(r.Context(), proposal)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, shift.ToResponse())
}

// CheckShifts serves POST /shifts/check, a dry run over a batch.
func (h *Handler) CheckShifts(w http.ResponseWriter, r *http.Request) {
	var req CheckShiftsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	proposals, appErr := req.ToProposals()
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	results, err := h.Service.CheckShifts(r.Context(), proposals)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CheckShiftsResponse{Results: ToCheckResultResponses(results)})
}

func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	if err := h.Service.CancelShift(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTimeOff(w http.ResponseWriter, r *http.Request) {
	var req CreateTimeOffRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	proposal, appErr := req.ToProposal()
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	created, err := h.Service.RequestTimeOff(r.Context(), proposal)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created.ToResponse())
}

func (h *Handler) ListPendingTimeOff(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.ListPendingTimeOff(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TimeOffListResponse{Requests: ToTimeOffResponses(reqs)})
}

func (h *Handler) TimeOffConflicts(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	shifts, err := h.Service.ConflictingShifts(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ConflictsResponse{TimeOffID: id, Shifts: ToShiftResponses(shifts)})
}

// DecideTimeOff serves PATCH /time-off/{id}/decision. The decider is the
// authenticated principal.
func (h *Handler) DecideTimeOff(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrInvalidToken)
		return
	}

	var req DecisionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	decision, appErr := req.Decision()
	if appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	result, err := h.Service.Decide(r.Context(), id, decision, principal.ID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DecisionResponse{
		Request:           result.Request.ToResponse(),
		ConflictingShifts: ToShiftResponses(result.ConflictingShifts),
	})
}
