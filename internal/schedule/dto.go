package schedule

import (
	"time"

	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/frahmantamala/restaurant-ops/internal/core/common/validation"
)

type CreateShiftRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (r *CreateShiftRequest) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("employee_id", r.EmployeeID).Required().MinInt(1, internal.ErrCodeValidationFailed)
	v.Date("date", r.Date)
	v.TimeOfDay("start_time", r.StartTime)
	v.TimeOfDay("end_time", r.EndTime)
	return v.Validate()
}

// ToProposal validates the request and converts it. Ordering of start and
// end is left to the engine so it reports INVALID_INTERVAL.
func (r *CreateShiftRequest) ToProposal() (ShiftProposal, *internal.AppError) {
	if err := r.Validate(); err != nil {
		return ShiftProposal{}, err
	}
	date, err := parseDateField("date", r.Date)
	if err != nil {
		return ShiftProposal{}, err
	}
	start, err := parseTimeField("start_time", r.StartTime)
	if err != nil {
		return ShiftProposal{}, err
	}
	end, err := parseTimeField("end_time", r.EndTime)
	if err != nil {
		return ShiftProposal{}, err
	}
	return ShiftProposal{EmployeeID: r.EmployeeID, Date: date, Start: start, End: end}, nil
}

func parseDateField(field, value string) (time.Time, *internal.AppError) {
	date, err := ParseDate(value)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError(field, err.Error(), internal.ErrCodeInvalidDate)
	}
	return date, nil
}

func parseTimeField(field, value string) (TimeOfDay, *internal.AppError) {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		return 0, internal.NewValidationFieldError(field, err.Error(), internal.ErrCodeInvalidTime)
	}
	return t, nil
}

type CheckShiftsRequest struct {
	Shifts []CreateShiftRequest `json:"shifts"`
}

func (r *CheckShiftsRequest) ToProposals() ([]ShiftProposal, *internal.AppError) {
	if len(r.Shifts) == 0 {
		return nil, internal.NewValidationFieldError("shifts", "shifts must not be empty", internal.ErrCodeValidationFailed)
	}
	proposals := make([]ShiftProposal, 0, len(r.Shifts))
	for i := range r.Shifts {
		p, err := r.Shifts[i].ToProposal()
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

type ShiftResponse struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

type ShiftsResponse struct {
	Start  string          `json:"start"`
	End    string          `json:"end"`
	Shifts []ShiftResponse `json:"shifts"`
}

type CheckResultResponse struct {
	Index      int    `json:"index"`
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Admissible bool   `json:"admissible"`
	Reason     string `json:"reason,omitempty"`
}

type CheckShiftsResponse struct {
	Results []CheckResultResponse `json:"results"`
}

type CreateTimeOffRequest struct {
	EmployeeID int64  `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

func (r *CreateTimeOffRequest) ToProposal() (TimeOffProposal, *internal.AppError) {
	v := validation.NewValidator()
	v.Field("employee_id", r.EmployeeID).Required().MinInt(1, internal.ErrCodeValidationFailed)
	v.Date("start_date", r.StartDate)
	v.Date("end_date", r.EndDate)
	v.Field("reason", r.Reason).MaxLength(500)
	if err := v.Validate(); err != nil {
		return TimeOffProposal{}, err
	}
	start, err := parseDateField("start_date", r.StartDate)
	if err != nil {
		return TimeOffProposal{}, err
	}
	end, err := parseDateField("end_date", r.EndDate)
	if err != nil {
		return TimeOffProposal{}, err
	}
	return TimeOffProposal{EmployeeID: r.EmployeeID, StartDate: start, EndDate: end, Reason: r.Reason}, nil
}

type DecisionRequest struct {
	Status string `json:"status"`
}

func (r *DecisionRequest) Decision() (TimeOffStatus, *internal.AppError) {
	status := TimeOffStatus(r.Status)
	if !status.IsDecision() {
		return "", internal.ErrInvalidDecision
	}
	return status, nil
}

type TimeOffResponse struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employee_id"`
	EmployeeName string     `json:"employee_name,omitempty"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Reason       string     `json:"reason,omitempty"`
	Status       string     `json:"status"`
	DecidedBy    *int64     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TimeOffListResponse struct {
	Requests []TimeOffResponse `json:"requests"`
}

type DecisionResponse struct {
	Request           TimeOffResponse `json:"request"`
	ConflictingShifts []ShiftResponse `json:"conflicting_shifts"`
}

type ConflictsResponse struct {
	TimeOffID int64           `json:"time_off_id"`
	Shifts    []ShiftResponse `json:"shifts"`
}

func ToShiftResponses(shifts []*Shift) []ShiftResponse {
	responses := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		responses = append(responses, s.ToResponse())
	}
	return responses
}

func ToTimeOffResponses(reqs []*TimeOffRequest) []TimeOffResponse {
	responses := make([]TimeOffResponse, 0, len(reqs))
	for _, r := range reqs {
		responses = append(responses, r.ToResponse())
	}
	return responses
}

func ToCheckResultResponses(results []CheckResult) []CheckResultResponse {
	responses := make([]CheckResultResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, CheckResultResponse{
			Index:      r.Index,
			EmployeeID: r.Proposal.EmployeeID,
			Date:       FormatDate(r.Proposal.Date),
			StartTime:  r.Proposal.Start.String(),
			EndTime:    r.Proposal.End.String(),
			Admissible: r.Admissible,
			Reason:     string(r.Reason),
		})
	}
	return responses
}
