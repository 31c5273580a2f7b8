/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DAY QUANTITIES:
  Balances and day counts are decimal.Decimal and travel as JSON strings
  ("12.5"). Requests accept either a string or a number.

DATES:
  Responses use YYYY-MM-DD. Requests also accept DD/MM/YYYY.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Records behind these DTOs
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// AGENTS
// =============================================================================

type AgentDTO struct {
	ID             int64           `json:"id"`
	LastName       string          `json:"last_name"`
	FirstName      string          `json:"first_name"`
	EmployeeNumber string          `json:"employee_number"`
	Grade          string          `json:"grade,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
}

type AgentRequest struct {
	LastName       string          `json:"last_name"`
	FirstName      string          `json:"first_name"`
	EmployeeNumber string          `json:"employee_number"`
	Grade          string          `json:"grade"`
	Balance        decimal.Decimal `json:"balance"`
}

type AgentListResponse struct {
	Agents []AgentDTO `json:"agents"`
	Total  int        `json:"total"`
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

func toAgentDTO(a leave.Agent) AgentDTO {
	return AgentDTO{
		ID:             int64(a.ID),
		LastName:       a.LastName,
		FirstName:      a.FirstName,
		EmployeeNumber: a.EmployeeNumber,
		Grade:          a.Grade,
		Balance:        a.Balance,
	}
}

func (r AgentRequest) toAgent(id generic.AgentID) leave.Agent {
	return leave.Agent{
		ID:             id,
		LastName:       r.LastName,
		FirstName:      r.FirstName,
		EmployeeNumber: r.EmployeeNumber,
		Grade:          r.Grade,
		Balance:        r.Balance,
	}
}

// =============================================================================
// LEAVES
// =============================================================================

type LeaveDTO struct {
	ID            int64           `json:"id"`
	AgentID       int64           `json:"agent_id"`
	Type          string          `json:"type"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	DaysTaken     decimal.Decimal `json:"days_taken"`
	Status        string          `json:"status"`
	Justification string          `json:"justification,omitempty"`
	InterimID     *int64          `json:"interim_id,omitempty"`
}

// LeaveRequest submits (POST) or modifies (PUT) a leave.
type LeaveRequest struct {
	AgentID       int64           `json:"agent_id"`
	Type          string          `json:"type"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	DaysTaken     decimal.Decimal `json:"days_taken"`
	Justification string          `json:"justification"`
	InterimID     *int64          `json:"interim_id"`

	// CertificatePath names a file readable by the server.
	CertificatePath string `json:"certificate_path"`

	// ConfirmReplace accepts the replacement of overlapped annual leave.
	// Without it a legal overlap answers 409 with the replacement summary.
	ConfirmReplace bool `json:"confirm_replace"`
}

func toLeaveDTO(l leave.Leave) LeaveDTO {
	dto := LeaveDTO{
		ID:            int64(l.ID),
		AgentID:       int64(l.AgentID),
		Type:          string(l.Type),
		StartDate:     l.Start.String(),
		EndDate:       l.End.String(),
		DaysTaken:     l.DaysTaken,
		Status:        string(l.Status),
		Justification: l.Justification,
	}
	if l.InterimID != nil {
		id := int64(*l.InterimID)
		dto.InterimID = &id
	}
	return dto
}

func toLeaveDTOs(leaves []leave.Leave) []LeaveDTO {
	out := make([]LeaveDTO, len(leaves))
	for i, l := range leaves {
		out[i] = toLeaveDTO(l)
	}
	return out
}

func (r LeaveRequest) toRequest(id generic.LeaveID) leave.Request {
	req := leave.Request{
		LeaveID:         id,
		AgentID:         generic.AgentID(r.AgentID),
		Type:            leave.Type(r.Type),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		DaysTaken:       r.DaysTaken,
		Justification:   r.Justification,
		CertificatePath: r.CertificatePath,
	}
	if r.InterimID != nil {
		interim := generic.AgentID(*r.InterimID)
		req.InterimID = &interim
	}
	return req
}

// ReplacementResponse accompanies a 409 when the request would replace annual leave.
type ReplacementResponse struct {
	Error    string     `json:"error"`
	AgentID  int64      `json:"agent_id"`
	Type     string     `json:"type"`
	Start    string     `json:"start_date"`
	End      string     `json:"end_date"`
	Replaced []LeaveDTO `json:"replaced"`
}

func toReplacementResponse(s leave.Summary) ReplacementResponse {
	return ReplacementResponse{
		Error:    "request overlaps annual leave; resend with confirm_replace to split it",
		AgentID:  int64(s.AgentID),
		Type:     string(s.Type),
		Start:    s.Requested.Start.String(),
		End:      s.Requested.End.String(),
		Replaced: toLeaveDTOs(s.Replaced),
	}
}

type OnLeaveDTO struct {
	Agent AgentDTO `json:"agent"`
	Leave LeaveDTO `json:"leave"`
}

type ReturnDateDTO struct {
	LeaveID    int64  `json:"leave_id"`
	EndDate    string `json:"end_date"`
	ReturnDate string `json:"return_date"`
}

// =============================================================================
// CERTIFICATES
// =============================================================================

type CertificateDTO struct {
	Days      decimal.Decimal `json:"days"`
	Ref       string          `json:"ref"`
	CreatedAt string          `json:"created_at"`
}

type CertifiedLeaveDTO struct {
	Leave       LeaveDTO        `json:"leave"`
	Agent       AgentDTO        `json:"agent"`
	Certificate *CertificateDTO `json:"certificate"`
}

func toCertifiedLeaveDTO(c leave.CertifiedLeave) CertifiedLeaveDTO {
	dto := CertifiedLeaveDTO{Leave: toLeaveDTO(c.Leave), Agent: toAgentDTO(c.Agent)}
	if c.Certificate != nil {
		dto.Certificate = &CertificateDTO{
			Days:      c.Certificate.Days,
			Ref:       c.Certificate.Ref,
			CreatedAt: c.Certificate.CreatedAt.Format(time.RFC3339),
		}
	}
	return dto
}

// =============================================================================
// HOLIDAYS & AUDIT
// =============================================================================

type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type DefaultHolidaysRequest struct {
	Year int `json:"year"`
}

type DefaultHolidaysResponse struct {
	Year  int `json:"year"`
	Added int `json:"added"`
}

type InconsistencyDTO struct {
	Leave        LeaveDTO        `json:"leave"`
	Recorded     decimal.Decimal `json:"recorded_days"`
	Recalculated int             `json:"recalculated_days"`
}

type AuditResponse struct {
	Year            int                `json:"year"`
	Inconsistencies []InconsistencyDTO `json:"inconsistencies"`
}

// ErrorResponse is the body of every non-2xx answer except a replacement 409.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
