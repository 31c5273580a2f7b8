/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes leave.Service over REST. Handles HTTP request/response and JSON
  serialization, and delegates every decision to the service.

ENDPOINTS:
  Agents:
    GET    /api/agents?q=&limit=&offset=  List and search agents
    POST   /api/agents                    Create agent
    GET    /api/agents/on-leave?date=     Agents away on a day (default today)
    GET    /api/agents/{id}               Get agent
    PUT    /api/agents/{id}               Update agent
    DELETE /api/agents/{id}               Delete agent with its leave
    GET    /api/agents/{id}/leaves        Leave history, newest first
    POST   /api/agents/{id}/leaves        Submit leave

  Leaves:
    GET    /api/leaves/certificates?status=&q=  Certificate follow-up
    GET    /api/leaves/{id}               Get leave
    PUT    /api/leaves/{id}               Modify leave
    DELETE /api/leaves/{id}               Delete leave, restoring split sources
    GET    /api/leaves/{id}/return-date   First working day after the leave

  Holidays:
    GET    /api/holidays?year=            Holidays of a year (default current)
    POST   /api/holidays                  Add or rename a holiday
    POST   /api/holidays/defaults         Install the fixed holidays of a year
    DELETE /api/holidays/{date}           Remove a holiday

  Audit:
    GET    /api/audit?year=               Annual leave whose count drifted

OVERLAP CONFIRMATION:
  A submit or modify that overlaps only annual leave is applied when the body
  carries "confirm_replace": true. Otherwise the answer is 409 with the
  replacement summary and nothing is written.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Illegal overlap, unconfirmed replacement
  - 500: Storage failures (the transaction was rolled back)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Logger  *slog.Logger
}

func NewHandler(svc *leave.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns a page of agents and the total matching the search term.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offset", err)
		return
	}
	term := q.Get("q")

	agents, err := h.Service.ListAgents(r.Context(), leave.AgentQuery{Term: term, Limit: limit, Offset: offset})
	if err != nil {
		h.writeServiceError(w, r, "Failed to list agents", err)
		return
	}
	total, err := h.Service.CountAgents(r.Context(), term)
	if err != nil {
		h.writeServiceError(w, r, "Failed to count agents", err)
		return
	}

	dtos := make([]AgentDTO, len(agents))
	for i, a := range agents {
		dtos[i] = toAgentDTO(a)
	}
	writeJSON(w, http.StatusOK, AgentListResponse{Agents: dtos, Total: total})
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Service.CreateAgent(r.Context(), req.toAgent(0))
	if err != nil {
		h.writeServiceError(w, r, "Failed to create agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: int64(id)})
}

func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	agent, err := h.Service.GetAgent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get agent", err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentDTO(*agent))
}

func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Service.UpdateAgent(r.Context(), req.toAgent(id)); err != nil {
		h.writeServiceError(w, r, "Failed to update agent", err)
		return
	}
	agent, err := h.Service.GetAgent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get agent", err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentDTO(*agent))
}

// DeleteAgent removes the agent, its leave and their certificates.
func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteAgent(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "Failed to delete agent", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AgentsOnLeave lists who is away on ?date= (default today).
func (h *Handler) AgentsOnLeave(w http.ResponseWriter, r *http.Request) {
	var day generic.TimePoint
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		day = d
	}

	away, err := h.Service.AgentsOnLeave(r.Context(), day)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list agents on leave", err)
		return
	}
	dtos := make([]OnLeaveDTO, len(away))
	for i, o := range away {
		dtos[i] = OnLeaveDTO{Agent: toAgentDTO(o.Agent), Leave: toLeaveDTO(o.Leave)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) ListAgentLeaves(w http.ResponseWriter, r *http.Request) {
	id, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	leaves, err := h.Service.LeavesForAgent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list leaves", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(leaves))
}

// SubmitLeave records a new leave for the agent in the path.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	agentID, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	var body LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	body.AgentID = int64(agentID)

	h.submit(w, r, body.toRequest(0), body.ConfirmReplace, http.StatusCreated)
}

// ModifyLeave replaces the leave in the path with the body.
func (h *Handler) ModifyLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	var body LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.submit(w, r, body.toRequest(id), body.ConfirmReplace, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, req leave.Request, confirmed bool, status int) {
	var pending *leave.Summary
	confirm := func(s leave.Summary) bool {
		pending = &s
		return confirmed
	}

	id, err := h.Service.Submit(r.Context(), req, confirm)
	if errors.Is(err, generic.ErrDeclined) && pending != nil {
		writeJSON(w, http.StatusConflict, toReplacementResponse(*pending))
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "Failed to save leave", err)
		return
	}

	l, err := h.Service.GetLeave(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get leave", err)
		return
	}
	writeJSON(w, status, toLeaveDTO(*l))
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	l, err := h.Service.GetLeave(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get leave", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*l))
}

// DeleteLeave removes a leave. Deleting a split product restores its sources.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "Failed to delete leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReturnDate(w http.ResponseWriter, r *http.Request) {
	id, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	l, err := h.Service.GetLeave(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get leave", err)
		return
	}
	back, err := h.Service.ReturnDate(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute return date", err)
		return
	}
	writeJSON(w, http.StatusOK, ReturnDateDTO{
		LeaveID:    int64(id),
		EndDate:    l.End.String(),
		ReturnDate: back.String(),
	})
}

// ListCertifiedLeaves reports certificate-bearing leave, ?status=missing|justified.
func (h *Handler) ListCertifiedLeaves(w http.ResponseWriter, r *http.Request) {
	status := leave.CertificateStatus(r.URL.Query().Get("status"))
	switch status {
	case "", leave.CertificateMissing, leave.CertificateJustified:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status (use missing or justified)", nil)
		return
	}

	items, err := h.Service.CertifiedLeaves(r.Context(), status, r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list certificates", err)
		return
	}
	dtos := make([]CertifiedLeaveDTO, len(items))
	for i, c := range items {
		dtos[i] = toCertifiedLeaveDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query().Get("year"), h.currentYear())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	holidays, err := h.Service.ListHolidays(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{Date: hd.Date.String(), Name: hd.Name, Kind: string(hd.Kind)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	hd := leave.Holiday{Date: date, Name: req.Name, Kind: leave.HolidayCustom}
	if err := h.Service.AddHoliday(r.Context(), hd); err != nil {
		h.writeServiceError(w, r, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: date.String(), Name: req.Name, Kind: string(hd.Kind)})
}

// AddDefaultHolidays installs the configured fixed holidays for a year.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req DefaultHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		req.Year = h.currentYear()
	}

	n, err := h.Service.InstallDefaultHolidays(r.Context(), req.Year)
	if err != nil {
		h.writeServiceError(w, r, "Failed to install holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, DefaultHolidaysResponse{Year: req.Year, Added: n})
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Service.RemoveHoliday(r.Context(), date); err != nil {
		h.writeServiceError(w, r, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// AUDIT
// =============================================================================

// Audit reports annual leave of ?year= whose stored count no longer matches the calendar.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r.URL.Query().Get("year"), h.currentYear())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	found := h.Service.Audit(r.Context(), year)
	resp := AuditResponse{Year: year, Inconsistencies: make([]InconsistencyDTO, len(found))}
	for i, in := range found {
		resp.Inconsistencies[i] = InconsistencyDTO{
			Leave:        toLeaveDTO(in.Leave),
			Recorded:     in.Leave.DaysTaken,
			Recalculated: in.Recalculated,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) currentYear() int {
	if h.Service.Clock != nil {
		return h.Service.Clock().Year()
	}
	return generic.Today().Year()
}

func agentIDParam(w http.ResponseWriter, r *http.Request) (generic.AgentID, bool) {
	id, err := generic.ParseAgentID(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid agent id", err)
		return 0, false
	}
	return id, true
}

func leaveIDParam(w http.ResponseWriter, r *http.Request) (generic.LeaveID, bool) {
	id, err := generic.ParseLeaveID(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid leave id", err)
		return 0, false
	}
	return id, true
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

// writeServiceError maps the error families to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrIllegalOverlap), errors.Is(err, generic.ErrDeclined), errors.Is(err, generic.ErrStaleConfirmation):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
