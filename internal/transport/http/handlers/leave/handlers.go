package leavehandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/platform/jobs"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Notify  *notifications.Service
	Jobs    *jobs.Service
}

func NewHandler(service *leave.Service, notify *notifications.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Notify: notify, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/holidays", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/balances/provision", h.handleProvisionBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Get("/workflows", h.handleListWorkflows)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/workflows", h.handleCreateWorkflow)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/carry-forward/run", h.handleRunCarryForward)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/calendar", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/calendar/export", h.handleCalendarExport)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/reports/balances", h.handleReportBalances)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/reports/balances/pdf", h.handleReportBalancesPDF)
	})
}

// failFromError maps domain sentinels onto HTTP status codes. Domain error
// messages carry no secrets, so they go to the client verbatim.
func failFromError(w http.ResponseWriter, err error, requestID string) {
	var verr *leave.ValidationError
	switch {
	case errors.As(err, &verr):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: verr.Field, Reason: verr.Reason}})
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, http.StatusConflict, "overlapping_request", err.Error(), requestID)
	case errors.Is(err, leave.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal error", requestID)
	}
}

func (h *Handler) notify(r *http.Request, userID, ntype, title, body string) {
	if h.Notify == nil || userID == "" {
		return
	}
	if err := h.Notify.Create(r.Context(), userID, ntype, title, body); err != nil {
		slog.Warn("leave notification failed", "type", ntype, "err", err)
	}
}

// --- reference data ---

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	types, err := h.Service.ListTypes(r.Context(), includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", requestID)
		return
	}
	api.Success(w, types, requestID)
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.IsActive = true

	id, err := h.Service.CreateType(r.Context(), payload)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	holidays, err := h.Service.ListHolidays(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holidays_failed", "failed to list holidays", requestID)
		return
	}
	api.Success(w, holidays, requestID)
}

type createHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload createHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	day, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.CreateHoliday(r.Context(), day, payload.Name)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Service.DeleteHoliday(r.Context(), chi.URLParam(r, "holidayID")); err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	workflows, err := h.Service.ListWorkflows(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workflows_failed", "failed to list workflows", requestID)
		return
	}
	api.Success(w, workflows, requestID)
}

func (h *Handler) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload leave.ApprovalWorkflow
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.IsActive = true

	id, err := h.Service.CreateWorkflow(r.Context(), payload)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

// --- balances ---

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	targetUser := r.URL.Query().Get("userId")
	if targetUser == "" {
		targetUser = user.UserID
	}
	if targetUser != user.UserID && !auth.IsAdministrative(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another user's balances", requestID)
		return
	}

	year := queryYear(r, time.Now().Year())
	balances, err := h.Service.Balances(r.Context(), targetUser, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_failed", "failed to list balances", requestID)
		return
	}
	api.Success(w, balances, requestID)
}

func (h *Handler) handleProvisionBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year := queryYear(r, time.Now().Year())
	created, err := h.Service.ProvisionBalances(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "provision_failed", "failed to provision balances", requestID)
		return
	}
	api.Success(w, map[string]any{"year": year, "created": created}, requestID)
}

func (h *Handler) handleRunCarryForward(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	fromYear := queryInt(r, "fromYear", time.Now().Year()-1)

	details, err := h.Jobs.RunNow(r.Context(), jobs.JobCarryForward, func(ctx context.Context) (any, error) {
		summary, err := h.Service.RunCarryForward(ctx, fromYear)
		return map[string]any{
			"fromYear":       fromYear,
			"typesProcessed": summary.TypesProcessed,
			"rowsCarried":    summary.RowsCarried,
		}, err
	})
	if err != nil {
		failFromError(w, err, requestID)
		return
	}
	api.Success(w, details, requestID)
}

// --- requests ---

type createRequestPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	RequestType string `json:"requestType"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "is required")
	v.Enum("requestType", payload.RequestType,
		[]string{leave.RequestFullDay, leave.RequestHalfDayMorning, leave.RequestHalfDayAfternoon},
		"must be full_day, half_day_morning or half_day_afternoon")
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, requestID) {
		return
	}
	if payload.RequestType == "" {
		payload.RequestType = leave.RequestFullDay
	}

	result, err := h.Service.CreateRequest(r.Context(), leave.CreateRequestInput{
		UserID:      user.UserID,
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   startDate,
		EndDate:     endDate,
		RequestType: payload.RequestType,
		Reason:      payload.Reason,
	})
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	h.notify(r, result.ManagerID, notifications.TypeLeaveSubmitted,
		"Leave request submitted",
		fmt.Sprintf("A leave request for %s day(s) is awaiting your decision.", result.Days))

	api.Created(w, map[string]any{"id": result.ID, "days": result.Days}, requestID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	filter, ok := parseRequestFilter(w, r, requestID)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	requests, total, err := h.Service.ListRequestsFor(r.Context(), user.UserID, user.Role, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requests_failed", "failed to list leave requests", requestID)
		return
	}
	api.Success(w, map[string]any{
		"items":  requests,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}, requestID)
}

func parseRequestFilter(w http.ResponseWriter, r *http.Request, requestID string) (leave.RequestFilter, bool) {
	var filter leave.RequestFilter
	filter.UserID = r.URL.Query().Get("userId")

	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Statuses = []string{raw}
	}

	v := shared.NewValidator()
	if raw := r.URL.Query().Get("from"); raw != "" {
		filter.From, _ = v.Date("from", raw)
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		filter.To, _ = v.Date("to", raw)
	}
	if v.Reject(w, requestID) {
		return filter, false
	}
	return filter, true
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	request, err := h.Service.RequestByID(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	if request.UserID != user.UserID && !auth.IsAdministrative(user.Role) {
		isManager, err := h.Service.Core.IsManagerOf(r.Context(), user.UserID, request.UserID)
		if err != nil || !isManager {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this request", requestID)
			return
		}
	}
	api.Success(w, request, requestID)
}

type decisionPayload struct {
	Comments string `json:"comments"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, leave.StatusApproved)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, leave.StatusRejected)
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request, newStatus string) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload decisionPayload
	if r.Body != nil {
		// decision comments are optional, a bad body is not fatal
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	result, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "requestID"), newStatus, user.UserID, user.Role, payload.Comments)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	switch newStatus {
	case leave.StatusApproved:
		h.notify(r, result.Request.UserID, notifications.TypeLeaveApproved,
			"Leave approved",
			fmt.Sprintf("Your %s leave request was approved.", result.LeaveType.Name))
	case leave.StatusRejected:
		h.notify(r, result.Request.UserID, notifications.TypeLeaveRejected,
			"Leave rejected",
			fmt.Sprintf("Your %s leave request was rejected.", result.LeaveType.Name))
	}

	api.Success(w, result.Request, requestID)
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	result, err := h.Service.CancelRequest(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		failFromError(w, err, requestID)
		return
	}

	h.notify(r, result.ManagerID, notifications.TypeLeaveCancelled,
		"Leave cancelled",
		fmt.Sprintf("A leave request starting %s was cancelled by the requester.",
			result.Request.StartDate.Format("2006-01-02")))

	api.Success(w, result.Request, requestID)
}

// --- calendar and reports ---

func (h *Handler) calendarRequests(w http.ResponseWriter, r *http.Request, requestID string) ([]leave.LeaveRequest, bool) {
	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, requestID) {
		return nil, false
	}

	requests, _, err := h.Service.Store.ListRequests(r.Context(), leave.RequestFilter{
		Statuses: []string{leave.StatusApproved},
		From:     from,
		To:       to,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", requestID)
		return nil, false
	}
	return requests, true
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	requests, ok := h.calendarRequests(w, r, requestID)
	if !ok {
		return
	}
	api.Success(w, requests, requestID)
}

func (h *Handler) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	requests, ok := h.calendarRequests(w, r, requestID)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-calendar.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"userId", "leaveTypeId", "startDate", "endDate", "requestType", "days"})
	for _, req := range requests {
		_ = writer.Write([]string{
			req.UserID,
			req.LeaveTypeID,
			req.StartDate.Format("2006-01-02"),
			req.EndDate.Format("2006-01-02"),
			req.RequestType,
			req.Days.String(),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("calendar csv write failed", "err", err)
	}
}

func (h *Handler) handleReportBalances(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year := queryYear(r, time.Now().Year())
	rows, err := h.Service.ReportBalances(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build balance report", requestID)
		return
	}
	api.Success(w, map[string]any{"year": year, "rows": rows}, requestID)
}

func (h *Handler) handleReportBalancesPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year := queryYear(r, time.Now().Year())
	rows, err := h.Service.ReportBalances(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build balance report", requestID)
		return
	}

	pdfBytes, err := leave.BalanceReportPDF(year, rows)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render balance report", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-balances-%d.pdf"`, year))
	if _, err := w.Write(pdfBytes); err != nil {
		slog.Warn("balance report write failed", "err", err)
	}
}

func queryYear(r *http.Request, fallback int) int {
	return queryInt(r, "year", fallback)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
