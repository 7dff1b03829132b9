package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/core"
)

// CoreAPI is the slice of the users store the leave engine depends on.
type CoreAPI interface {
	UserByID(ctx context.Context, userID string) (core.User, error)
	IsManagerOf(ctx context.Context, managerID, userID string) (bool, error)
}

type Service struct {
	Store StoreAPI
	Core  CoreAPI

	// Now is injectable so date-relative rules (backdating, has-leave-started)
	// are testable.
	Now func() time.Time
}

func NewService(store StoreAPI, coreStore CoreAPI) *Service {
	return &Service{Store: store, Core: coreStore, Now: time.Now}
}

func (s *Service) today() time.Time {
	return Midnight(s.Now())
}

// --- reference data ---

func (s *Service) ListTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	return s.Store.ListLeaveTypes(ctx, includeInactive)
}

func (s *Service) CreateType(ctx context.Context, leaveType LeaveType) (string, error) {
	if leaveType.Name == "" {
		return "", invalid("name", "is required")
	}
	if leaveType.DefaultDays.Sign() < 0 {
		return "", invalid("defaultDays", "must not be negative")
	}
	if leaveType.MaxCarryForwardDays.Sign() < 0 {
		return "", invalid("maxCarryForwardDays", "must not be negative")
	}
	if !leaveType.IsCarryForward {
		leaveType.MaxCarryForwardDays = decimal.Zero
	}
	return s.Store.CreateLeaveType(ctx, leaveType)
}

func (s *Service) ListHolidays(ctx context.Context) ([]Holiday, error) {
	return s.Store.ListHolidays(ctx)
}

func (s *Service) CreateHoliday(ctx context.Context, day time.Time, name string) (string, error) {
	if day.IsZero() {
		return "", invalid("date", "is required")
	}
	return s.Store.CreateHoliday(ctx, day, name)
}

func (s *Service) DeleteHoliday(ctx context.Context, holidayID string) error {
	return s.Store.DeleteHoliday(ctx, holidayID)
}

func (s *Service) ListWorkflows(ctx context.Context) ([]ApprovalWorkflow, error) {
	return s.Store.ListWorkflows(ctx)
}

func (s *Service) CreateWorkflow(ctx context.Context, workflow ApprovalWorkflow) (string, error) {
	existing, err := s.Store.ListWorkflows(ctx)
	if err != nil {
		return "", err
	}
	if err := ValidateWorkflow(existing, workflow); err != nil {
		return "", err
	}
	return s.Store.CreateWorkflow(ctx, workflow)
}

// --- balances ---

func (s *Service) Balances(ctx context.Context, userID string, year int) ([]LeaveBalance, error) {
	return s.Store.BalancesForUser(ctx, userID, year)
}

func (s *Service) ProvisionBalances(ctx context.Context, year int) (int, error) {
	return s.Store.ProvisionBalances(ctx, year)
}

func (s *Service) ReportBalances(ctx context.Context, year int) ([]BalanceReportRow, error) {
	return s.Store.ReportBalances(ctx, year)
}

func (s *Service) RunCarryForward(ctx context.Context, fromYear int) (CarryForwardSummary, error) {
	if fromYear < 1970 {
		return CarryForwardSummary{}, invalid("fromYear", "must be a calendar year")
	}
	return ApplyCarryForward(ctx, s.Store, fromYear)
}

// --- requests ---

type CreateRequestInput struct {
	UserID      string
	LeaveTypeID string
	StartDate   time.Time
	EndDate     time.Time
	RequestType string
	Reason      string
}

type CreateRequestResult struct {
	ID        string
	Days      decimal.Decimal
	ManagerID string
}

// CreateRequest validates a new leave request and persists it as pending.
// All checks run before any write; the overlap check and the balance check
// run inside one transaction with the insert so concurrent submissions
// cannot double-book or double-spend.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (CreateRequestResult, error) {
	var result CreateRequestResult

	start := Midnight(input.StartDate)
	end := Midnight(input.EndDate)

	switch input.RequestType {
	case RequestFullDay, RequestHalfDayMorning, RequestHalfDayAfternoon:
	default:
		return result, invalid("requestType", "must be full_day, half_day_morning or half_day_afternoon")
	}
	if start.After(end) {
		return result, invalid("endDate", "must be on or after startDate")
	}
	if start.Before(s.today()) {
		return result, invalid("startDate", "cannot be in the past")
	}

	leaveType, err := s.Store.LeaveTypeByID(ctx, input.LeaveTypeID)
	if err != nil {
		return result, err
	}
	if !leaveType.IsActive {
		return result, invalid("leaveTypeId", "leave type is not active")
	}

	user, err := s.Core.UserByID(ctx, input.UserID)
	if err != nil {
		return result, err
	}
	if leaveType.ApplicableGender != "" && leaveType.ApplicableGender != user.Gender {
		return result, invalid("leaveTypeId", "leave type is not applicable for this user")
	}

	halfDay := input.RequestType != RequestFullDay
	if halfDay {
		if !leaveType.IsHalfDayAllowed {
			return result, invalid("requestType", "half-day is not allowed for this leave type")
		}
		if !start.Equal(end) {
			return result, invalid("endDate", "a half-day request must cover a single day")
		}
	}

	var days decimal.Decimal
	if halfDay {
		days = HalfDay
	} else {
		holidayDates, err := s.Store.ActiveHolidayDates(ctx, start, end)
		if err != nil {
			return result, err
		}
		days = BusinessDays(start, end, NewHolidaySet(holidayDates))
		if days.IsZero() {
			return result, invalid("startDate", "range contains no working days")
		}
	}
	result.Days = days

	year := start.Year()
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		if err := tx.LockUserRequests(ctx, input.UserID); err != nil {
			return err
		}

		conflict, err := tx.HasConflict(ctx, input.UserID, start, end, "")
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: user already has leave between %s and %s",
				ErrOverlap, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}

		balance, err := tx.BalanceForUpdate(ctx, input.UserID, leaveType.ID, year, leaveType.DefaultDays)
		if err != nil {
			return err
		}
		if !CanConsume(balance, leaveType, days) {
			return fmt.Errorf("%w: requested %s days, %s available",
				ErrInsufficientBalance, days, balance.Available())
		}

		id, err := tx.InsertRequest(ctx, LeaveRequest{
			UserID:      input.UserID,
			LeaveTypeID: leaveType.ID,
			StartDate:   start,
			EndDate:     end,
			RequestType: input.RequestType,
			Days:        days,
			Reason:      input.Reason,
			Status:      StatusPending,
		})
		if err != nil {
			return err
		}
		result.ID = id
		return nil
	})
	if err != nil {
		return CreateRequestResult{}, err
	}

	result.ManagerID = user.ManagerID
	return result, nil
}

type StatusUpdateResult struct {
	Request   LeaveRequest
	LeaveType LeaveType
}

// UpdateStatus moves a pending request to approved, rejected or cancelled.
// Approval consults the workflow matching the request's duration; a duration
// no workflow covers is approved without extra gating. The balance is
// reserved in the same transaction that flips the status.
func (s *Service) UpdateStatus(ctx context.Context, requestID, newStatus, approverID, approverRole, comments string) (StatusUpdateResult, error) {
	var result StatusUpdateResult

	switch newStatus {
	case StatusApproved, StatusRejected, StatusCancelled:
	default:
		return result, invalid("status", "must be approved, rejected or cancelled")
	}

	request, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return result, err
	}
	if newStatus == request.Status {
		return result, fmt.Errorf("%w: request is already %s", ErrInvalidState, request.Status)
	}
	if request.Status != StatusPending {
		return result, fmt.Errorf("%w: request is %s, only pending requests can be decided", ErrInvalidState, request.Status)
	}

	if err := s.authorizeDecision(ctx, request, newStatus, approverID, approverRole); err != nil {
		return result, err
	}

	leaveType, err := s.Store.LeaveTypeByID(ctx, request.LeaveTypeID)
	if err != nil {
		return result, err
	}

	if newStatus == StatusApproved {
		workflows, err := s.Store.ListWorkflows(ctx)
		if err != nil {
			return result, err
		}
		workflow, err := ResolveWorkflow(workflows, request.Days)
		switch {
		case err == nil:
			if _, ok := AuthorizedLevel(workflow, approverRole); !ok {
				return result, fmt.Errorf("%w: role %q is not authorized by workflow %q",
					ErrForbidden, approverRole, workflow.Name)
			}
		case errors.Is(err, ErrNoWorkflow):
			// no workflow configured for this duration: approval is ungated
		default:
			return result, err
		}
	}

	decidedAt := s.Now()
	year := request.StartDate.Year()
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		current, err := tx.RequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return fmt.Errorf("%w: request is %s", ErrInvalidState, current.Status)
		}

		if newStatus == StatusApproved {
			if _, err := tx.BalanceForUpdate(ctx, current.UserID, current.LeaveTypeID, year, leaveType.DefaultDays); err != nil {
				return err
			}
			if err := tx.AddUsed(ctx, current.UserID, current.LeaveTypeID, year, current.Days); err != nil {
				return err
			}
		}

		if err := tx.SetRequestStatus(ctx, requestID, newStatus, approverID, comments, decidedAt); err != nil {
			return err
		}
		return tx.InsertApproval(ctx, requestID, approverID, newStatus, comments)
	})
	if err != nil {
		return result, err
	}

	request.Status = newStatus
	request.ApproverID = approverID
	request.ApproverComments = comments
	request.ApprovedAt = &decidedAt
	result.Request = request
	result.LeaveType = leaveType
	return result, nil
}

func (s *Service) authorizeDecision(ctx context.Context, request LeaveRequest, newStatus, approverID, approverRole string) error {
	if auth.IsAdministrative(approverRole) {
		return nil
	}
	if newStatus == StatusCancelled && approverID == request.UserID {
		return nil
	}
	isManager, err := s.Core.IsManagerOf(ctx, approverID, request.UserID)
	if err != nil {
		return err
	}
	if !isManager {
		return fmt.Errorf("%w: only the requester's manager or an administrative role may decide this request", ErrForbidden)
	}
	return nil
}

type CancelResult struct {
	Request   LeaveRequest
	ManagerID string
}

// CancelRequest lets the owner withdraw a request. An approved request can
// only be cancelled before its start date; the reserved balance is released
// in the same transaction.
func (s *Service) CancelRequest(ctx context.Context, requestID, userID string) (CancelResult, error) {
	var result CancelResult

	request, err := s.Store.RequestByID(ctx, requestID)
	if err != nil {
		return result, err
	}
	if request.UserID != userID {
		return result, fmt.Errorf("%w: only the owner may cancel a leave request", ErrForbidden)
	}
	if request.Status == StatusCancelled {
		return result, fmt.Errorf("%w: request is already cancelled", ErrInvalidState)
	}
	if request.Status == StatusApproved && Midnight(request.StartDate).Before(s.today()) {
		return result, fmt.Errorf("%w: leave that has already started cannot be cancelled", ErrInvalidState)
	}

	year := request.StartDate.Year()
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		current, err := tx.RequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return fmt.Errorf("%w: request is already cancelled", ErrInvalidState)
		}
		if current.Status == StatusApproved {
			if err := tx.AddUsed(ctx, current.UserID, current.LeaveTypeID, year, current.Days.Neg()); err != nil {
				return err
			}
		}
		return tx.SetRequestCancelled(ctx, requestID)
	})
	if err != nil {
		return result, err
	}

	request.Status = StatusCancelled
	result.Request = request

	user, err := s.Core.UserByID(ctx, userID)
	if err == nil {
		result.ManagerID = user.ManagerID
	}
	return result, nil
}

func (s *Service) RequestByID(ctx context.Context, requestID string) (LeaveRequest, error) {
	return s.Store.RequestByID(ctx, requestID)
}

// ListRequestsFor scopes the listing by caller role: employees see their
// own requests, managers their reports', administrative roles everything.
func (s *Service) ListRequestsFor(ctx context.Context, callerID, callerRole string, filter RequestFilter) ([]LeaveRequest, int, error) {
	switch {
	case auth.IsAdministrative(callerRole):
	case callerRole == auth.RoleManager:
		filter.ManagerID = callerID
		filter.UserID = ""
	default:
		filter.UserID = callerID
		filter.ManagerID = ""
	}
	return s.Store.ListRequests(ctx, filter)
}
