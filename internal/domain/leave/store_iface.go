package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type RequestFilter struct {
	UserID    string
	ManagerID string
	Statuses  []string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

type StoreAPI interface {
	ListLeaveTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error)
	LeaveTypeByID(ctx context.Context, leaveTypeID string) (LeaveType, error)
	CreateLeaveType(ctx context.Context, leaveType LeaveType) (string, error)

	ListHolidays(ctx context.Context) ([]Holiday, error)
	CreateHoliday(ctx context.Context, day time.Time, name string) (string, error)
	DeleteHoliday(ctx context.Context, holidayID string) error
	ActiveHolidayDates(ctx context.Context, from, to time.Time) ([]time.Time, error)

	ListWorkflows(ctx context.Context) ([]ApprovalWorkflow, error)
	CreateWorkflow(ctx context.Context, workflow ApprovalWorkflow) (string, error)

	RequestByID(ctx context.Context, requestID string) (LeaveRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]LeaveRequest, int, error)

	BalancesForUser(ctx context.Context, userID string, year int) ([]LeaveBalance, error)
	ProvisionBalances(ctx context.Context, year int) (int, error)
	ReportBalances(ctx context.Context, year int) ([]BalanceReportRow, error)

	// InTx runs fn inside a single database transaction; every mutation of
	// requests or balances goes through it so the check-then-write sequences
	// stay serialized per row.
	InTx(ctx context.Context, fn func(TxStore) error) error
}

// TxStore is the transactional surface handed to InTx callbacks.
type TxStore interface {
	// LockUserRequests serializes concurrent request creation for one user
	// so the overlap check and the insert act atomically.
	LockUserRequests(ctx context.Context, userID string) error
	HasConflict(ctx context.Context, userID string, start, end time.Time, excludeRequestID string) (bool, error)

	// BalanceForUpdate row-locks the (user, type, year) balance, creating it
	// seeded from defaultDays when absent.
	BalanceForUpdate(ctx context.Context, userID, leaveTypeID string, year int, defaultDays decimal.Decimal) (LeaveBalance, error)
	AddUsed(ctx context.Context, userID, leaveTypeID string, year int, delta decimal.Decimal) error

	InsertRequest(ctx context.Context, request LeaveRequest) (string, error)
	RequestForUpdate(ctx context.Context, requestID string) (LeaveRequest, error)
	SetRequestStatus(ctx context.Context, requestID, status, approverID, comments string, decidedAt time.Time) error
	SetRequestCancelled(ctx context.Context, requestID string) error
	InsertApproval(ctx context.Context, requestID, approverID, action, comments string) error

	BalancesForYear(ctx context.Context, leaveTypeID string, year int) ([]LeaveBalance, error)
	UpsertCarryForward(ctx context.Context, userID, leaveTypeID string, year int, carry, defaultDays decimal.Decimal) error
}
