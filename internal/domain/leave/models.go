package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	RequestFullDay          = "full_day"
	RequestHalfDayMorning   = "half_day_morning"
	RequestHalfDayAfternoon = "half_day_afternoon"
)

type LeaveType struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	DefaultDays         decimal.Decimal `json:"defaultDays"`
	IsCarryForward      bool            `json:"isCarryForward"`
	MaxCarryForwardDays decimal.Decimal `json:"maxCarryForwardDays"`
	ApplicableGender    string          `json:"applicableGender,omitempty"`
	IsHalfDayAllowed    bool            `json:"isHalfDayAllowed"`
	IsPaidLeave         bool            `json:"isPaidLeave"`
	IsActive            bool            `json:"isActive"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// LeaveBalance is one row of the ledger, uniquely keyed by
// (UserID, LeaveTypeID, Year).
type LeaveBalance struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	LeaveTypeID  string          `json:"leaveTypeId"`
	Year         int             `json:"year"`
	Balance      decimal.Decimal `json:"balance"`
	Used         decimal.Decimal `json:"used"`
	CarryForward decimal.Decimal `json:"carryForward"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Available is the number of days still spendable from this row.
func (b LeaveBalance) Available() decimal.Decimal {
	return b.Balance.Add(b.CarryForward).Sub(b.Used)
}

type LeaveRequest struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	LeaveTypeID      string          `json:"leaveTypeId"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	RequestType      string          `json:"requestType"`
	Days             decimal.Decimal `json:"days"`
	Reason           string          `json:"reason"`
	Status           string          `json:"status"`
	ApproverID       string          `json:"approverId,omitempty"`
	ApproverComments string          `json:"approverComments,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type Holiday struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Name     string    `json:"name"`
	IsActive bool      `json:"isActive"`
}

// ApprovalLevel is one entry in a workflow's ordered levels list, stored as
// JSONB on the workflow row.
type ApprovalLevel struct {
	Level int      `json:"level"`
	Roles []string `json:"roles"`
}

// ApprovalWorkflow gates approval of requests whose day count falls inside
// the inclusive [MinDays, MaxDays] band.
type ApprovalWorkflow struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	MinDays   decimal.Decimal `json:"minDays"`
	MaxDays   decimal.Decimal `json:"maxDays"`
	Levels    []ApprovalLevel `json:"levels"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
}

type BalanceReportRow struct {
	UserID       string          `json:"userId"`
	UserName     string          `json:"userName"`
	LeaveType    string          `json:"leaveType"`
	Year         int             `json:"year"`
	Balance      decimal.Decimal `json:"balance"`
	Used         decimal.Decimal `json:"used"`
	CarryForward decimal.Decimal `json:"carryForward"`
	Available    decimal.Decimal `json:"available"`
}
