package leave

import "github.com/shopspring/decimal"

// CanConsume reports whether days can be spent from the balance row for the
// given leave type. Unpaid leave is never blocked on availability; the
// ledger still records usage for reporting.
func CanConsume(balance LeaveBalance, leaveType LeaveType, days decimal.Decimal) bool {
	if !leaveType.IsPaidLeave {
		return true
	}
	return days.LessThanOrEqual(balance.Available())
}

// Reserve returns the row with days added to Used. Callers are expected to
// have validated availability for paid leave types; Reserve itself is a pure
// accounting step.
func Reserve(balance LeaveBalance, days decimal.Decimal) LeaveBalance {
	balance.Used = balance.Used.Add(days)
	return balance
}

// Release returns the row with days removed from Used, clamped at zero so a
// release can never drive usage negative.
func Release(balance LeaveBalance, days decimal.Decimal) LeaveBalance {
	balance.Used = balance.Used.Sub(days)
	if balance.Used.Sign() < 0 {
		balance.Used = decimal.Zero
	}
	return balance
}
