package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

type CarryForwardSummary struct {
	TypesProcessed int `json:"typesProcessed"`
	RowsCarried    int `json:"rowsCarried"`
}

// ComputeCarryForward returns the amount of unused balance that rolls from a
// source-year row into the next year, bounded by the leave type's cap.
// Types without carry-forward always contribute zero.
func ComputeCarryForward(balance LeaveBalance, leaveType LeaveType) decimal.Decimal {
	if !leaveType.IsCarryForward {
		return decimal.Zero
	}
	remaining := balance.Available()
	if remaining.Sign() <= 0 {
		return decimal.Zero
	}
	if remaining.GreaterThan(leaveType.MaxCarryForwardDays) {
		return leaveType.MaxCarryForwardDays
	}
	return remaining
}

// ApplyCarryForward maps ComputeCarryForward over every source-year balance
// row of each carry-forward leave type, upserting the destination-year rows.
// Destination rows keep their own balance/used; only carryForward is set,
// so re-running the batch overwrites rather than accumulates. New rows are
// seeded from the type's default allotment with zero usage.
func ApplyCarryForward(ctx context.Context, store StoreAPI, fromYear int) (CarryForwardSummary, error) {
	var summary CarryForwardSummary

	types, err := store.ListLeaveTypes(ctx, true)
	if err != nil {
		return summary, err
	}

	for _, leaveType := range types {
		if !leaveType.IsCarryForward {
			continue
		}
		lt := leaveType
		err := store.InTx(ctx, func(tx TxStore) error {
			rows, err := tx.BalancesForYear(ctx, lt.ID, fromYear)
			if err != nil {
				return err
			}
			for _, row := range rows {
				amount := ComputeCarryForward(row, lt)
				if amount.Sign() <= 0 {
					continue
				}
				if err := tx.UpsertCarryForward(ctx, row.UserID, lt.ID, fromYear+1, amount, lt.DefaultDays); err != nil {
					return err
				}
				summary.RowsCarried++
			}
			return nil
		})
		if err != nil {
			return summary, err
		}
		summary.TypesProcessed++
	}

	return summary, nil
}
