package leave

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carryType() LeaveType {
	return LeaveType{
		ID:                  "annual",
		Name:                "Annual",
		DefaultDays:         d("20"),
		IsCarryForward:      true,
		MaxCarryForwardDays: d("5"),
		IsActive:            true,
	}
}

func TestComputeCarryForwardCappedAtRemainder(t *testing.T) {
	lt := carryType()
	b := LeaveBalance{Balance: d("20"), Used: d("18")}
	assert.True(t, ComputeCarryForward(b, lt).Equal(d("2")))
}

func TestComputeCarryForwardCappedAtMax(t *testing.T) {
	lt := carryType()
	b := LeaveBalance{Balance: d("20"), Used: d("3")}
	assert.True(t, ComputeCarryForward(b, lt).Equal(d("5")))
}

func TestComputeCarryForwardNonCarryType(t *testing.T) {
	lt := carryType()
	lt.IsCarryForward = false
	b := LeaveBalance{Balance: d("20"), Used: d("0")}
	assert.True(t, ComputeCarryForward(b, lt).IsZero())
}

func TestComputeCarryForwardExhaustedBalance(t *testing.T) {
	lt := carryType()
	b := LeaveBalance{Balance: d("20"), Used: d("20")}
	assert.True(t, ComputeCarryForward(b, lt).IsZero())

	b.Used = d("25")
	assert.True(t, ComputeCarryForward(b, lt).IsZero(), "overdrawn balances carry nothing")
}

func TestComputeCarryForwardCountsUnspentCarryForward(t *testing.T) {
	lt := carryType()
	b := LeaveBalance{Balance: d("20"), CarryForward: d("3"), Used: d("20")}
	assert.True(t, ComputeCarryForward(b, lt).Equal(d("3")),
		"remaining = balance + carryForward - used")
}

func TestApplyCarryForwardCreatesNextYearRows(t *testing.T) {
	store := newFakeStore()
	lt := carryType()
	store.types[lt.ID] = lt
	store.balances[balanceKey("emp", "annual", 2024)] = LeaveBalance{
		ID: "b1", UserID: "emp", LeaveTypeID: "annual", Year: 2024,
		Balance: d("20"), Used: d("18"),
	}
	store.balances[balanceKey("peer", "annual", 2024)] = LeaveBalance{
		ID: "b2", UserID: "peer", LeaveTypeID: "annual", Year: 2024,
		Balance: d("20"), Used: d("20"),
	}

	summary, err := ApplyCarryForward(context.Background(), store, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TypesProcessed)
	assert.Equal(t, 1, summary.RowsCarried, "exhausted balances are skipped")

	next := store.balances[balanceKey("emp", "annual", 2025)]
	assert.True(t, next.CarryForward.Equal(d("2")))
	assert.True(t, next.Balance.Equal(d("20")), "next year starts from the default entitlement")

	_, ok := store.balances[balanceKey("peer", "annual", 2025)]
	assert.False(t, ok)
}

func TestApplyCarryForwardOverwritesPreviousRun(t *testing.T) {
	store := newFakeStore()
	lt := carryType()
	store.types[lt.ID] = lt
	store.balances[balanceKey("emp", "annual", 2024)] = LeaveBalance{
		UserID: "emp", LeaveTypeID: "annual", Year: 2024,
		Balance: d("20"), Used: d("18"),
	}
	store.balances[balanceKey("emp", "annual", 2025)] = LeaveBalance{
		UserID: "emp", LeaveTypeID: "annual", Year: 2025,
		Balance: d("20"), CarryForward: d("4"),
	}

	_, err := ApplyCarryForward(context.Background(), store, 2024)
	require.NoError(t, err)
	_, err = ApplyCarryForward(context.Background(), store, 2024)
	require.NoError(t, err)

	next := store.balances[balanceKey("emp", "annual", 2025)]
	assert.True(t, next.CarryForward.Equal(d("2")),
		"re-running replaces the carried amount instead of adding to it")
}

func TestApplyCarryForwardSkipsNonCarryTypes(t *testing.T) {
	store := newFakeStore()
	store.types["sick"] = LeaveType{
		ID: "sick", Name: "Sick", DefaultDays: d("10"), IsActive: true,
	}
	store.balances[balanceKey("emp", "sick", 2024)] = LeaveBalance{
		UserID: "emp", LeaveTypeID: "sick", Year: 2024, Balance: d("10"),
	}

	summary, err := ApplyCarryForward(context.Background(), store, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TypesProcessed)
	assert.Equal(t, 0, summary.RowsCarried)
}

func TestComputeCarryForwardZeroMax(t *testing.T) {
	lt := carryType()
	lt.MaxCarryForwardDays = decimal.Zero
	b := LeaveBalance{Balance: d("20"), Used: d("10")}
	assert.True(t, ComputeCarryForward(b, lt).IsZero())
}
