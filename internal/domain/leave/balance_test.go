package leave

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestAvailable(t *testing.T) {
	row := LeaveBalance{Balance: d("20"), CarryForward: d("3"), Used: d("5.5")}
	assert.True(t, row.Available().Equal(d("17.5")), "got %s", row.Available())
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	row := LeaveBalance{Balance: d("20"), CarryForward: d("2"), Used: d("4")}
	before := row.Available()

	row = Reserve(row, d("3.5"))
	assert.True(t, row.Used.Equal(d("7.5")))

	row = Release(row, d("3.5"))
	assert.True(t, row.Available().Equal(before), "reserve then release must restore availability")
}

func TestReleaseClampsAtZero(t *testing.T) {
	row := LeaveBalance{Balance: d("10"), Used: d("1")}
	row = Release(row, d("5"))
	assert.True(t, row.Used.IsZero(), "used must never go negative, got %s", row.Used)

	// repeated releases stay at zero
	row = Release(row, d("2"))
	assert.True(t, row.Used.IsZero())
}

func TestCanConsumePaid(t *testing.T) {
	paid := LeaveType{IsPaidLeave: true}
	row := LeaveBalance{Balance: d("5"), CarryForward: d("0"), Used: d("3")}

	assert.True(t, CanConsume(row, paid, d("2")))
	assert.True(t, CanConsume(row, paid, d("1.5")))
	assert.False(t, CanConsume(row, paid, d("2.5")))
}

func TestCanConsumeUnpaidSkipsCheck(t *testing.T) {
	unpaid := LeaveType{IsPaidLeave: false}
	row := LeaveBalance{Balance: d("0"), Used: d("40")}
	assert.True(t, CanConsume(row, unpaid, d("10")), "unpaid leave is never blocked on availability")
}
