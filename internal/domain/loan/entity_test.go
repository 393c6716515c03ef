package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, day(2024, 3, 15), p.DueDate(time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)))
	assert.True(t, p.FineFor(0).IsZero())
	assert.True(t, p.FineFor(-3).IsZero())
	assert.Equal(t, "5.00", p.FineFor(5).StringFixed(2))

	custom := Policy{LoanPeriodDays: 7, FinePerDay: decimal.RequireFromString("0.25")}
	assert.Equal(t, "0.75", custom.FineFor(3).StringFixed(2))
	assert.False(t, custom.LimitReached(100), "0表示不限制")

	assert.False(t, p.LimitReached(100), "默认不限制")

	limited := Policy{MaxLoansPerUser: 5}
	assert.False(t, limited.LimitReached(4))
	assert.True(t, limited.LimitReached(5))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(day(2024, 3, 1), day(2024, 3, 1)))
	assert.Equal(t, 29, DaysBetween(day(2024, 2, 1), day(2024, 3, 1)), "闰年二月")
	assert.Equal(t, -1, DaysBetween(day(2024, 3, 2), day(2024, 3, 1)))

	// 时刻不影响日数
	assert.Equal(t, 1, DaysBetween(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC)))
}

func TestNewLoan(t *testing.T) {
	l := NewLoan(7, 9, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), DefaultPolicy())

	assert.Equal(t, uint(7), l.BookID)
	assert.Equal(t, uint(9), l.UserID)
	assert.Equal(t, day(2024, 3, 1), l.BorrowDate)
	assert.Equal(t, day(2024, 3, 15), l.DueDate)
	assert.Equal(t, StatusBorrowed, l.Status)
	assert.Nil(t, l.ReturnDate)
	assert.True(t, l.FineAmount.IsZero())
}

func TestLoan_Return(t *testing.T) {
	tests := []struct {
		name       string
		returnOn   time.Time
		wantStatus Status
		wantFine   string
	}{
		{"提前归还", day(2024, 3, 10), StatusReturned, "0.00"},
		{"应还日当天归还", day(2024, 3, 15), StatusReturned, "0.00"},
		{"逾期1天", day(2024, 3, 16), StatusOverdue, "1.00"},
		{"逾期跨月", day(2024, 4, 2), StatusOverdue, "18.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoan(1, 1, day(2024, 3, 1), DefaultPolicy())

			require.NoError(t, l.Return(tt.returnOn, DefaultPolicy()))
			assert.Equal(t, tt.wantStatus, l.Status)
			assert.Equal(t, tt.wantFine, l.FineAmount.StringFixed(2))
			require.NotNil(t, l.ReturnDate)
			assert.Equal(t, tt.returnOn, *l.ReturnDate)
		})
	}
}

func TestLoan_ReturnTwice(t *testing.T) {
	l := NewLoan(1, 1, day(2024, 3, 1), DefaultPolicy())
	require.NoError(t, l.Return(day(2024, 3, 20), DefaultPolicy()))

	err := l.Return(day(2024, 3, 25), DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidLoanState)

	// 首次归还结果不变
	assert.Equal(t, StatusOverdue, l.Status)
	assert.Equal(t, "5.00", l.FineAmount.StringFixed(2))
	assert.Equal(t, day(2024, 3, 20), *l.ReturnDate)
}

func TestLoan_IsOverdue(t *testing.T) {
	l := NewLoan(1, 1, day(2024, 3, 1), DefaultPolicy())

	assert.False(t, l.IsOverdue(day(2024, 3, 15)))
	assert.True(t, l.IsOverdue(day(2024, 3, 16)))
	assert.Equal(t, 0, l.DaysOverdue(day(2024, 3, 10)))
	assert.Equal(t, 3, l.DaysOverdue(day(2024, 3, 18)))

	require.NoError(t, l.Return(day(2024, 3, 18), DefaultPolicy()))
	assert.False(t, l.IsOverdue(day(2024, 4, 1)), "已归还不再计入逾期")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "借出中", StatusBorrowed.String())
	assert.Equal(t, "逾期归还", StatusOverdue.String())
	assert.Equal(t, "未知状态", Status("LOST").String())
}

func TestLoan_ReturnAcrossZones(t *testing.T) {
	// 应还日期按UTC读出,业务时区为UTC-5
	west := time.FixedZone("UTC-5", -5*3600)
	newLoan := func() *Loan {
		return &Loan{Status: StatusBorrowed, BorrowDate: day(2024, 3, 1), DueDate: day(2024, 3, 15), FineAmount: decimal.Zero}
	}

	onTime := newLoan()
	assert.False(t, onTime.IsOverdue(time.Date(2024, 3, 15, 10, 0, 0, 0, west)))
	require.NoError(t, onTime.Return(time.Date(2024, 3, 15, 10, 0, 0, 0, west), DefaultPolicy()))
	assert.Equal(t, StatusReturned, onTime.Status)
	assert.True(t, onTime.FineAmount.IsZero())

	late := newLoan()
	assert.True(t, late.IsOverdue(time.Date(2024, 3, 16, 10, 0, 0, 0, west)))
	require.NoError(t, late.Return(time.Date(2024, 3, 16, 10, 0, 0, 0, west), DefaultPolicy()))
	assert.Equal(t, StatusOverdue, late.Status)
	assert.Equal(t, "1.00", late.FineAmount.StringFixed(2))
}
