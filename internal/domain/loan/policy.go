package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLoanPeriodDays 默认借期
	DefaultLoanPeriodDays = 14
	// DefaultMaxLoansPerUser 默认不限制每人在借数量,需要时通过配置开启
	DefaultMaxLoansPerUser = 0
)

// DefaultFinePerDay 默认每日罚金
var DefaultFinePerDay = decimal.NewFromInt(1)

// Policy 借阅规则
type Policy struct {
	LoanPeriodDays  int             // 借期(天)
	FinePerDay      decimal.Decimal // 每逾期一天的罚金,无上限无宽限期
	MaxLoansPerUser int             // 每人最多在借数量,0表示不限制
}

// DefaultPolicy 默认借阅规则: 借期14天,每日罚金1.00,不限在借数量
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriodDays:  DefaultLoanPeriodDays,
		FinePerDay:      DefaultFinePerDay,
		MaxLoansPerUser: DefaultMaxLoansPerUser,
	}
}

// DueDate 计算应还日期
func (p Policy) DueDate(borrowDate time.Time) time.Time {
	return DateOf(borrowDate).AddDate(0, 0, p.LoanPeriodDays)
}

// FineFor 逾期天数对应的罚金(保留两位小数)
func (p Policy) FineFor(daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}
	return p.FinePerDay.Mul(decimal.NewFromInt(int64(daysLate))).Round(2)
}

// LimitReached 在借数量是否已达上限
func (p Policy) LimitReached(outstanding int64) bool {
	return p.MaxLoansPerUser > 0 && outstanding >= int64(p.MaxLoansPerUser)
}

// DateOf 截取日期部分(保留时区)
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween 两个日期相差的自然日数(to - from)
// 按日历日计算,不受夏令时影响
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
