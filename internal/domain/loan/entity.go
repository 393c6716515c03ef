package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 借阅状态
// 使用字符串存储,与历史数据(transactions表)保持一致
type Status string

const (
	StatusBorrowed Status = "BORROWED" // 借出中
	StatusReturned Status = "RETURNED" // 按期归还
	StatusOverdue  Status = "OVERDUE"  // 逾期归还(已计罚金)
)

// String 实现Stringer接口(方便日志输出)
func (s Status) String() string {
	switch s {
	case StatusBorrowed:
		return "借出中"
	case StatusReturned:
		return "已归还"
	case StatusOverdue:
		return "逾期归还"
	default:
		return "未知状态"
	}
}

// transitions 合法的状态转换
// BORROWED只能通过归还转换到RETURNED或OVERDUE,二者均为终态
var transitions = map[Status][]Status{
	StatusBorrowed: {StatusReturned, StatusOverdue},
	StatusReturned: {},
	StatusOverdue:  {},
}

// Loan 借阅记录(只追加的台账条目)
// 设计说明:
// 1. 只由借书创建,只由还书修改一次,永不删除
// 2. BookID/UserID为弱引用,不拥有图书和读者
// 3. 日期字段只保留日期部分(当地零点)
type Loan struct {
	ID         uint
	BookID     uint
	UserID     uint
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     Status
	FineAmount decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoan 创建借阅记录(工厂方法)
// 应还日期 = 借出日期 + 借期天数
func NewLoan(bookID, userID uint, today time.Time, policy Policy) *Loan {
	borrowDate := DateOf(today)
	now := time.Now()
	return &Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: borrowDate,
		DueDate:    policy.DueDate(borrowDate),
		Status:     StatusBorrowed,
		FineAmount: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanTransitionTo 检查是否可以转换到目标状态
func (l *Loan) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[l.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsOutstanding 是否尚未归还
func (l *Loan) IsOutstanding() bool {
	return l.Status == StatusBorrowed
}

// IsOverdue 截至asOf是否已逾期且未归还
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.IsOutstanding() && l.DaysOverdue(asOf) > 0
}

// DaysOverdue 截至asOf的逾期天数(未逾期为0)
func (l *Loan) DaysOverdue(asOf time.Time) int {
	days := DaysBetween(l.DueDate, asOf)
	if days < 0 {
		return 0
	}
	return days
}

// Return 归还(领域行为)
// 归还日期晚于应还日期时按天计罚金并标记为OVERDUE,否则罚金为0并标记为RETURNED
func (l *Loan) Return(today time.Time, policy Policy) error {
	returnDate := DateOf(today)
	target := StatusReturned
	fine := decimal.Zero
	// 按日历日判断,状态与罚金一致
	if days := l.DaysOverdue(returnDate); days > 0 {
		target = StatusOverdue
		fine = policy.FineFor(days)
	}

	if !l.CanTransitionTo(target) {
		return ErrInvalidLoanState
	}

	l.ReturnDate = &returnDate
	l.Status = target
	l.FineAmount = fine
	l.UpdatedAt = time.Now()
	return nil
}
