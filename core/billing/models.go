package billing

import (
	"time"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

var AllStatuses = []string{StatusPending, StatusPaid, StatusOverdue, StatusCancelled}

// Billing is one tuition bill; at most one exists per (StudentID, ClassID, BillingMonth).
type Billing struct {
	ID            string     `json:"billingId"`
	StudentID     string     `json:"studentId"`
	ClassID       string     `json:"classId"`
	Amount        int64      `json:"amount"`
	BillingMonth  string     `json:"billingMonth"` // YYYY-MM
	DueDate       string     `json:"dueDate"`      // YYYY-MM-DD
	Status        string     `json:"status"`
	InvoiceNumber string     `json:"invoiceNumber"`
	PaidAt        *time.Time `json:"paidAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Candidate is an active enrollment joined with what is needed to bill it.
type Candidate struct {
	StudentID    string
	StudentName  string
	StudentEmail string
	ClassID      string
	ClassName    string
	TuitionRate  *int64
}

type Key struct {
	StudentID string
	ClassID   string
}

func (c Candidate) Key() Key { return Key{StudentID: c.StudentID, ClassID: c.ClassID} }
func (b Billing) Key() Key   { return Key{StudentID: b.StudentID, ClassID: b.ClassID} }

// GenerationResult summarizes a billing job run.
type GenerationResult struct {
	BillingMonth string    `json:"billingMonth"`
	Created      int       `json:"created"`
	Skipped      int       `json:"skipped"`
	Timestamp    time.Time `json:"timestamp"`
	Bills        []Billing `json:"-"`
}

type QueryFilter struct {
	Month     string `query:"month" validate:"omitempty,yearmonth"`
	StudentID string `query:"studentId"`
	ClassID   string `query:"classId"`
	Status    string `query:"status" validate:"omitempty,billstatus"`
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,billstatus"`
}

type invoiceData struct {
	StudentName   string
	ClassName     string
	InvoiceNumber string
	BillingMonth  string
	Amount        string
	DueDate       string
}
