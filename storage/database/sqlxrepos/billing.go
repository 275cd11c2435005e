package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/billing"
)

type (
	billingRow struct {
		ID            string    `db:"billing_id"`
		StudentID     string    `db:"student_id"`
		ClassID       string    `db:"class_id"`
		Amount        int64     `db:"amount"`
		BillingMonth  string    `db:"billing_month"`
		DueDate       time.Time `db:"due_date"`
		Status        string    `db:"status"`
		InvoiceNumber string    `db:"invoice_number"`
		PaidAt        null.Time `db:"paid_at"`
		CreatedAt     time.Time `db:"created_at"`
	}

	candidateRow struct {
		StudentID    string     `db:"student_id"`
		StudentName  string     `db:"student_name"`
		StudentEmail string     `db:"student_email"`
		ClassID      string     `db:"class_id"`
		ClassName    string     `db:"class_name"`
		TuitionRate  null.Int64 `db:"tuition_rate"`
	}
)

func (r billingRow) toBilling() billing.Billing {
	b := billing.Billing{
		ID:            r.ID,
		StudentID:     r.StudentID,
		ClassID:       r.ClassID,
		Amount:        r.Amount,
		BillingMonth:  r.BillingMonth,
		DueDate:       r.DueDate.Format(dateLayout),
		Status:        r.Status,
		InvoiceNumber: r.InvoiceNumber,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.PaidAt.Valid {
		paidAt := r.PaidAt.Time.UTC()
		b.PaidAt = &paidAt
	}
	return b
}

var billingOrderFields = map[string]string{
	"createdAt":     "created_at",
	"billingMonth":  "billing_month",
	"dueDate":       "due_date",
	"amount":        "amount",
	"status":        "status",
	"invoiceNumber": "invoice_number",
}

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) billing.Repository {
	return &billingRepository{db: db}
}

func (repo billingRepository) QueryCandidates(ctx context.Context) ([]billing.Candidate, error) {
	const q = `
		SELECT e.student_id, u.name AS student_name, u.email AS student_email,
		       c.class_id, c.name AS class_name, c.tuition_rate
		FROM enrollments e
		JOIN classes c ON c.class_id = e.class_id
		JOIN users u ON u.id = e.student_id
		WHERE e.active
		ORDER BY c.class_id, e.student_id`

	var rows []candidateRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying candidates")
	}

	candidates := make([]billing.Candidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, billing.Candidate{
			StudentID:    r.StudentID,
			StudentName:  r.StudentName,
			StudentEmail: r.StudentEmail,
			ClassID:      r.ClassID,
			ClassName:    r.ClassName,
			TuitionRate:  r.TuitionRate.Ptr(),
		})
	}
	return candidates, nil
}

func (repo billingRepository) QueryBilledKeys(ctx context.Context, month string) ([]billing.Key, error) {
	var rows []struct {
		StudentID string `db:"student_id"`
		ClassID   string `db:"class_id"`
	}
	err := repo.db.SelectContext(ctx, &rows, `SELECT student_id, class_id FROM tuition_billing WHERE billing_month = $1`, month)
	if err != nil {
		return nil, errors.Wrap(err, "querying billed keys")
	}

	keys := make([]billing.Key, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, billing.Key{StudentID: r.StudentID, ClassID: r.ClassID})
	}
	return keys, nil
}

// CreateBillings relies on the (student_id, class_id, billing_month) constraint: a bill created
// concurrently by another run is skipped, never duplicated.
func (repo billingRepository) CreateBillings(ctx context.Context, bills []billing.Billing) ([]billing.Billing, error) {
	const q = `
		INSERT INTO tuition_billing
		    (billing_id, student_id, class_id, amount, billing_month, due_date, status, invoice_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT tuition_billing_student_class_month_key DO NOTHING
		RETURNING *`

	inserted := make([]billing.Billing, 0, len(bills))
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, q)
		if err != nil {
			return errors.Wrap(err, "preparing insert")
		}
		defer func() { _ = stmt.Close() }()

		for _, b := range bills {
			var row billingRow
			err := stmt.QueryRowxContext(ctx,
				b.ID, b.StudentID, b.ClassID, b.Amount, b.BillingMonth, b.DueDate, b.Status, b.InvoiceNumber, b.CreatedAt,
			).StructScan(&row)
			if err == sql.ErrNoRows {
				continue // already billed
			}
			if err != nil {
				return errors.Wrapf(err, "inserting billing of student %s, class %s", b.StudentID, b.ClassID)
			}
			inserted = append(inserted, row.toBilling())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func billingsQuery(filter billing.QueryFilter, ordering []core.DBOrdering) sq.SelectBuilder {
	q := psql.Select("*").From("tuition_billing")
	if filter.Month != "" {
		q = q.Where(sq.Eq{"billing_month": filter.Month})
	}
	if filter.StudentID != "" {
		q = q.Where(sq.Eq{"student_id": filter.StudentID})
	}
	if filter.ClassID != "" {
		q = q.Where(sq.Eq{"class_id": filter.ClassID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	return q.OrderBy(orderBy(ordering, billingOrderFields, "created_at DESC", "invoice_number")...)
}

func (repo billingRepository) QueryBillings(ctx context.Context, filter billing.QueryFilter, ordering ...core.DBOrdering) ([]billing.Billing, error) {
	var rows []billingRow
	err := selectBuilt(ctx, repo.db, &rows, billingsQuery(filter, ordering))
	if empty, err := trapListErr(err, "querying billings"); empty || err != nil {
		return []billing.Billing{}, err
	}

	bills := make([]billing.Billing, 0, len(rows))
	for _, r := range rows {
		bills = append(bills, r.toBilling())
	}
	return bills, nil
}

func (repo billingRepository) UpdateBillingStatus(ctx context.Context, id, status string, paidAt *time.Time) (billing.Billing, error) {
	var row billingRow
	err := repo.db.QueryRowxContext(ctx,
		`UPDATE tuition_billing SET status = $2, paid_at = $3 WHERE billing_id = $1 RETURNING *`,
		id, status, null.TimeFromPtr(paidAt),
	).StructScan(&row)
	if err != nil {
		return billing.Billing{}, trapNoRowsErr(err, billing.ErrNotFound, "updating billing status")
	}
	return row.toBilling(), nil
}
