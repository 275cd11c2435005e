package billing

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

var (
	ErrNotFound = core.NewNotFoundError("billing")

	invoiceSuffixFunc = randomInvoiceSuffix // mockable
)

type (
	Repository interface {
		// QueryCandidates returns every active enrollment joined with its class tuition rate.
		QueryCandidates(ctx context.Context) ([]Candidate, error)
		// QueryBilledKeys returns the (student, class) pairs already billed for month.
		QueryBilledKeys(ctx context.Context, month string) ([]Key, error)
		// CreateBillings inserts bills in a single transaction, silently skipping any
		// (student, class, month) that already exists, and returns the rows actually inserted.
		CreateBillings(ctx context.Context, bills []Billing) ([]Billing, error)
		QueryBillings(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Billing, error)
		UpdateBillingStatus(ctx context.Context, id, status string, paidAt *time.Time) (Billing, error)
	}

	Service interface {
		GenerateMonthlyBills(ctx context.Context, now time.Time) (GenerationResult, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Billing, error)
		UpdateStatus(ctx context.Context, id string, us UpdateStatus) (Billing, error)
	}

	Options struct {
		Location *time.Location
		DueDay   int
		Notify   bool
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
		opts     Options
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	opts Options,
) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DueDay == 0 {
		opts.DueDay = 15
	}
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
		opts:     opts,
	}
}

// Period returns the billing month key & due date of the month now falls in.
func Period(now time.Time, loc *time.Location, dueDay int) (month string, dueDate time.Time) {
	local := now.In(loc)
	dueDate = time.Date(local.Year(), local.Month(), dueDay, 0, 0, 0, 0, loc)
	return core.MonthKey(local, loc), dueDate
}

// GenerateMonthlyBills creates one pending bill per billable active enrollment that has none for the
// month `now` falls in. Running it again for the same month creates nothing.
func (svc *service) GenerateMonthlyBills(ctx context.Context, now time.Time) (res GenerationResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveJob(metrics.JobGenerateBills, start, metrics.Outcome(err)) }()

	month, dueDate := Period(now, svc.opts.Location, svc.opts.DueDay)
	res = GenerationResult{BillingMonth: month, Timestamp: now.UTC()}

	candidates, err := svc.repo.QueryCandidates(ctx)
	if err != nil {
		return res, errors.Wrap(err, "querying billing candidates")
	}

	billedKeys, err := svc.repo.QueryBilledKeys(ctx, month)
	if err != nil {
		return res, errors.Wrap(err, "querying billed keys")
	}
	billed := make(map[Key]struct{}, len(billedKeys))
	for _, k := range billedKeys {
		billed[k] = struct{}{}
	}

	createdAt := now.UTC()
	bills := make([]Billing, 0, len(candidates))
	byKey := make(map[Key]Candidate, len(candidates))
	for _, c := range candidates {
		if c.TuitionRate == nil || *c.TuitionRate <= 0 {
			continue
		}
		if _, ok := billed[c.Key()]; ok {
			continue
		}
		billed[c.Key()] = struct{}{}
		byKey[c.Key()] = c

		bills = append(bills, Billing{
			ID:            uuid.NewString(),
			StudentID:     c.StudentID,
			ClassID:       c.ClassID,
			Amount:        *c.TuitionRate,
			BillingMonth:  month,
			DueDate:       core.DateKey(dueDate, svc.opts.Location),
			Status:        StatusPending,
			InvoiceNumber: InvoiceNumber(month, invoiceSuffixFunc()),
			CreatedAt:     createdAt,
		})
	}

	if len(bills) > 0 {
		if bills, err = svc.repo.CreateBillings(ctx, bills); err != nil {
			return res, errors.Wrap(err, "creating billings")
		}
	}

	res.Created = len(bills)
	res.Skipped = len(candidates) - res.Created
	res.Bills = bills
	metrics.BillsCreated.Add(float64(res.Created))

	if svc.opts.Notify && len(bills) > 0 {
		svc.notify(bills, byKey)
	}
	return res, nil
}

func (svc *service) notify(bills []Billing, candidates map[Key]Candidate) {
	messages := make([]*core.EmailMessage, 0, len(bills))
	for _, b := range bills {
		c, ok := candidates[b.Key()]
		if !ok || c.StudentEmail == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: c.StudentName, Address: c.StudentEmail}},
			Subject:      fmt.Sprintf("Tuition invoice %s", b.InvoiceNumber),
			TemplateName: "invoice",
			TemplateData: invoiceData{
				StudentName:   c.StudentName,
				ClassName:     c.ClassName,
				InvoiceNumber: b.InvoiceNumber,
				BillingMonth:  b.BillingMonth,
				Amount:        FormatAmount(b.Amount),
				DueDate:       b.DueDate,
			},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Billing, error) {
	if err := svc.validate.Struct(filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryBillings(ctx, filter, ordering...)
}

func (svc *service) UpdateStatus(ctx context.Context, id string, us UpdateStatus) (Billing, error) {
	us.Status = core.CleanString(us.Status, true /* lower */)
	if err := svc.validate.Struct(us); err != nil {
		return Billing{}, err
	}

	var paidAt *time.Time
	if us.Status == StatusPaid {
		now := core.NowFunc().UTC()
		paidAt = &now
	}
	return svc.repo.UpdateBillingStatus(ctx, id, us.Status, paidAt)
}

// InvoiceNumber builds "INV-<YYYYMM>-<suffix>".
func InvoiceNumber(month, suffix string) string {
	return "INV-" + strings.ReplaceAll(month, "-", "") + "-" + suffix
}

func randomInvoiceSuffix() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}

// FormatAmount renders an amount with thousands separators, eg. 1500000 -> "1,500,000".
func FormatAmount(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
