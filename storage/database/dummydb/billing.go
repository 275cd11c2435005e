package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/billing"
)

type billingRepository struct {
	db *DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *DB) billing.Repository {
	return &billingRepository{db: db}
}

func (repo *billingRepository) QueryCandidates(_ context.Context) ([]billing.Candidate, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	candidates := make([]billing.Candidate, 0, len(repo.db.class.enrollments))
	for key, enr := range repo.db.class.enrollments {
		if !enr.Active {
			continue
		}
		cls, ok := repo.db.class.classes[key.classID]
		if !ok {
			continue
		}
		usr, ok := repo.db.user.table[key.studentID]
		if !ok {
			continue
		}
		candidates = append(candidates, billing.Candidate{
			StudentID:    usr.ID,
			StudentName:  usr.Name,
			StudentEmail: usr.Email,
			ClassID:      cls.ID,
			ClassName:    cls.Name,
			TuitionRate:  copyRate(cls.TuitionRate),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ClassID == candidates[j].ClassID {
			return candidates[i].StudentID < candidates[j].StudentID
		}
		return candidates[i].ClassID < candidates[j].ClassID
	})
	return candidates, nil
}

func (repo *billingRepository) QueryBilledKeys(_ context.Context, month string) ([]billing.Key, error) {
	repo.db.billing.RLock()
	defer repo.db.billing.RUnlock()

	keys := make([]billing.Key, 0)
	for k := range repo.db.billing.table {
		if k.month == month {
			keys = append(keys, billing.Key{StudentID: k.studentID, ClassID: k.classID})
		}
	}
	return keys, nil
}

func (repo *billingRepository) CreateBillings(_ context.Context, bills []billing.Billing) ([]billing.Billing, error) {
	repo.db.billing.Lock()
	defer repo.db.billing.Unlock()

	inserted := make([]billing.Billing, 0, len(bills))
	for _, b := range bills {
		key := billingKey{b.StudentID, b.ClassID, b.BillingMonth}
		if _, exists := repo.db.billing.table[key]; exists {
			continue
		}
		b := b
		repo.db.billing.table[key] = &b
		inserted = append(inserted, b)
	}
	return inserted, nil
}

func (repo *billingRepository) QueryBillings(_ context.Context, filter billing.QueryFilter, ordering ...core.DBOrdering) ([]billing.Billing, error) {
	repo.db.billing.RLock()
	defer repo.db.billing.RUnlock()

	bills := make([]billing.Billing, 0)
	for _, b := range repo.db.billing.table {
		switch {
		case filter.Month != "" && b.BillingMonth != filter.Month,
			filter.StudentID != "" && b.StudentID != filter.StudentID,
			filter.ClassID != "" && b.ClassID != filter.ClassID,
			filter.Status != "" && b.Status != filter.Status:
			continue
		}
		bills = append(bills, *b)
	}

	// only the default ordering (newest first) is emulated
	sort.Slice(bills, func(i, j int) bool {
		if bills[i].CreatedAt.Equal(bills[j].CreatedAt) {
			return bills[i].InvoiceNumber < bills[j].InvoiceNumber
		}
		return bills[i].CreatedAt.After(bills[j].CreatedAt)
	})
	return bills, nil
}

func (repo *billingRepository) UpdateBillingStatus(_ context.Context, id, status string, paidAt *time.Time) (billing.Billing, error) {
	repo.db.billing.Lock()
	defer repo.db.billing.Unlock()

	for _, b := range repo.db.billing.table {
		if b.ID == id {
			b.Status = status
			b.PaidAt = paidAt
			return *b, nil
		}
	}
	return billing.Billing{}, billing.ErrNotFound
}
