package services

import (
	"context"
	"errors"
	"testing"

	"github.com/CohortInsights/financials/internal/amqp"
	"github.com/CohortInsights/financials/internal/core"
	"github.com/CohortInsights/financials/internal/rules"
	"github.com/CohortInsights/financials/internal/storage"
)

type fakeStore struct {
	transactions []storage.StoredTransaction
	rules        []rules.Rule
	setCalls     []struct {
		id       int64
		category core.Category
		manual   bool
	}
	saveErr error
	nextID  int64
	deleted []int64
}

func (f *fakeStore) ListTransactions(ctx context.Context, _ storage.TransactionFilter) ([]storage.StoredTransaction, error) {
	return f.transactions, nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (storage.StoredTransaction, error) {
	for _, tx := range f.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return storage.StoredTransaction{}, storage.ErrNotFound
}

func (f *fakeStore) SetCategory(ctx context.Context, id int64, category core.Category, manual bool) error {
	f.setCalls = append(f.setCalls, struct {
		id       int64
		category core.Category
		manual   bool
	}{id, category, manual})
	return nil
}

func (f *fakeStore) ListRules(ctx context.Context) ([]rules.Rule, error) { return f.rules, nil }

func (f *fakeStore) SaveRule(ctx context.Context, rule rules.Rule) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) DeleteRule(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	jobs []amqp.Job
	err  error
}

func (f *fakePublisher) PublishRebuild(ctx context.Context, job amqp.Job, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeInvalidator struct{ purges int }

func (f *fakeInvalidator) InvalidateCache() { f.purges++ }

func TestTransactionService_AssignCategory(t *testing.T) {
	store := &fakeStore{}
	inv := &fakeInvalidator{}
	svc := NewTransactionService(store, &fakePublisher{}, inv, testLogger())
	ctx := context.Background()

	if err := svc.AssignCategory(ctx, 7, "Expense.Food"); err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}
	if len(store.setCalls) != 1 {
		t.Fatalf("SetCategory calls = %d, want 1", len(store.setCalls))
	}
	call := store.setCalls[0]
	if call.id != 7 || call.category != "Expense.Food" || !call.manual {
		t.Errorf("SetCategory call = %+v, want manual assignment", call)
	}
	if inv.purges != 1 {
		t.Errorf("cache purges = %d, want 1", inv.purges)
	}

	// Invalid categories never reach the store.
	if err := svc.AssignCategory(ctx, 7, "Expense..Food"); !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("error = %v, want ErrInvalidCategory", err)
	}
	if len(store.setCalls) != 1 {
		t.Errorf("SetCategory calls = %d, want still 1", len(store.setCalls))
	}
}

func TestTransactionService_SaveRulePublishesReassign(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	inv := &fakeInvalidator{}
	svc := NewTransactionService(store, pub, inv, testLogger())

	id, err := svc.SaveRule(context.Background(), rules.Rule{Priority: 1, Assignment: "Expense.Food", Description: "grocery"})
	if err != nil {
		t.Fatalf("SaveRule: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
	if len(pub.jobs) != 1 || pub.jobs[0] != amqp.JobReassign {
		t.Errorf("published jobs = %v, want [reassign]", pub.jobs)
	}
	if inv.purges != 1 {
		t.Errorf("cache purges = %d, want 1", inv.purges)
	}
}

func TestTransactionService_SaveRuleSurvivesPublishFailure(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub, &fakeInvalidator{}, testLogger())

	// The rule is saved either way; the next rebuild applies it.
	if _, err := svc.SaveRule(context.Background(), rules.Rule{Priority: 1, Assignment: "X"}); err != nil {
		t.Errorf("SaveRule with failing publisher = %v, want nil", err)
	}
}

func TestTransactionService_SaveRuleStoreError(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("constraint violated")}
	pub := &fakePublisher{}
	inv := &fakeInvalidator{}
	svc := NewTransactionService(store, pub, inv, testLogger())

	if _, err := svc.SaveRule(context.Background(), rules.Rule{}); err == nil {
		t.Fatal("SaveRule should propagate store errors")
	}
	if len(pub.jobs) != 0 || inv.purges != 0 {
		t.Error("failed save should not publish or invalidate")
	}
}

func TestTransactionService_DeleteRule(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub, &fakeInvalidator{}, testLogger())

	if err := svc.DeleteRule(context.Background(), 3); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 3 {
		t.Errorf("deleted = %v, want [3]", store.deleted)
	}
	if len(pub.jobs) != 1 || pub.jobs[0] != amqp.JobReassign {
		t.Errorf("published jobs = %v, want [reassign]", pub.jobs)
	}
}

func TestTransactionService_RequestRebuild(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(&fakeStore{}, pub, nil, testLogger())

	if err := svc.RequestRebuild(context.Background(), "manual trigger"); err != nil {
		t.Fatalf("RequestRebuild: %v", err)
	}
	if len(pub.jobs) != 1 || pub.jobs[0] != amqp.JobIngest {
		t.Errorf("published jobs = %v, want [ingest]", pub.jobs)
	}

	// Without a queue the caller must learn the rebuild is impossible.
	noQueue := NewTransactionService(&fakeStore{}, nil, nil, testLogger())
	if err := noQueue.RequestRebuild(context.Background(), "manual trigger"); err == nil {
		t.Error("RequestRebuild without a publisher should fail")
	}
}
