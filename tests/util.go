package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core/ledger"
)

// ErrFlaky is the error returned by a FlakyStore for the documents it was told to fail.
var ErrFlaky = errors.New("flaky store: write failed")

func CreateRecord(t *testing.T, store ledger.Store, rec ledger.Record) ledger.Record {
	t.Helper()
	if _, err := store.InsertOne(context.Background(), rec); err != nil {
		t.Fatalf("createRecord() failed: %v", err)
	}
	return rec
}

func CreateStudent(t *testing.T, store ledger.Store, email, class, section string, edit ...func(*ledger.Record)) ledger.Record {
	t.Helper()
	rec := ledger.Record{
		ID:       "id-" + email,
		Email:    email,
		FullName: "Student " + email,
		Role:     ledger.RoleStudent,
		Classes:  []string{class},
		Sections: []string{section},
	}
	for _, fn := range edit {
		fn(&rec)
	}
	return CreateRecord(t, store, rec)
}

func CreateTeacher(t *testing.T, store ledger.Store, email string, assignments ...ledger.Assignment) ledger.Record {
	t.Helper()
	return CreateRecord(t, store, ledger.Record{
		ID:          "id-" + email,
		Email:       email,
		Role:        ledger.RoleTeacher,
		Assignments: assignments,
	})
}

func GetRecord(t *testing.T, store ledger.Store, email string) ledger.Record {
	t.Helper()
	rec, err := store.FindOne(context.Background(), ledger.Filter{Email: email})
	if err != nil {
		t.Fatalf("getRecord(%s) failed: %v", email, err)
	}
	return rec
}

// FlakyStore fails the mutations of selected documents a given number of times.
type FlakyStore struct {
	ledger.Store

	mu       sync.Mutex
	failures map[string]int // {email: remaining failures}; < 0 fails forever
}

func NewFlakyStore(store ledger.Store) *FlakyStore {
	return &FlakyStore{Store: store, failures: make(map[string]int)}
}

// FailFor makes the next `times` writes to `email` fail. times < 0 fails every write.
func (s *FlakyStore) FailFor(email string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[email] = times
}

func (s *FlakyStore) shouldFail(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.failures[email]
	switch {
	case !ok || n == 0:
		return false
	case n > 0:
		s.failures[email] = n - 1
	}
	return true
}

func (s *FlakyStore) wrap(mut ledger.Mutation) ledger.Mutation {
	return func(rec *ledger.Record) (bool, error) {
		if s.shouldFail(rec.Email) {
			return false, ErrFlaky
		}
		return mut(rec)
	}
}

func (s *FlakyStore) UpdateOne(ctx context.Context, f ledger.Filter, mut ledger.Mutation, opts ...ledger.UpdateOption) (ledger.UpdateResult, error) {
	return s.Store.UpdateOne(ctx, f, s.wrap(mut), opts...)
}

func (s *FlakyStore) UpdateMany(ctx context.Context, f ledger.Filter, mut ledger.Mutation) (ledger.UpdateResult, error) {
	return s.Store.UpdateMany(ctx, f, s.wrap(mut))
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
