package ledger

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("a record with this email already exists")
)

// Filter selects records. Empty fields are ignored; Class and Section test array membership
// and AssignmentID selects the owner of that assignment.
type Filter struct {
	Email        string
	Role         string
	Class        string
	Section      string
	AssignmentID string
}

func (f Filter) Match(rec *Record) bool {
	if f.Email != "" && rec.Email != f.Email {
		return false
	}
	if f.Role != "" && rec.Role != f.Role {
		return false
	}
	if f.Class != "" && !rec.HasClass(f.Class) {
		return false
	}
	if f.Section != "" && !rec.HasSection(f.Section) {
		return false
	}
	if f.AssignmentID != "" {
		if _, ok := rec.Assignment(f.AssignmentID); !ok {
			return false
		}
	}
	return true
}

// RosterFilter selects the students of a class+section.
func RosterFilter(class, section string) Filter {
	return Filter{Role: RoleStudent, Class: class, Section: section}
}

// UpdateResult reports how many documents matched a filter and how many a mutation changed.
type UpdateResult struct {
	Matched  int  `json:"matched"`
	Modified int  `json:"modified"`
	Upserted bool `json:"upserted,omitempty"`
}

type UpdateOptions struct {
	Upsert bool
}

type UpdateOption func(*UpdateOptions)

// Upsert creates a record for Filter.Email (and Filter.Role) when nothing matches.
func Upsert() UpdateOption {
	return func(o *UpdateOptions) { o.Upsert = true }
}

func ApplyOptions(opts []UpdateOption) UpdateOptions {
	var o UpdateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the document store holding one Record per account.
// Every mutating call is atomic per document only: UpdateMany may leave some documents
// modified when it fails, and reports the counts applied so far along with the error.
type Store interface {
	FindOne(ctx context.Context, f Filter) (Record, error)
	FindMany(ctx context.Context, f Filter) ([]Record, error)
	UpdateOne(ctx context.Context, f Filter, mut Mutation, opts ...UpdateOption) (UpdateResult, error)
	UpdateMany(ctx context.Context, f Filter, mut Mutation) (UpdateResult, error)
	InsertOne(ctx context.Context, rec Record) (string, error)
}

// UpsertRecord builds the record created by an upsert on `f`.
func UpsertRecord(f Filter) (Record, error) {
	if f.Email == "" {
		return Record{}, errors.New("upsert requires an email filter")
	}
	return Record{Email: f.Email, Role: f.Role}, nil
}
