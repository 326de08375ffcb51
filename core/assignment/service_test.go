package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	testutil "github.com/speakmate/speakmate/tests"
)

type countingMetrics struct {
	core.Metrics
	retracted, partial int
}

func (m *countingMetrics) Retracted(string, int, int) { m.retracted++ }
func (m *countingMetrics) Partial(string)             { m.partial++ }

var fanout = core.FanoutConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func newService(store ledger.Store) (*Service, *countingMetrics) {
	metrics := &countingMetrics{Metrics: core.NopMetrics}
	return NewService(store, testutil.NopLogger{}, metrics, fanout), metrics
}

func scrambleAssignment(id string, items ...ledger.ItemRef) ledger.Assignment {
	return ledger.Assignment{
		ID:            id,
		Type:          ledger.ModuleScramble,
		TargetClass:   "5",
		TargetSection: "B",
		Metadata:      ledger.AssignmentMetadata{ScrambleWords: items},
	}
}

func TestAdd(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	store := inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateTeacher(t, store, "t@school.test")
	svc, _ := newService(store)
	ctx := context.Background()

	valid := scrambleAssignment("as-1", ledger.ItemRef{Word: "CAT", Difficulty: ledger.Easy})

	tests := []struct {
		name     string
		owner    string
		a        ledger.Assignment
		wantErr  func(error) bool
		wantSize int
	}{
		{name: "missing owner", owner: "", a: valid, wantErr: core.IsValidation},
		{name: "missing id", owner: "t@school.test", a: scrambleAssignment(" "), wantErr: core.IsValidation},
		{name: "unknown type", owner: "t@school.test", a: ledger.Assignment{ID: "x", Type: "crossword", TargetClass: "5", TargetSection: "B"}, wantErr: core.IsValidation},
		{name: "unknown difficulty", owner: "t@school.test", a: scrambleAssignment("x", ledger.ItemRef{Word: "CAT", Difficulty: "expert"}), wantErr: core.IsValidation},
		{name: "unknown teacher", owner: "x@school.test", a: valid, wantErr: core.IsNotFound},
		{name: "valid", owner: "t@school.test", a: valid, wantSize: 1},
		{name: "duplicate id", owner: "t@school.test", a: valid, wantErr: core.IsValidation},
		{name: "collection grows", owner: "t@school.test", a: scrambleAssignment("as-2"), wantSize: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Add(ctx, tt.owner, tt.a)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2024-03-01T08:00:00Z", got.CreatedAt)

			list, err := svc.List(ctx, tt.owner)
			require.NoError(t, err)
			assert.Len(t, list, tt.wantSize)
			assert.Equal(t, got, list[len(list)-1])
		})
	}
}

func TestAddCleansWords(t *testing.T) {
	store := inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateTeacher(t, store, "t@school.test")
	testutil.CreateStudent(t, store, "a@school.test", "5", "B", func(r *ledger.Record) {
		r.WordScramble.Easy = []ledger.ScrambleEntry{{Word: "CAT", Solved: true}}
		r.WordScramble.EasyScore.Score = 1
	})
	svc, _ := newService(store)
	ctx := context.Background()

	in := scrambleAssignment(" as-1 ", ledger.ItemRef{Word: "  CAT\t", Difficulty: ledger.Easy})
	got, err := svc.Add(ctx, "t@school.test", in)
	require.NoError(t, err)
	assert.Equal(t, "as-1", got.ID)
	assert.Equal(t, "CAT", got.Metadata.ScrambleWords[0].Word)
	assert.Equal(t, "  CAT\t", in.Metadata.ScrambleWords[0].Word, "input is not modified")

	_, stored, err := svc.Find(ctx, "t@school.test", "as-1")
	require.NoError(t, err)
	assert.Equal(t, []ledger.ItemRef{{Word: "CAT", Difficulty: ledger.Easy}}, stored.Metadata.ScrambleWords)

	status, err := svc.StudentStatus(ctx, "a@school.test", "as-1")
	require.NoError(t, err)
	assert.Equal(t, 1, status.CompletedItems)

	ret, err := svc.Retract(ctx, "t@school.test", "as-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ret.UsersModified)
	assert.Equal(t, 1, ret.Compensations)
	assert.Equal(t, 0, testutil.GetRecord(t, store, "a@school.test").WordScramble.EasyScore.Score)
}

func TestListAndFind(t *testing.T) {
	store := inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateTeacher(t, store, "empty@school.test")
	testutil.CreateTeacher(t, store, "t@school.test", scrambleAssignment("as-1"))
	svc, _ := newService(store)
	ctx := context.Background()

	list, err := svc.List(ctx, "empty@school.test")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.List(ctx, "nobody@school.test")
	assert.True(t, core.IsNotFound(err))

	owner, a, err := svc.FindByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, "t@school.test", owner.Email)
	assert.Equal(t, "as-1", a.ID)

	_, _, err = svc.FindByID(ctx, "as-9")
	assert.True(t, core.IsNotFound(err))

	_, _, err = svc.Find(ctx, "empty@school.test", "as-1")
	assert.True(t, core.IsNotFound(err))
}
