package assignment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	testutil "github.com/speakmate/speakmate/tests"
)

func TestRetract(t *testing.T) {
	store := inmemdb.NewRecordStore(inmemdb.Open())
	setupRoster(t, store)
	require.NoError(t, withScores(store))
	svc, metrics := newService(store)
	ctx := context.Background()

	got, err := svc.Retract(ctx, "t@school.test", "as-1")
	require.NoError(t, err)
	assert.Equal(t, Retraction{
		AssignmentDeleted: true,
		WordDeleted:       strPtr("CAT"),
		WordsDeleted:      []string{"CAT", "OWL"},
		UsersModified:     2,
		Compensations:     3,
	}, got)
	assert.Equal(t, 1, metrics.retracted)

	a := testutil.GetRecord(t, store, "a@school.test")
	assert.Empty(t, a.WordScramble.Easy)
	assert.Empty(t, a.WordScramble.Medium)
	assert.Equal(t, 0, a.WordScramble.EasyScore.Score)
	assert.Equal(t, 0, a.WordScramble.MediumScore.Score)

	b := testutil.GetRecord(t, store, "b@school.test")
	assert.Equal(t, 0, b.WordScramble.EasyScore.Score)
	assert.Equal(t, 0, b.WordScramble.MediumScore.Score, "unsolved entries are not compensated")

	teacher := testutil.GetRecord(t, store, "t@school.test")
	_, ok := teacher.Assignment("as-1")
	assert.False(t, ok)
	_, ok = teacher.Assignment("as-2")
	assert.True(t, ok)

	_, err = svc.Retract(ctx, "t@school.test", "as-1")
	assert.True(t, core.IsNotFound(err))
}

func TestRetractEmptyAssignment(t *testing.T) {
	store := inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateTeacher(t, store, "t@school.test", scrambleAssignment("empty"))
	testutil.CreateStudent(t, store, "a@school.test", "5", "B")
	svc, _ := newService(store)

	got, err := svc.Retract(context.Background(), "t@school.test", "empty")
	require.NoError(t, err)
	assert.True(t, got.AssignmentDeleted)
	assert.Nil(t, got.WordDeleted)
	assert.Equal(t, 0, got.UsersModified)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignmentDeleted": true, "wordDeleted": null, "wordsDeleted": [], "usersModified": 0, "compensations": 0}`, string(data))
}

func TestRetractValidation(t *testing.T) {
	store := inmemdb.NewRecordStore(inmemdb.Open())
	testutil.CreateTeacher(t, store, "t@school.test",
		ledger.Assignment{ID: "bad-type", Type: "crossword", TargetClass: "5", TargetSection: "B"},
		scrambleAssignment("bad-diff", ledger.ItemRef{Word: "CAT", Difficulty: "expert"}),
	)
	testutil.CreateStudent(t, store, "a@school.test", "5", "B", func(r *ledger.Record) {
		r.WordScramble.Easy = []ledger.ScrambleEntry{{Word: "CAT", Solved: true}}
		r.WordScramble.EasyScore.Score = 1
	})
	svc, _ := newService(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   string
		id      string
		wantErr func(error) bool
	}{
		{name: "missing id", owner: "t@school.test", wantErr: core.IsValidation},
		{name: "unknown teacher", owner: "x@school.test", id: "bad-type", wantErr: core.IsNotFound},
		{name: "unknown assignment", owner: "t@school.test", id: "nope", wantErr: core.IsNotFound},
		{name: "unknown type", owner: "t@school.test", id: "bad-type", wantErr: core.IsValidation},
		{name: "unknown difficulty", owner: "t@school.test", id: "bad-diff", wantErr: core.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Retract(ctx, tt.owner, tt.id)
			assert.True(t, tt.wantErr(err), "got %v", err)
		})
	}

	// nothing was touched
	a := testutil.GetRecord(t, store, "a@school.test")
	assert.Len(t, a.WordScramble.Easy, 1)
	assert.Equal(t, 1, a.WordScramble.EasyScore.Score)
	assert.Len(t, testutil.GetRecord(t, store, "t@school.test").Assignments, 2)
}

func TestRetractRetriesTransientFailures(t *testing.T) {
	flaky := testutil.NewFlakyStore(inmemdb.NewRecordStore(inmemdb.Open()))
	setupRoster(t, flaky)
	require.NoError(t, withScores(flaky))
	flaky.FailFor("b@school.test", 2)
	svc, _ := newService(flaky)

	got, err := svc.Retract(context.Background(), "t@school.test", "as-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsersModified)
	assert.Equal(t, 3, got.Compensations)
}

func TestRetractPartialThenResume(t *testing.T) {
	flaky := testutil.NewFlakyStore(inmemdb.NewRecordStore(inmemdb.Open()))
	setupRoster(t, flaky)
	require.NoError(t, withScores(flaky))
	flaky.FailFor("b@school.test", -1)
	svc, metrics := newService(flaky)
	ctx := context.Background()

	got, err := svc.Retract(ctx, "t@school.test", "as-1")
	require.True(t, core.IsPartial(err), "got %v", err)
	perr := err.(*core.PartialError)
	assert.Equal(t, 2, perr.Expected)
	assert.Equal(t, 1, perr.Applied)
	assert.False(t, got.AssignmentDeleted)
	assert.Equal(t, 1, got.UsersModified)
	assert.Equal(t, 2, got.Compensations)
	assert.Equal(t, 1, metrics.partial)

	// the definition is kept so the retraction can be finished
	_, ok := testutil.GetRecord(t, flaky, "t@school.test").Assignment("as-1")
	assert.True(t, ok)

	flaky.FailFor("b@school.test", 0)
	got, err = svc.Retract(ctx, "t@school.test", "as-1")
	require.NoError(t, err)
	assert.True(t, got.AssignmentDeleted)
	assert.Equal(t, 1, got.UsersModified)
	assert.Equal(t, 1, got.Compensations)

	a := testutil.GetRecord(t, flaky, "a@school.test")
	assert.Equal(t, 0, a.WordScramble.EasyScore.Score, "no double compensation")
	b := testutil.GetRecord(t, flaky, "b@school.test")
	assert.Equal(t, 0, b.WordScramble.EasyScore.Score)
	assert.Empty(t, b.WordScramble.Easy)
}

// withScores gives every solved scramble entry of the roster its point.
func withScores(store ledger.Store) error {
	_, err := store.UpdateMany(context.Background(), ledger.RosterFilter("5", "B"), func(r *ledger.Record) (bool, error) {
		for _, d := range ledger.Difficulties {
			tier, score, _ := r.WordScramble.Tier(d)
			for _, e := range *tier {
				if e.Solved {
					score.Score++
				}
			}
		}
		return true, nil
	})
	return err
}

func strPtr(s string) *string { return &s }
