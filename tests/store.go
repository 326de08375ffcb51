package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakmate/speakmate/core/ledger"
)

// RunStoreTests checks the behavior every ledger.Store implementation shares.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	ctx := context.Background()

	t.Run("find", func(t *testing.T) {
		store := newStore(t)
		CreateStudent(t, store, "b@school.test", "5", "B")
		CreateStudent(t, store, "a@school.test", "5", "B")
		CreateStudent(t, store, "c@school.test", "5", "A", func(r *ledger.Record) {
			r.Classes = []string{"4", "5"}
		})
		CreateTeacher(t, store, "t@school.test", ledger.Assignment{ID: "as-1", Type: ledger.ModuleScramble})

		rec, err := store.FindOne(ctx, ledger.Filter{Email: "a@school.test"})
		require.NoError(t, err)
		assert.Equal(t, "Student a@school.test", rec.FullName)

		_, err = store.FindOne(ctx, ledger.Filter{Email: "nobody@school.test"})
		assert.Equal(t, ledger.ErrNotFound, err)

		recs, err := store.FindMany(ctx, ledger.RosterFilter("5", "B"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a@school.test", "b@school.test"}, emails(recs))

		recs, err = store.FindMany(ctx, ledger.Filter{Class: "4"})
		require.NoError(t, err)
		assert.Equal(t, []string{"c@school.test"}, emails(recs))

		recs, err = store.FindMany(ctx, ledger.Filter{Class: "6"})
		require.NoError(t, err)
		assert.Empty(t, recs)

		rec, err = store.FindOne(ctx, ledger.Filter{AssignmentID: "as-1"})
		require.NoError(t, err)
		assert.Equal(t, "t@school.test", rec.Email)

		_, err = store.FindOne(ctx, ledger.Filter{AssignmentID: "as-2"})
		assert.Equal(t, ledger.ErrNotFound, err)
	})

	t.Run("insert duplicate", func(t *testing.T) {
		store := newStore(t)
		CreateStudent(t, store, "a@school.test", "5", "B")
		_, err := store.InsertOne(ctx, ledger.Record{Email: "a@school.test"})
		assert.Equal(t, ledger.ErrDuplicate, err)
	})

	t.Run("update one", func(t *testing.T) {
		store := newStore(t)
		CreateStudent(t, store, "a@school.test", "5", "B", func(r *ledger.Record) {
			r.WordScramble.Easy = []ledger.ScrambleEntry{{Word: "CAT"}}
		})

		res, err := store.UpdateOne(ctx, ledger.Filter{Email: "a@school.test"}, ledger.SolveScramble(ledger.Easy, "CAT"))
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{Matched: 1, Modified: 1}, res)

		rec := GetRecord(t, store, "a@school.test")
		assert.Equal(t, []ledger.ScrambleEntry{{Word: "CAT", Solved: true}}, rec.WordScramble.Easy)
		assert.Equal(t, 1, rec.WordScramble.EasyScore.Score)

		// matched but unchanged
		res, err = store.UpdateOne(ctx, ledger.Filter{Email: "a@school.test"}, ledger.SolveScramble(ledger.Easy, "CAT"))
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{Matched: 1}, res)

		// no match
		res, err = store.UpdateOne(ctx, ledger.Filter{Email: "z@school.test"}, ledger.SolveScramble(ledger.Easy, "CAT"))
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{}, res)
		_, err = store.FindOne(ctx, ledger.Filter{Email: "z@school.test"})
		assert.Equal(t, ledger.ErrNotFound, err)

		// mutation errors leave the document untouched
		_, err = store.UpdateOne(ctx, ledger.Filter{Email: "a@school.test"}, func(r *ledger.Record) (bool, error) {
			r.FullName = "changed"
			return true, ErrFlaky
		})
		assert.Equal(t, ErrFlaky, err)
		assert.Equal(t, "Student a@school.test", GetRecord(t, store, "a@school.test").FullName)
	})

	t.Run("upsert", func(t *testing.T) {
		store := newStore(t)
		res, err := store.UpdateOne(ctx, ledger.Filter{Email: "new@school.test"},
			ledger.SetBadge(ledger.Beginner, "bronze"), ledger.Upsert())
		require.NoError(t, err)
		assert.True(t, res.Upserted)
		assert.Equal(t, "bronze", GetRecord(t, store, "new@school.test").VocabularyArcade.Beginner.Badge)

		res, err = store.UpdateOne(ctx, ledger.Filter{Email: "new@school.test"},
			ledger.SetBadge(ledger.Beginner, "silver"), ledger.Upsert())
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{Matched: 1, Modified: 1}, res)
	})

	t.Run("update many", func(t *testing.T) {
		store := newStore(t)
		CreateStudent(t, store, "a@school.test", "5", "B")
		CreateStudent(t, store, "b@school.test", "5", "B", func(r *ledger.Record) {
			r.WordSearch.Beginner.Words = []ledger.SearchWord{{Word: "SUN"}}
		})
		CreateStudent(t, store, "c@school.test", "5", "A")

		res, err := store.UpdateMany(ctx, ledger.RosterFilter("5", "B"),
			ledger.PushSearch(ledger.Beginner, true, ledger.SearchWord{Word: "SUN", Hint: "star"}))
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{Matched: 2, Modified: 1}, res)
		assert.Len(t, GetRecord(t, store, "a@school.test").WordSearch.Beginner.Words, 1)
		assert.Empty(t, GetRecord(t, store, "c@school.test").WordSearch.Beginner.Words)

		res, err = store.UpdateMany(ctx, ledger.RosterFilter("9", "Z"), ledger.SetBadge(ledger.Beginner, "x"))
		require.NoError(t, err)
		assert.Equal(t, ledger.UpdateResult{}, res)
	})

	t.Run("update many partial", func(t *testing.T) {
		flaky := NewFlakyStore(newStore(t))
		CreateStudent(t, flaky, "a@school.test", "5", "B")
		CreateStudent(t, flaky, "b@school.test", "5", "B")
		CreateStudent(t, flaky, "c@school.test", "5", "B")
		flaky.FailFor("b@school.test", -1)

		res, err := flaky.UpdateMany(ctx, ledger.RosterFilter("5", "B"), ledger.SetBadge(ledger.Advanced, "gold"))
		assert.Error(t, err)
		assert.Equal(t, 3, res.Matched)
		assert.Equal(t, 1, res.Modified)
		assert.Equal(t, "gold", GetRecord(t, flaky, "a@school.test").VocabularyArcade.Advanced.Badge)
		assert.Empty(t, GetRecord(t, flaky, "b@school.test").VocabularyArcade.Advanced.Badge)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		store := newStore(t)
		CreateStudent(t, store, "a@school.test", "5", "B", func(r *ledger.Record) {
			for i := 0; i < 20; i++ {
				r.WordScramble.Hard = append(r.WordScramble.Hard, ledger.ScrambleEntry{Word: "W"})
			}
		})

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.UpdateOne(ctx, ledger.Filter{Email: "a@school.test"}, ledger.SolveScramble(ledger.Hard, "W"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		rec := GetRecord(t, store, "a@school.test")
		assert.Equal(t, 20, rec.WordScramble.HardScore.Score)
		for _, e := range rec.WordScramble.Hard {
			assert.True(t, e.Solved)
		}
	})
}

func emails(recs []ledger.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Email)
	}
	return out
}
