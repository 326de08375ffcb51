package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storedDoc = `{
  "email": "ada@school.test",
  "role": "student",
  "classes": ["5"],
  "sections": ["B"],
  "wordscramble": {
    "easy": [["CAT", 2, true], ["DOG", 0, false]],
    "easyscore": {"score": 1},
    "medium": [],
    "mediumscore": {"score": 0},
    "hard": [["LEGACY"]],
    "hardscore": {"score": 0}
  },
  "wordsearch": {
    "beginner": {"score": 3, "words": [{"word": "SUN", "hint": "star", "solved": true}]}
  },
  "vocabularyArchade": {
    "advanced": {"score": 0, "badge": "gold", "wordDetails": [
      {"word": "ephemeral", "definition": "short-lived", "incorrectDefinitions": ["eternal"], "isSolved": false}
    ]}
  },
  "speakingCompletion": 40,
  "dailyData": {"monday": [1, 2]}
}`

func TestRecordDecoding(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(storedDoc), &rec))

	assert.Equal(t, []ScrambleEntry{{"CAT", 2, true}, {"DOG", 0, false}}, rec.WordScramble.Easy)
	assert.Equal(t, 1, rec.WordScramble.EasyScore.Score)
	assert.Equal(t, []ScrambleEntry{{Word: "LEGACY"}}, rec.WordScramble.Hard)
	assert.Equal(t, 3, rec.WordSearch.Beginner.Score)
	assert.Equal(t, "gold", rec.VocabularyArcade.Advanced.Badge)
	assert.Equal(t, []string{"eternal"}, rec.VocabularyArcade.Advanced.WordDetails[0].IncorrectDefinitions)
	assert.Equal(t, 40, rec.Speaking)
	assert.JSONEq(t, `{"monday": [1, 2]}`, string(rec.DailyData))
	assert.True(t, rec.InRoster("5", "B"))
	assert.False(t, rec.InRoster("5", "A"))
}

func TestScrambleEntryTuple(t *testing.T) {
	b, err := json.Marshal(ScrambleEntry{Word: "CAT", HintCount: 1, Solved: true})
	require.NoError(t, err)
	assert.JSONEq(t, `["CAT", 1, true]`, string(b))

	var e ScrambleEntry
	assert.Error(t, json.Unmarshal([]byte(`{"word": "CAT"}`), &e))
	assert.Error(t, json.Unmarshal([]byte(`["CAT", "one", true]`), &e))
}

func TestRecordPublic(t *testing.T) {
	rec := Record{Email: "ada@school.test"}
	require.NoError(t, rec.SetPassword("secret-pwd"))
	require.NoError(t, rec.CheckPassword("secret-pwd"))
	assert.Error(t, rec.CheckPassword("nope"))

	b, err := json.Marshal(rec.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "passwordHash")
	assert.NotEmpty(t, rec.PasswordHash, "Public must not alter the original")
}

func TestRecordItemState(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(storedDoc), &rec))

	tests := []struct {
		name    string
		module  Module
		diff    Difficulty
		word    string
		want    ItemState
		wantErr bool
	}{
		{name: "scramble solved", module: ModuleScramble, diff: Easy, word: "CAT", want: StateSolved},
		{name: "scramble assigned", module: ModuleScramble, diff: Easy, word: "DOG", want: StateAssigned},
		{name: "scramble other tier", module: ModuleScramble, diff: Medium, word: "CAT", want: StateUnassigned},
		{name: "search maps easy to beginner", module: ModuleSearch, diff: Easy, word: "SUN", want: StateSolved},
		{name: "vocabulary maps hard to advanced", module: ModuleVocabulary, diff: Hard, word: "ephemeral", want: StateAssigned},
		{name: "unknown difficulty", module: ModuleSearch, diff: "expert", word: "SUN", wantErr: true},
		{name: "unknown module", module: "crossword", diff: Easy, word: "SUN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rec.ItemState(tt.module, tt.diff, tt.word)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ItemState() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ItemState() = %v, want %v", got, tt.want)
			}
		})
	}

	total, solved := rec.Tally()
	assert.Equal(t, 5, total)
	assert.Equal(t, 2, solved)
}

func TestRecordReadersOnValues(t *testing.T) {
	owner := func() Record {
		rec := Record{Email: "t@school.test", Role: RoleTeacher, Classes: []string{"5"}, Sections: []string{"B"},
			Assignments: []Assignment{{ID: "as-1", Type: ModuleScramble}}}
		require.NoError(t, rec.SetPassword("secret-pwd"))
		return rec
	}

	a, ok := owner().Assignment("as-1")
	assert.True(t, ok)
	assert.Equal(t, ModuleScramble, a.Type)
	_, ok = owner().Assignment("as-2")
	assert.False(t, ok)

	assert.NoError(t, owner().CheckPassword("secret-pwd"))
	assert.True(t, owner().IsTeacher())
	assert.False(t, owner().IsStudent())
	assert.True(t, owner().InRoster("5", "B"))
}
