package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/speakmate/speakmate/apps/api/echo"
	"github.com/speakmate/speakmate/core/assignment"
	"github.com/speakmate/speakmate/core/ledger"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	testutil "github.com/speakmate/speakmate/tests"
)

var catAssignment = ledger.Assignment{
	ID:            "as-1",
	Type:          ledger.ModuleScramble,
	Title:         "Animals",
	TargetClass:   "5",
	TargetSection: "B",
	Metadata: ledger.AssignmentMetadata{
		ScrambleWords: []ledger.ItemRef{{Word: "CAT", Difficulty: ledger.Easy}},
	},
}

var catWord = "CAT"

func seedClassroom(t *testing.T, store ledger.Store) {
	testutil.CreateTeacher(t, store, "t@school.test", catAssignment)
	testutil.CreateStudent(t, store, "ada@school.test", "5", "B", func(r *ledger.Record) {
		r.WordScramble.Easy = []ledger.ScrambleEntry{{Word: "CAT", Solved: true}}
		r.WordScramble.EasyScore.Score = 1
	})
	testutil.CreateStudent(t, store, "bob@school.test", "5", "B", func(r *ledger.Record) {
		r.WordScramble.Easy = []ledger.ScrambleEntry{{Word: "CAT"}}
	})
	testutil.CreateStudent(t, store, "cid@school.test", "6", "A")
}

func Test_assignmentApi_addAndList(t *testing.T) {
	app, store := setup(t, nil)
	testutil.CreateTeacher(t, store, "t@school.test")

	stored := catAssignment
	tests := []httpTest{
		{
			name:     "empty list",
			method:   http.MethodPost,
			path:     "/get-assignments",
			body:     []byte(`{"email": "t@school.test"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"assignments": []}`),
		},
		{
			name:     "missing email",
			method:   http.MethodPost,
			path:     "/get-assignments",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "this field is required"}`),
		},
		{
			name:     "unknown teacher",
			method:   http.MethodPost,
			path:     "/add-assignment",
			body:     marchallObj(t, AddAssignmentRequest{Email: "x@school.test", NewAssignment: &stored}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Teacher not found"}),
		},
		{
			name:     "unknown type",
			method:   http.MethodPost,
			path:     "/add-assignment",
			body:     []byte(`{"email": "t@school.test", "newAssignment": {"id": "x", "type": "crossword", "targetClass": "5", "targetSection": "B"}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"type": "type must be one of word_scramble, word_search or vocabulary_builder"}`),
		},
		{
			name:     "added",
			method:   http.MethodPost,
			path:     "/add-assignment",
			body:     marchallObj(t, AddAssignmentRequest{Email: "t@school.test", NewAssignment: &stored}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, MessageResponse{Message: "Assignment added successfully."}),
		},
		{
			name:     "duplicate id",
			method:   http.MethodPost,
			path:     "/add-assignment",
			body:     marchallObj(t, AddAssignmentRequest{Email: "t@school.test", NewAssignment: &stored}),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"id": "assignment \"as-1\" already exists"}`),
		},
	}
	runHttpTests(t, app, tests)

	list := testutil.GetRecord(t, store, "t@school.test").Assignments
	if assert.Len(t, list, 1) {
		assert.Equal(t, "as-1", list[0].ID)
		assert.NotEmpty(t, list[0].CreatedAt)
	}
}

func Test_assignmentApi_retract(t *testing.T) {
	app, store := setup(t, nil)
	seedClassroom(t, store)
	testutil.CreateTeacher(t, store, "u@school.test", ledger.Assignment{
		ID: "as-empty", Type: ledger.ModuleScramble, TargetClass: "5", TargetSection: "B",
	})

	tests := []httpTest{
		{
			name:     "unknown assignment",
			method:   http.MethodPost,
			path:     "/delete-assignment",
			body:     []byte(`{"email": "t@school.test", "id": "as-9"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Assignment not found"}),
		},
		{
			name:     "retracted",
			method:   http.MethodPost,
			path:     "/delete-assignment",
			body:     []byte(`{"email": "t@school.test", "id": "as-1"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, RetractionResponse{Success: true, Retraction: assignment.Retraction{
				AssignmentDeleted: true,
				WordDeleted:       &catWord,
				WordsDeleted:      []string{"CAT"},
				UsersModified:     2,
				Compensations:     1,
			}}),
		},
		{
			name:     "no items",
			method:   http.MethodPost,
			path:     "/delete-assignment",
			body:     []byte(`{"email": "u@school.test", "id": "as-empty"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success": true, "assignmentDeleted": true, "wordDeleted": null, "wordsDeleted": [], "usersModified": 0, "compensations": 0}`),
		},
	}
	runHttpTests(t, app, tests)

	ada := testutil.GetRecord(t, store, "ada@school.test")
	assert.Empty(t, ada.WordScramble.Easy)
	assert.Equal(t, 0, ada.WordScramble.EasyScore.Score)
}

func Test_assignmentApi_retractPartial(t *testing.T) {
	flaky := testutil.NewFlakyStore(inmemdb.NewRecordStore(inmemdb.Open()))
	app, _ := setup(t, flaky)
	seedClassroom(t, flaky)
	flaky.FailFor("bob@school.test", -1)

	req, rec := newRequest(http.MethodPost, "/delete-assignment", []byte(`{"email": "t@school.test", "id": "as-1"}`))
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	var got struct {
		Error    string `json:"error"`
		Expected int    `json:"expected"`
		Applied  int    `json:"applied"`
	}
	if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)) {
		assert.Equal(t, 2, got.Expected)
		assert.Equal(t, 1, got.Applied)
		assert.NotEmpty(t, got.Error)
	}
	_, kept := testutil.GetRecord(t, flaky, "t@school.test").Assignment("as-1")
	assert.True(t, kept)
}

func Test_assignmentApi_progress(t *testing.T) {
	app, store := setup(t, nil)
	seedClassroom(t, store)

	tests := []httpTest{
		{
			name:     "student status",
			method:   http.MethodPost,
			path:     "/student-assignment-status",
			body:     []byte(`{"studentEmail": "ada@school.test", "assignmentId": "as-1"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"assignmentId": "as-1", "studentEmail": "ada@school.test", "totalItems": 1, "completedItems": 1, "percentage": 100}`),
		},
		{
			name:     "student outside roster",
			method:   http.MethodPost,
			path:     "/student-assignment-status",
			body:     []byte(`{"studentEmail": "cid@school.test", "assignmentId": "as-1"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentEmail": "Student not in target class/section"}`),
		},
		{
			name:     "unknown student",
			method:   http.MethodPost,
			path:     "/student-assignment-status",
			body:     []byte(`{"studentEmail": "x@school.test", "assignmentId": "as-1"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Student not found"}),
		},
		{
			name:     "teacher progress",
			method:   http.MethodPost,
			path:     "/teacher-assignments-progress",
			body:     []byte(`{"teacherEmail": "t@school.test"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`[
				{"assignmentId": "as-1", "studentId": "ada@school.test", "attempts": 0, "bestScore": 100, "timeSpent": 0, "status": "completed", "lastAttempt": null},
				{"assignmentId": "as-1", "studentId": "bob@school.test", "attempts": 0, "bestScore": 0, "timeSpent": 0, "status": "incomplete", "lastAttempt": null}
			]`),
		},
	}
	runHttpTests(t, app, tests)
}
