package assignment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
)

// Roster progress statuses
const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

type (
	Progress struct {
		TotalItems     int     `json:"totalItems"`
		CompletedItems int     `json:"completedItems"`
		Percentage     float64 `json:"percentage"`
	}

	AssignmentStatus struct {
		AssignmentID string `json:"assignmentId"`
		StudentEmail string `json:"studentEmail"`
		Progress
	}

	// RosterProgress is one (assignment, student) row of a teacher's overview.
	// Attempts, TimeSpent and LastAttempt are not tracked yet and always hold their zero value.
	RosterProgress struct {
		AssignmentID string      `json:"assignmentId"`
		StudentID    string      `json:"studentId"`
		Attempts     int         `json:"attempts"`
		BestScore    float64     `json:"bestScore"`
		TimeSpent    int         `json:"timeSpent"`
		Status       string      `json:"status"`
		LastAttempt  interface{} `json:"lastAttempt"`
	}
)

// NewProgress derives the percentage, rounded to 2 decimals. No items means 0%.
func NewProgress(total, completed int) Progress {
	p := Progress{TotalItems: total, CompletedItems: completed}
	if total > 0 {
		p.Percentage = core.Round2(float64(completed) / float64(total) * 100)
	}
	return p
}

// Compute resolves every item of `a` against the student's ledger. An item counts as completed
// when the first entry holding its word in the item's tier is solved. Items the student never
// received still count toward the total.
func Compute(student ledger.Record, a ledger.Assignment) (Progress, error) {
	items, err := a.Items()
	if err != nil {
		return Progress{}, err
	}
	var completed int
	for _, it := range items {
		state, err := student.ItemState(a.Type, it.Difficulty, it.Word)
		if err != nil {
			return Progress{}, err
		}
		if state == ledger.StateSolved {
			completed++
		}
	}
	return NewProgress(len(items), completed), nil
}

// StudentStatus computes the progress of one student on one assignment.
func (svc *Service) StudentStatus(ctx context.Context, studentEmail, assignmentID string) (AssignmentStatus, error) {
	studentEmail, assignmentID = core.CleanString(studentEmail), core.CleanString(assignmentID)
	if err := core.RequireFields("studentEmail", studentEmail, "assignmentId", assignmentID); err != nil {
		return AssignmentStatus{}, err
	}

	student, err := svc.store.FindOne(ctx, ledger.Filter{Email: studentEmail, Role: ledger.RoleStudent})
	if err != nil {
		if err == ledger.ErrNotFound {
			return AssignmentStatus{}, core.NewNotFoundError("Student")
		}
		return AssignmentStatus{}, errors.Wrap(err, "finding student")
	}
	_, a, err := svc.FindByID(ctx, assignmentID)
	if err != nil {
		return AssignmentStatus{}, err
	}
	if !student.InRoster(a.TargetClass, a.TargetSection) {
		err := errors.New("Student not in target class/section")
		return AssignmentStatus{}, core.NewValidationError(err, core.FieldError{Field: "studentEmail", Error: err.Error()})
	}

	p, err := Compute(student, a)
	if err != nil {
		return AssignmentStatus{}, err
	}
	return AssignmentStatus{AssignmentID: a.ID, StudentEmail: student.Email, Progress: p}, nil
}

// TeacherProgress computes, for every assignment of the teacher, the progress of every student
// currently in its target roster. Nothing is cached: each call re-reads the ledgers.
func (svc *Service) TeacherProgress(ctx context.Context, teacherEmail string) ([]RosterProgress, error) {
	teacherEmail = core.CleanString(teacherEmail)
	if err := core.RequireFields("teacherEmail", teacherEmail); err != nil {
		return nil, err
	}
	teacher, err := svc.store.FindOne(ctx, ledger.Filter{Email: teacherEmail, Role: ledger.RoleTeacher})
	if err != nil {
		if err == ledger.ErrNotFound {
			return nil, core.NewNotFoundError("Teacher")
		}
		return nil, errors.Wrap(err, "finding teacher")
	}

	rows := make([]RosterProgress, 0)
	for _, a := range teacher.Assignments {
		students, err := svc.store.FindMany(ctx, ledger.RosterFilter(a.TargetClass, a.TargetSection))
		if err != nil {
			return nil, errors.Wrap(err, "finding roster")
		}
		for _, student := range students {
			p, err := Compute(student, a)
			if err != nil {
				return nil, errors.Wrapf(err, "computing progress of assignment %s", a.ID)
			}
			status := StatusIncomplete
			if p.Percentage == 100 {
				status = StatusCompleted
			}
			rows = append(rows, RosterProgress{
				AssignmentID: a.ID,
				StudentID:    student.Email,
				BestScore:    p.Percentage,
				Status:       status,
			})
		}
	}
	return rows, nil
}
