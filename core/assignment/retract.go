package assignment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
)

type Retraction struct {
	AssignmentDeleted bool     `json:"assignmentDeleted"`
	WordDeleted       *string  `json:"wordDeleted"` // first referenced word, nil when there is none
	WordsDeleted      []string `json:"wordsDeleted"`
	UsersModified     int      `json:"usersModified"`
	Compensations     int      `json:"compensations"`
}

// Retract takes back every item of an assignment from the students of its target roster, then
// deletes the definition.
//
// Each student is updated in a single write that removes the first entry holding each word and
// takes one point off the tier score for each removed entry that was solved. Transient write
// failures are retried. If a student still cannot be updated, the definition is kept and a
// *core.PartialError is returned: calling Retract again finishes the job without compensating
// anyone twice, since entries already removed are simply not found anymore.
func (svc *Service) Retract(ctx context.Context, ownerEmail, id string) (Retraction, error) {
	ownerEmail, id = core.CleanString(ownerEmail), core.CleanString(id)
	if err := core.RequireFields("email", ownerEmail, "id", id); err != nil {
		return Retraction{}, err
	}

	owner, a, err := svc.Find(ctx, ownerEmail, id)
	if err != nil {
		return Retraction{}, err
	}
	if err = a.CheckItems(); err != nil {
		return Retraction{}, err
	}
	items, _ := a.Items()

	ret := Retraction{WordsDeleted: a.Words()}
	if len(ret.WordsDeleted) > 0 {
		first := ret.WordsDeleted[0]
		ret.WordDeleted = &first
	}

	students, err := svc.store.FindMany(ctx, ledger.RosterFilter(a.TargetClass, a.TargetSection))
	if err != nil {
		return Retraction{}, errors.Wrap(err, "finding roster")
	}

	var (
		failed  int
		lastErr error
	)
	for _, student := range students {
		modified, compensations, err := svc.retractFrom(ctx, student.Email, a.Type, items)
		if err != nil {
			failed++
			lastErr = err
			svc.log.Error("retraction failed for student", err, map[string]interface{}{
				"assignment": a.ID,
				"student":    student.Email,
			})
			continue
		}
		if modified {
			ret.UsersModified++
		}
		ret.Compensations += compensations
	}

	if failed > 0 {
		svc.metrics.Partial("retract")
		return ret, core.NewPartialError("retract assignment "+a.ID, len(students), len(students)-failed, lastErr)
	}

	if ret.AssignmentDeleted, err = svc.Remove(ctx, owner.Email, a.ID); err != nil {
		return ret, err
	}
	svc.metrics.Retracted(string(a.Type), ret.UsersModified, ret.Compensations)
	svc.log.Info("assignment retracted", map[string]interface{}{
		"assignment":    a.ID,
		"owner":         owner.Email,
		"usersModified": ret.UsersModified,
		"compensations": ret.Compensations,
	})
	return ret, nil
}

func (svc *Service) retractFrom(ctx context.Context, email string, m ledger.Module, items []ledger.ItemRef) (bool, int, error) {
	var removals []ledger.Removal
	mut := ledger.Retract(m, items, func(rms []ledger.Removal) { removals = rms })

	res, err := svc.retrier.Do(ctx, func(ctx context.Context) (ledger.UpdateResult, error) {
		removals = nil
		return svc.store.UpdateOne(ctx, ledger.Filter{Email: email, Role: ledger.RoleStudent}, mut)
	})
	if err != nil {
		return false, 0, err
	}
	if res.Modified == 0 {
		return false, 0, nil
	}

	var compensations int
	for _, rm := range removals {
		if rm.Compensated() {
			compensations++
		}
	}
	return true, compensations, nil
}
