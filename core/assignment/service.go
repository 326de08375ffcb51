package assignment

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
)

var nowFunc = time.Now // mockable

type Service struct {
	store   ledger.Store
	log     core.Logger
	metrics core.Metrics
	retrier retry.Retry[ledger.UpdateResult]
}

func NewService(store ledger.Store, logger core.Logger, metrics core.Metrics, fanout core.FanoutConfig) *Service {
	attempts := fanout.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Service{
		store:   store,
		log:     logger,
		metrics: metrics,
		retrier: retry.New[ledger.UpdateResult](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  fanout.InitialDelay,
			MaxDelay:      fanout.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isTransient,
		}),
	}
}

// isTransient reports whether a failed document write is worth retrying.
func isTransient(err error) bool {
	switch errors.Cause(err) {
	case context.Canceled, context.DeadlineExceeded, ledger.ErrDuplicate:
		return false
	}
	return !core.IsValidation(err) && !core.IsNotFound(err)
}

func (svc *Service) owner(ctx context.Context, email string) (ledger.Record, error) {
	rec, err := svc.store.FindOne(ctx, ledger.Filter{Email: core.CleanString(email)})
	if err != nil {
		if err == ledger.ErrNotFound {
			return ledger.Record{}, core.NewNotFoundError("Teacher")
		}
		return ledger.Record{}, errors.Wrap(err, "finding teacher")
	}
	return rec, nil
}

// Add validates `a` and appends it to the owner's assignments. Ids are unique per owner.
func (svc *Service) Add(ctx context.Context, ownerEmail string, a ledger.Assignment) (ledger.Assignment, error) {
	a.ID = core.CleanString(a.ID)
	a.TargetClass = core.CleanString(a.TargetClass)
	a.TargetSection = core.CleanString(a.TargetSection)
	a.Metadata = cleanMetadata(a.Metadata)
	err := core.RequireFields(
		"email", ownerEmail,
		"id", a.ID,
		"type", string(a.Type),
		"targetClass", a.TargetClass,
		"targetSection", a.TargetSection,
	)
	if err != nil {
		return ledger.Assignment{}, err
	}
	if err = a.CheckItems(); err != nil {
		return ledger.Assignment{}, err
	}
	if a.CreatedAt == "" {
		a.CreatedAt = nowFunc().UTC().Format(time.RFC3339)
	}

	owner, err := svc.owner(ctx, ownerEmail)
	if err != nil {
		return ledger.Assignment{}, err
	}
	res, err := svc.store.UpdateOne(ctx, ledger.Filter{Email: owner.Email}, ledger.AppendAssignment(a))
	if err != nil {
		return ledger.Assignment{}, errors.Wrap(err, "adding assignment")
	}
	if res.Matched == 0 {
		return ledger.Assignment{}, core.NewNotFoundError("Teacher")
	}
	return a, nil
}

// cleanMetadata trims the referenced words like Distribute does. The caller's slices are left untouched.
func cleanMetadata(m ledger.AssignmentMetadata) ledger.AssignmentMetadata {
	clean := func(refs []ledger.ItemRef) []ledger.ItemRef {
		if refs == nil {
			return nil
		}
		out := make([]ledger.ItemRef, len(refs))
		for i, ref := range refs {
			ref.Word = core.CleanString(ref.Word)
			out[i] = ref
		}
		return out
	}
	return ledger.AssignmentMetadata{
		ScrambleWords:   clean(m.ScrambleWords),
		SearchWords:     clean(m.SearchWords),
		VocabularyWords: clean(m.VocabularyWords),
	}
}

// List returns the owner's assignments verbatim.
func (svc *Service) List(ctx context.Context, ownerEmail string) ([]ledger.Assignment, error) {
	if err := core.RequireFields("email", ownerEmail); err != nil {
		return nil, err
	}
	owner, err := svc.owner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	if owner.Assignments == nil {
		return []ledger.Assignment{}, nil
	}
	return owner.Assignments, nil
}

func (svc *Service) Find(ctx context.Context, ownerEmail, id string) (ledger.Record, ledger.Assignment, error) {
	owner, err := svc.owner(ctx, ownerEmail)
	if err != nil {
		return ledger.Record{}, ledger.Assignment{}, err
	}
	a, ok := owner.Assignment(core.CleanString(id))
	if !ok {
		return ledger.Record{}, ledger.Assignment{}, core.NewNotFoundError("Assignment")
	}
	return owner, a, nil
}

// FindByID returns the teacher owning assignment `id`, along with the assignment.
func (svc *Service) FindByID(ctx context.Context, id string) (ledger.Record, ledger.Assignment, error) {
	id = core.CleanString(id)
	owner, err := svc.store.FindOne(ctx, ledger.Filter{Role: ledger.RoleTeacher, AssignmentID: id})
	if err != nil {
		if err == ledger.ErrNotFound {
			return ledger.Record{}, ledger.Assignment{}, core.NewNotFoundError("Assignment")
		}
		return ledger.Record{}, ledger.Assignment{}, errors.Wrap(err, "finding assignment owner")
	}
	a, _ := owner.Assignment(id)
	return owner, a, nil
}

// Remove drops the definition only. Student copies are left alone: use Retract to take them back.
func (svc *Service) Remove(ctx context.Context, ownerEmail, id string) (bool, error) {
	res, err := svc.store.UpdateOne(ctx, ledger.Filter{Email: core.CleanString(ownerEmail)}, ledger.RemoveAssignment(id))
	if err != nil {
		return false, errors.Wrap(err, "removing assignment")
	}
	return res.Modified > 0, nil
}
