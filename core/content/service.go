package content

import (
	"context"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/ledger"
)

var (
	errMissingRoster = errors.New("Missing classes or section")
	errNoWords       = errors.New("No words to add")
)

type Service struct {
	store   ledger.Store
	log     core.Logger
	metrics core.Metrics
}

func NewService(store ledger.Store, logger core.Logger, metrics core.Metrics) *Service {
	return &Service{store: store, log: logger, metrics: metrics}
}

// Distribute appends fresh (unsolved, zero-hint) entries to the module tier of every student of
// the roster. Each student document is updated atomically, the roster as a whole is not: a failure
// half way through is reported as a *core.PartialError and nothing is rolled back.
func (svc *Service) Distribute(ctx context.Context, dist Distribution) (Result, error) {
	class, section := core.CleanString(dist.Class), core.CleanString(dist.Section)
	var flds []core.FieldError
	if class == "" {
		flds = append(flds, core.FieldError{Field: "classes", Error: "this field is required"})
	}
	if section == "" {
		flds = append(flds, core.FieldError{Field: "section", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return Result{}, core.NewValidationError(errMissingRoster, flds...)
	}

	if _, err := ledger.ParseModule(string(dist.Module)); err != nil {
		return Result{}, err
	}
	if dist.Module == ledger.ModuleSearch && len(dist.Items) == 0 {
		return Result{}, core.NewValidationError(errNoWords, core.FieldError{Field: "words", Error: errNoWords.Error()})
	}

	mut, pushed, skipped := svc.buildMutation(dist)
	result := Result{Skipped: skipped}
	if pushed == 0 {
		result.Outcome = OutcomeNothingToDo
		return result, nil
	}

	res, err := svc.store.UpdateMany(ctx, ledger.RosterFilter(class, section), mut)
	result.Matched, result.Modified = res.Matched, res.Modified
	if err != nil {
		if res.Modified == 0 {
			return result, errors.Wrap(err, "distributing content")
		}
		svc.metrics.Partial("distribute")
		svc.log.Error("distribution partially applied", err, map[string]interface{}{
			"module":   dist.Module,
			"class":    class,
			"section":  section,
			"matched":  res.Matched,
			"modified": res.Modified,
		})
		return result, core.NewPartialError("distribute "+string(dist.Module), res.Matched, res.Modified, err)
	}

	if res.Matched == 0 {
		result.Outcome = OutcomeNoMatch
		return result, nil
	}
	result.Outcome = OutcomeApplied
	svc.metrics.Distributed(string(dist.Module), res.Modified)
	svc.log.Info("content distributed", map[string]interface{}{
		"module":   dist.Module,
		"class":    class,
		"section":  section,
		"items":    pushed,
		"modified": res.Modified,
	})
	return result, nil
}

// buildMutation groups the valid items per tier. Items with an empty word or an unknown
// difficulty are skipped.
func (svc *Service) buildMutation(dist Distribution) (mut ledger.Mutation, pushed, skipped int) {
	var (
		scramble = make(map[ledger.Difficulty][]ledger.ScrambleEntry)
		search   = make(map[ledger.Level][]ledger.SearchWord)
		vocab    = make(map[ledger.Level][]ledger.VocabWord)
	)

	for _, it := range dist.Items {
		word := core.CleanString(it.Word)
		diff, err := ledger.ParseDifficulty(it.Difficulty)
		if word == "" || err != nil {
			skipped++
			continue
		}
		lvl, _ := ledger.LevelFor(diff)
		pushed++

		switch dist.Module {
		case ledger.ModuleScramble:
			scramble[diff] = append(scramble[diff], ledger.ScrambleEntry{Word: word})
		case ledger.ModuleSearch:
			hint := it.Definition
			if hint == "" {
				hint = it.Hint
			}
			search[lvl] = append(search[lvl], ledger.SearchWord{Word: word, Hint: hint})
		case ledger.ModuleVocabulary:
			wrong := it.WrongDefinitions
			if wrong == nil {
				wrong = []string{}
			}
			vocab[lvl] = append(vocab[lvl], ledger.VocabWord{
				Word:                 word,
				Definition:           it.Definition,
				IncorrectDefinitions: wrong,
				PartOfSpeech:         it.PartOfSpeech,
				Example:              it.Example,
				Hint:                 it.Hint,
			})
		}
	}

	muts := make([]ledger.Mutation, 0, 3)
	for _, d := range ledger.Difficulties {
		if entries := scramble[d]; len(entries) > 0 {
			muts = append(muts, ledger.PushScramble(d, dist.Resume, entries...))
		}
	}
	for _, l := range ledger.Levels {
		if words := search[l]; len(words) > 0 {
			muts = append(muts, ledger.PushSearch(l, dist.Resume, words...))
		}
		if words := vocab[l]; len(words) > 0 {
			muts = append(muts, ledger.PushVocabulary(l, dist.Resume, words...))
		}
	}
	return ledger.Chain(muts...), pushed, skipped
}
