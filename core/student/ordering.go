package student

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
)

// Ordering sorts roster rows on one Summary field, named by its JSON key.
type Ordering struct {
	Field     string
	Ascending bool
}

var defaultOrdering = []Ordering{{Field: "username", Ascending: true}}

type summaryCmp func(a, b *Summary) int

func intCmp(get func(*Summary) int) summaryCmp {
	return func(a, b *Summary) int { return get(a) - get(b) }
}

var summaryOrderings = map[string]summaryCmp{
	"username":      func(a, b *Summary) int { return strings.Compare(a.Username, b.Username) },
	"fullName":      func(a, b *Summary) int { return strings.Compare(a.FullName, b.FullName) },
	"speaking":      intCmp(func(s *Summary) int { return s.Speaking }),
	"pronunciation": intCmp(func(s *Summary) int { return s.Pronunciation }),
	"vocabulary":    intCmp(func(s *Summary) int { return s.Vocabulary }),
	"grammar":       intCmp(func(s *Summary) int { return s.Grammar }),
	"story":         intCmp(func(s *Summary) int { return s.Story }),
	"reflex":        intCmp(func(s *Summary) int { return s.Reflex }),
	"timeSpent":     intCmp(func(s *Summary) int { return s.TimeSpent }),
	"overall":       intCmp(func(s *Summary) int { return s.Overall }),
}

// sortSummaries sorts `rows` by `orderings`, in priority order. Ties fall back to the username.
func sortSummaries(rows []Summary, orderings []Ordering) error {
	cmps := make([]summaryCmp, 0, len(orderings)+1)
	all := append(append([]Ordering(nil), orderings...), defaultOrdering...)
	for _, o := range all {
		cmp, ok := summaryOrderings[o.Field]
		if !ok {
			err := errors.Errorf("cannot order by %q", o.Field)
			return core.NewValidationError(err, core.FieldError{Field: "ordering", Error: err.Error()})
		}
		if !o.Ascending {
			asc := cmp
			cmp = func(a, b *Summary) int { return asc(b, a) }
		}
		cmps = append(cmps, cmp)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(&rows[i], &rows[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return nil
}
