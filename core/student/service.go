package student

import (
	"context"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/assignment"
	"github.com/speakmate/speakmate/core/ledger"
)

var errNoSkills = errors.New("No valid score fields to update")

type Service struct {
	store         ledger.Store
	log           core.Logger
	templateEmail string
	mailer        core.EmailService
}

type Option func(*Service)

// WithMailer sends a welcome email to every account created.
func WithMailer(mailer core.EmailService) Option {
	return func(svc *Service) { svc.mailer = mailer }
}

// NewService returns the service handling the play actions and accounts of students.
// Accounts are copied from the record stored under `templateEmail`.
func NewService(store ledger.Store, logger core.Logger, templateEmail string, opts ...Option) *Service {
	if templateEmail == "" {
		templateEmail = "template"
	}
	svc := &Service{store: store, log: logger, templateEmail: templateEmail}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Get returns the record of `email`, without its password hash.
func (svc *Service) Get(ctx context.Context, email string) (ledger.Record, error) {
	email = core.CleanString(email)
	if err := core.RequireFields("email", email); err != nil {
		return ledger.Record{}, err
	}
	rec, err := svc.store.FindOne(ctx, ledger.Filter{Email: email})
	if err != nil {
		if err == ledger.ErrNotFound {
			return ledger.Record{}, core.NewNotFoundError("User")
		}
		return ledger.Record{}, errors.Wrap(err, "finding user")
	}
	return rec.Public(), nil
}

// Roster summarizes the students of a class+section, sorted by `orderings` then by username.
func (svc *Service) Roster(ctx context.Context, class, section string, orderings ...Ordering) ([]Summary, error) {
	class, section = core.CleanString(class), core.CleanString(section)
	if err := core.RequireFields("class", class, "section", section); err != nil {
		return nil, err
	}
	students, err := svc.store.FindMany(ctx, ledger.RosterFilter(class, section))
	if err != nil {
		return nil, errors.Wrap(err, "finding roster")
	}

	rows := make([]Summary, 0, len(students))
	for _, s := range students {
		rows = append(rows, summarize(s))
	}
	if err := sortSummaries(rows, orderings); err != nil {
		return nil, err
	}
	return rows, nil
}

func summarize(rec ledger.Record) Summary {
	sum := Summary{
		ID:            rec.ID,
		Username:      strings.SplitN(rec.Email, "@", 2)[0],
		FullName:      rec.FullName,
		Speaking:      rec.Speaking,
		Pronunciation: rec.Pronunciation,
		Vocabulary:    rec.Vocabulary,
		Grammar:       rec.Grammar,
		Story:         rec.Story,
		Reflex:        rec.Reflex,
		TimeSpent:     rec.TimeSpent,
		Overall:       rec.Overall,
	}
	if len(rec.Classes) > 0 {
		sum.Class = rec.Classes[0]
	}
	if len(rec.Sections) > 0 {
		sum.Section = rec.Sections[0]
	}
	return sum
}

// IncrementHint counts one more hint on the first scramble entry holding `word`.
func (svc *Service) IncrementHint(ctx context.Context, email, difficulty, word string) (ledger.UpdateResult, error) {
	email, d, word, err := svc.scrambleArgs(email, difficulty, word)
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return svc.update(ctx, "incrementing hint", email, ledger.IncrementHint(d, word))
}

// SolveScramble solves the first unsolved scramble entry holding `word`. Modified is 0 when the
// word is missing or every entry holding it is already solved.
func (svc *Service) SolveScramble(ctx context.Context, email, difficulty, word string) (ledger.UpdateResult, error) {
	email, d, word, err := svc.scrambleArgs(email, difficulty, word)
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return svc.update(ctx, "solving scramble word", email, ledger.SolveScramble(d, word))
}

// SolveSearch solves the first word-search entry holding `word` and sets the level score to
// `score` when given.
func (svc *Service) SolveSearch(ctx context.Context, email, level, word string, score *int) (ledger.UpdateResult, error) {
	email, word = core.CleanString(email), core.CleanString(word)
	if err := core.RequireFields("email", email, "level", level, "word", word); err != nil {
		return ledger.UpdateResult{}, err
	}
	lvl, err := parseTier(level)
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return svc.update(ctx, "solving search word", email, ledger.SolveSearch(lvl, word, score))
}

func (svc *Service) SolveVocabulary(ctx context.Context, email, level, word string) (ledger.UpdateResult, error) {
	email, word = core.CleanString(email), core.CleanString(word)
	if err := core.RequireFields("email", email, "difficulty", level, "word", word); err != nil {
		return ledger.UpdateResult{}, err
	}
	lvl, err := parseTier(level)
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return svc.update(ctx, "solving vocabulary word", email, ledger.SolveVocabulary(lvl, word))
}

func (svc *Service) UpdateBadge(ctx context.Context, email, level, badge string) (ledger.UpdateResult, error) {
	email, badge = core.CleanString(email), core.CleanString(badge)
	if err := core.RequireFields("email", email, "level", level, "badge", badge); err != nil {
		return ledger.UpdateResult{}, err
	}
	lvl, err := parseTier(level)
	if err != nil {
		return ledger.UpdateResult{}, err
	}
	return svc.update(ctx, "updating badge", email, ledger.SetBadge(lvl, badge))
}

// UpdateDailyData stores the daily data blob and folds the current day into the skill
// completions. The record is created when it does not exist yet.
func (svc *Service) UpdateDailyData(ctx context.Context, du DailyUpdate) (ledger.UpdateResult, error) {
	email := core.CleanString(du.Email)
	var data string
	if len(du.Data) > 0 && string(du.Data) != "null" {
		data = string(du.Data)
	}
	if err := core.RequireFields("username", email, "dailyData", data); err != nil {
		return ledger.UpdateResult{}, err
	}

	var known int
	for skill := range du.CurrentDay {
		var c ledger.Completion
		if _, ok := c.Skill(skill); ok {
			known++
		}
	}
	if known == 0 {
		return ledger.UpdateResult{}, core.NewValidationError(errNoSkills, core.FieldError{Field: "currDayObj", Error: errNoSkills.Error()})
	}

	res, err := svc.store.UpdateOne(ctx, ledger.Filter{Email: email}, ledger.SetDailyData(du.Data, du.CurrentDay), ledger.Upsert())
	if err != nil {
		return res, errors.Wrap(err, "updating daily data")
	}
	return res, nil
}

// OverallProgress counts every entry of every module and tier of the student.
func (svc *Service) OverallProgress(ctx context.Context, email string) (Overall, error) {
	email = core.CleanString(email)
	if err := core.RequireFields("studentEmail", email); err != nil {
		return Overall{}, err
	}
	rec, err := svc.store.FindOne(ctx, ledger.Filter{Email: email, Role: ledger.RoleStudent})
	if err != nil {
		if err == ledger.ErrNotFound {
			return Overall{}, core.NewNotFoundError("Student")
		}
		return Overall{}, errors.Wrap(err, "finding student")
	}
	total, solved := rec.Tally()
	return Overall{StudentEmail: rec.Email, Progress: assignment.NewProgress(total, solved)}, nil
}

// CreateAccount copies the template record with its progress reset and applies the identity of
// `acc`. An account already registered under the email is returned untouched.
func (svc *Service) CreateAccount(ctx context.Context, acc ledger.NewAccount) (ledger.Record, CreateOutcome, error) {
	acc.Email = core.CleanString(acc.Email)
	acc.FullName = core.CleanString(acc.FullName)
	acc.Role = core.CleanString(acc.Role, true /* lower */)
	acc.Classes, acc.Sections = core.CleanStrings(acc.Classes), core.CleanStrings(acc.Sections)

	var classes, sections string
	if len(acc.Classes) > 0 {
		classes = acc.Classes[0]
	}
	if len(acc.Sections) > 0 {
		sections = acc.Sections[0]
	}
	if err := core.RequireFields("email", acc.Email, "classes", classes, "section", sections); err != nil {
		return ledger.Record{}, "", err
	}
	if acc.Role != "" && acc.Role != ledger.RoleStudent && acc.Role != ledger.RoleTeacher {
		err := errors.Errorf("unknown role %q", acc.Role)
		return ledger.Record{}, "", core.NewValidationError(err, core.FieldError{Field: "role", Error: err.Error()})
	}

	existing, err := svc.store.FindOne(ctx, ledger.Filter{Email: acc.Email})
	switch {
	case err == nil:
		return existing.Public(), OutcomeExists, nil
	case err != ledger.ErrNotFound:
		return ledger.Record{}, "", errors.Wrap(err, "finding account")
	}

	tpl, err := svc.store.FindOne(ctx, ledger.Filter{Email: svc.templateEmail})
	if err != nil {
		if err == ledger.ErrNotFound {
			return ledger.Record{}, "", core.NewNotFoundError("Template")
		}
		return ledger.Record{}, "", errors.Wrap(err, "finding template")
	}

	rec, err := ledger.NewFromTemplate(tpl, acc)
	if err != nil {
		return ledger.Record{}, "", err
	}
	if _, err := svc.store.InsertOne(ctx, rec); err != nil {
		if err == ledger.ErrDuplicate {
			existing, err := svc.store.FindOne(ctx, ledger.Filter{Email: acc.Email})
			if err != nil {
				return ledger.Record{}, "", errors.Wrap(err, "finding account")
			}
			return existing.Public(), OutcomeExists, nil
		}
		return ledger.Record{}, "", errors.Wrap(err, "inserting account")
	}

	svc.log.Info("account created", rec, map[string]interface{}{"role": rec.Role})
	svc.sendWelcome(rec)
	return rec.Public(), OutcomeCreated, nil
}

// WelcomeData feeds the "welcome" email template.
type WelcomeData struct {
	FullName string
	Email    string
	Role     string
	Class    string
	Section  string
}

func (svc *Service) sendWelcome(rec ledger.Record) {
	if svc.mailer == nil {
		return
	}
	addr, err := mail.ParseAddress(rec.Email)
	if err != nil {
		svc.log.Warn("welcome email not sent: invalid address", rec, err)
		return
	}
	addr.Name = rec.FullName

	data := WelcomeData{FullName: rec.FullName, Email: rec.Email, Role: rec.Role}
	if data.FullName == "" {
		data.FullName = strings.SplitN(rec.Email, "@", 2)[0]
	}
	if len(rec.Classes) > 0 {
		data.Class = rec.Classes[0]
	}
	if len(rec.Sections) > 0 {
		data.Section = rec.Sections[0]
	}
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: data,
	})
}

// ResetPassword replaces the password hash of the account registered under `email`.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	email = core.CleanString(email)
	if err := core.RequireFields("email", email, "password", pwd); err != nil {
		return err
	}
	res, err := svc.update(ctx, "resetting password", email, func(rec *ledger.Record) (bool, error) {
		if err := rec.SetPassword(pwd); err != nil {
			return false, errors.Wrap(err, "hashing password")
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if res.Matched == 0 {
		return core.NewNotFoundError("User")
	}
	return nil
}

func (svc *Service) scrambleArgs(email, difficulty, word string) (string, ledger.Difficulty, string, error) {
	email, word = core.CleanString(email), core.CleanString(word)
	if err := core.RequireFields("email", email, "difficulty", difficulty, "word", word); err != nil {
		return "", "", "", err
	}
	d, err := ledger.ParseDifficulty(difficulty)
	if err != nil {
		return "", "", "", err
	}
	return email, d, word, nil
}

func (svc *Service) update(ctx context.Context, op, email string, mut ledger.Mutation) (ledger.UpdateResult, error) {
	res, err := svc.store.UpdateOne(ctx, ledger.Filter{Email: email}, mut)
	if err != nil {
		return res, errors.Wrap(err, op)
	}
	return res, nil
}

// parseTier accepts a level name, or a difficulty name mapped to its level.
func parseTier(s string) (ledger.Level, error) {
	lvl, err := ledger.ParseLevel(s)
	if err == nil {
		return lvl, nil
	}
	d, derr := ledger.ParseDifficulty(s)
	if derr != nil {
		return "", err
	}
	return ledger.LevelFor(d)
}
