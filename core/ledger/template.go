package ledger

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NewAccount holds the identity of an account created from the template record.
type NewAccount struct {
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"fullName"`
	Role     string   `json:"role" validate:"omitempty,oneof=student teacher"`
	Classes  []string `json:"classes" validate:"required,min=1"`
	Sections []string `json:"section" validate:"required,min=1"`
	Password string   `json:"password" validate:"omitempty,min=6"`
}

// NewFromTemplate copies `tpl` with every number reset to 0 and every boolean to false,
// recursively, then applies the identity of `acc`. Words, hints and other strings are kept.
// The template's own assignments never carry over.
func NewFromTemplate(tpl Record, acc NewAccount) (Record, error) {
	tpl.PasswordHash = nil
	tpl.Assignments = nil

	raw, err := json.Marshal(tpl)
	if err != nil {
		return Record{}, errors.Wrap(err, "encoding template")
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Record{}, errors.Wrap(err, "decoding template")
	}
	if raw, err = json.Marshal(reset(doc)); err != nil {
		return Record{}, errors.Wrap(err, "encoding reset template")
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, errors.Wrap(err, "decoding reset template")
	}

	rec.ID = uuid.New().String()
	rec.Email = acc.Email
	rec.FullName = acc.FullName
	rec.Role = acc.Role
	if rec.Role == "" {
		rec.Role = RoleStudent
	}
	rec.Classes = append([]string(nil), acc.Classes...)
	rec.Sections = append([]string(nil), acc.Sections...)
	if acc.Password != "" {
		if err := rec.SetPassword(acc.Password); err != nil {
			return Record{}, errors.Wrap(err, "hashing password")
		}
	}
	return rec, nil
}

func reset(v interface{}) interface{} {
	switch val := v.(type) {
	case bool:
		return false
	case float64:
		return 0
	case []interface{}:
		for i := range val {
			val[i] = reset(val[i])
		}
		return val
	case map[string]interface{}:
		for k := range val {
			val[k] = reset(val[k])
		}
		return val
	}
	return v
}
