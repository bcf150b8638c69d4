package classroom

import (
	"github.com/trezcool/darasa/core"
)

// ScoreRecord is a dated snapshot of a student's score, taken when the
// teacher resets the class scores. Records are append-only.
type ScoreRecord struct {
	Date  string `json:"date"` // calendar date, YYYY-MM-DD
	Score int    `json:"score"`
}

// Student belongs to exactly one Classroom; it has no independent lifecycle.
type Student struct {
	ID           string        `json:"id"`
	Name         *string       `json:"name"` // nil until first login; immutable once set
	AccessCode   string        `json:"accessCode"`
	Score        int           `json:"score"`
	ScoreHistory []ScoreRecord `json:"scoreHistory"`
}

// Named reports whether the student has claimed their name.
func (s *Student) Named() bool {
	return s.Name != nil
}

// Classroom is the aggregate root: a teacher session, its students and the
// shared announcement. Credential and token fields are never serialized.
type Classroom struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	PasswordSalt     string    `json:"-"`
	TeacherToken     string    `json:"-"` // current valid token; empty = no active session
	SecretQuestion   string    `json:"secretQuestion,omitempty"`
	SecretAnswerHash string    `json:"-"`
	SecretAnswerSalt string    `json:"-"`
	Announcement     *string   `json:"announcement"`
	Students         []Student `json:"students"`
}

// FindStudent returns a pointer into Students for the student with the given
// id, or nil.
func (c *Classroom) FindStudent(id string) *Student {
	for i := range c.Students {
		if c.Students[i].ID == id {
			return &c.Students[i]
		}
	}
	return nil
}

// FindStudentByCode returns a pointer into Students for the student with the
// given access code, or nil.
func (c *Classroom) FindStudentByCode(code string) *Student {
	for i := range c.Students {
		if c.Students[i].AccessCode == code {
			return &c.Students[i]
		}
	}
	return nil
}

func (c *Classroom) accessCodes() map[string]struct{} {
	codes := make(map[string]struct{}, len(c.Students))
	for i := range c.Students {
		codes[c.Students[i].AccessCode] = struct{}{}
	}
	return codes
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name           string `json:"className" validate:"required,min=2"`
	Password       string `json:"password" validate:"required,min=4"`
	SecretQuestion string `json:"secretQuestion" validate:"required,min=10"`
	SecretAnswer   string `json:"secretAnswer" validate:"required,min=4"`
}

func (nc *NewClassroom) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.SecretQuestion = core.CleanString(nc.SecretQuestion)
	nc.SecretAnswer = core.CleanString(nc.SecretAnswer)
	// the password is taken as-is, surrounding whitespace included
	return core.Validate.Struct(nc)
}

// ResetPassword is the secret-answer challenge payload for password recovery.
type ResetPassword struct {
	SecretAnswer string `json:"secretAnswer" validate:"required"`
	NewPassword  string `json:"newPassword" validate:"required,min=4"`
}

func (rp *ResetPassword) Validate() error {
	rp.SecretAnswer = core.CleanString(rp.SecretAnswer)
	return core.Validate.Struct(rp)
}
