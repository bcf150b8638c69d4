package classroom

import (
	"context"
	"crypto/subtle"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("classroom not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrClassroomExists = errors.New("this classroom name is already taken")
	ErrBadCredentials  = errors.New("incorrect password")
	ErrBadSecretAnswer = errors.New("the secret answer is incorrect")
	ErrBadAccessCode   = errors.New("invalid student code")
	ErrTokenMissing    = errors.New("authentication token missing")
	ErrTokenInvalid    = errors.New("invalid or expired token, please log in again")

	errStudentNameTooShort = errors.New("the student name must be at least 2 characters long")
)

type (
	Repository interface {
		// CreateClassroom persists a new classroom; ErrClassroomExists when
		// the id is already taken.
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		// UpdateClassroom runs the full read-modify-write cycle atomically
		// for the given classroom key: concurrent mutations of the same
		// classroom are serialized by the adapter (a table lock in memory, a
		// row lock in SQL). mutate returning an error aborts the update.
		UpdateClassroom(ctx context.Context, id string, mutate func(*Classroom) error) (Classroom, error)
		DeleteClassroom(ctx context.Context, id string) error
	}

	Service struct {
		repo  Repository
		vault *Vault
	}
)

func NewService(repo Repository, vault *Vault) *Service {
	return &Service{repo: repo, vault: vault}
}

// Create registers a new classroom and opens the initial teacher session.
// The returned token is the only copy handed out; only its slot on the
// classroom record is kept server-side.
func (svc *Service) Create(ctx context.Context, nc NewClassroom) (Classroom, string, error) {
	if err := nc.Validate(); err != nil {
		return Classroom{}, "", err
	}

	id, err := DeriveClassroomID(nc.Name)
	if err != nil {
		return Classroom{}, "", err
	}

	pwdSalt, err := svc.vault.NewSalt()
	if err != nil {
		return Classroom{}, "", err
	}
	answerSalt, err := svc.vault.NewSalt()
	if err != nil {
		return Classroom{}, "", err
	}
	token, err := GenerateToken()
	if err != nil {
		return Classroom{}, "", err
	}

	cls := Classroom{
		ID:               id,
		Name:             nc.Name,
		PasswordHash:     svc.vault.Hash(nc.Password, pwdSalt),
		PasswordSalt:     pwdSalt,
		TeacherToken:     token,
		SecretQuestion:   nc.SecretQuestion,
		SecretAnswerHash: svc.vault.Hash(nc.SecretAnswer, answerSalt),
		SecretAnswerSalt: answerSalt,
		Students:         []Student{},
	}
	cls, err = svc.repo.CreateClassroom(ctx, cls)
	if err != nil {
		return Classroom{}, "", err
	}
	return cls, token, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroom(ctx, id)
}

// SecretQuestion returns the recovery question; ErrNotFound when the
// classroom is absent or has no question configured.
func (svc *Service) SecretQuestion(ctx context.Context, id string) (string, error) {
	cls, err := svc.repo.GetClassroom(ctx, id)
	if err != nil {
		return "", err
	}
	if cls.SecretQuestion == "" {
		return "", ErrNotFound
	}
	return cls.SecretQuestion, nil
}

// Join looks a student up by access code. ErrBadAccessCode when no student
// matches.
func (svc *Service) Join(ctx context.Context, id, accessCode string) (Classroom, Student, error) {
	cls, err := svc.repo.GetClassroom(ctx, id)
	if err != nil {
		return Classroom{}, Student{}, err
	}
	st := cls.FindStudentByCode(accessCode)
	if st == nil {
		return Classroom{}, Student{}, ErrBadAccessCode
	}
	return cls, *st, nil
}

// SetStudentName claims the student's display name. A name, once set, is
// immutable: re-submission returns the existing record unchanged.
func (svc *Service) SetStudentName(ctx context.Context, id, accessCode, name string) (Student, error) {
	name = core.CleanString(name)
	if len(name) < 2 {
		return Student{}, core.NewValidationError(
			errStudentNameTooShort,
			core.FieldError{Field: "name", Error: errStudentNameTooShort.Error()},
		)
	}

	var named Student
	_, err := svc.repo.UpdateClassroom(ctx, id, func(cls *Classroom) error {
		st := cls.FindStudentByCode(accessCode)
		if st == nil {
			return ErrStudentNotFound
		}
		if !st.Named() {
			st.Name = &name
		}
		named = *st
		return nil
	})
	if err != nil {
		return Student{}, err
	}
	return named, nil
}

// Login verifies the teacher password and rotates the classroom's token slot,
// invalidating any previously issued token.
func (svc *Service) Login(ctx context.Context, id, password string) (Classroom, string, error) {
	var token string
	cls, err := svc.repo.UpdateClassroom(ctx, id, func(cls *Classroom) error {
		if !svc.vault.Verify(password, cls.PasswordHash, cls.PasswordSalt) {
			return ErrBadCredentials
		}
		t, err := GenerateToken()
		if err != nil {
			return err
		}
		cls.TeacherToken = t
		token = t
		return nil
	})
	if err != nil {
		return Classroom{}, "", err
	}
	return cls, token, nil
}

// Authorize checks a bearer token against the classroom's single token slot.
// ErrTokenMissing when no token was supplied; ErrTokenInvalid on mismatch,
// which covers a stale token, a foreign token and a classroom with no active
// session. An absent classroom also reads as ErrTokenInvalid so that a token
// probe cannot map the id space.
func (svc *Service) Authorize(ctx context.Context, id, token string) (Classroom, error) {
	if token == "" {
		return Classroom{}, ErrTokenMissing
	}
	cls, err := svc.repo.GetClassroom(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Classroom{}, ErrTokenInvalid
		}
		return Classroom{}, err
	}
	if !tokenEqual(cls.TeacherToken, token) {
		return Classroom{}, ErrTokenInvalid
	}
	return cls, nil
}

// ResetPassword sets a new password after a successful secret-answer
// challenge and rotates the token slot, forcibly logging out any session.
// The new hash reuses the original password salt.
func (svc *Service) ResetPassword(ctx context.Context, id string, rp ResetPassword) error {
	if err := rp.Validate(); err != nil {
		return err
	}
	_, err := svc.repo.UpdateClassroom(ctx, id, func(cls *Classroom) error {
		if !svc.vault.Verify(rp.SecretAnswer, cls.SecretAnswerHash, cls.SecretAnswerSalt) {
			return ErrBadSecretAnswer
		}
		cls.PasswordHash = svc.vault.Hash(rp.NewPassword, cls.PasswordSalt)
		token, err := GenerateToken()
		if err != nil {
			return err
		}
		cls.TeacherToken = token
		return nil
	})
	return err
}

// AddStudent allocates a new student with a classroom-unique access code, a
// zero score and an empty history. [protected]
func (svc *Service) AddStudent(ctx context.Context, id, token string) (Student, Classroom, error) {
	var added Student
	cls, err := svc.mutateAuthorized(ctx, id, token, func(cls *Classroom) error {
		sid, err := GenerateID("S")
		if err != nil {
			return err
		}
		code, err := GenerateAccessCode(cls.accessCodes())
		if err != nil {
			return err
		}
		added = Student{
			ID:           sid,
			AccessCode:   code,
			Score:        0,
			ScoreHistory: []ScoreRecord{},
		}
		cls.Students = append(cls.Students, added)
		return nil
	})
	if err != nil {
		return Student{}, Classroom{}, err
	}
	return added, cls, nil
}

// UpdateScore stores the score as given: no bounds or sign clamping.
// [protected]
func (svc *Service) UpdateScore(ctx context.Context, id, studentID string, score int, token string) (Classroom, error) {
	return svc.mutateAuthorized(ctx, id, token, func(cls *Classroom) error {
		st := cls.FindStudent(studentID)
		if st == nil {
			return ErrStudentNotFound
		}
		st.Score = score
		return nil
	})
}

// RemoveStudent removes the student permanently, history included.
// [protected]
func (svc *Service) RemoveStudent(ctx context.Context, id, studentID, token string) (Classroom, error) {
	return svc.mutateAuthorized(ctx, id, token, func(cls *Classroom) error {
		for i := range cls.Students {
			if cls.Students[i].ID == studentID {
				cls.Students = append(cls.Students[:i], cls.Students[i+1:]...)
				return nil
			}
		}
		return ErrStudentNotFound
	})
}

// ResetScores archives every student's current score under today's date and
// zeroes the live scores. [protected]
func (svc *Service) ResetScores(ctx context.Context, id, token string) (Classroom, error) {
	today := NowFunc()
	return svc.mutateAuthorized(ctx, id, token, func(cls *Classroom) error {
		for i := range cls.Students {
			Archive(&cls.Students[i], today)
			cls.Students[i].Score = 0
		}
		return nil
	})
}

// UpdateAnnouncement replaces the shared announcement; blank input clears it.
// [protected]
func (svc *Service) UpdateAnnouncement(ctx context.Context, id, announcement, token string) (Classroom, error) {
	announcement = core.CleanString(announcement)
	return svc.mutateAuthorized(ctx, id, token, func(cls *Classroom) error {
		if announcement == "" {
			cls.Announcement = nil
		} else {
			cls.Announcement = &announcement
		}
		return nil
	})
}

// Delete removes the classroom and all its students irrecoverably.
// [protected]
func (svc *Service) Delete(ctx context.Context, id, token string) error {
	if _, err := svc.Authorize(ctx, id, token); err != nil {
		return err
	}
	return svc.repo.DeleteClassroom(ctx, id)
}

// mutateAuthorized runs mutate under the repository's per-classroom update
// lock, with the token check inside the same cycle so that a login or reset
// racing a protected mutation cannot interleave.
func (svc *Service) mutateAuthorized(ctx context.Context, id, token string, mutate func(*Classroom) error) (Classroom, error) {
	if token == "" {
		return Classroom{}, ErrTokenMissing
	}
	cls, err := svc.repo.UpdateClassroom(ctx, id, func(cls *Classroom) error {
		if !tokenEqual(cls.TeacherToken, token) {
			return ErrTokenInvalid
		}
		return mutate(cls)
	})
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Classroom{}, ErrTokenInvalid
		}
		return Classroom{}, err
	}
	return cls, nil
}

func tokenEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
