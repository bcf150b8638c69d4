package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
)

// classroomDoc is the persisted projection of a Classroom: one JSONB document
// per classroom, students embedded. Unlike the API model it carries the
// credential and token fields, so it gets its own JSON tags.
type classroomDoc struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	PasswordHash     string              `json:"passwordHash"`
	PasswordSalt     string              `json:"passwordSalt"`
	TeacherToken     string              `json:"teacherToken"`
	SecretQuestion   string              `json:"secretQuestion"`
	SecretAnswerHash string              `json:"secretAnswerHash"`
	SecretAnswerSalt string              `json:"secretAnswerSalt"`
	Announcement     *string             `json:"announcement"`
	Students         []classroom.Student `json:"students"`
}

func toDoc(cls classroom.Classroom) classroomDoc {
	return classroomDoc{
		ID:               cls.ID,
		Name:             cls.Name,
		PasswordHash:     cls.PasswordHash,
		PasswordSalt:     cls.PasswordSalt,
		TeacherToken:     cls.TeacherToken,
		SecretQuestion:   cls.SecretQuestion,
		SecretAnswerHash: cls.SecretAnswerHash,
		SecretAnswerSalt: cls.SecretAnswerSalt,
		Announcement:     cls.Announcement,
		Students:         cls.Students,
	}
}

func (d classroomDoc) toModel() classroom.Classroom {
	students := d.Students
	if students == nil {
		students = []classroom.Student{}
	}
	return classroom.Classroom{
		ID:               d.ID,
		Name:             d.Name,
		PasswordHash:     d.PasswordHash,
		PasswordSalt:     d.PasswordSalt,
		TeacherToken:     d.TeacherToken,
		SecretQuestion:   d.SecretQuestion,
		SecretAnswerHash: d.SecretAnswerHash,
		SecretAnswerSalt: d.SecretAnswerSalt,
		Announcement:     d.Announcement,
		Students:         students,
	}
}

type classroomRepository struct {
	db *sqlx.DB
}

func NewClassroomRepository(db *sqlx.DB) classroom.Repository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	doc, err := json.Marshal(toDoc(cls))
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "marshaling classroom")
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO classroom (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		cls.ID, doc,
	)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	if n == 0 {
		return classroom.Classroom{}, classroom.ErrClassroomExists
	}
	return cls, nil
}

func (r *classroomRepository) GetClassroom(ctx context.Context, id string) (classroom.Classroom, error) {
	var raw []byte
	err := r.db.QueryRowxContext(ctx, `SELECT doc FROM classroom WHERE id = $1`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "querying classroom")
	}
	return unmarshalDoc(raw)
}

// UpdateClassroom runs the read-modify-write cycle in a transaction holding a
// row lock on the classroom, so concurrent mutations of the same classroom
// serialize instead of losing updates.
func (r *classroomRepository) UpdateClassroom(ctx context.Context, id string, mutate func(*classroom.Classroom) error) (classroom.Classroom, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowxContext(ctx, `SELECT doc FROM classroom WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "querying classroom for update")
	}

	cls, err := unmarshalDoc(raw)
	if err != nil {
		return classroom.Classroom{}, err
	}
	if err = mutate(&cls); err != nil {
		return classroom.Classroom{}, err
	}

	doc, err := json.Marshal(toDoc(cls))
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "marshaling classroom")
	}
	if _, err = tx.ExecContext(ctx, `UPDATE classroom SET doc = $2 WHERE id = $1`, id, doc); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if err = tx.Commit(); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "committing classroom update")
	}
	return cls, nil
}

func (r *classroomRepository) DeleteClassroom(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classroom WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	if n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

func unmarshalDoc(raw []byte) (classroom.Classroom, error) {
	var doc classroomDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "unmarshaling classroom")
	}
	return doc.toModel(), nil
}
