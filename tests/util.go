package testutil

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/storage/database/inmem"
)

// NewConfig returns a test configuration with the key-derivation work factor
// lowered so credential hashing does not dominate the test run.
func NewConfig() *core.Config {
	conf := &core.Config{
		TestMode: true,
		Env:      "TEST",
		AppName:  "Darasa",
	}
	conf.Hashing.Iterations = 1000
	conf.Hashing.KeyLength = 64
	conf.Hashing.SaltLength = 16
	return conf
}

// NewClassroomService wires a classroom service over a fresh in-memory
// repository.
func NewClassroomService(t *testing.T) (*classroom.Service, classroom.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewClassroomService() failed: %v", err)
	}
	repo := inmemdb.NewClassroomRepository(db)
	return classroom.NewService(repo, classroom.NewVault(NewConfig())), repo
}

// CreateClassroom registers a classroom and returns it with its teacher token.
func CreateClassroom(t *testing.T, svc *classroom.Service, name, pwd, question, answer string) (classroom.Classroom, string) {
	t.Helper()
	cls, token, err := svc.Create(context.Background(), classroom.NewClassroom{
		Name:           name,
		Password:       pwd,
		SecretQuestion: question,
		SecretAnswer:   answer,
	})
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return cls, token
}

// AddStudent allocates a student in the classroom using the teacher token.
func AddStudent(t *testing.T, svc *classroom.Service, classID, token string) classroom.Student {
	t.Helper()
	st, _, err := svc.AddStudent(context.Background(), classID, token)
	if err != nil {
		t.Fatalf("AddStudent() failed: %v", err)
	}
	return st
}
