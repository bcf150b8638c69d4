package inmemdb

import (
	"context"
	"sync"
	"testing"

	"github.com/trezcool/darasa/core/classroom"
)

var ctx = context.Background()

func newRepo(t *testing.T) classroom.Repository {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return NewClassroomRepository(db)
}

func seedClassroom(t *testing.T, repo classroom.Repository) classroom.Classroom {
	t.Helper()
	cls, err := repo.CreateClassroom(ctx, classroom.Classroom{
		ID:       "CLS-MATH-4B",
		Name:     "Math 4B",
		Students: []classroom.Student{{ID: "S-ABCD1234", AccessCode: "1234"}},
	})
	if err != nil {
		t.Fatalf("CreateClassroom() error = %v", err)
	}
	return cls
}

func Test_classroomRepository_CRUD(t *testing.T) {
	repo := newRepo(t)
	cls := seedClassroom(t, repo)

	if _, err := repo.CreateClassroom(ctx, classroom.Classroom{ID: cls.ID}); err != classroom.ErrClassroomExists {
		t.Errorf("CreateClassroom() error = %v, wantErr %v", err, classroom.ErrClassroomExists)
	}

	got, err := repo.GetClassroom(ctx, cls.ID)
	if err != nil {
		t.Fatalf("GetClassroom() error = %v", err)
	}
	if got.ID != cls.ID || len(got.Students) != 1 {
		t.Errorf("GetClassroom() = %+v", got)
	}
	if _, err = repo.GetClassroom(ctx, "CLS-NOPE"); err != classroom.ErrNotFound {
		t.Errorf("GetClassroom() error = %v, wantErr %v", err, classroom.ErrNotFound)
	}

	if err = repo.DeleteClassroom(ctx, cls.ID); err != nil {
		t.Fatalf("DeleteClassroom() error = %v", err)
	}
	if err = repo.DeleteClassroom(ctx, cls.ID); err != classroom.ErrNotFound {
		t.Errorf("DeleteClassroom() error = %v, wantErr %v", err, classroom.ErrNotFound)
	}
}

func Test_classroomRepository_UpdateClassroom(t *testing.T) {
	repo := newRepo(t)
	cls := seedClassroom(t, repo)

	t.Run("mutate error aborts the update", func(t *testing.T) {
		_, err := repo.UpdateClassroom(ctx, cls.ID, func(cls *classroom.Classroom) error {
			cls.Students[0].Score = 99
			return classroom.ErrStudentNotFound
		})
		if err != classroom.ErrStudentNotFound {
			t.Fatalf("UpdateClassroom() error = %v, wantErr %v", err, classroom.ErrStudentNotFound)
		}
		got, _ := repo.GetClassroom(ctx, cls.ID)
		if got.Students[0].Score != 0 {
			t.Errorf("aborted update leaked: score = %d, want 0", got.Students[0].Score)
		}
	})

	t.Run("concurrent increments serialize", func(t *testing.T) {
		const n = 100
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, _ = repo.UpdateClassroom(ctx, cls.ID, func(cls *classroom.Classroom) error {
					cls.Students[0].Score++
					return nil
				})
			}()
		}
		wg.Wait()

		got, err := repo.GetClassroom(ctx, cls.ID)
		if err != nil {
			t.Fatalf("GetClassroom() error = %v", err)
		}
		if got.Students[0].Score != n {
			t.Errorf("score = %d, want %d; increments were lost", got.Students[0].Score, n)
		}
	})
}

func Test_classroomRepository_isolation(t *testing.T) {
	repo := newRepo(t)
	cls := seedClassroom(t, repo)

	// mutating a returned copy must not affect stored state
	got, _ := repo.GetClassroom(ctx, cls.ID)
	got.Students[0].Score = 42
	got.Students[0].ScoreHistory = append(got.Students[0].ScoreHistory, classroom.ScoreRecord{Date: "2021-03-15", Score: 1})

	fresh, _ := repo.GetClassroom(ctx, cls.ID)
	if fresh.Students[0].Score != 0 || len(fresh.Students[0].ScoreHistory) != 0 {
		t.Errorf("stored state was aliased by a read copy: %+v", fresh.Students[0])
	}
}
