package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/classroom"
)

type classroomRepository struct {
	db *classroomTable
}

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db.classroom}
}

func (r *classroomRepository) CreateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if _, exists := r.db.table[cls.ID]; exists {
		return classroom.Classroom{}, classroom.ErrClassroomExists
	}
	stored := deepCopy(cls)
	r.db.table[cls.ID] = &stored
	return deepCopy(stored), nil
}

func (r *classroomRepository) GetClassroom(_ context.Context, id string) (classroom.Classroom, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	cls, ok := r.db.table[id]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return deepCopy(*cls), nil
}

// UpdateClassroom holds the table lock for the whole read-modify-write cycle,
// serializing concurrent mutations.
func (r *classroomRepository) UpdateClassroom(_ context.Context, id string, mutate func(*classroom.Classroom) error) (classroom.Classroom, error) {
	r.db.Lock()
	defer r.db.Unlock()

	stored, ok := r.db.table[id]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	cls := deepCopy(*stored)
	if err := mutate(&cls); err != nil {
		return classroom.Classroom{}, err
	}
	committed := deepCopy(cls)
	r.db.table[id] = &committed
	return cls, nil
}

func (r *classroomRepository) DeleteClassroom(_ context.Context, id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, ok := r.db.table[id]; !ok {
		return classroom.ErrNotFound
	}
	delete(r.db.table, id)
	return nil
}

// deepCopy detaches the student list and histories so callers never alias
// stored state.
func deepCopy(cls classroom.Classroom) classroom.Classroom {
	students := make([]classroom.Student, len(cls.Students))
	copy(students, cls.Students)
	for i := range students {
		history := make([]classroom.ScoreRecord, len(students[i].ScoreHistory))
		copy(history, students[i].ScoreHistory)
		students[i].ScoreHistory = history
		if students[i].Name != nil {
			name := *students[i].Name
			students[i].Name = &name
		}
	}
	cls.Students = students
	if cls.Announcement != nil {
		ann := *cls.Announcement
		cls.Announcement = &ann
	}
	return cls
}
