package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/classroom"
)

type (
	DB struct {
		classroom *classroomTable
	}

	classroomTable struct {
		sync.RWMutex
		table map[string]*classroom.Classroom
	}
)

func Open() (*DB, error) {
	db := &DB{
		classroom: &classroomTable{table: make(map[string]*classroom.Classroom)},
	}
	return db, nil
}
