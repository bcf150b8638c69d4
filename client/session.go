package client

import (
	"context"

	"github.com/trezcool/darasa/core/classroom"
)

// View is the screen a restored session should land on.
type View string

const (
	ViewLogin   View = "login"
	ViewTeacher View = "teacher"
	ViewStudent View = "student"
	ViewSetName View = "setName"
)

// SavedSession is the locally persisted session state.
type SavedSession struct {
	ClassCode    string `json:"classCode"`
	AccessCode   string `json:"accessCode,omitempty"`
	TeacherToken string `json:"teacherToken,omitempty"`
}

// Session is the result of restoring a saved session against the live
// classroom state.
type Session struct {
	View         View
	Classroom    classroom.Classroom
	Student      *classroom.Student
	TeacherToken string
}

// RestoreSession resolves a saved session to its current view. A session
// whose classroom no longer exists, cannot be fetched, or whose access code
// no longer matches a student resolves to the login view; callers should
// clear their stored session in that case.
func (c *Client) RestoreSession(ctx context.Context, saved SavedSession) Session {
	login := Session{View: ViewLogin}
	if saved.ClassCode == "" {
		return login
	}

	cls, err := c.GetClassroom(ctx, saved.ClassCode)
	if err != nil {
		return login
	}

	if saved.TeacherToken != "" {
		return Session{View: ViewTeacher, Classroom: cls, TeacherToken: saved.TeacherToken}
	}

	if saved.AccessCode != "" {
		st := cls.FindStudentByCode(saved.AccessCode)
		if st == nil {
			return login
		}
		sess := Session{View: ViewSetName, Classroom: cls, Student: st}
		if st.Named() {
			sess.View = ViewStudent
		}
		return sess
	}
	return login
}
