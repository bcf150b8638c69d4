package echoapi

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
)

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error { return core.Validate.Struct(r) }

type JoinRequest struct {
	AccessCode string `json:"accessCode" validate:"required"`
}

func (r *JoinRequest) Validate() error { return core.Validate.Struct(r) }

type SetNameRequest struct {
	AccessCode string `json:"accessCode" validate:"required"`
	Name       string `json:"name"`
}

func (r *SetNameRequest) Validate() error { return core.Validate.Struct(r) }

type ScoreRequest struct {
	Score int `json:"score"`
}

type AnnouncementRequest struct {
	Announcement string `json:"announcement"`
}

type TokenResponse struct {
	Classroom    classroom.Classroom `json:"classroom"`
	TeacherToken string              `json:"teacherToken"`
}

type JoinResponse struct {
	Classroom classroom.Classroom `json:"classroom"`
	Student   classroom.Student   `json:"student"`
}

type NewStudentResponse struct {
	NewStudent       classroom.Student   `json:"newStudent"`
	UpdatedClassroom classroom.Classroom `json:"updatedClassroom"`
}

type SecretQuestionResponse struct {
	SecretQuestion string `json:"secretQuestion"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
