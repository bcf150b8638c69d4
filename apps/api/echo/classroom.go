package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
)

type classroomApi struct {
	svc *classroom.Service
}

func registerClassroomAPI(g *echo.Group, svc *classroom.Service) {
	api := classroomApi{svc: svc}

	cg := g.Group("/classrooms")

	// un-authed endpoints
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.POST("/:id/login", api.login)
	cg.GET("/:id/secret-question", api.secretQuestion)
	cg.POST("/:id/password-reset", api.resetPassword)
	cg.POST("/:id/join", api.join)
	cg.POST("/:id/students/name", api.setStudentName)

	// teacher-token endpoints; each handler forwards the bearer token and the
	// service checks it against the classroom's token slot.
	cg.POST("/:id/students", api.addStudent)
	cg.PUT("/:id/students/:sid/score", api.updateScore)
	cg.DELETE("/:id/students/:sid", api.removeStudent)
	cg.POST("/:id/reset-scores", api.resetScores)
	cg.PUT("/:id/announcement", api.updateAnnouncement)
	cg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}

	cls, token, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, TokenResponse{Classroom: cls, TeacherToken: token})
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	cls, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, token, err := api.svc.Login(ctx.Request().Context(), ctx.Param("id"), data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Classroom: cls, TeacherToken: token})
}

func (api *classroomApi) secretQuestion(ctx echo.Context) error {
	question, err := api.svc.SecretQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SecretQuestionResponse{SecretQuestion: question})
}

func (api *classroomApi) resetPassword(ctx echo.Context) error {
	var data classroom.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "password reset successfully"})
}

func (api *classroomApi) join(ctx echo.Context) error {
	var data JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, st, err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), data.AccessCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, JoinResponse{Classroom: cls, Student: st})
}

func (api *classroomApi) setStudentName(ctx echo.Context) error {
	var data SetNameRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetNameRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	st, err := api.svc.SetStudentName(ctx.Request().Context(), ctx.Param("id"), data.AccessCode, data.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *classroomApi) addStudent(ctx echo.Context) error {
	st, cls, err := api.svc.AddStudent(ctx.Request().Context(), ctx.Param("id"), bearerToken(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, NewStudentResponse{NewStudent: st, UpdatedClassroom: cls})
}

func (api *classroomApi) updateScore(ctx echo.Context) error {
	var data ScoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}

	cls, err := api.svc.UpdateScore(
		ctx.Request().Context(), ctx.Param("id"), ctx.Param("sid"), data.Score, bearerToken(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) removeStudent(ctx echo.Context) error {
	cls, err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("sid"), bearerToken(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) resetScores(ctx echo.Context) error {
	cls, err := api.svc.ResetScores(ctx.Request().Context(), ctx.Param("id"), bearerToken(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) updateAnnouncement(ctx echo.Context) error {
	var data AnnouncementRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnnouncementRequest")
	}

	cls, err := api.svc.UpdateAnnouncement(
		ctx.Request().Context(), ctx.Param("id"), data.Announcement, bearerToken(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), bearerToken(ctx)); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "classroom deleted successfully"})
}
