// Package client is the consumer-side contract of the Darasa API: a typed
// HTTP client, the fixed-interval classroom poller and session restoration.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response decoded from the API's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// wire envelopes, mirroring the API's response bodies

type tokenResponse struct {
	Classroom    classroom.Classroom `json:"classroom"`
	TeacherToken string              `json:"teacherToken"`
}

type joinResponse struct {
	Classroom classroom.Classroom `json:"classroom"`
	Student   classroom.Student   `json:"student"`
}

type newStudentResponse struct {
	NewStudent       classroom.Student   `json:"newStudent"`
	UpdatedClassroom classroom.Classroom `json:"updatedClassroom"`
}

type secretQuestionResponse struct {
	SecretQuestion string `json:"secretQuestion"`
}

// Public / student operations

func (c *Client) GetClassroom(ctx context.Context, classCode string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	err := c.do(ctx, http.MethodGet, "/v1/classrooms/"+classCode, "", nil, &cls)
	return cls, err
}

func (c *Client) JoinClassroom(ctx context.Context, classCode, accessCode string) (classroom.Classroom, classroom.Student, error) {
	var resp joinResponse
	body := map[string]string{"accessCode": accessCode}
	err := c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/join", "", body, &resp)
	return resp.Classroom, resp.Student, err
}

func (c *Client) SetStudentName(ctx context.Context, classCode, accessCode, name string) (classroom.Student, error) {
	var st classroom.Student
	body := map[string]string{"accessCode": accessCode, "name": name}
	err := c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/students/name", "", body, &st)
	return st, err
}

// Teacher authentication

func (c *Client) CreateClassroom(ctx context.Context, nc classroom.NewClassroom) (classroom.Classroom, string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/classrooms", "", nc, &resp)
	return resp.Classroom, resp.TeacherToken, err
}

func (c *Client) Login(ctx context.Context, classCode, password string) (classroom.Classroom, string, error) {
	var resp tokenResponse
	body := map[string]string{"password": password}
	err := c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/login", "", body, &resp)
	return resp.Classroom, resp.TeacherToken, err
}

func (c *Client) GetSecretQuestion(ctx context.Context, classCode string) (string, error) {
	var resp secretQuestionResponse
	err := c.do(ctx, http.MethodGet, "/v1/classrooms/"+classCode+"/secret-question", "", nil, &resp)
	return resp.SecretQuestion, err
}

func (c *Client) ResetPassword(ctx context.Context, classCode, secretAnswer, newPassword string) error {
	body := map[string]string{"secretAnswer": secretAnswer, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/password-reset", "", body, nil)
}

// Protected teacher operations

func (c *Client) AddStudent(ctx context.Context, classCode, token string) (classroom.Student, classroom.Classroom, error) {
	var resp newStudentResponse
	err := c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/students", token, nil, &resp)
	return resp.NewStudent, resp.UpdatedClassroom, err
}

func (c *Client) UpdateScore(ctx context.Context, classCode, studentID string, score int, token string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	body := map[string]int{"score": score}
	err := c.do(ctx, http.MethodPut, "/v1/classrooms/"+classCode+"/students/"+studentID+"/score", token, body, &cls)
	return cls, err
}

func (c *Client) RemoveStudent(ctx context.Context, classCode, studentID, token string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	err := c.do(ctx, http.MethodDelete, "/v1/classrooms/"+classCode+"/students/"+studentID, token, nil, &cls)
	return cls, err
}

func (c *Client) ResetScores(ctx context.Context, classCode, token string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	err := c.do(ctx, http.MethodPost, "/v1/classrooms/"+classCode+"/reset-scores", token, nil, &cls)
	return cls, err
}

func (c *Client) UpdateAnnouncement(ctx context.Context, classCode, announcement, token string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	body := map[string]string{"announcement": announcement}
	err := c.do(ctx, http.MethodPut, "/v1/classrooms/"+classCode+"/announcement", token, body, &cls)
	return cls, err
}

func (c *Client) DeleteClassroom(ctx context.Context, classCode, token string) error {
	return c.do(ctx, http.MethodDelete, "/v1/classrooms/"+classCode, token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if err = json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}
	return nil
}
