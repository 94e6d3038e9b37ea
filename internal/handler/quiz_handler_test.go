package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"notesnap/internal/dto"
	"notesnap/internal/middleware"
	"notesnap/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJudge struct {
	got    service.CheckInput
	calls  int
	result *service.CheckResult
	err    error
}

func (f *fakeJudge) Check(ctx context.Context, in service.CheckInput) (*service.CheckResult, error) {
	f.calls++
	f.got = in
	return f.result, f.err
}

func setupQuizApp(judge AnswerJudge) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	h := NewQuizHandler(judge)
	app.Post("/api/quiz/check", asUser("owner1"), h.CheckAnswer)
	return app
}

func TestQuizHandler_CheckAnswer(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		result         *service.CheckResult
		expectedStatus int
		expectedBody   *dto.CheckAnswerResponse
		expectCall     bool
	}{
		{
			name:           "correct",
			body:           `{"question":"Capital of France?","model_answer":"Paris","user_answer":"paris"}`,
			result:         &service.CheckResult{Verdict: service.VerdictCorrect, Explanation: "same city"},
			expectedStatus: fiber.StatusOK,
			expectedBody:   &dto.CheckAnswerResponse{Verdict: "correct", Explanation: "same city"},
			expectCall:     true,
		},
		{
			name:           "busy",
			body:           `{"question":"q","user_answer":"a"}`,
			result:         &service.CheckResult{Verdict: service.VerdictIndeterminate, Explanation: service.BusyMessage},
			expectedStatus: fiber.StatusOK,
			expectedBody:   &dto.CheckAnswerResponse{Verdict: "indeterminate", Explanation: service.BusyMessage},
			expectCall:     true,
		},
		{
			name:           "cached",
			body:           `{"question":"q","user_answer":"a"}`,
			result:         &service.CheckResult{Verdict: service.VerdictIncorrect, Cached: true},
			expectedStatus: fiber.StatusOK,
			expectedBody:   &dto.CheckAnswerResponse{Verdict: "incorrect", Cached: true},
			expectCall:     true,
		},
		{
			name:           "missing answer",
			body:           `{"question":"q"}`,
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{"question":`,
			expectedStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := &fakeJudge{result: tt.result}
			app := setupQuizApp(judge)

			req := httptest.NewRequest("POST", "/api/quiz/check", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectCall, judge.calls == 1)

			if tt.expectedBody != nil {
				var got dto.CheckAnswerResponse
				decode(t, resp.Body, &got)
				assert.Equal(t, *tt.expectedBody, got)
			}
		})
	}
}
