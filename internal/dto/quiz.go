package dto

// CheckAnswerRequest represents a user's answer to a generated question.
// @Description Request body for checking an answer
type CheckAnswerRequest struct {
	Question    string `json:"question" validate:"required"`
	ModelAnswer string `json:"model_answer"`
	UserAnswer  string `json:"user_answer" validate:"required"`
}

// CheckAnswerResponse represents the judgment of an answer.
// @Description Verdict is one of correct, incorrect or indeterminate
type CheckAnswerResponse struct {
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation,omitempty"`
	Cached      bool   `json:"cached"`
}
