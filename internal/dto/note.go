package dto

import "time"

// QuizItem is one generated question as shown to the client.
type QuizItem struct {
	Kind     string   `json:"kind"`
	Question string   `json:"question"`
	Choices  []string `json:"choices,omitempty"`
	Answer   string   `json:"answer,omitempty"`
}

// UploadNoteResponse is returned after an image has been processed.
// @Description Result of processing an uploaded note image
type UploadNoteResponse struct {
	NoteID  string     `json:"note_id,omitempty"`
	Skipped bool       `json:"skipped"`
	Tag     string     `json:"tag,omitempty"`
	Summary string     `json:"summary"`
	Quizzes []QuizItem `json:"quizzes"`
}

// NoteResponse is the full detail of a stored note.
// @Description Stored note with its study material
type NoteResponse struct {
	ID             string     `json:"id"`
	Tag            string     `json:"tag"`
	RecognizedText string     `json:"recognized_text"`
	GeneratedText  string     `json:"generated_text"`
	Summary        string     `json:"summary"`
	SummaryHTML    string     `json:"summary_html"`
	Quizzes        []QuizItem `json:"quizzes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NoteListItem is a note as listed in the archive.
type NoteListItem struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// TagListResponse lists the distinct tags of the caller.
// @Description Distinct tags of the caller's notes
type TagListResponse struct {
	Tags []string `json:"tags"`
}

// NoteListResponse lists the caller's notes under one tag.
// @Description Notes under a tag, newest first
type NoteListResponse struct {
	Tag   string         `json:"tag"`
	Notes []NoteListItem `json:"notes"`
}

// UpdateNoteRequest is a partial update. Omitted fields are left unchanged.
// @Description Partial update of a note
type UpdateNoteRequest struct {
	RecognizedText *string `json:"recognized_text,omitempty"`
	GeneratedText  *string `json:"generated_text,omitempty"`
	Tag            *string `json:"tag,omitempty"`
}
