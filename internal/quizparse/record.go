// Package quizparse turns generated study text into quiz records.
package quizparse

// Kind identifies the question format of a record.
type Kind string

const (
	KindFillInBlank    Kind = "fill-in-blank"
	KindMultipleChoice Kind = "multiple-choice"
	KindFreeResponse   Kind = "free-response"
)

// Record is one parsed question. The concrete type is one of FillInBlank,
// MultipleChoice, FreeResponse or Unrecognized.
type Record interface {
	Kind() Kind
	Prompt() string
	// Solution returns the answer and whether one was present.
	Solution() (string, bool)

	sealed()
}

type FillInBlank struct {
	Question string
	Answer   string
}

type MultipleChoice struct {
	Question string
	Choices  []string
	Answer   string
}

type FreeResponse struct {
	Question string
	Answer   string
}

// Unrecognized keeps a record whose kind is outside the known set. It is
// presented like a free-response question.
type Unrecognized struct {
	RawKind  string
	Question string
	Answer   string
}

func (r FillInBlank) Kind() Kind { return KindFillInBlank }

func (r FillInBlank) Prompt() string { return r.Question }

func (r FillInBlank) Solution() (string, bool) { return r.Answer, r.Answer != "" }

func (FillInBlank) sealed() {}

func (r MultipleChoice) Kind() Kind { return KindMultipleChoice }

func (r MultipleChoice) Prompt() string { return r.Question }

func (r MultipleChoice) Solution() (string, bool) { return r.Answer, r.Answer != "" }

func (MultipleChoice) sealed() {}

func (r FreeResponse) Kind() Kind { return KindFreeResponse }

func (r FreeResponse) Prompt() string { return r.Question }

func (r FreeResponse) Solution() (string, bool) { return r.Answer, r.Answer != "" }

func (FreeResponse) sealed() {}

func (r Unrecognized) Kind() Kind { return Kind(r.RawKind) }

func (r Unrecognized) Prompt() string { return r.Question }

func (r Unrecognized) Solution() (string, bool) { return r.Answer, r.Answer != "" }

func (Unrecognized) sealed() {}
