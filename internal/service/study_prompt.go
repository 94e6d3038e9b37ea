package service

import (
	"fmt"
	"strings"
)

const studyPromptTemplate = `You are an excellent study assistant.
The text below comes from a photograph of a student's notes or a blackboard.
Produce the following three sections so the student can review efficiently.

1. **Summary**: summarize the whole text as concise bullet points.
2. **Keywords**: list 3 to 5 important terms.
3. **Review Questions**: mix fill-in-blank, multiple-choice and free-response questions in a balanced way.
   Write every question on its own line in exactly this format:

TYPE:fill-in-blank@@QUESTION:(question text, write the blank as ___)@@ANSWER:(answer)
TYPE:multiple-choice@@QUESTION:(question text)@@CHOICES:(choice 1),(choice 2),(choice 3)@@ANSWER:(answer)
TYPE:free-response@@QUESTION:(question text)@@ANSWER:(key points of a model answer)

---
[Original text]
%s
---
`

const judgePromptTemplate = `You are grading a student's answer to a review question.
Reply with exactly one word on the first line: CORRECT or INCORRECT.
On the following lines, explain the judgment in at most two sentences.

Question: %s
Model answer: %s
Student answer: %s
`

// BuildStudyPrompt embeds recognized text in the fixed generation template.
func BuildStudyPrompt(recognizedText string) string {
	return fmt.Sprintf(studyPromptTemplate, strings.TrimSpace(recognizedText))
}

// BuildJudgePrompt asks for a verdict on one answer.
func BuildJudgePrompt(question, modelAnswer, userAnswer string) string {
	if strings.TrimSpace(modelAnswer) == "" {
		modelAnswer = "(none provided, judge from the question alone)"
	}
	return fmt.Sprintf(judgePromptTemplate, question, modelAnswer, userAnswer)
}
