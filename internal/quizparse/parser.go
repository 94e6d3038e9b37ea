package quizparse

import (
	"regexp"
	"strings"
)

const (
	typeMarker     = "TYPE:"
	fieldSeparator = "@@"

	questionPrefix = "QUESTION:"
	answerPrefix   = "ANSWER:"
	choicesPrefix  = "CHOICES:"

	minChunks = 2
	maxChunks = 4
)

// kindAliases maps the labels models are asked to emit onto the known kinds.
var kindAliases = map[string]Kind{
	string(KindFillInBlank):    KindFillInBlank,
	string(KindMultipleChoice): KindMultipleChoice,
	string(KindFreeResponse):   KindFreeResponse,

	"穴埋め": KindFillInBlank,
	"選択":  KindMultipleChoice,
	"記述":  KindFreeResponse,
}

// sectionLabel matches a heading such as "1. **Summary**:" at the start of a line.
var sectionLabel = regexp.MustCompile(`^\s*(?:\d+\.\s*)?\*\*(?:Summary|Keywords|Review Questions|要点まとめ|重要キーワード|復習問題)\*\*\s*[:：]?\s*`)

type fields struct {
	kind     string
	question string
	answer   string
	choices  []string
}

// Parse extracts quiz records from text, one per well-formed TYPE: line, in
// the order they appear. Lines that are not records are ignored.
func Parse(text string) []Record {
	var records []Record
	for _, line := range splitLines(text) {
		f, ok := parseLine(line)
		if !ok {
			continue
		}
		records = append(records, f.record())
	}
	return records
}

// Summary returns the text before the first TYPE: marker, wherever it occurs,
// with the section headings removed.
func Summary(text string) string {
	if i := strings.Index(text, typeMarker); i >= 0 {
		text = text[:i]
	}
	var kept []string
	for _, line := range splitLines(text) {
		stripped := sectionLabel.ReplaceAllString(line, "")
		if stripped == "" && line != "" {
			continue
		}
		kept = append(kept, strings.TrimRight(stripped, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isRecordLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), typeMarker)
}

func parseLine(line string) (fields, bool) {
	if !isRecordLine(line) {
		return fields{}, false
	}
	chunks := strings.Split(strings.TrimLeft(line, " \t"), fieldSeparator)
	if len(chunks) < minChunks || len(chunks) > maxChunks {
		return fields{}, false
	}

	f := fields{kind: strings.TrimSpace(strings.TrimPrefix(chunks[0], typeMarker))}
	for _, chunk := range chunks[1:] {
		c := strings.TrimSpace(chunk)
		switch {
		case strings.HasPrefix(c, questionPrefix):
			f.question = strings.TrimSpace(strings.TrimPrefix(c, questionPrefix))
		case strings.HasPrefix(c, answerPrefix):
			f.answer = strings.TrimSpace(strings.TrimPrefix(c, answerPrefix))
		case strings.HasPrefix(c, choicesPrefix):
			f.choices = splitChoices(strings.TrimPrefix(c, choicesPrefix))
		}
	}
	if f.kind == "" || f.question == "" {
		return fields{}, false
	}
	return f, true
}

func splitChoices(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	choices := make([]string, 0, len(parts))
	for _, p := range parts {
		choices = append(choices, strings.TrimSpace(p))
	}
	return choices
}

func (f fields) record() Record {
	kind, known := kindAliases[f.kind]
	if !known {
		return Unrecognized{RawKind: f.kind, Question: f.question, Answer: f.answer}
	}
	switch kind {
	case KindFillInBlank:
		return FillInBlank{Question: f.question, Answer: f.answer}
	case KindMultipleChoice:
		return MultipleChoice{Question: f.question, Choices: f.choices, Answer: f.answer}
	default:
		return FreeResponse{Question: f.question, Answer: f.answer}
	}
}
