package services

import (
	"fmt"
	"strings"
)

const SummarySystemPrompt = "You are a resume assistant"

type PromptBuilder struct {
	maxChars int
}

// NewPromptBuilder returns a builder that keeps only the first maxChars runes
// of the resume. maxChars <= 0 disables truncation.
func NewPromptBuilder(maxChars int) *PromptBuilder {
	return &PromptBuilder{maxChars: maxChars}
}

// BuildSummaryPrompt creates the skills and summary extraction prompt.
func (pb *PromptBuilder) BuildSummaryPrompt(resumeText string) string {
	return fmt.Sprintf(`From the resume text below, extract:
1. A bullet-point list of key technical and soft skills
2. A 2-3 line professional summary

Resume Text:
%s`, pb.Truncate(resumeText))
}

func (pb *PromptBuilder) Truncate(text string) string {
	if pb.maxChars <= 0 {
		return text
	}
	return TruncateRunes(text, pb.maxChars)
}

// TruncateRunes keeps at most limit runes of s.
func TruncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// FormatScreeningLine renders one result in the plain console format.
func FormatScreeningLine(filename string, score float64, label string) string {
	return fmt.Sprintf("File: %s → Match Score: %.2f → Fit: %s", strings.TrimSpace(filename), score, label)
}
