package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Template placeholders.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// ValidateTemplate checks that tmpl names both placeholders and no others.
func ValidateTemplate(tmpl string) error {
	for _, p := range []string{PlaceholderContext, PlaceholderQuestion} {
		if !strings.Contains(tmpl, p) {
			return fmt.Errorf("%w: missing placeholder %s", domain.ErrTemplate, p)
		}
	}
	for _, p := range placeholderPattern.FindAllString(tmpl, -1) {
		if p != PlaceholderContext && p != PlaceholderQuestion {
			return fmt.Errorf("%w: unknown placeholder %s", domain.ErrTemplate, p)
		}
	}
	return nil
}

// PromptAssembler renders retrieved context and a question into a prompt.
type PromptAssembler struct {
	template string
}

// NewPromptAssembler validates template and returns an assembler for it.
func NewPromptAssembler(template string) (*PromptAssembler, error) {
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}
	return &PromptAssembler{template: template}, nil
}

// Assemble substitutes the chunk texts, newline-joined in rank order, and the
// question. Substitution is a single pass, so braces inside the inputs are
// left alone.
func (a *PromptAssembler) Assemble(result domain.RetrievalResult, question string) (string, error) {
	if err := ValidateTemplate(a.template); err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		PlaceholderContext, result.Context(),
		PlaceholderQuestion, question,
	)
	return r.Replace(a.template), nil
}

// Template returns the raw template text.
func (a *PromptAssembler) Template() string {
	return a.template
}
