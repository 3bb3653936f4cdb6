// Package validator provides input validation for corpus ingestion. It
// enforces name and size constraints and returns per-field error details.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
)

const maxIdempotencyKeyLength = 255

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Limits bounds what a single corpus may contain.
type Limits struct {
	MaxWords      int
	MaxNameLength int
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateIngestRequest checks the request shape and then the resulting word
// sequence.
func ValidateIngestRequest(req *ingestion.IngestRequest, limits Limits) error {
	errs := make(map[string]string)
	checkName(req.Name, limits, errs)

	hasWords := len(req.Words) > 0
	hasText := strings.TrimSpace(req.Text) != ""
	switch {
	case hasWords && hasText:
		errs["words"] = "only one of words or text may be provided"
	case !hasWords && !hasText:
		errs["words"] = "words or text is required"
	default:
		checkWords(req.Sequence(), limits, errs)
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d characters", maxIdempotencyKeyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateCorpus checks a name and an already-split word sequence.
func ValidateCorpus(name string, words []string, limits Limits) error {
	errs := make(map[string]string)
	checkName(name, limits, errs)
	checkWords(words, limits, errs)
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkName(name string, limits Limits, errs map[string]string) {
	maxLen := limits.MaxNameLength
	if maxLen <= 0 {
		maxLen = 128
	}
	switch {
	case name == "":
		errs["name"] = "name is required"
	case len(name) > maxLen:
		errs["name"] = fmt.Sprintf("name must be at most %d characters", maxLen)
	case !namePattern.MatchString(name):
		errs["name"] = "name may only contain letters, digits, '_', '.' and '-'"
	}
}

func checkWords(words []string, limits Limits, errs map[string]string) {
	if len(words) == 0 {
		errs["words"] = "sequence must contain at least one word"
		return
	}
	if limits.MaxWords > 0 && len(words) > limits.MaxWords {
		errs["words"] = fmt.Sprintf("sequence must contain at most %d words", limits.MaxWords)
		return
	}
	for i, w := range words {
		if w == "" {
			errs["words"] = fmt.Sprintf("word at position %d is empty", i)
			return
		}
		// NUL separates words in the content hash.
		if strings.IndexByte(w, 0) >= 0 {
			errs["words"] = fmt.Sprintf("word at position %d contains a NUL byte", i)
			return
		}
	}
}
