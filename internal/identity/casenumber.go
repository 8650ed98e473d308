package identity

import (
	"fmt"
	"regexp"
	"strings"

	dErrors "safedesk/pkg/domain-errors"
)

// CaseNumber is the public, human-readable case reference:
// <PREFIX>-<YEAR>-<SEQUENCE>, sequence zero-padded to at least four digits.
type CaseNumber string

var caseNumberPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}-\d{4}-\d{4,9}$`)

// FormatCaseNumber builds a case number. Sequences above 9999 widen the
// field rather than wrap.
func FormatCaseNumber(prefix string, year int, seq int64) CaseNumber {
	return CaseNumber(fmt.Sprintf("%s-%04d-%04d", prefix, year, seq))
}

// ParseCaseNumber normalizes and validates a case number from user input.
func ParseCaseNumber(s string) (CaseNumber, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "caseId is required")
	}
	if !caseNumberPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "caseId is malformed")
	}
	return CaseNumber(s), nil
}

func (c CaseNumber) String() string { return string(c) }

// LooksLikeCaseNumber reports whether s is shaped like a case number, without
// producing an error.
func LooksLikeCaseNumber(s string) bool {
	return caseNumberPattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
