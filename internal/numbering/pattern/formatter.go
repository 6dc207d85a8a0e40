// Package pattern renders formatted document numbers from declarative
// templates. Everything here is pure: same inputs, same output, no clock and
// no storage.
package pattern

import (
	"fmt"
	"strings"

	domerrors "registrar/pkg/domain-errors"
)

// Literal substitution tokens.
const (
	TokenSite  = "{SITE}"
	TokenCode  = "{CODE}"
	TokenYear  = "{YYYY}"
	TokenMonth = "{MM}"
)

// Sequence tokens are runs of '#' between braces, 4 to 8 wide. Every width
// renders the same sequence value padded to the configured number length; the
// token width and the configured length must agree, which DocumentType
// validation enforces at save time.
const (
	minSequenceWidth = 4
	maxSequenceWidth = 8
)

// Values holds the resolved components substituted into a template.
type Values struct {
	Site     string
	Code     string
	Year     int
	Month    int
	Sequence int
}

// Format substitutes tokens in template and returns the rendered number.
// Unknown {...} tokens fail closed: a template typo must never leak a literal
// token into an issued document number.
func Format(template string, v Values, padWidth int) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", domerrors.Newf(domerrors.CodeInvariantViolation, "unterminated token in pattern %q", template)
		}
		token := rest[open : open+end+1]
		rest = rest[open+end+1:]

		switch token {
		case TokenSite:
			b.WriteString(v.Site)
		case TokenCode:
			b.WriteString(v.Code)
		case TokenYear:
			b.WriteString(fmt.Sprintf("%04d", v.Year))
		case TokenMonth:
			b.WriteString(fmt.Sprintf("%02d", v.Month))
		default:
			if !isSequenceToken(token) {
				return "", domerrors.Newf(domerrors.CodeInvariantViolation, "unknown token %q in pattern %q", token, template)
			}
			b.WriteString(fmt.Sprintf("%0*d", padWidth, v.Sequence))
		}
	}
	return b.String(), nil
}

// AppendModifiers appends each modifier wrapped by the separator. The closing
// bracket is appended only when the separator is literally "(" — a legacy
// asymmetry preserved on purpose so numbers issued by the predecessor system
// and by this one compare equal. See DESIGN.md before "fixing" this.
func AppendModifiers(number, separator string, modifiers []string) string {
	if len(modifiers) == 0 {
		return number
	}
	closing := ""
	if separator == "(" {
		closing = ")"
	}
	var b strings.Builder
	b.WriteString(number)
	for _, m := range modifiers {
		b.WriteString(separator)
		b.WriteString(m)
		b.WriteString(closing)
	}
	return b.String()
}

// SequenceTokenWidth returns the width of the sequence token in template.
// Exactly one sequence token is required.
func SequenceTokenWidth(template string) (int, error) {
	width := 0
	for _, token := range tokens(template) {
		if !isSequenceToken(token) {
			continue
		}
		if width != 0 {
			return 0, domerrors.Newf(domerrors.CodeInvariantViolation, "pattern %q has more than one sequence token", template)
		}
		width = len(token) - 2
	}
	if width == 0 {
		return 0, domerrors.Newf(domerrors.CodeInvariantViolation, "pattern %q has no sequence token", template)
	}
	return width, nil
}

// ValidateTokens checks that every {...} token in template is known.
func ValidateTokens(template string) error {
	for _, token := range tokens(template) {
		switch token {
		case TokenSite, TokenCode, TokenYear, TokenMonth:
			continue
		}
		if !isSequenceToken(token) {
			return domerrors.Newf(domerrors.CodeInvariantViolation, "unknown token %q in pattern %q", token, template)
		}
	}
	if strings.Count(template, "{") != strings.Count(template, "}") {
		return domerrors.Newf(domerrors.CodeInvariantViolation, "unbalanced braces in pattern %q", template)
	}
	return nil
}

func isSequenceToken(token string) bool {
	if len(token) < 2 || token[0] != '{' || token[len(token)-1] != '}' {
		return false
	}
	inner := token[1 : len(token)-1]
	if len(inner) < minSequenceWidth || len(inner) > maxSequenceWidth {
		return false
	}
	for i := 0; i < len(inner); i++ {
		if inner[i] != '#' {
			return false
		}
	}
	return true
}

func tokens(template string) []string {
	var out []string
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return out
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return out
		}
		out = append(out, rest[open:open+end+1])
		rest = rest[open+end+1:]
	}
}
