// Package gate decides from query text alone whether a statement is safe to
// run against a read-only store.
//
// The gate pattern-matches; it does not parse SQL. A statement is admitted
// only when its normalized text starts with select and no forbidden keyword
// appears anywhere in it as a whole word, including inside comments, string
// literals and subqueries.
package gate

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	ReasonEmpty            = "empty"
	ReasonNotSelect        = "not_select"
	ReasonForbiddenKeyword = "forbidden_keyword"
	ReasonMultiStatement   = "multi_statement"
)

var forbiddenKeywords = []string{
	"insert",
	"update",
	"delete",
	"drop",
	"alter",
	"create",
	"replace",
	"pragma",
	"attach",
	"detach",
}

// Identifier characters are Unicode letters, digits and underscore, so
// "created_at" and "ädelete" never match a keyword.
var forbiddenPatterns = compileKeywordPatterns(forbiddenKeywords)

type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
}

func compileKeywordPatterns(keywords []string) []keywordPattern {
	patterns := make([]keywordPattern, 0, len(keywords))
	for _, keyword := range keywords {
		patterns = append(patterns, keywordPattern{
			keyword: keyword,
			re:      regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(keyword) + `(?:$|[^\p{L}\p{N}_])`),
		})
	}
	return patterns
}

// ForbiddenKeywords returns a copy of the closed deny-list.
func ForbiddenKeywords() []string {
	out := make([]string, len(forbiddenKeywords))
	copy(out, forbiddenKeywords)
	return out
}

// Verdict is the outcome of checking one query string.
type Verdict struct {
	Allowed bool
	Reason  string
	Keyword string
}

// Message describes why the query was rejected.
func (v Verdict) Message() string {
	switch v.Reason {
	case "":
		return ""
	case ReasonEmpty:
		return "query is empty"
	case ReasonNotSelect:
		return "only SELECT queries are allowed"
	case ReasonForbiddenKeyword:
		return fmt.Sprintf("query contains forbidden keyword %q", v.Keyword)
	case ReasonMultiStatement:
		return "only a single statement is allowed"
	default:
		return v.Reason
	}
}

type Option func(*Gate)

// WithSingleStatement rejects text carrying a second statement after a ';'
// that sits outside literals, quoted identifiers and comments.
func WithSingleStatement(enabled bool) Option {
	return func(g *Gate) {
		g.singleStatement = enabled
	}
}

type Gate struct {
	singleStatement bool
}

func New(opts ...Option) *Gate {
	g := &Gate{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate applies the select anchor and the keyword deny-list.
func Validate(sql string) bool {
	return defaultGate.Check(sql).Allowed
}

var defaultGate = New()

func (g *Gate) Validate(sql string) bool {
	return g.Check(sql).Allowed
}

func (g *Gate) Check(sql string) Verdict {
	normalized := strings.ToLower(strings.TrimSpace(sql))
	if normalized == "" {
		return Verdict{Reason: ReasonEmpty}
	}
	if !strings.HasPrefix(normalized, "select") {
		return Verdict{Reason: ReasonNotSelect}
	}
	for _, pattern := range forbiddenPatterns {
		if pattern.re.MatchString(normalized) {
			return Verdict{Reason: ReasonForbiddenKeyword, Keyword: pattern.keyword}
		}
	}
	if g.singleStatement && hasTrailingStatement(normalized) {
		return Verdict{Reason: ReasonMultiStatement}
	}
	return Verdict{Allowed: true}
}

func hasTrailingStatement(sql string) bool {
	terminated := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == ';':
			terminated = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		case terminated:
			return true
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i, c)
		case c == '[':
			i = skipQuoted(sql, i, ']')
		}
	}
	return false
}

// skipQuoted returns the index of the closing quote for the literal opened at
// start. Doubled quotes are escapes. An unterminated literal runs to the end.
func skipQuoted(sql string, start int, closing byte) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != closing {
			continue
		}
		if closing != ']' && i+1 < len(sql) && sql[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(sql)
}
