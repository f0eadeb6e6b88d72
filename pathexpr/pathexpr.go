// Package pathexpr parses production path expressions.
//
// Two grammars live here and are deliberately kept apart. Parse reads the
// operation grammar: branches separated by "|", path codes inside a branch
// separated by "+". ParseRouting reads the looser room-matching grammar where
// "%", "$", "&" and "|" all separate codes and "+" has no meaning. The same
// string can therefore yield different codes: "5%3" is the single code "5%3"
// to Parse and the codes "5", "3" to ParseRouting.
package pathexpr

import (
	"strings"
)

const (
	BranchSep = "|"
	CodeSep   = "+"
)

// Branches is an ordered list of branches, each an ordered list of path codes.
type Branches [][]string

// Parse splits an expression into branches of path codes. Tokens are trimmed,
// empty tokens dropped, and branches left without codes dropped. It returns nil
// when nothing remains, meaning no production is required.
func Parse(expr string) Branches {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	var out Branches
	for _, raw := range strings.Split(expr, BranchSep) {
		codes := splitTrim(raw, CodeSep)
		if len(codes) > 0 {
			out = append(out, codes)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Join renders branches back into an expression.
func Join(b Branches) string {
	parts := make([]string, len(b))
	for i, codes := range b {
		parts[i] = strings.Join(codes, CodeSep)
	}
	return strings.Join(parts, BranchSep)
}

// Codes returns every code of every branch in order, duplicates included.
func (b Branches) Codes() []string {
	var out []string
	for _, codes := range b {
		out = append(out, codes...)
	}
	return out
}

var routingSeps = strings.NewReplacer("%", BranchSep, "$", BranchSep, "&", BranchSep)

// ParseRouting returns the codes of an expression under the routing grammar.
func ParseRouting(expr string) []string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}
	return splitTrim(routingSeps.Replace(expr), BranchSep)
}

// BaseCode returns the part of a code before the first ".", e.g. "5" for "5.1".
func BaseCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		return code[:i]
	}
	return code
}

// BranchCode returns the letter naming branch index out of total branches:
// "A" for 0, "B" for 1 and so on. A single branch has no letter.
func BranchCode(index, total int) string {
	if total <= 1 || index < 0 || index >= 26 {
		return ""
	}
	return string(rune('A' + index))
}

// BranchIndex is the inverse of BranchCode.
func BranchIndex(code string) (int, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 1 || code[0] < 'A' || code[0] > 'Z' {
		return 0, false
	}
	return int(code[0] - 'A'), true
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, tok := range strings.Split(s, sep) {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
