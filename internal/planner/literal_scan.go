package planner

import (
	"strings"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// lexConfig names the comment/string delimiters a language uses, enough
// to check literal-location validity without a full parse: a line
// comment marker, a block comment open/close pair, plain string-quote
// runes, and any triple-quoted string delimiters.
type lexConfig struct {
	lineComment       string
	blockCommentOpen  string
	blockCommentClose string
	stringQuotes      []rune
	tripleQuotes      []string
}

// lexConfigForExt returns the delimiter set for a file extension. Go,
// Rust, Java, TypeScript/JavaScript all share C-style line/block
// comments and quote/backtick strings (Go and JS/TS both use backticks
// for raw/template strings); Python has neither block comments nor
// backticks but adds triple-quoted strings.
func lexConfigForExt(ext string) lexConfig {
	if strings.EqualFold(ext, ".py") {
		return lexConfig{
			lineComment:  "#",
			stringQuotes: []rune{'"', '\''},
			tripleQuotes: []string{`"""`, `'''`},
		}
	}
	return lexConfig{
		lineComment:       "//",
		blockCommentOpen:  "/*",
		blockCommentClose: "*/",
		stringQuotes:      []rune{'"', '\'', '`'},
	}
}

// runeRange is a half-open [start, end) range of rune indices within one line.
type runeRange struct{ start, end int }

func (r runeRange) overlaps(start, end int) bool {
	return start < r.end && end > r.start
}

// lexState carries scanner state that can persist across line
// boundaries: a block comment or triple-quoted string opened on an
// earlier line with no closing marker seen yet.
type lexState struct {
	inBlockComment bool
	openTriple     string
}

// invalidRangesForLine scans one line and returns the rune ranges that
// are inside a string or comment, updating state for the next line.
func invalidRangesForLine(line string, cfg lexConfig, state *lexState) []runeRange {
	runes := []rune(line)
	var invalid []runeRange
	openAt := -1
	open := func(i int) {
		if openAt == -1 {
			openAt = i
		}
	}
	closeAt := func(i int) {
		if openAt != -1 {
			invalid = append(invalid, runeRange{openAt, i})
			openAt = -1
		}
	}

	i := 0
	for i < len(runes) {
		if state.inBlockComment {
			open(i)
			if cfg.blockCommentClose != "" && hasPrefixAt(runes, i, cfg.blockCommentClose) {
				i += len([]rune(cfg.blockCommentClose))
				state.inBlockComment = false
				closeAt(i)
				continue
			}
			i++
			continue
		}
		if state.openTriple != "" {
			open(i)
			if hasPrefixAt(runes, i, state.openTriple) {
				i += len([]rune(state.openTriple))
				state.openTriple = ""
				closeAt(i)
				continue
			}
			i++
			continue
		}

		if tq, ok := matchTriple(runes, i, cfg.tripleQuotes); ok {
			open(i)
			state.openTriple = tq
			i += len([]rune(tq))
			continue
		}
		if cfg.blockCommentOpen != "" && hasPrefixAt(runes, i, cfg.blockCommentOpen) {
			open(i)
			state.inBlockComment = true
			i += len([]rune(cfg.blockCommentOpen))
			continue
		}
		if cfg.lineComment != "" && hasPrefixAt(runes, i, cfg.lineComment) {
			open(i)
			closeAt(len(runes))
			break
		}
		if isOneOf(runes[i], cfg.stringQuotes) && !escapedAt(runes, i) {
			q := runes[i]
			open(i)
			i++
			for i < len(runes) && !(runes[i] == q && !escapedAt(runes, i)) {
				i++
			}
			if i < len(runes) {
				i++
			}
			closeAt(i)
			continue
		}
		i++
	}
	closeAt(len(runes))
	return invalid
}

// findLiteralOccurrences returns every code-valid (not inside a string
// or comment) occurrence of literal in content, used by extract-constant
// to rewrite every matching site.
func findLiteralOccurrences(content, literal, ext string) []editplan.Location {
	if literal == "" {
		return nil
	}
	cfg := lexConfigForExt(ext)
	lines := strings.Split(content, "\n")
	litRunes := []rune(literal)

	var state lexState
	var locations []editplan.Location
	for lineIdx, line := range lines {
		runes := []rune(line)
		invalid := invalidRangesForLine(line, cfg, &state)
		for col := 0; col+len(litRunes) <= len(runes); col++ {
			if string(runes[col:col+len(litRunes)]) != literal {
				continue
			}
			end := col + len(litRunes)
			if overlapsAny(invalid, col, end) {
				continue
			}
			locations = append(locations, editplan.Location{
				StartLine: lineIdx, StartColumn: col,
				EndLine: lineIdx, EndColumn: end,
			})
		}
	}
	return locations
}

func overlapsAny(ranges []runeRange, start, end int) bool {
	for _, r := range ranges {
		if r.overlaps(start, end) {
			return true
		}
	}
	return false
}

func hasPrefixAt(runes []rune, i int, s string) bool {
	sr := []rune(s)
	if i+len(sr) > len(runes) {
		return false
	}
	for j, r := range sr {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

func matchTriple(runes []rune, i int, candidates []string) (string, bool) {
	for _, tq := range candidates {
		if hasPrefixAt(runes, i, tq) {
			return tq, true
		}
	}
	return "", false
}

func isOneOf(r rune, set []rune) bool {
	for _, c := range set {
		if r == c {
			return true
		}
	}
	return false
}

// escapedAt reports whether runes[i] is preceded by an odd number of
// backslashes, i.e. it is itself escaped rather than a live delimiter.
func escapedAt(runes []rune, i int) bool {
	count := 0
	for j := i - 1; j >= 0 && runes[j] == '\\'; j-- {
		count++
	}
	return count%2 == 1
}
