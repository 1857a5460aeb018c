package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Private Use Area characters pass through goldmark untouched, which lets
// pre-rendered HTML and highlight marks survive conversion without
// enabling raw HTML.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"

	tokenOpen  = "\uE002"
	tokenClose = "\uE003"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)

	tokenPattern     = regexp.MustCompile(tokenOpen + `(\d+)` + tokenClose)
	paragraphPattern = regexp.MustCompile(`<p>\s*` + tokenOpen + `(\d+)` + tokenClose + `\s*</p>`)
)

// NormalizeLineEndings converts \r\n and \r to \n.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// convertHighlights transforms ==text== into placeholder marks.
func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// compressBlankLines limits consecutive blank lines to two.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// ConvertMarkPlaceholders turns placeholder marks into <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}

// stash holds rendered fragments keyed by token index.
type stash struct {
	fragments []string
}

// put stores fragment and returns the token that stands for it. Block
// tokens are surrounded by blank lines so goldmark gives them their own
// paragraph, which restore unwraps.
func (s *stash) put(fragment string, block bool) string {
	token := tokenOpen + strconv.Itoa(len(s.fragments)) + tokenClose
	s.fragments = append(s.fragments, fragment)
	if block {
		return "\n\n" + token + "\n\n"
	}
	return token
}

// restore replaces every token in html with its fragment.
func (s *stash) restore(html string) string {
	if len(s.fragments) == 0 {
		return html
	}
	lookup := func(m []string) (string, bool) {
		i, err := strconv.Atoi(m[1])
		if err != nil || i < 0 || i >= len(s.fragments) {
			return "", false
		}
		return s.fragments[i], true
	}
	html = paragraphPattern.ReplaceAllStringFunc(html, func(match string) string {
		if frag, ok := lookup(paragraphPattern.FindStringSubmatch(match)); ok {
			return frag
		}
		return match
	})
	return tokenPattern.ReplaceAllStringFunc(html, func(match string) string {
		if frag, ok := lookup(tokenPattern.FindStringSubmatch(match)); ok {
			return frag
		}
		return match
	})
}

// isBlock reports whether text[start:end] occupies whole lines.
func isBlock(text string, start, end int) bool {
	startsLine := start == 0 || text[start-1] == '\n'
	endsLine := end == len(text) || text[end] == '\n'
	return startsLine && endsLine
}
