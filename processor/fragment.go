package processor

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Fenced is one fenced block found by FindFenced.
type Fenced struct {
	Start, End int
	Tag        string
	Body       string
}

// FencePattern compiles a pattern matching fenced blocks tagged with any of
// tags. The body is captured lazily so a block ends at its own closing fence.
func FencePattern(tags ...string) *regexp.Regexp {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile("(?ms)^```(" + strings.Join(quoted, "|") + ")[ \\t]*\\n(.*?)^```[ \\t]*$")
}

// FindFenced returns all non-overlapping fenced blocks matched by re,
// a pattern built by FencePattern. Blocks that begin inside an enclosing
// code block, such as an example inside a four-backtick fence, are skipped.
func FindFenced(re *regexp.Regexp, text string) []Fenced {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	code := CodeRegions(text)
	out := make([]Fenced, 0, len(matches))
	for _, m := range matches {
		if Enclosed(code, m[0]) {
			continue
		}
		out = append(out, Fenced{
			Start: m[0],
			End:   m[1],
			Tag:   text[m[2]:m[3]],
			Body:  strings.TrimSuffix(text[m[4]:m[5]], "\n"),
		})
	}
	return out
}

// Fence wraps body in a fenced block tagged lang, lengthening the fence when
// the body itself contains backtick runs.
func Fence(lang, body string) string {
	fence := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	return fence + lang + "\n" + body + "\n" + fence
}

func longestRun(s string, c byte) int {
	best, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}

// Placeholder returns a labeled text placeholder followed by the original
// source, for formats that cannot show the rendered block.
func Placeholder(label, lang, raw string) string {
	return "[" + label + "]\n\n" + Fence(lang, raw)
}

// labelStrip drops characters that would start markup or end a placeholder.
var labelStrip = strings.NewReplacer("<", "", ">", "", "&", "", "[", "", "]", "", "`", "")

// PlainLabel reduces user text to a single line safe to place inside a
// "[...]" placeholder in any format.
func PlainLabel(s string) string {
	return strings.Join(strings.Fields(labelStrip.Replace(s)), " ")
}

// ErrorFragment returns a visibly marked HTML fragment embedding raw.
func ErrorFragment(kind Kind, reason, raw string) string {
	return fmt.Sprintf(
		`<div class="mdz-error" data-kind="%s"><strong>Error rendering %s:</strong> %s<pre><code>%s</code></pre></div>`,
		html.EscapeString(string(kind)), html.EscapeString(string(kind)),
		html.EscapeString(reason), html.EscapeString(raw))
}
