package processor

import (
	"sort"
	"strings"
)

// Region is a half-open byte range.
type Region struct{ Start, End int }

// CodeRegions returns the fenced code blocks and inline code spans of text,
// sorted by start. Inline detectors use it to ignore delimiters in code.
func CodeRegions(text string) []Region {
	var regions []Region
	var fenceChar byte
	fenceLen, fenceStart := 0, 0
	lastEnd := 0

	for pos := 0; pos < len(text); {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += pos + 1
		}
		line := strings.TrimRight(text[pos:lineEnd], "\r\n")
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if fenceLen == 0 {
			if c, n := fenceRun(trimmed); n >= 3 && indent <= 3 && (c == '~' || !strings.Contains(trimmed[n:], "`")) {
				regions = append(regions, inlineCode(text, lastEnd, pos)...)
				fenceChar, fenceLen, fenceStart = c, n, pos
			}
		} else if c, n := fenceRun(trimmed); c == fenceChar && n >= fenceLen && indent <= 3 && strings.TrimSpace(trimmed[n:]) == "" {
			regions = append(regions, Region{fenceStart, lineEnd})
			fenceLen = 0
			lastEnd = lineEnd
		}
		pos = lineEnd
	}

	if fenceLen > 0 {
		regions = append(regions, Region{fenceStart, len(text)})
	} else {
		regions = append(regions, inlineCode(text, lastEnd, len(text))...)
	}
	return regions
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[0], n
}

// inlineCode finds backtick code spans in text[from:to]: a run of n
// backticks closed by the next run of exactly n backticks.
func inlineCode(text string, from, to int) []Region {
	var regions []Region
	for i := from; i < to; {
		if text[i] != '`' {
			i++
			continue
		}
		n := runLen(text, i, to)
		closeAt := -1
		for j := i + n; j < to; {
			if text[j] != '`' {
				j++
				continue
			}
			m := runLen(text, j, to)
			if m == n {
				closeAt = j
				break
			}
			j += m
		}
		if closeAt < 0 {
			i += n
			continue
		}
		regions = append(regions, Region{i, closeAt + n})
		i = closeAt + n
	}
	return regions
}

func runLen(text string, i, to int) int {
	n := 0
	for i+n < to && text[i+n] == '`' {
		n++
	}
	return n
}

// Intersects reports whether [start, end) touches any of the sorted regions.
func Intersects(regions []Region, start, end int) bool {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End > start })
	return i < len(regions) && regions[i].Start < max(end, start+1)
}

// Enclosed reports whether pos lies inside a region that starts before it.
func Enclosed(regions []Region, pos int) bool {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End > pos })
	return i < len(regions) && regions[i].Start < pos
}
