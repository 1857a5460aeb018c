package bundle

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/internal/processors/imageref"
	"github.com/alnah/go-mdz/internal/yamlutil"
	"github.com/alnah/go-mdz/processor"
)

// Collect reads the local files named by refs, resolved against baseDir,
// and returns text rewritten to reference them as "assets/<path>", the
// asset map, and the references whose files could not be read.
// Relative references keep their path; references outside baseDir are
// stored under "external/". A non-nil resolve maps each reference to the
// file actually read, as the image processor does with its asset paths.
func Collect(text, baseDir string, refs []string, resolve func(string) string) (string, map[string][]byte, []string) {
	assets := make(map[string][]byte)
	mapping := make(map[string]string)
	used := make(map[string]bool)
	byFile := make(map[string]string)
	var missing []string

	for _, ref := range refs {
		if _, done := mapping[ref]; done || !fileutil.IsLocalRef(ref) {
			continue
		}
		local := fileutil.LocalPath(ref)
		file := local
		if resolve != nil {
			file = fileutil.LocalPath(resolve(ref))
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, filepath.FromSlash(file))
		}
		file = filepath.Clean(file)
		if rel, ok := byFile[file]; ok {
			mapping[ref] = AssetRef(rel)
			continue
		}
		data, err := os.ReadFile(file) // #nosec G304 -- reference taken from the user's document
		if err != nil {
			missing = append(missing, ref)
			continue
		}

		rel := assetName(local, used)
		used[rel] = true
		byFile[file] = rel
		assets[rel] = data
		mapping[ref] = AssetRef(rel)
	}
	return RewriteRefs(text, mapping), assets, missing
}

// assetName picks a unique, clean asset path for a local reference.
func assetName(local string, used map[string]bool) string {
	slashed := filepath.ToSlash(local)
	rel := path.Clean(slashed)
	if path.IsAbs(rel) || hasDriveLetter(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		rel = "external/" + path.Base(rel)
	}
	rel = strings.TrimPrefix(rel, AssetDir+"/")
	if !used[rel] {
		return rel
	}
	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	for i := 2; ; i++ {
		candidate := stem + "-" + strconv.Itoa(i) + ext
		if !used[candidate] {
			return candidate
		}
	}
}

// Localize rewrites references to extracted entries ("assets/a.png") to
// the absolute paths returned by Extract.
func Localize(text string, paths map[string]string) string {
	mapping := make(map[string]string)
	for _, ref := range imageref.References(text) {
		key := path.Clean(filepath.ToSlash(fileutil.LocalPath(ref)))
		if abs, ok := paths[key]; ok {
			mapping[ref] = abs
		}
	}
	return RewriteRefs(text, mapping)
}

var srcAttr = regexp.MustCompile(`(?i)(?:^|\s)src\s*=\s*["']?`)

// RewriteRefs replaces image sources in text according to mapping. Only
// image references are touched; text and code are left as they are.
func RewriteRefs(text string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return text
	}
	p, _ := imageref.New(processor.Config{})

	var reps []processor.Replacement
	for _, s := range p.Detect(text) {
		to, ok := mapping[s.Flags.Src]
		if s.Kind != processor.KindImage || !ok {
			continue
		}
		// The source follows "](" in Markdown and src= in HTML.
		at := strings.Index(s.Payload, "](")
		if s.Flags.HTML {
			loc := srcAttr.FindStringIndex(s.Payload)
			if loc == nil {
				continue
			}
			at = loc[1]
		}
		if at < 0 {
			continue
		}
		i := strings.Index(s.Payload[at:], s.Flags.Src)
		if i < 0 {
			continue
		}
		start := s.Start + at + i
		if !s.Flags.HTML && strings.ContainsAny(to, " ()") && !strings.HasPrefix(s.Payload[at+i-1:], "<") {
			to = "<" + to + ">"
		}
		reps = append(reps, processor.Replacement{Start: start, End: start + len(s.Flags.Src), Text: to})
	}
	return processor.Splice(text, reps)
}

var frontMatter = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)

// SplitFrontMatter separates a leading "---" delimited YAML block from the
// body. Text without front matter is returned unchanged with nil metadata.
func SplitFrontMatter(text string) (yamlutil.MapSlice, string, error) {
	m := frontMatter.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text, nil
	}
	body := text[m[1]:]
	raw := text[m[2]:m[3]]
	if strings.TrimSpace(raw) == "" {
		return yamlutil.MapSlice{}, body, nil
	}
	meta, err := yamlutil.UnmarshalOrdered([]byte(raw))
	if err != nil {
		return nil, text, fmt.Errorf("%w: front matter: %v", ErrMetadata, err)
	}
	return meta, body, nil
}

// JoinFrontMatter prefixes body with meta as a front matter block.
func JoinFrontMatter(meta yamlutil.MapSlice, body string) (string, error) {
	if len(meta) == 0 {
		return body, nil
	}
	data, err := marshalMetadata(meta)
	if err != nil {
		return "", err
	}
	return "---\n" + strings.TrimRight(string(data), "\n") + "\n---\n" + body, nil
}
