package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mdz/internal/fileutil"
)

// rewrittenAttrs lists the reference attributes rewritten per element.
// Scripts and media are left alone.
var rewrittenAttrs = map[atom.Atom]string{
	atom.Img: "src",
	atom.A:   "href",
}

// RewriteRelativePaths converts relative img src and a href references in
// an HTML fragment to absolute file:// URLs under baseDir. References that
// escape baseDir, absolute paths, URLs and anchors are left unchanged. An
// empty baseDir returns the fragment as is.
func RewriteRelativePaths(fragment, baseDir string) (string, error) {
	if baseDir == "" || strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		rewriteNode(n, absBase)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, baseDir string) {
	if n.Type == html.ElementNode {
		if key, ok := rewrittenAttrs[n.DataAtom]; ok {
			for i, attr := range n.Attr {
				if attr.Key == key && attr.Namespace == "" {
					n.Attr[i].Val = rewriteRef(attr.Val, baseDir)
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, baseDir)
	}
}

func rewriteRef(ref, baseDir string) string {
	if !isRelativePath(ref) {
		return ref
	}
	target := filepath.Join(baseDir, filepath.FromSlash(ref))
	if !isPathUnderDir(target, baseDir) {
		return ref
	}
	return pathToFileURL(target)
}

// isRelativePath reports whether ref is a relative local file reference.
func isRelativePath(ref string) bool {
	if !fileutil.IsLocalRef(ref) || strings.HasPrefix(ref, "file://") {
		return false
	}
	return !filepath.IsAbs(ref) && !strings.HasPrefix(ref, "/")
}

// isPathUnderDir reports whether path lies inside dir.
func isPathUnderDir(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letter
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
