package media_test

import (
	"strings"
	"testing"

	"github.com/alnah/go-mdz/internal/processors/media"
	"github.com/alnah/go-mdz/processor"
)

func newMedia(t *testing.T) processor.Processor {
	t.Helper()
	p, err := media.New(processor.Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

const (
	videoTag  = `<video controls title="Intro"><source src="clips/intro.mp4" type="video/mp4"></video>`
	audioTag  = `<audio src="sound/theme.ogg" controls></audio>`
	iframeTag = `<iframe src="https://example.com/embed/42" width="560"></iframe>`
)

// ---------------------------------------------------------------------------
// TestDetect - Media elements
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantKinds []processor.Kind
		wantSrc   []string
	}{
		{
			name:      "all three in order",
			text:      "# Media\n\n" + iframeTag + "\n\n" + videoTag + "\n\n" + audioTag + "\n",
			wantKinds: []processor.Kind{processor.KindEmbed, processor.KindVideo, processor.KindAudio},
			wantSrc:   []string{"https://example.com/embed/42", "clips/intro.mp4", "sound/theme.ogg"},
		},
		{
			name:      "multiline element",
			text:      "<VIDEO\n  src=\"a.webm\">\n  fallback text\n</VIDEO>",
			wantKinds: []processor.Kind{processor.KindVideo},
			wantSrc:   []string{"a.webm"},
		},
		{
			name:      "iframe inside video belongs to video",
			text:      `<video src="v.mp4"><iframe src="x"></iframe></video>`,
			wantKinds: []processor.Kind{processor.KindVideo},
			wantSrc:   []string{"v.mp4"},
		},
		{
			name: "fenced code skipped",
			text: "```html\n" + audioTag + "\n```",
		},
		{
			name: "inline code skipped",
			text: "Use `" + iframeTag + "` to embed.",
		},
		{
			name: "unclosed element ignored",
			text: `<video src="a.mp4">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spans := newMedia(t).Detect(tt.text)
			if len(spans) != len(tt.wantKinds) {
				t.Fatalf("Detect() returned %d spans, want %d: %+v", len(spans), len(tt.wantKinds), spans)
			}
			for i, s := range spans {
				if s.Kind != tt.wantKinds[i] {
					t.Errorf("span %d kind = %s, want %s", i, s.Kind, tt.wantKinds[i])
				}
				if s.Flags.Src != tt.wantSrc[i] {
					t.Errorf("span %d src = %q, want %q", i, s.Flags.Src, tt.wantSrc[i])
				}
				if tt.text[s.Start:s.End] != s.Payload {
					t.Errorf("span %d payload does not match text", i)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRender - Passthrough and placeholders
// ---------------------------------------------------------------------------

func TestRenderPreview(t *testing.T) {
	t.Parallel()

	p := newMedia(t)
	for _, tag := range []string{videoTag, audioTag, iframeTag} {
		spans := p.Detect(tag)
		if len(spans) != 1 {
			t.Fatalf("Detect(%q) returned %d spans", tag, len(spans))
		}
		if got := p.RenderPreview(spans[0]); got != tag {
			t.Errorf("RenderPreview() = %q, want element unchanged", got)
		}
	}
}

func TestRenderExport(t *testing.T) {
	t.Parallel()

	p := newMedia(t)
	tests := []struct {
		tag         string
		placeholder string
	}{
		{videoTag, "[Video content: Intro]"},
		{audioTag, "[Audio content]"},
		{iframeTag, "[Embedded content]"},
		{`<audio src="a.ogg" title="<script>x</script>"></audio>`, "[Audio content: scriptx/script]"},
	}

	for _, tt := range tests {
		span := p.Detect(tt.tag)[0]
		for _, f := range processor.Formats() {
			got := p.RenderExport(span, f)
			switch f {
			case processor.FormatHTML, processor.FormatEPUB:
				if got != tt.tag {
					t.Errorf("RenderExport(%s) = %q, want element unchanged", f, got)
				}
			default:
				if got != "\n\n"+tt.placeholder+"\n\n" {
					t.Errorf("RenderExport(%s) = %q, want %q", f, got, tt.placeholder)
				}
				if strings.ContainsAny(got, "<>") {
					t.Errorf("RenderExport(%s) = %q, contains markup", f, got)
				}
			}
		}
	}
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	p := newMedia(t)
	if !p.CheckDependencies() || len(p.Dependencies()) != 0 || len(p.Scripts()) != 0 || len(p.Styles()) != 0 {
		t.Error("media processor should need no tools, scripts or styles")
	}
}
