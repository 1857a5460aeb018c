package processor

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPriority is used by callers that have no ordering preference.
const DefaultPriority = 100

// Entry is a registered processor instantiated for one configuration.
type Entry struct {
	ID        string
	Priority  int
	Processor Processor
}

// Match is an accepted span tagged with the processor that detected it.
type Match struct {
	Span
	ID       string
	Priority int

	proc Processor
}

// Replacement is a fragment to substitute for text[Start:End].
type Replacement struct {
	Start, End int
	Text       string
}

type registration struct {
	id       string
	factory  Factory
	priority int
}

type instance struct {
	proc Processor
	err  error
}

// Registry holds processor registrations and orchestrates rendering.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	regs      []registration
	instances map[string]instance

	logger *zap.Logger
	strict bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for detector failures and dropped spans.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStrictSpans makes overlapping spans from different detections panic
// instead of being dropped. Use in tests to catch detector bugs.
func WithStrictSpans(strict bool) Option {
	return func(r *Registry) { r.strict = strict }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		instances: make(map[string]instance),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a processor factory under a unique id. Lower priorities run
// first; equal priorities keep registration order.
func (r *Registry) Register(id string, factory Factory, priority int) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reg := range r.regs {
		if reg.id == id {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}
	r.regs = append(r.regs, registration{id: id, factory: factory, priority: priority})
	return nil
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(r.regs))
	for i, reg := range r.regs {
		ids[i] = reg.id
	}
	return ids
}

// Processors returns the processors for cfg sorted by ascending priority,
// ties in registration order. Instances are created once per id and
// configuration key; a factory that fails is logged and left out.
func (r *Registry) Processors(cfg Config) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs := slices.Clone(r.regs)
	slices.SortStableFunc(regs, func(a, b registration) int { return a.priority - b.priority })

	key := cfg.Key()
	entries := make([]Entry, 0, len(regs))
	for _, reg := range regs {
		cacheKey := reg.id + "\x00" + key
		inst, ok := r.instances[cacheKey]
		if !ok {
			inst = r.instantiate(reg, cfg)
			r.instances[cacheKey] = inst
		}
		if inst.err != nil {
			continue
		}
		entries = append(entries, Entry{ID: reg.id, Priority: reg.priority, Processor: inst.proc})
	}
	return entries
}

func (r *Registry) instantiate(reg registration, cfg Config) (inst instance) {
	defer func() {
		if rec := recover(); rec != nil {
			inst = instance{err: fmt.Errorf("factory panic: %v", rec)}
			r.logger.Warn("processor factory panicked", zap.String("processor", reg.id), zap.Any("panic", rec))
		}
	}()

	p, err := reg.factory(cfg)
	if err == nil && p == nil {
		err = fmt.Errorf("factory returned nil processor")
	}
	if err != nil {
		r.logger.Warn("processor unavailable", zap.String("processor", reg.id), zap.Error(err))
		return instance{err: err}
	}
	return instance{proc: p}
}

// Detect runs every detector over text and returns the accepted spans,
// sorted by start offset descending. Spans are accepted in processor order;
// a span overlapping an already accepted one is dropped and logged.
func (r *Registry) Detect(text string, cfg Config) []Match {
	var accepted []Match
	for _, e := range r.Processors(cfg) {
		spans, err := safeDetect(e.Processor, text)
		if err != nil {
			r.logger.Warn("detector failed, skipping processor", zap.String("processor", e.ID), zap.Error(err))
			continue
		}
		for _, s := range spans {
			if !s.Valid(len(text)) {
				r.logger.Warn("span out of bounds",
					zap.String("processor", e.ID), zap.Int("start", s.Start), zap.Int("end", s.End), zap.Int("len", len(text)))
				continue
			}
			m := Match{Span: s, ID: e.ID, Priority: e.Priority, proc: e.Processor}
			if prev, ok := firstOverlap(accepted, m); ok {
				if r.strict {
					panic(fmt.Sprintf("processor: span %s[%d:%d] overlaps %s[%d:%d]",
						m.ID, m.Start, m.End, prev.ID, prev.Start, prev.End))
				}
				r.logger.Warn("overlapping span dropped",
					zap.String("processor", m.ID), zap.Int("start", m.Start), zap.Int("end", m.End),
					zap.String("kept", prev.ID), zap.Int("keptStart", prev.Start), zap.Int("keptEnd", prev.End))
				continue
			}
			accepted = append(accepted, m)
		}
	}

	slices.SortStableFunc(accepted, func(a, b Match) int {
		if a.Start != b.Start {
			return b.Start - a.Start
		}
		return b.End - a.End
	})
	return accepted
}

func firstOverlap(accepted []Match, m Match) (Match, bool) {
	for _, a := range accepted {
		if Overlaps(a.Span, m.Span) {
			return a, true
		}
	}
	return Match{}, false
}

func safeDetect(p Processor, text string) (spans []Span, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("detect panic: %v", rec)
		}
	}()
	return p.Detect(text), nil
}

// Render returns the fragment for one match. A panicking render method
// yields an error fragment holding the raw payload.
func (r *Registry) Render(m Match, target Target) (fragment string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("render failed", zap.String("processor", m.ID), zap.String("target", target.String()), zap.Any("panic", rec))
			fragment = ErrorFragment(m.Kind, "internal error", m.Payload)
		}
	}()
	if m.proc == nil {
		return m.Payload
	}
	if target.IsPreview() {
		return m.proc.RenderPreview(m.Span)
	}
	return m.proc.RenderExport(m.Span, target.Format)
}

// Splice applies replacements to text from the highest start offset down,
// so offsets computed against the original text stay valid. Replacements
// that are out of bounds or overlap an earlier-applied one are skipped.
func Splice(text string, reps []Replacement) string {
	sorted := slices.Clone(reps)
	slices.SortStableFunc(sorted, func(a, b Replacement) int {
		if a.Start != b.Start {
			return b.Start - a.Start
		}
		return b.End - a.End
	})

	limit := len(text)
	for _, rep := range sorted {
		if rep.Start < 0 || rep.Start > rep.End || rep.End > limit {
			continue
		}
		text = text[:rep.Start] + rep.Text + text[rep.End:]
		limit = rep.Start
	}
	return text
}

// Process renders text for target: detect, sort, render, splice.
func (r *Registry) Process(text string, target Target, cfg Config) string {
	matches := r.Detect(text, cfg)
	if len(matches) == 0 {
		return text
	}
	reps := make([]Replacement, len(matches))
	for i, m := range matches {
		reps[i] = Replacement{Start: m.Start, End: m.End, Text: r.Render(m, target)}
	}
	return Splice(text, reps)
}

// Scripts returns the de-duplicated union of processor scripts.
func (r *Registry) Scripts(cfg Config) []string {
	return r.collect(cfg, Processor.Scripts)
}

// Styles returns the de-duplicated union of processor styles.
func (r *Registry) Styles(cfg Config) []string {
	return r.collect(cfg, Processor.Styles)
}

func (r *Registry) collect(cfg Config, list func(Processor) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range r.Processors(cfg) {
		for _, item := range list(e.Processor) {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// CheckDependencies reports, per processor id, whether its external
// tools are usable. Processors whose factory failed report false.
func (r *Registry) CheckDependencies(cfg Config) map[string]bool {
	result := make(map[string]bool)
	for _, id := range r.IDs() {
		result[id] = false
	}
	for _, e := range r.Processors(cfg) {
		result[e.ID] = e.Processor.CheckDependencies()
	}
	return result
}
