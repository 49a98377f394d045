package resolver

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
)

// MatchKind records which pass located a section.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchSynonym   MatchKind = "synonym"
	// MatchAdvisory is a best-effort match on a keyword from the instruction.
	// Callers may want to tell the user which heading was picked.
	MatchAdvisory MatchKind = "advisory"
)

// SectionMatch is a located section and how it was found.
type SectionMatch struct {
	Section domain.Section
	Kind    MatchKind
}

// Advisory reports whether the match came from the keyword pass.
func (m *SectionMatch) Advisory() bool { return m != nil && m.Kind == MatchAdvisory }

// DefaultSynonyms groups common phrasings of the same section concept.
var DefaultSynonyms = map[string][]string{
	"tasks":     {"tasks", "task list", "to do", "to-do", "todo", "todos", "action items", "checklist"},
	"today":     {"today", "my day", "daily", "day"},
	"ideas":     {"ideas", "brainstorm", "thoughts"},
	"notes":     {"notes", "misc", "miscellaneous", "scratch"},
	"meetings":  {"meetings", "meeting notes", "agenda", "minutes"},
	"links":     {"links", "resources", "references", "bookmarks", "reading list"},
	"shopping":  {"shopping", "groceries", "grocery list", "shopping list"},
	"goals":     {"goals", "objectives", "targets", "okrs"},
	"questions": {"questions", "open questions", "faq"},
	"done":      {"done", "completed", "finished", "archive"},
}

// SectionResolver locates headings within a DocumentStructure. It never invents a section.
type SectionResolver struct {
	synonyms map[string][]string
	logger   *slog.Logger
}

// SectionOption configures a SectionResolver.
type SectionOption func(*SectionResolver)

// WithSynonyms replaces DefaultSynonyms.
func WithSynonyms(s map[string][]string) SectionOption {
	return func(r *SectionResolver) { r.synonyms = s }
}

// WithSectionLogger sets the logger.
func WithSectionLogger(l *slog.Logger) SectionOption {
	return func(r *SectionResolver) { r.logger = l }
}

// NewSectionResolver creates a SectionResolver.
func NewSectionResolver(opts ...SectionOption) *SectionResolver {
	r := &SectionResolver{synonyms: DefaultSynonyms, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type findOptions struct {
	instruction string
}

// FindOption tunes a single lookup.
type FindOption func(*findOptions)

// WithInstruction supplies the raw instruction text for the advisory keyword pass.
func WithInstruction(text string) FindOption {
	return func(o *findOptions) { o.instruction = text }
}

// FindSection runs a lookup with the default resolver.
func FindSection(doc *domain.DocumentStructure, name string, opts ...FindOption) *SectionMatch {
	return NewSectionResolver().Find(doc, name, opts...)
}

var (
	sectionSuffix = regexp.MustCompile(`(?i)\s+(?:section|heading|header|part|area)$`)
	sectionPrefix = regexp.MustCompile(`(?i)^the\s+`)
)

// CleanSectionName strips filler like a leading "the" and a trailing "section".
func CleanSectionName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.Trim(s, `"'`)
	s = sectionSuffix.ReplaceAllString(s, "")
	if stripped := sectionPrefix.ReplaceAllString(s, ""); stripped != "" {
		s = stripped
	}
	return strings.TrimSpace(s)
}

// Find locates the section named name. Passes run in order: exact heading
// match, substring in either direction, synonym class, then the advisory
// keyword pass over the instruction. It returns nil when every pass fails.
func (r *SectionResolver) Find(doc *domain.DocumentStructure, name string, opts ...FindOption) *SectionMatch {
	if doc == nil || len(doc.Sections) == 0 {
		return nil
	}
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw := normalizeHeading(name)
	q := normalizeHeading(CleanSectionName(name))

	if q != "" {
		for _, s := range doc.Sections {
			h := normalizeHeading(s.Title())
			if h == q || h == raw {
				return &SectionMatch{Section: s, Kind: MatchExact}
			}
		}
		if m := substringMatch(doc, q); m != nil {
			return m
		}
		if m := r.synonymMatch(doc, q); m != nil {
			return m
		}
	}

	if o.instruction != "" {
		if m := r.advisoryMatch(doc, o.instruction); m != nil {
			r.logger.Warn("Section matched by instruction keyword",
				"section", name,
				"heading", m.Section.Title(),
			)
			return m
		}
	}
	return nil
}

// substringMatch prefers a heading that contains the query as whole words, so
// "day" picks "My Day" over "Holiday Plans". Otherwise it takes
// the longest heading the query contains, so "tech tasks for today" picks
// "Tech Tasks" over "Tasks".
func substringMatch(doc *domain.DocumentStructure, q string) *SectionMatch {
	for _, s := range doc.Sections {
		if containsWord(normalizeHeading(s.Title()), q) {
			return &SectionMatch{Section: s, Kind: MatchSubstring}
		}
	}
	var best *domain.Section
	bestLen := 0
	for i := range doc.Sections {
		h := normalizeHeading(doc.Sections[i].Title())
		if containsWord(q, h) && len(h) > bestLen {
			best = &doc.Sections[i]
			bestLen = len(h)
		}
	}
	if best == nil {
		return nil
	}
	return &SectionMatch{Section: *best, Kind: MatchSubstring}
}

func (r *SectionResolver) synonymMatch(doc *domain.DocumentStructure, q string) *SectionMatch {
	classes := make([]string, 0, len(r.synonyms))
	for k := range r.synonyms {
		classes = append(classes, k)
	}
	sort.Strings(classes)

	for _, class := range classes {
		phrases := r.synonyms[class]
		if !inClass(q, phrases) {
			continue
		}
		for _, s := range doc.Sections {
			h := normalizeHeading(s.Title())
			for _, p := range phrases {
				if containsWord(h, p) {
					return &SectionMatch{Section: s, Kind: MatchSynonym}
				}
			}
		}
	}
	return nil
}

func inClass(q string, phrases []string) bool {
	for _, p := range phrases {
		if q == p || containsWord(q, p) {
			return true
		}
	}
	return false
}

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "below": {}, "heading": {}, "into": {},
	"note": {}, "notes": {}, "page": {}, "please": {}, "section": {}, "that": {},
	"there": {}, "this": {}, "under": {}, "with": {}, "write": {}, "list": {},
}

// advisoryMatch picks the heading containing an instruction keyword that
// appears in exactly one heading.
func (r *SectionResolver) advisoryMatch(doc *domain.DocumentStructure, instruction string) *SectionMatch {
	for _, word := range tokenize(instruction) {
		if len([]rune(word)) < 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		var hit *domain.Section
		count := 0
		for i := range doc.Sections {
			if containsWord(normalizeHeading(doc.Sections[i].Title()), word) {
				hit = &doc.Sections[i]
				count++
			}
		}
		if count == 1 {
			return &SectionMatch{Section: *hit, Kind: MatchAdvisory}
		}
	}
	return nil
}

// normalizeHeading lower-cases, drops emoji and punctuation, and collapses spaces.
func normalizeHeading(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenize(s string) []string {
	return strings.Fields(normalizeHeading(s))
}

// containsWord reports whether phrase occurs in s on word boundaries.
func containsWord(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + s + " "
	return strings.Contains(padded, " "+phrase+" ")
}
