package parser

import (
	"regexp"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/resolver"
)

// formatWords is the vocabulary of content shapes users name in instructions.
const formatWords = `check\s?list|to-?do(?:\s+list)?|todo(?:\s+list)?|task(?:\s+list)?|tasks|` +
	`bullet(?:ed)?(?:\s+(?:point|list))?|bullets|numbered(?:\s+list)?|quote|callout|toggle(?:\s+list)?|` +
	`code(?:\s+block)?|heading\s*[123]?|h[123]|paragraph`

var (
	// "as a checklist item", "in my to-do list", "to the task list"
	formatPhrase = regexp.MustCompile(`(?i)\s+(as|in|into|to|on)\s+(a\s+|an\s+|the\s+|my\s+)?(` + formatWords + `)(\s+(?:item|items|list|block|format|entry))?\b`)
	// "a todo buy milk", "a quote: be kind"
	formatPrefix = regexp.MustCompile(`(?i)^(?:a|an|the)?\s*(to-?do|todo|task|checklist item|checkbox|bullet(?:\s+point)?|numbered item|quote|callout|toggle|heading\s*[123]?|code\s+block)\s+(?:(?:item|entry)\s+)?(?:(?:that\s+)?says?\s+|saying\s+|for\s+)?:?\s*`)
	formatOnly   = regexp.MustCompile(`(?i)^(?:a\s+|an\s+|the\s+|my\s+)?(?:` + formatWords + `)(?:\s+(?:item|items|list|block))?$`)

	// "to Tasks" names a page; "to my tasks" and "as a task" name a format.
	bareTask = regexp.MustCompile(`(?i)^tasks?$`)

	sectionWord  = regexp.MustCompile(`(?i)\s+(?:section|heading|header)\b(\s+of\b)?`)
	sectionAfter = regexp.MustCompile(`(?i)^\s+(?:section|heading|header)\b`)
	sectionPrep  = regexp.MustCompile(`(?i)\b(under|in|into|inside|within|below|after|beneath|to|at)\s+(?:the\s+)?`)
	// "to Notes as a heading": the keyword is a format, not a section.
	formatLead   = regexp.MustCompile(`(?:^|\s)(?:as|a|an)$`)
	headingLevel = regexp.MustCompile(`^\s*[123]\b`)

	alsoWords    = regexp.MustCompile(`(?i)\s+(?:too|also|as well)(\s+(?:in|into|to|on)\b|$)`)
	leadingAlso  = regexp.MustCompile(`(?i)^(?:and\s+)?(?:then\s+)?(?:also\s+|too\s+)?`)
	pronounLead  = regexp.MustCompile(`(?i)^(?:this|that|it)\s*(?::\s*|$)`)
	contentLead  = regexp.MustCompile(`(?i)^(?:that\s+says|saying|the\s+text|the\s+note|a\s+note|note|text)\s*:?\s+`)
	colonContent = regexp.MustCompile(`^:\s*`)
)

// formatFromWord maps an instruction word onto a FormatType.
func formatFromWord(w string) domain.FormatType {
	w = strings.ToLower(strings.TrimSpace(w))
	w = strings.Join(strings.Fields(w), " ")
	switch {
	case strings.HasPrefix(w, "check"), strings.HasPrefix(w, "to-do"), strings.HasPrefix(w, "todo"),
		strings.HasPrefix(w, "task"):
		return domain.FormatToDo
	case strings.HasPrefix(w, "bullet"):
		return domain.FormatBulleted
	case strings.HasPrefix(w, "numbered"):
		return domain.FormatNumbered
	case strings.HasPrefix(w, "toggle"):
		return domain.FormatToggle
	case strings.HasPrefix(w, "code"):
		return domain.FormatCode
	case w == "h1" || strings.HasSuffix(w, "1"):
		return domain.FormatHeading1
	case w == "h3" || strings.HasSuffix(w, "3"):
		return domain.FormatHeading3
	case strings.HasPrefix(w, "heading") || w == "h2":
		return domain.FormatHeading2
	}
	return domain.ParseFormat(w)
}

// clause is the structured reading of one write instruction, minus its verb.
type clause struct {
	Content      string
	Format       domain.FormatType
	FormatFound  bool
	Target       string
	Section      string
	Placement    domain.Placement
	TargetFound  bool
	SectionFound bool
	// Pronoun is set when the content was only "this", "that" or "it".
	Pronoun bool
}

// extractSection removes an "under the X section" qualifier from s. The
// section name runs from the last preposition before the keyword and may be
// a format word ("the Tasks section") or a possessive ("the My Notes section").
func extractSection(s string) (section string, placement domain.Placement, rest string, ok bool) {
	m := mask(s)
	for _, kw := range sectionWord.FindAllStringSubmatchIndex(m, -1) {
		if headingLevel.MatchString(m[kw[1]:]) {
			continue
		}
		preps := sectionPrep.FindAllStringSubmatchIndex(m[:kw[0]], -1)
		if len(preps) == 0 {
			continue
		}
		p := preps[len(preps)-1]
		name := cleanSection(s[p[1]:kw[0]])
		if name == "" || formatLead.MatchString(name) {
			continue
		}
		replacement := " "
		if kw[2] >= 0 {
			replacement = " in "
		}
		rest = strings.TrimSpace(s[:p[0]] + replacement + s[kw[1]:])
		return name, domain.ParsePlacement(s[p[2]:p[3]]), rest, true
	}
	return "", domain.PlacementIn, s, false
}

// cleanSection normalizes a section name. Unlike CleanTarget it keeps "my",
// which is often part of the heading itself.
func cleanSection(s string) string {
	t := strings.TrimRight(strings.TrimSpace(s), ".!?,;: ")
	return resolver.CleanSectionName(strings.Trim(t, `"'“”‘’`))
}

// formatPhrases returns the submatch indexes of the format phrases in m. It
// skips section names ("in the todo section") and a bare "to Tasks", which
// names a page.
func formatPhrases(m string) [][]int {
	var out [][]int
	for _, loc := range formatPhrase.FindAllStringSubmatchIndex(m, -1) {
		if sectionAfter.MatchString(m[loc[1]:]) {
			continue
		}
		bare := loc[4] < 0 && loc[8] < 0
		if bare && bareTask.MatchString(m[loc[6]:loc[7]]) && !strings.EqualFold(m[loc[2]:loc[3]], "as") {
			continue
		}
		out = append(out, loc)
	}
	return out
}

// extractFormat removes the first format phrase from s.
func extractFormat(s string) (domain.FormatType, string, bool) {
	m := mask(s)
	if locs := formatPhrases(m); len(locs) > 0 {
		loc := locs[0]
		f := formatFromWord(s[loc[6]:loc[7]])
		return f, strings.TrimSpace(s[:loc[0]] + " " + s[loc[1]:]), true
	}
	if loc := formatPrefix.FindStringSubmatchIndex(m); loc != nil {
		f := formatFromWord(s[loc[2]:loc[3]])
		return f, strings.TrimSpace(s[loc[1]:]), true
	}
	return domain.FormatParagraph, s, false
}

// parseClause reads content, format, section and destination from text that
// follows a write verb.
func parseClause(text string) clause {
	c := clause{Format: domain.FormatParagraph, Placement: domain.PlacementIn}
	s := strings.TrimSpace(leadingAlso.ReplaceAllString(strings.TrimSpace(text), ""))

	if sec, pl, rest, ok := extractSection(s); ok {
		c.Section, c.Placement, c.SectionFound = sec, pl, true
		s = rest
	}
	if f, rest, ok := extractFormat(s); ok {
		c.Format, c.FormatFound = f, true
		s = rest
	}
	s = alsoWords.ReplaceAllString(s, "$1")

	if target, rest, ok := tailDestination(s); ok {
		c.Target, c.TargetFound = target, true
		s = rest
	}

	s = strings.TrimSpace(s)
	c.Pronoun = pronounLead.MatchString(s)
	s = pronounLead.ReplaceAllString(s, "")
	s = contentLead.ReplaceAllString(s, "")
	s = colonContent.ReplaceAllString(s, "")
	s = strings.Trim(s, " -–:,")
	c.Content = unquote(s)
	return c
}
