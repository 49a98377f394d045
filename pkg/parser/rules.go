package parser

import (
	"regexp"
	"strings"

	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
)

// Rule is one deterministic reading of an instruction. Extract receives the
// submatches of Pattern against the cleaned input and may still decline.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(m []string, input string) ([]domain.Command, bool)
}

// Match applies the rule to input.
func (r Rule) Match(input string) ([]domain.Command, bool) {
	m := r.Pattern.FindStringSubmatch(input)
	if m == nil {
		return nil, false
	}
	return r.Extract(m, input)
}

const writeVerbs = `add|write|put|insert|append|note|jot(?:\s+down)?|save|log|record|type`

var (
	parentSplit = regexp.MustCompile(`(?i)\s+(?:under|inside|within|in)\s+`)
	verbLead    = regexp.MustCompile(`(?i)^(?:` + actionVerbs + `)\b`)
)

// DefaultRules returns the built-in rule set in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "nested_page_content",
			Pattern: regexp.MustCompile(`(?i)^(?:create|make|add|new)\s+(?:a\s+)?(?:new\s+)?(?:sub-?)?page\s+(?:called\s+|named\s+|titled\s+)?(.+?)\s+(?:under|inside|within|in)\s+(.+?)\s+and\s+(?:then\s+)?(?:` + writeVerbs + `)\s+(.+)$`),
			Extract: extractNestedPage,
		},
		{
			Name:    "create_under_parent",
			Pattern: regexp.MustCompile(`(?i)^(?:create|make|add|new)\s+(?:a\s+)?(?:new\s+)?(?:sub-?)?page\s+(?:called\s+|named\s+|titled\s+)?(.+?)\s+(?:under|inside|within|in)\s+(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return createPage(m[1], firstParent(m[2]))
			},
		},
		{
			Name:    "create_page",
			Pattern: regexp.MustCompile(`(?i)^(?:create|make|add|new)\s+(?:a\s+)?(?:new\s+)?page\s+(?:called\s+|named\s+|titled\s+)?(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return createPage(m[1], "")
			},
		},
		{
			Name:    "create_named_page",
			Pattern: regexp.MustCompile(`(?i)^(?:create|make|start)\s+(?:a\s+|an\s+)?(?:new\s+)?(.+?)\s+page$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return createPage(m[1], "")
			},
		},
		{
			Name:    "code_fence",
			Pattern: regexp.MustCompile("(?s)^(.*?)```([A-Za-z0-9_+#.-]*)[ \\t]*\\r?\\n(.*?)\\r?\\n?```(.*)$"),
			Extract: extractCodeFence,
		},
		{
			Name:    "url_comment",
			Pattern: regexp.MustCompile(`(?i)^(?:add|save|put|bookmark|clip|share)\s+(?:this\s+|the\s+)?(?:link\s+|url\s+)?(https?://\S+)\s+(?:with\s+(?:the\s+|a\s+)?(?:comment|note)\s+|saying\s+|-\s*|:\s*)(.+)$`),
			Extract: extractURLComment,
		},
		{
			Name:    "edit_replace",
			Pattern: regexp.MustCompile(`(?i)^(?:replace|change|update|edit)\s+(.+?)\s+(?:with|to|into)\s+(.+?)(?:\s+(?:in|on)\s+(.+))?$`),
			Extract: extractEdit,
		},
		{
			Name:    "delete_page",
			Pattern: regexp.MustCompile(`(?i)^(?:delete|remove|erase|archive)\s+(?:the\s+)?page\s+(?:called\s+|named\s+)?(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return one(domain.Command{Action: domain.ActionDelete, PrimaryTarget: CleanTarget(m[1])}), true
			},
		},
		{
			Name:    "delete_from",
			Pattern: regexp.MustCompile(`(?i)^(?:delete|remove|erase)\s+(.+?)\s+from\s+(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				content := unquote(m[1])
				if content == "" {
					return nil, false
				}
				return one(domain.Command{Action: domain.ActionDelete, Content: content, PrimaryTarget: CleanTarget(m[2])}), true
			},
		},
		{
			Name:    "move_between",
			Pattern: regexp.MustCompile(`(?i)^move\s+(.+?)\s+from\s+(.+?)\s+(?:to|into|onto)\s+(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return one(domain.Command{
					Action:          domain.ActionMove,
					Content:         unquote(m[1]),
					PrimaryTarget:   CleanTarget(m[2]),
					SecondaryTarget: CleanTarget(m[3]),
				}), true
			},
		},
		{
			Name:    "quoted_content",
			Pattern: regexp.MustCompile(`(?i)^(` + writeVerbs + `)\s+(?:this\s+|the\s+(?:text|note)\s+)?(?:"([^"]+)"|“([^”]+)”)\s*(.*)$`),
			Extract: extractQuoted,
		},
		{
			Name:    "checklist",
			Pattern: regexp.MustCompile(`(?i)^(?:add|put|write|insert|append)\s+(.+?)\s+(?:in|to|into|on)\s+(?:the\s+|my\s+|a\s+)?(?:check\s?list|to-?do(?:\s+list)?|todo(?:\s+list)?|task\s+list)(?:\s+(?:items?|format|entry))?\b(.*)$`),
			Extract: extractChecklist,
		},
		{
			Name:    "write",
			Pattern: regexp.MustCompile(`(?i)^(` + writeVerbs + `)\b\s*:?\s*(.*)$`),
			Extract: extractWrite,
		},
		{
			Name:    "read",
			Pattern: regexp.MustCompile(`(?i)^(?:read|show|open|view|display|what(?:'s|\s+is)\s+in)\s+(?:me\s+)?(?:the\s+contents?\s+of\s+|what(?:'s|\s+is)\s+in\s+)?(.+)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				t := CleanTarget(m[1])
				if t == "" {
					return nil, false
				}
				return one(domain.Command{Action: domain.ActionRead, PrimaryTarget: t}), true
			},
		},
		{
			Name:    "debug",
			Pattern: regexp.MustCompile(`(?i)^/?debug\b\s*:?\s*(.*)$`),
			Extract: func(m []string, _ string) ([]domain.Command, bool) {
				return one(domain.Command{Action: domain.ActionDebug, Content: strings.TrimSpace(m[1])}), true
			},
		},
	}
}

func one(c domain.Command) []domain.Command { return []domain.Command{c} }

func verbAction(verb string) domain.Action {
	if strings.EqualFold(strings.TrimSpace(verb), "append") {
		return domain.ActionAppend
	}
	return domain.ActionWrite
}

// firstParent takes the nearest parent of a chain like "Projects in Work".
func firstParent(chain string) string {
	return CleanTarget(parentSplit.Split(strings.TrimSpace(chain), 2)[0])
}

func createPage(title, parent string) ([]domain.Command, bool) {
	title = CleanTarget(title)
	if title == "" {
		return nil, false
	}
	return one(domain.Command{Action: domain.ActionCreate, PrimaryTarget: title, SecondaryTarget: parent}), true
}

func fromClause(action domain.Action, c clause) domain.Command {
	return domain.Command{
		Action:        action,
		PrimaryTarget: c.Target,
		Content:       c.Content,
		FormatType:    c.Format,
		SectionTarget: c.Section,
		Placement:     c.Placement,
	}
}

func extractNestedPage(m []string, _ string) ([]domain.Command, bool) {
	page, ok := createPage(m[1], firstParent(m[2]))
	if !ok {
		return nil, false
	}
	c := parseClause(m[3])
	w := fromClause(domain.ActionWrite, c)
	if !c.TargetFound {
		w.PrimaryTarget = page[0].PrimaryTarget
	}
	w.IsMultiAction = true
	return append(page, w), true
}

func extractCodeFence(m []string, _ string) ([]domain.Command, bool) {
	code := strings.TrimRight(m[3], "\n\r ")
	if strings.TrimSpace(code) == "" {
		return nil, false
	}
	outside := strings.TrimSpace(strings.TrimSpace(m[1]) + " " + strings.TrimSpace(m[4]))
	cmd := domain.Command{
		Action:     domain.ActionWrite,
		Content:    code,
		FormatType: domain.FormatCode,
		Language:   blocks.NormalizeLanguage(m[2]),
		Placement:  domain.PlacementIn,
	}
	if sec, pl, rest, ok := extractSection(outside); ok {
		cmd.SectionTarget, cmd.Placement = sec, pl
		outside = rest
	}
	if t, _, ok := tailDestination(outside); ok {
		cmd.PrimaryTarget = t
	}
	return one(cmd), true
}

func extractURLComment(m []string, _ string) ([]domain.Command, bool) {
	url := strings.TrimRight(m[1], ".,;:!?)")
	c := parseClause(m[2])
	cmd := fromClause(domain.ActionWrite, c)
	cmd.Content = strings.TrimSpace(c.Content + " " + url)
	return one(cmd), true
}

func extractEdit(m []string, _ string) ([]domain.Command, bool) {
	oldText, newText := unquote(m[1]), unquote(m[2])
	if oldText == "" || newText == "" {
		return nil, false
	}
	return one(domain.Command{
		Action:        domain.ActionEdit,
		PrimaryTarget: CleanTarget(m[3]),
		Content:       newText,
		OldContent:    oldText,
		NewContent:    newText,
	}), true
}

func extractQuoted(m []string, input string) ([]domain.Command, bool) {
	content := m[2]
	if content == "" {
		content = m[3]
	}
	c := parseClause(firstSegment(m[4]))
	cmd := fromClause(verbAction(m[1]), c)
	cmd.Content = strings.TrimSpace(content)
	if !c.TargetFound {
		if t, _, ok := tailDestination(input); ok {
			cmd.PrimaryTarget = t
		}
	}
	return one(cmd), true
}

func extractChecklist(m []string, input string) ([]domain.Command, bool) {
	// "in the todo section of Work" names a section.
	if sectionAfter.MatchString(m[2]) {
		return nil, false
	}
	cmd := domain.Command{Action: domain.ActionWrite, FormatType: domain.FormatToDo, Placement: domain.PlacementIn}
	content := m[1]
	if sec, pl, rest, ok := extractSection(content); ok {
		cmd.SectionTarget, cmd.Placement = sec, pl
		content = rest
	} else if sec, pl, _, ok := extractSection(input); ok {
		cmd.SectionTarget, cmd.Placement = sec, pl
	}
	cmd.Content = unquote(strings.TrimSpace(leadingAlso.ReplaceAllString(content, "")))
	if cmd.Content == "" {
		return nil, false
	}

	rest := m[2]
	if sec, _, r, ok := extractSection(rest); ok && sec == cmd.SectionTarget {
		rest = r
	}
	if t, _, ok := tailDestination(firstSegment(rest)); ok {
		cmd.PrimaryTarget = t
	} else if t, _, ok := tailDestination(input); ok {
		cmd.PrimaryTarget = t
	}
	return one(cmd), true
}

// extractWrite reads only the first "and" segment when both halves stand on
// their own and a detector will recover the rest; the head then shares a
// trailing destination ("hello as a quote and world as a callout in Notes").
// Otherwise the whole body stays one command.
func extractWrite(m []string, input string) ([]domain.Command, bool) {
	body := m[2]
	if seg := firstSegment(body); seg != body {
		rest := spanConnective.ReplaceAllString(strings.TrimSpace(body[len(seg):]), "")
		head, tail := parseClause(seg), parseClause(rest)
		ownVerb := verbLead.MatchString(rest)
		if (ownVerb || (head.TargetFound || head.FormatFound) && (tail.TargetFound || tail.FormatFound)) && compound(input) {
			if !ownVerb && !head.TargetFound {
				if t, _, ok := tailDestination(body); ok {
					head.Target, head.TargetFound = t, true
				}
			}
			return one(fromClause(verbAction(m[1]), head)), true
		}
	}
	return one(fromClause(verbAction(m[1]), parseClause(body))), true
}
