package parser

import (
	"regexp"
	"strings"
)

// Span is one sub-instruction found in a compound input.
type Span struct {
	Text string
	// InheritFormat makes a derived command take the first command's format
	// when its own text names none.
	InheritFormat bool
	// Repair allows the first command's content to be trimmed to this span
	// when it swallowed the whole list.
	Repair bool
}

// Detector finds the sub-instructions of one compound shape. It returns nil
// when the shape is absent.
type Detector struct {
	Name   string
	Detect func(input string) []Span
}

const actionVerbs = writeVerbs + `|create|make|delete|remove|move|replace|change|update|edit|read|show|open`

var (
	checklistWord = `(?:check\s?list|to-?do(?:\s+list)?|todo(?:\s+list)?|task\s+list)`
	checklistToo  = regexp.MustCompile(`(?i)^(.*?\b` + checklistWord + `\b.*?)\s+and\s+(.+?\b` + checklistWord + `\s+(?:too|also|as\s+well)\b.*)$`)
	verbJoin      = regexp.MustCompile(`(?i)\s+(?:and\s+then|and\s+also|and|then|also|plus)\s+((?:` + actionVerbs + `)\b)`)
	commaList     = regexp.MustCompile(`(?i)^(?:add|put|write|insert|append)\s+(.+?)\s+(?:in|to|into|on)\s+(?:the\s+|my\s+|a\s+)?` + checklistWord + `\b`)
	itemSep       = regexp.MustCompile(`(?i)\s*,\s*(?:and\s+)?|\s+and\s+`)
	andWord       = regexp.MustCompile(`(?i)\s+and\s+`)
)

// DefaultDetectors returns the built-in compound detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		{Name: "checklist_too", Detect: detectChecklistToo},
		{Name: "conjunction_verbs", Detect: detectVerbJoin},
		{Name: "repeated_format", Detect: detectRepeatedFormat},
		{Name: "repeated_prefix", Detect: detectRepeatedPrefix},
		{Name: "comma_checklist", Detect: detectCommaChecklist},
		{Name: "multiple_destinations", Detect: detectDestinations},
	}
}

// cut slices input at masked match boundaries: each pair is [end of previous
// span, start of next span].
func cut(input string, bounds [][2]int) []Span {
	spans := make([]Span, 0, len(bounds)+1)
	last := 0
	for _, b := range bounds {
		spans = append(spans, Span{Text: strings.TrimSpace(input[last:b[0]])})
		last = b[1]
	}
	return append(spans, Span{Text: strings.TrimSpace(input[last:])})
}

func detectChecklistToo(input string) []Span {
	loc := checklistToo.FindStringSubmatchIndex(mask(input))
	if loc == nil {
		return nil
	}
	return []Span{
		{Text: strings.TrimSpace(input[loc[2]:loc[3]])},
		{Text: strings.TrimSpace(input[loc[4]:loc[5]]), InheritFormat: true},
	}
}

func detectVerbJoin(input string) []Span {
	locs := verbJoin.FindAllStringSubmatchIndex(mask(input), -1)
	if len(locs) == 0 {
		return nil
	}
	bounds := make([][2]int, 0, len(locs))
	for _, l := range locs {
		bounds = append(bounds, [2]int{l[0], l[2]})
	}
	return cut(input, bounds)
}

// compound reports whether a default detector finds more than one action.
func compound(input string) bool {
	for _, d := range DefaultDetectors() {
		if len(d.Detect(input)) > 1 {
			return true
		}
	}
	return false
}

func detectRepeatedFormat(input string) []Span {
	m := mask(input)
	locs := formatPhrases(m)
	if len(locs) < 2 {
		return nil
	}
	var bounds [][2]int
	for i := 1; i < len(locs); i++ {
		between := m[locs[i-1][1]:locs[i][0]]
		ands := andWord.FindAllStringIndex(between, -1)
		if len(ands) == 0 {
			continue
		}
		a := ands[len(ands)-1]
		bounds = append(bounds, [2]int{locs[i-1][1] + a[0], locs[i-1][1] + a[1]})
	}
	if len(bounds) == 0 {
		return nil
	}
	return cut(input, bounds)
}

// detectRepeatedPrefix splits "add a todo X and a todo Y" at every "and"
// that opens another format prefix.
func detectRepeatedPrefix(input string) []Span {
	m := mask(input)
	lead := spanVerb.FindStringIndex(m)
	if lead == nil || !formatPrefix.MatchString(m[lead[1]:]) {
		return nil
	}
	var bounds [][2]int
	for _, a := range andWord.FindAllStringIndex(m[lead[1]:], -1) {
		start, end := lead[1]+a[0], lead[1]+a[1]
		if formatPrefix.MatchString(m[end:]) {
			bounds = append(bounds, [2]int{start, end})
		}
	}
	if len(bounds) == 0 {
		return nil
	}
	return cut(input, bounds)
}

func detectCommaChecklist(input string) []Span {
	m := mask(input)
	loc := commaList.FindStringSubmatchIndex(m)
	if loc == nil || !strings.Contains(m[loc[2]:loc[3]], ",") {
		return nil
	}
	list := input[loc[2]:loc[3]]
	seps := itemSep.FindAllStringIndex(mask(list), -1)
	var spans []Span
	last := 0
	for _, s := range append(seps, []int{len(list), len(list)}) {
		if item := strings.TrimSpace(list[last:s[0]]); item != "" {
			spans = append(spans, Span{Text: item, InheritFormat: true, Repair: true})
		}
		last = s[1]
	}
	if len(spans) < 2 {
		return nil
	}
	return spans
}

func detectDestinations(input string) []Span {
	m := mask(input)
	ands := andWord.FindAllStringIndex(m, -1)
	if len(ands) == 0 {
		return nil
	}
	var spans []Span
	start := 0
	for i := 0; i <= len(ands); i++ {
		end, next := len(input), len(input)
		if i < len(ands) {
			end, next = ands[i][0], ands[i][1]
		}
		if _, _, ok := tailDestination(input[start:end]); ok {
			spans = append(spans, Span{Text: strings.TrimSpace(input[start:end])})
			start = next
		}
	}
	if start < len(input) && len(spans) > 0 {
		spans[len(spans)-1].Text = strings.TrimSpace(spans[len(spans)-1].Text + " and " + input[start:])
	}
	if len(spans) < 2 {
		return nil
	}
	return spans
}
