package parser

import (
	"regexp"
	"strings"
)

var (
	politePrefix  = regexp.MustCompile(`(?i)^(?:please|pls|kindly|hey|ok|okay|can you|could you|would you)[,\s]+`)
	trailingPunct = regexp.MustCompile(`[.!]+$`)
	inlineSpace   = regexp.MustCompile(`[ \t]+`)
)

// Clean trims politeness, trailing punctuation and repeated spaces. Input
// carrying a code fence only loses its polite prefix.
func Clean(input string) string {
	s := strings.TrimSpace(input)
	for {
		next := politePrefix.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	if strings.Contains(s, "```") {
		return s
	}
	s = trailingPunct.ReplaceAllString(s, "")
	return strings.TrimSpace(inlineSpace.ReplaceAllString(s, " "))
}

// StripServicePhrase removes "In <service>," at the start and "in <service>"
// at the end. The product name is never a page.
func StripServicePhrase(input, service string) string {
	if service == "" {
		return input
	}
	q := regexp.QuoteMeta(service)
	lead := regexp.MustCompile(`(?i)^(?:in|on|inside|to|using)\s+` + q + `\s*[,:]?\s*`)
	tail := regexp.MustCompile(`(?i)\s+(?:in|on|inside|using)\s+` + q + `$`)
	s := lead.ReplaceAllString(input, "")
	s = tail.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// mask blanks out quoted text and code fences so connectives inside them are
// not treated as structure. The result has the same byte length as s.
func mask(s string) string {
	b := []byte(s)
	inFence := false
	var quote byte
	for i := 0; i < len(b); i++ {
		if strings.HasPrefix(s[i:], "```") {
			inFence = !inFence
			b[i], b[i+1], b[i+2] = '_', '_', '_'
			i += 2
			continue
		}
		if inFence {
			b[i] = '_'
			continue
		}
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b[i] = '_'
		case c == '"':
			quote = c
			b[i] = '_'
		case c == '\'' && (i == 0 || s[i-1] == ' ') && strings.IndexByte(s[i+1:], '\'') > 0:
			quote = c
			b[i] = '_'
		}
	}
	return string(b)
}

var (
	destPrep     = regexp.MustCompile(`(?i)\b(?:in|into|to|onto|on|inside)\s+`)
	targetPrefix = regexp.MustCompile(`(?i)^(?:the|my|our)\s+`)
	pageSuffix   = regexp.MustCompile(`(?i)\s+page$`)
	alsoSuffix   = regexp.MustCompile(`(?i)\s+(?:too|also|as well)$`)
	danglingJoin = regexp.MustCompile(`(?i)(?:[\s,]+(?:and|then|plus))+$`)
)

// CleanTarget normalizes a page name: quotes, "the"/"my", a dangling
// connective and a trailing "page" go.
func CleanTarget(s string) string {
	t := strings.TrimSpace(s)
	t = strings.Trim(t, `"'“”‘’`)
	t = strings.TrimRight(t, ".!?,;: ")
	t = strings.TrimRight(danglingJoin.ReplaceAllString(t, ""), ".!?,;: ")
	t = alsoSuffix.ReplaceAllString(t, "")
	t = pageSuffix.ReplaceAllString(t, "")
	if stripped := targetPrefix.ReplaceAllString(t, ""); stripped != "" {
		t = stripped
	}
	return strings.TrimSpace(strings.Trim(t, `"'“”‘’`))
}

var pronounTargets = map[string]struct{}{
	"it": {}, "there": {}, "this": {}, "that": {}, "them": {}, "here": {}, "me": {},
}

// verbStarts are words that begin an infinitive ("a reminder to call mom"), not a page name.
var verbStarts = map[string]struct{}{
	"call": {}, "buy": {}, "do": {}, "get": {}, "make": {}, "check": {}, "remember": {},
	"pick": {}, "send": {}, "email": {}, "read": {}, "finish": {}, "clean": {}, "fix": {},
	"book": {}, "pay": {}, "review": {}, "go": {}, "see": {}, "try": {}, "take": {},
}

func acceptableTarget(t string) bool {
	if t == "" || len(t) > 120 {
		return false
	}
	lower := strings.ToLower(t)
	if _, ok := pronounTargets[lower]; ok {
		return false
	}
	if formatOnly.MatchString(lower) && !bareTask.MatchString(lower) {
		return false
	}
	if strings.HasSuffix(lower, " section") || strings.HasSuffix(lower, " heading") {
		return false
	}
	first := strings.Fields(lower)[0]
	if _, ok := verbStarts[first]; ok {
		return false
	}
	return !strings.ContainsAny(t, "\n`")
}

// tailDestination finds the right-most "in/to/into X" phrase whose object is
// a plausible page name, and returns it with the text before it.
func tailDestination(s string) (target, rest string, ok bool) {
	m := mask(s)
	locs := destPrep.FindAllStringIndex(m, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		raw := strings.Trim(strings.TrimSpace(s[locs[i][1]:]), `"'“”‘’`)
		cand := CleanTarget(raw)
		if !acceptableTarget(cand) {
			continue
		}
		// "to my tasks" is the checklist format; only a bare "Tasks" is a page.
		if bareTask.MatchString(cand) && targetPrefix.MatchString(raw) {
			continue
		}
		return cand, strings.TrimSpace(s[:locs[i][0]]), true
	}
	return "", s, false
}

// firstSegment returns s up to the first unquoted " and ".
func firstSegment(s string) string {
	m := mask(s)
	if i := strings.Index(strings.ToLower(m), " and "); i >= 0 {
		return s[:i]
	}
	return s
}

// unquote drops one pair of surrounding quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		pairs := [][2]string{{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"}}
		for _, p := range pairs {
			if strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) && len(s) > len(p[0])+len(p[1]) {
				return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
			}
		}
	}
	return s
}
