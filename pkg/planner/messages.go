package planner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

const (
	// ConfirmPrompt is the only text of a reply that holds an action for confirmation.
	ConfirmPrompt = "Do you want me to proceed with this action? (yes/no)"
	// CancelMessage ends a turn whose pending action was declined.
	CancelMessage = "Okay, I cancelled that action."
	// NothingPending answers a confirmation when the queue is empty.
	NothingPending = "There is nothing waiting for confirmation."
	// HelpMessage answers instructions no parser tier understood.
	HelpMessage = `I couldn't work out what to do with that. Try "add milk to Shopping List", ` +
		`"create a page called Ideas" or "show Shopping List".`

	connective = " And "
)

var (
	affirmatives = map[string]struct{}{"yes": {}, "y": {}, "confirm": {}, "proceed": {}}
	negatives    = map[string]struct{}{"no": {}, "n": {}, "cancel": {}, "stop": {}}
)

type replyKind int

const (
	replyOther replyKind = iota
	replyAffirm
	replyNegate
)

// classifyReply matches the confirmation literals, ignoring case and a trailing '.' or '!'.
func classifyReply(input string) replyKind {
	s := strings.ToLower(strings.TrimRight(strings.TrimSpace(input), ".! "))
	if _, ok := affirmatives[s]; ok {
		return replyAffirm
	}
	if _, ok := negatives[s]; ok {
		return replyNegate
	}
	return replyOther
}

// Aggregate joins per-command messages into one reply in execution order.
func Aggregate(messages []string) string {
	var b strings.Builder
	for _, msg := range messages {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(connective)
			msg = lowerFirst(msg)
		}
		b.WriteString(msg)
	}
	return b.String()
}

// lowerFirst lower-cases the first letter unless the first word is "I".
func lowerFirst(s string) string {
	if s == "I" || strings.HasPrefix(s, "I ") || strings.HasPrefix(s, "I'") {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func quoteContent(s string) string {
	const max = 60
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max-1]) + "…"
	}
	return fmt.Sprintf("%q", s)
}

// failureMessage renders one command's error for the user.
func failureMessage(cmd domain.Command, err error) string {
	var te *domain.TargetError
	switch {
	case errors.As(err, &te):
		if te.Page != "" {
			return fmt.Sprintf("I couldn't find a %s named %q in %q", te.Kind, te.Name, te.Page)
		}
		return fmt.Sprintf("I couldn't find a %s named %q", te.Kind, te.Name)
	case errors.Is(err, domain.ErrUnsupportedAction):
		return fmt.Sprintf("I can't %s here: %v", cmd.Action, err)
	case domain.IsTransient(err):
		return fmt.Sprintf("The workspace is not responding, so I couldn't %s: %v", cmd.Action, err)
	}
	return fmt.Sprintf("I couldn't %s: %v", cmd.Action, err)
}

// renderPage renders page children as plain markdown-ish text.
func renderPage(title string, records []ports.BlockRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("%q is empty", title)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here is %q:\n", title)
	n := 0
	for _, r := range records {
		switch domain.FormatType(r.Type) {
		case domain.FormatHeading1:
			b.WriteString("# ")
		case domain.FormatHeading2:
			b.WriteString("## ")
		case domain.FormatHeading3:
			b.WriteString("### ")
		case domain.FormatToDo:
			b.WriteString("- [ ] ")
		case domain.FormatBulleted:
			b.WriteString("- ")
		case domain.FormatNumbered:
			n++
			fmt.Fprintf(&b, "%d. ", n)
		case domain.FormatQuote:
			b.WriteString("> ")
		case domain.FormatCode:
			fmt.Fprintf(&b, "```\n%s\n```\n", r.Text)
			continue
		}
		if domain.FormatType(r.Type) != domain.FormatNumbered {
			n = 0
		}
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
