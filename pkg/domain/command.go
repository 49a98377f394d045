package domain

import (
	"fmt"
	"strings"
)

// FormatType is the semantic shape of the content a Command writes.
type FormatType string

const (
	FormatParagraph FormatType = "paragraph"
	FormatToDo      FormatType = "to_do"
	FormatBulleted  FormatType = "bulleted_list_item"
	FormatNumbered  FormatType = "numbered_list_item"
	FormatQuote     FormatType = "quote"
	FormatCallout   FormatType = "callout"
	FormatToggle    FormatType = "toggle"
	FormatCode      FormatType = "code"
	FormatHeading1  FormatType = "heading_1"
	FormatHeading2  FormatType = "heading_2"
	FormatHeading3  FormatType = "heading_3"
)

var formatAliases = map[string]FormatType{
	"paragraph":          FormatParagraph,
	"text":               FormatParagraph,
	"plain":              FormatParagraph,
	"to_do":              FormatToDo,
	"todo":               FormatToDo,
	"to-do":              FormatToDo,
	"checklist":          FormatToDo,
	"checkbox":           FormatToDo,
	"task":               FormatToDo,
	"bulleted_list_item": FormatBulleted,
	"bullet":             FormatBulleted,
	"bulleted":           FormatBulleted,
	"bullet_list":        FormatBulleted,
	"list":               FormatBulleted,
	"numbered_list_item": FormatNumbered,
	"numbered":           FormatNumbered,
	"number":             FormatNumbered,
	"quote":              FormatQuote,
	"callout":            FormatCallout,
	"toggle":             FormatToggle,
	"code":               FormatCode,
	"heading":            FormatHeading2,
	"heading_1":          FormatHeading1,
	"heading1":           FormatHeading1,
	"h1":                 FormatHeading1,
	"heading_2":          FormatHeading2,
	"heading2":           FormatHeading2,
	"h2":                 FormatHeading2,
	"heading_3":          FormatHeading3,
	"heading3":           FormatHeading3,
	"h3":                 FormatHeading3,
}

// ParseFormat maps a tag (including loose spellings such as "checklist") onto a FormatType.
// The empty string and unknown tags map to FormatParagraph.
func ParseFormat(s string) FormatType {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	if f, ok := formatAliases[key]; ok {
		return f
	}
	return FormatParagraph
}

// HeadingLevel returns 1-3 for heading formats and 0 otherwise.
func (f FormatType) HeadingLevel() int {
	switch f {
	case FormatHeading1:
		return 1
	case FormatHeading2:
		return 2
	case FormatHeading3:
		return 3
	}
	return 0
}

// Placement says whether content goes inside a section or right after it.
type Placement string

const (
	PlacementIn    Placement = "in"
	PlacementBelow Placement = "below"
)

// ParsePlacement maps positional words onto a Placement. Unknown words mean "in".
func ParsePlacement(s string) Placement {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "below", "after", "beneath":
		return PlacementBelow
	}
	return PlacementIn
}

// Source records which parsing stage produced a Command.
type Source string

const (
	SourceModel     Source = "model"
	SourceRules     Source = "rules"
	SourceSynthetic Source = "synthetic"
	SourceSplitter  Source = "splitter"
	SourceFallback  Source = "fallback"
)

// Command is one atomic, typed instruction against a destination page.
// It is created by the parser, consumed once by the planner and never mutated
// afterwards, except for the single Normalize pass that back-fills defaults.
type Command struct {
	Action          Action     `json:"action"`
	PrimaryTarget   string     `json:"primary_target"`
	SecondaryTarget string     `json:"secondary_target,omitempty"`
	Content         string     `json:"content"`
	OldContent      string     `json:"old_content,omitempty"`
	NewContent      string     `json:"new_content,omitempty"`
	FormatType      FormatType `json:"format_type"`
	Language        string     `json:"language,omitempty"`
	SectionTarget   string     `json:"section_target,omitempty"`
	Placement       Placement  `json:"placement_type"`
	IsMultiAction   bool       `json:"is_multi_action"`
	Source          Source     `json:"source,omitempty"`
}

// RequiresContent reports whether the action writes text payloads.
func (c Command) RequiresContent() bool {
	switch c.Action {
	case ActionWrite, ActionAppend, ActionEdit:
		return true
	}
	return false
}

// NeedsTarget reports whether the action operates on a destination page.
func (c Command) NeedsTarget() bool {
	switch c.Action {
	case ActionDebug, ActionUnknown:
		return false
	}
	return true
}

// Normalize returns a copy with defaults applied: a known action, a target,
// a format and a placement. It is the only mutation a Command goes through.
func (c Command) Normalize(defaultTarget string) Command {
	if defaultTarget == "" {
		defaultTarget = DefaultTarget
	}
	if !c.Action.IsKnown() {
		c.Action = ParseAction(string(c.Action))
	}
	c.PrimaryTarget = strings.TrimSpace(c.PrimaryTarget)
	c.SecondaryTarget = strings.TrimSpace(c.SecondaryTarget)
	c.SectionTarget = strings.TrimSpace(c.SectionTarget)
	c.Content = strings.TrimSpace(c.Content)
	if c.PrimaryTarget == "" {
		c.PrimaryTarget = defaultTarget
	}
	if c.FormatType == "" {
		c.FormatType = FormatParagraph
	} else {
		c.FormatType = ParseFormat(string(c.FormatType))
	}
	if c.Placement == "" {
		c.Placement = PlacementIn
	}
	if c.Action == ActionEdit && c.NewContent == "" && c.Content != "" {
		c.NewContent = c.Content
	}
	return c
}

// Validate checks the invariants every parser tier must uphold.
func (c Command) Validate() error {
	if c.Action == "" {
		return fmt.Errorf("%w: empty action", ErrInvalidCommand)
	}
	if !c.Action.IsKnown() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, c.Action)
	}
	if c.NeedsTarget() && strings.TrimSpace(c.PrimaryTarget) == "" {
		return fmt.Errorf("%w: %s requires a target", ErrInvalidCommand, c.Action)
	}
	if c.Action == ActionEdit && c.OldContent == "" {
		return fmt.Errorf("%w: edit requires the text to replace", ErrInvalidCommand)
	}
	if c.Placement != "" && c.Placement != PlacementIn && c.Placement != PlacementBelow {
		return fmt.Errorf("%w: bad placement %q", ErrInvalidCommand, c.Placement)
	}
	return nil
}

// Describe renders a short human summary, used in confirmation and debug output.
func (c Command) Describe() string {
	var b strings.Builder
	b.WriteString(string(c.Action))
	if c.Content != "" {
		fmt.Fprintf(&b, " %q", c.Content)
	}
	if c.FormatType != "" && c.FormatType != FormatParagraph {
		fmt.Fprintf(&b, " as %s", c.FormatType)
	}
	if c.SectionTarget != "" {
		fmt.Fprintf(&b, " %s section %q", c.Placement, c.SectionTarget)
	}
	if c.PrimaryTarget != "" {
		fmt.Fprintf(&b, " -> %q", c.PrimaryTarget)
	}
	if c.SecondaryTarget != "" {
		fmt.Fprintf(&b, " (parent %q)", c.SecondaryTarget)
	}
	return b.String()
}
