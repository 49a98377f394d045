package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]FormatType{
		"":            FormatParagraph,
		"checklist":   FormatToDo,
		"To-Do":       FormatToDo,
		"bullet":      FormatBulleted,
		"numbered":    FormatNumbered,
		"heading":     FormatHeading2,
		"h1":          FormatHeading1,
		"heading 3":   FormatHeading3,
		"callout":     FormatCallout,
		"spreadsheet": FormatParagraph,
		"  toggle   ": FormatToggle,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseFormat(in), "input %q", in)
	}
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionWrite, ParseAction("Add"))
	assert.Equal(t, ActionCreate, ParseAction("make"))
	assert.Equal(t, ActionEdit, ParseAction("replace"))
	assert.Equal(t, ActionDelete, ParseAction("remove"))
	assert.Equal(t, ActionRead, ParseAction("show"))
	assert.Equal(t, ActionAppend, ParseAction("append"))
	assert.Equal(t, ActionUnknown, ParseAction("juggle"))
}

func TestIsDestructive(t *testing.T) {
	for _, a := range []Action{ActionCreate, ActionWrite, ActionAppend, ActionEdit, ActionDelete, ActionMove} {
		assert.True(t, a.IsDestructive(), a)
	}
	for _, a := range []Action{ActionRead, ActionDebug, ActionUnknown} {
		assert.False(t, a.IsDestructive(), a)
	}
	assert.True(t, IsDestructiveVerb("Archive"))
	assert.True(t, IsDestructiveVerb("publish"))
	assert.False(t, IsDestructiveVerb("look"))
}

func TestParsePlacement(t *testing.T) {
	assert.Equal(t, PlacementBelow, ParsePlacement("after"))
	assert.Equal(t, PlacementBelow, ParsePlacement("Below"))
	assert.Equal(t, PlacementIn, ParsePlacement("under"))
	assert.Equal(t, PlacementIn, ParsePlacement(""))
}

func TestCommand_Normalize(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := Command{Action: ActionWrite, Content: "  milk "}.Normalize("")

		assert.Equal(t, DefaultTarget, c.PrimaryTarget)
		assert.Equal(t, FormatParagraph, c.FormatType)
		assert.Equal(t, PlacementIn, c.Placement)
		assert.Equal(t, "milk", c.Content)
		require.NoError(t, c.Validate())
	})

	t.Run("Aliases", func(t *testing.T) {
		c := Command{Action: "add", FormatType: "checklist", PrimaryTarget: "Groceries"}.Normalize("Inbox")

		assert.Equal(t, ActionWrite, c.Action)
		assert.Equal(t, FormatToDo, c.FormatType)
		assert.Equal(t, "Groceries", c.PrimaryTarget)
	})

	t.Run("Edit Copies Content", func(t *testing.T) {
		c := Command{Action: ActionEdit, OldContent: "a", Content: "b"}.Normalize("Inbox")
		assert.Equal(t, "b", c.NewContent)
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := Command{Action: "put", Content: "x", FormatType: "bullet"}.Normalize("Inbox")
		assert.Equal(t, once, once.Normalize("Inbox"))
	})
}

func TestCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"Empty Action", Command{PrimaryTarget: "x"}, true},
		{"Unknown Verb", Command{Action: "juggle", PrimaryTarget: "x"}, true},
		{"Missing Target", Command{Action: ActionWrite}, true},
		{"Debug Needs No Target", Command{Action: ActionDebug}, false},
		{"Edit Without Old Content", Command{Action: ActionEdit, PrimaryTarget: "x"}, true},
		{"Bad Placement", Command{Action: ActionWrite, PrimaryTarget: "x", Placement: "sideways"}, true},
		{"Empty Content Is Fine", Command{Action: ActionWrite, PrimaryTarget: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCommand))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCommand_Describe(t *testing.T) {
	c := Command{
		Action:        ActionWrite,
		Content:       "milk",
		FormatType:    FormatToDo,
		SectionTarget: "Groceries",
		Placement:     PlacementIn,
		PrimaryTarget: "Shopping List",
	}
	assert.Equal(t, `write "milk" as to_do in section "Groceries" -> "Shopping List"`, c.Describe())
}
