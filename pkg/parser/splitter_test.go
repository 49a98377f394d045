package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribe/pkg/domain"
)

func interpret(t *testing.T, input string) Interpretation {
	t.Helper()
	return NewInterpreter(New(WithOffline(true))).Interpret(context.Background(), "test", input, "")
}

type wantCmd struct {
	action  domain.Action
	content string
	target  string
	format  domain.FormatType
}

func assertCommands(t *testing.T, got []domain.Command, want []wantCmd) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.action, got[i].Action, "command %d action", i)
		assert.Equal(t, w.content, got[i].Content, "command %d content", i)
		assert.Equal(t, w.target, got[i].PrimaryTarget, "command %d target", i)
		assert.Equal(t, w.format, got[i].FormatType, "command %d format", i)
		assert.Equal(t, i > 0, got[i].IsMultiAction, "command %d multi", i)
	}
}

func TestSplit_ShoppingList(t *testing.T) {
	it := interpret(t, "add milk in checklist and eggs in checklist too in Shopping List")
	assert.True(t, it.Split)
	assertCommands(t, it.Commands, []wantCmd{
		{domain.ActionWrite, "milk", "Shopping List", domain.FormatToDo},
		{domain.ActionWrite, "eggs", "Shopping List", domain.FormatToDo},
	})
	assert.Equal(t, domain.SourceRules, it.Commands[0].Source)
	assert.Equal(t, domain.SourceSplitter, it.Commands[1].Source)
}

func TestSplit_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []wantCmd
	}{
		{
			name:  "comma checklist",
			input: "add milk, eggs, and bread to my checklist in Shopping List",
			want: []wantCmd{
				{domain.ActionWrite, "milk", "Shopping List", domain.FormatToDo},
				{domain.ActionWrite, "eggs", "Shopping List", domain.FormatToDo},
				{domain.ActionWrite, "bread", "Shopping List", domain.FormatToDo},
			},
		},
		{
			name:  "multiple destinations",
			input: "add milk to Shopping List and eggs to Pantry",
			want: []wantCmd{
				{domain.ActionWrite, "milk", "Shopping List", domain.FormatParagraph},
				{domain.ActionWrite, "eggs", "Pantry", domain.FormatParagraph},
			},
		},
		{
			name:  "conjoined verbs",
			input: "add milk to Groceries and then create a page called Trip",
			want: []wantCmd{
				{domain.ActionWrite, "milk", "Groceries", domain.FormatParagraph},
				{domain.ActionCreate, "", "Trip", domain.FormatParagraph},
			},
		},
		{
			name:  "repeated format",
			input: "add buy milk as a todo and this as a quote: be kind",
			want: []wantCmd{
				{domain.ActionWrite, "buy milk", domain.DefaultTarget, domain.FormatToDo},
				{domain.ActionWrite, "be kind", domain.DefaultTarget, domain.FormatQuote},
			},
		},
		{
			name:  "repeated format shares trailing page",
			input: "write hello as a quote and world as a callout in Notes",
			want: []wantCmd{
				{domain.ActionWrite, "hello", "Notes", domain.FormatQuote},
				{domain.ActionWrite, "world", "Notes", domain.FormatCallout},
			},
		},
		{
			name:  "repeated format prefix",
			input: "add a todo buy milk and a todo buy eggs in Notes",
			want: []wantCmd{
				{domain.ActionWrite, "buy milk", "Notes", domain.FormatToDo},
				{domain.ActionWrite, "buy eggs", "Notes", domain.FormatToDo},
			},
		},
		{
			name:  "pronoun repeats content in another format",
			input: "add milk as a checklist item and this as a quote in Notes",
			want: []wantCmd{
				{domain.ActionWrite, "milk", "Notes", domain.FormatToDo},
				{domain.ActionWrite, "milk", "Notes", domain.FormatQuote},
			},
		},
		{
			name:  "page named Tasks",
			input: "add buy milk to Tasks and add call mom to Tasks",
			want: []wantCmd{
				{domain.ActionWrite, "buy milk", "Tasks", domain.FormatParagraph},
				{domain.ActionWrite, "call mom", "Tasks", domain.FormatParagraph},
			},
		},
		{
			name:  "one item with and",
			input: "add salt and pepper to Groceries",
			want: []wantCmd{
				{domain.ActionWrite, "salt and pepper", "Groceries", domain.FormatParagraph},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCommands(t, interpret(t, tt.input).Commands, tt.want)
		})
	}
}

func TestSplit_Idempotent(t *testing.T) {
	p := New(WithOffline(true))
	s := NewSplitter()
	inputs := []string{
		"add milk in checklist and eggs in checklist too in Shopping List",
		"add milk, eggs, and bread to my checklist in Shopping List",
		"add milk to Shopping List and eggs to Pantry",
		"add milk to Groceries and then create a page called Trip",
		"write hello as a quote and world as a callout in Notes",
		"add a todo buy milk and a todo buy eggs in Notes",
		"add buy milk to Tasks and add call mom to Tasks",
		"write hello",
	}
	for _, in := range inputs {
		clean := p.Preprocess(in)
		once := s.Split(p.Parse(context.Background(), in), clean)
		twice := s.Split(once, clean)
		assert.Equal(t, once, twice, in)
	}
}

func TestSplit_KeepsOrderOfExistingCommands(t *testing.T) {
	fixed := Detector{Name: "fixed", Detect: func(string) []Span {
		return []Span{{Text: "add apples"}, {Text: "and add bananas to Fruit"}, {Text: "add cherries"}}
	}}
	s := NewSplitter(WithDetectors(fixed))
	cmds := []domain.Command{
		{Action: domain.ActionWrite, Content: "apples", PrimaryTarget: "Basket"},
		{Action: domain.ActionWrite, Content: "cherries", PrimaryTarget: "Basket"},
	}

	out := s.Split(cmds, "ignored")
	require.Len(t, out, 3)
	assert.Equal(t, "apples", out[0].Content)
	assert.Equal(t, "bananas", out[1].Content)
	assert.Equal(t, "Fruit", out[1].PrimaryTarget)
	assert.Equal(t, domain.SourceSplitter, out[1].Source)
	assert.Equal(t, "cherries", out[2].Content)
	assert.True(t, out[2].IsMultiAction)
}

func TestSplit_AmbiguousSpanLeavesInputUnchanged(t *testing.T) {
	fixed := Detector{Name: "fixed", Detect: func(string) []Span {
		return []Span{{Text: "add milk"}, {Text: "and in Pantry"}}
	}}
	cmds := []domain.Command{{Action: domain.ActionWrite, Content: "milk", PrimaryTarget: "Groceries"}}
	out := NewSplitter(WithDetectors(fixed)).Split(cmds, "ignored")
	assert.Equal(t, cmds, out)
}

func TestInterpreter_ParseHook(t *testing.T) {
	var got *domain.ParseEvent
	in := NewInterpreter(New(WithOffline(true)))
	in.Hooks.OnParse = func(_ context.Context, e *domain.ParseEvent) { got = e }

	in.Interpret(context.Background(), "s1", "add milk in checklist and eggs in checklist too in Shopping List", "")
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, domain.EventParse, got.Type)
	assert.Equal(t, domain.SourceRules, got.Tier)
	assert.Equal(t, 2, got.Commands)
	assert.True(t, got.Split)
}
