package blocks

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/aretw0/scribe/pkg/domain"
)

var md = goldmark.New()

var taskMarker = regexp.MustCompile(`^\[( |x|X)\]\s*`)

// fence is a fenced code block found in content.
type fence struct {
	Language string
	Code     string
}

// findFence returns the first fenced code block in src, if any.
func findFence(src string) (fence, bool) {
	if !strings.Contains(src, "```") && !strings.Contains(src, "~~~") {
		return fence{}, false
	}
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var found *ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fc, ok := n.(*ast.FencedCodeBlock); ok {
			found = fc
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found == nil {
		return fence{}, false
	}

	var buf bytes.Buffer
	lines := found.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return fence{
		Language: string(found.Language(source)),
		Code:     strings.TrimRight(buf.String(), "\n"),
	}, true
}

// outline is content split into a title and nested list items.
type outline struct {
	Title string
	Items []ContentBlock
}

// parseOutline reads paragraphs as the title and top-level lists as items.
// "- [ ] x" items become to-dos, ordered lists become numbered items.
func parseOutline(src string) outline {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var out outline
	var title []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if list, ok := n.(*ast.List); ok {
			out.Items = append(out.Items, listItems(list, source)...)
			continue
		}
		if t := nodeText(n, source); t != "" {
			title = append(title, t)
		}
	}
	out.Title = strings.Join(title, " ")
	return out
}

func listItems(list *ast.List, source []byte) []ContentBlock {
	var items []ContentBlock
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		item := listItem(li, list.IsOrdered(), source)
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				item.Body.Children = append(item.Body.Children, listItems(nested, source)...)
			}
		}
		items = append(items, item)
	}
	return items
}

func listItem(li ast.Node, ordered bool, source []byte) ContentBlock {
	t := nodeText(li, source)
	if m := taskMarker.FindStringSubmatch(t); m != nil {
		checked := m[1] != " "
		rest := strings.TrimSpace(t[len(m[0]):])
		return ContentBlock{
			Type: domain.FormatToDo,
			Body: Body{RichText: NewRichText(rest), Checked: &checked},
		}
	}
	typ := domain.FormatBulleted
	if ordered {
		typ = domain.FormatNumbered
	}
	return ContentBlock{Type: typ, Body: Body{RichText: NewRichText(t)}}
}

// nodeText collects the inline text of n, skipping nested lists.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c != n && c.Kind() == ast.KindList {
			return ast.WalkSkipChildren, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.URL(source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
