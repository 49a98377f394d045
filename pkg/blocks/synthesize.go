package blocks

import (
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// DefaultCalloutIcon is the emoji used for callouts.
const DefaultCalloutIcon = "💡"

// DefaultLanguage is the code language used when none can be determined.
const DefaultLanguage = "plain text"

var languageAliases = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"python":     "python",
	"go":         "go",
	"golang":     "go",
	"rs":         "rust",
	"rust":       "rust",
	"rb":         "ruby",
	"ruby":       "ruby",
	"java":       "java",
	"kt":         "kotlin",
	"kotlin":     "kotlin",
	"c":          "c",
	"cpp":        "c++",
	"c++":        "c++",
	"cs":         "c#",
	"csharp":     "c#",
	"c#":         "c#",
	"php":        "php",
	"swift":      "swift",
	"sh":         "shell",
	"shell":      "shell",
	"zsh":        "shell",
	"bash":       "bash",
	"sql":        "sql",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"toml":       "toml",
	"xml":        "xml",
	"html":       "html",
	"css":        "css",
	"md":         "markdown",
	"markdown":   "markdown",
	"dockerfile": "docker",
	"docker":     "docker",
	"text":       DefaultLanguage,
	"txt":        DefaultLanguage,
	"plain":      DefaultLanguage,
	"plaintext":  DefaultLanguage,
}

// NormalizeLanguage maps a fence info string or free-form name onto a block language.
func NormalizeLanguage(lang string) string {
	key := strings.ToLower(strings.TrimSpace(lang))
	if l, ok := languageAliases[key]; ok {
		return l
	}
	return DefaultLanguage
}

type options struct {
	language string
}

// Option configures Synthesize.
type Option func(*options)

// WithLanguage sets the language for code blocks. A fence info string in the content wins over it.
func WithLanguage(lang string) Option {
	return func(o *options) { o.language = lang }
}

// Synthesize maps content and a format onto a ContentBlock. It is total:
// unknown formats become paragraphs and empty content yields empty rich text.
func Synthesize(content string, format domain.FormatType, opts ...Option) ContentBlock {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	format = domain.ParseFormat(string(format))

	switch format {
	case domain.FormatCode:
		return code(content, o.language)
	case domain.FormatToggle:
		return toggle(content)
	case domain.FormatToDo:
		checked := false
		return ContentBlock{Type: format, Body: Body{RichText: NewRichText(content), Checked: &checked}}
	case domain.FormatCallout:
		return ContentBlock{Type: format, Body: Body{
			RichText: NewRichText(content),
			Icon:     &Icon{Type: "emoji", Emoji: DefaultCalloutIcon},
		}}
	}
	return ContentBlock{Type: format, Body: Body{RichText: NewRichText(content)}}
}

func code(content, language string) ContentBlock {
	body := content
	lang := language
	if f, ok := findFence(content); ok {
		body = f.Code
		if f.Language != "" {
			lang = f.Language
		}
	}
	return ContentBlock{Type: domain.FormatCode, Body: Body{
		RichText: PlainRichText(body),
		Language: NormalizeLanguage(lang),
	}}
}

func toggle(content string) ContentBlock {
	o := parseOutline(content)
	title := o.Title
	if title == "" && len(o.Items) == 0 {
		title = strings.TrimSpace(content)
	}
	return ContentBlock{Type: domain.FormatToggle, Body: Body{
		RichText: NewRichText(title),
		Children: o.Items,
	}}
}

// ForCommand synthesizes the blocks a write Command appends. List formats
// with one item per line become one block per line.
func ForCommand(cmd domain.Command) []ContentBlock {
	var opts []Option
	if cmd.Language != "" {
		opts = append(opts, WithLanguage(cmd.Language))
	}
	switch cmd.FormatType {
	case domain.FormatToDo, domain.FormatBulleted, domain.FormatNumbered:
		lines := splitLines(cmd.Content)
		if len(lines) > 1 {
			out := make([]ContentBlock, 0, len(lines))
			for _, l := range lines {
				out = append(out, Synthesize(l, cmd.FormatType, opts...))
			}
			return out
		}
	}
	return []ContentBlock{Synthesize(cmd.Content, cmd.FormatType, opts...)}
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimLeft(l, "-*• ")
		l = strings.TrimSpace(taskMarker.ReplaceAllString(l, ""))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
