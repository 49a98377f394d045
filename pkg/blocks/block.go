package blocks

import (
	"encoding/json"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// ContentBlock is a Notion-shaped content block. It marshals as
// {"object":"block","type":T,T:{...body...}}.
type ContentBlock struct {
	Type domain.FormatType
	Body Body
}

// Body is the type-specific payload of a block.
type Body struct {
	RichText []RichText     `json:"rich_text"`
	Checked  *bool          `json:"checked,omitempty"`
	Icon     *Icon          `json:"icon,omitempty"`
	Language string         `json:"language,omitempty"`
	Children []ContentBlock `json:"children,omitempty"`
}

// Icon is an emoji icon, used by callouts.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// MarshalJSON implements json.Marshaler.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	body := b.Body
	if body.RichText == nil {
		body.RichText = []RichText{}
	}
	return json.Marshal(map[string]any{
		"object":       "block",
		"type":         b.Type,
		string(b.Type): body,
	})
}

// UnmarshalJSON implements json.Unmarshaler for the shape produced by MarshalJSON.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var typ string
	if err := json.Unmarshal(raw["type"], &typ); err != nil {
		return err
	}
	b.Type = domain.FormatType(typ)
	b.Body = Body{}
	if body, ok := raw[typ]; ok {
		return json.Unmarshal(body, &b.Body)
	}
	return nil
}

// PlainText concatenates the block's rich text. Children are not included.
func (b ContentBlock) PlainText() string {
	var sb strings.Builder
	for _, rt := range b.Body.RichText {
		sb.WriteString(rt.Text.Content)
	}
	return sb.String()
}
