package dto

import (
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// ModelCommand is one command record as a language model emits it.
// Keys are normalized (lower case, no separators) and aliases folded in
// before decoding, so the mapstructure tags are the canonical spellings.
type ModelCommand struct {
	Action          string `json:"action" mapstructure:"action"`
	PrimaryTarget   string `json:"primary_target" mapstructure:"primarytarget"`
	SecondaryTarget string `json:"secondary_target" mapstructure:"secondarytarget"`
	Content         string `json:"content" mapstructure:"content"`
	OldContent      string `json:"old_content" mapstructure:"oldcontent"`
	NewContent      string `json:"new_content" mapstructure:"newcontent"`
	FormatType      string `json:"format_type" mapstructure:"formattype"`
	Language        string `json:"language" mapstructure:"language"`
	SectionTarget   string `json:"section_target" mapstructure:"sectiontarget"`
	Placement       string `json:"placement_type" mapstructure:"placementtype"`
	IsMultiAction   bool   `json:"is_multi_action" mapstructure:"ismultiaction"`
}

// KeyAliases maps normalized alternative keys onto the canonical ones.
var KeyAliases = map[string]string{
	"pagetitle":   "primarytarget",
	"page":        "primarytarget",
	"pagename":    "primarytarget",
	"target":      "primarytarget",
	"title":       "primarytarget",
	"parentpage":  "secondarytarget",
	"parent":      "secondarytarget",
	"destination": "secondarytarget",
	"text":        "content",
	"format":      "formattype",
	"blocktype":   "formattype",
	"section":     "sectiontarget",
	"heading":     "sectiontarget",
	"placement":   "placementtype",
	"position":    "placementtype",
	"lang":        "language",
	"old":         "oldcontent",
	"new":         "newcontent",
	"multiaction": "ismultiaction",
}

// NormalizeKey lower-cases k and drops '_', '-' and spaces.
func NormalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

// ToCommand converts the record into a domain.Command.
func (m ModelCommand) ToCommand() domain.Command {
	return domain.Command{
		Action:          domain.ParseAction(m.Action),
		PrimaryTarget:   m.PrimaryTarget,
		SecondaryTarget: m.SecondaryTarget,
		Content:         m.Content,
		OldContent:      m.OldContent,
		NewContent:      m.NewContent,
		FormatType:      domain.FormatType(m.FormatType),
		Language:        m.Language,
		SectionTarget:   m.SectionTarget,
		Placement:       domain.ParsePlacement(m.Placement),
		IsMultiAction:   m.IsMultiAction,
		Source:          domain.SourceModel,
	}
}
