package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/scribe/internal/dto"
	"github.com/aretw0/scribe/pkg/domain"
)

// extractJSON returns the first balanced JSON object in response. Markdown
// fences and surrounding prose are skipped and braces inside strings ignored.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

// decodeCommands reads the "commands" array of a model reply.
func decodeCommands(response string) ([]domain.Command, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", domain.ErrParseFailure)
	}
	var envelope map[string]any
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	var list []any
	for k, v := range envelope {
		if dto.NormalizeKey(k) == "commands" {
			list, _ = v.([]any)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty commands array", domain.ErrParseFailure)
	}

	cmds := make([]domain.Command, 0, len(list))
	for i, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: command %d is %T", domain.ErrParseFailure, i, item)
		}
		var mc dto.ModelCommand
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &mc,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(canonicalRecord(rec)); err != nil {
			return nil, fmt.Errorf("%w: command %d: %v", domain.ErrParseFailure, i, err)
		}
		cmd := mc.ToCommand()
		if cmd.Action == domain.ActionUnknown && mc.Action != string(domain.ActionUnknown) {
			return nil, fmt.Errorf("%w: command %d has action %q", domain.ErrParseFailure, i, mc.Action)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// canonicalRecord folds key spellings and aliases, joins list content into
// lines and drops nulls.
func canonicalRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if v == nil {
			continue
		}
		key := dto.NormalizeKey(k)
		if alias, ok := dto.KeyAliases[key]; ok {
			key = alias
		}
		if items, ok := v.([]any); ok {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				parts = append(parts, fmt.Sprint(it))
			}
			v = strings.Join(parts, "\n")
		}
		if _, taken := out[key]; taken && key != dto.NormalizeKey(k) {
			continue
		}
		out[key] = v
	}
	return out
}
