package domain

import "strings"

// Action is the verb of a Command.
type Action string

const (
	ActionCreate  Action = "create"
	ActionWrite   Action = "write"
	ActionAppend  Action = "append"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionMove    Action = "move"
	ActionRead    Action = "read"
	ActionDebug   Action = "debug"
	ActionUnknown Action = "unknown"
)

var knownActions = map[Action]struct{}{
	ActionCreate:  {},
	ActionWrite:   {},
	ActionAppend:  {},
	ActionEdit:    {},
	ActionDelete:  {},
	ActionMove:    {},
	ActionRead:    {},
	ActionDebug:   {},
	ActionUnknown: {},
}

// actionAliases maps verbs that show up in model output or user text onto the canonical set.
var actionAliases = map[string]Action{
	"add":     ActionWrite,
	"put":     ActionWrite,
	"insert":  ActionWrite,
	"note":    ActionWrite,
	"save":    ActionWrite,
	"new":     ActionCreate,
	"make":    ActionCreate,
	"update":  ActionEdit,
	"change":  ActionEdit,
	"replace": ActionEdit,
	"modify":  ActionEdit,
	"remove":  ActionDelete,
	"erase":   ActionDelete,
	"show":    ActionRead,
	"open":    ActionRead,
	"get":     ActionRead,
	"view":    ActionRead,
}

// ParseAction maps a free-form verb onto an Action. Unrecognized verbs yield ActionUnknown.
func ParseAction(s string) Action {
	v := strings.ToLower(strings.TrimSpace(s))
	if _, ok := knownActions[Action(v)]; ok {
		return Action(v)
	}
	if a, ok := actionAliases[v]; ok {
		return a
	}
	return ActionUnknown
}

// IsKnown reports whether a is one of the canonical actions.
func (a Action) IsKnown() bool {
	_, ok := knownActions[a]
	return ok
}

// destructiveVerbs is the lexical set of verbs that mutate the workspace.
// It is wider than the Action enum so hosts can classify raw verbs too.
var destructiveVerbs = map[string]struct{}{
	"create":  {},
	"write":   {},
	"append":  {},
	"edit":    {},
	"delete":  {},
	"move":    {},
	"rename":  {},
	"archive": {},
	"publish": {},
	"upload":  {},
}

// IsDestructiveVerb classifies a verb lexically.
func IsDestructiveVerb(verb string) bool {
	_, ok := destructiveVerbs[strings.ToLower(strings.TrimSpace(verb))]
	return ok
}

// IsDestructive reports whether the action mutates the workspace and needs confirmation.
func (a Action) IsDestructive() bool {
	return IsDestructiveVerb(string(a))
}
