package domain

// DefaultTarget is the page used when an instruction names no destination.
// Hosts can override it per session through the "default_target" state key.
const DefaultTarget = "Quick Notes"

// DefaultServiceName is the workspace product name. It is never accepted as a page name.
const DefaultServiceName = "Notion"

// Session state keys exposed through Get/Set.
const (
	KeyRequireConfirm    = "require_confirm"
	KeyDefaultTarget     = "default_target"
	KeyPhase             = "phase"
	KeyPendingAction     = "pending_action"
	KeyRemainingCommands = "remaining_commands"
)
