/*
Package domain contains the core models of the command pipeline.

It defines the typed Command every parser tier produces, the per-session
ConversationState owned by the planner, and the read-only DocumentStructure
view the resolvers work against. The package is pure: no I/O, no persistence.

# Key Entities

  - Command: one atomic instruction (action, target, content, format, section, placement).
  - ConversationState: phase, pending action, queued commands and session settings.
  - DocumentStructure: a page linearized into Blocks and partitioned into Sections.
  - ExternalError: a failed collaborator call, classified as transient or permanent.
*/
package domain
