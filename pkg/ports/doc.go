/*
Package ports defines the driven ports (interfaces) of the scribe pipeline.

These interfaces decouple the parser and planner from concrete collaborators,
so the same core runs against Notion, an in-memory workspace, OpenAI or Gemini.

# Key Interfaces

  - Workspace: page search, page creation, block-children read and append.
  - BlockEditor: optional block update and delete.
  - Completer: language-model completion for the model-backed parser tier.
  - StateStore: persists ConversationState between turns.
  - DistributedLocker: serializes turns for one session across replicas.
*/
package ports
