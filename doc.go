/*
Package scribe turns free-text instructions into edits on a Notion-style workspace.

An instruction such as "add milk in checklist and eggs in checklist too in
Shopping List" goes through a tiered parser (language model, then rules, then
keyword synthesis), a splitter that separates compound requests, resolvers
that find the target page and section, and a planner that holds destructive
actions for a yes or no before executing the queue. Each session runs one turn
at a time and its state is persisted between turns.

# Usage

	ws := notion.New(os.Getenv("NOTION_TOKEN"), notion.WithRootPage(rootID))
	a, err := scribe.New(ws,
		scribe.WithStore(redisStore),
		scribe.WithCompleter(completer),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := a.Chat(ctx, "user-1", "add milk to Shopping List")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Content)

Session settings are read and written by key:

	_ = a.Set(ctx, "user-1", "require_confirm", "false")
	target, _ := a.Get(ctx, "user-1", "default_target")
*/
package scribe
