package cli

import (
	"context"

	"github.com/aretw0/scribe/pkg/adapters/memory"
)

// demoPages seed the in-memory workspace used by --demo.
var demoPages = []struct {
	title string
	lines []string
}{
	{"Quick Notes", nil},
	{"Shopping List", []string{"- [ ] bread"}},
	{"Daily Planner", []string{
		"# Tasks",
		"- [ ] water the plants",
		"# My Day",
		"Slept well.",
		"# Tech Tasks",
		"- [ ] update the router firmware",
	}},
	{"Reading List", []string{"- The Go Programming Language"}},
}

// SeedDemo creates the demo pages in ws.
func SeedDemo(ctx context.Context, ws *memory.Workspace) error {
	for _, p := range demoPages {
		if _, err := ws.Seed(ctx, "", p.title, p.lines...); err != nil {
			return err
		}
	}
	return nil
}
