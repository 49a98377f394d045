package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/scribe/pkg/blocks"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/aretw0/scribe/pkg/resolver"
)

// Result is the outcome of one executed command.
type Result struct {
	Command domain.Command `json:"command"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	// PageID is the page the command acted on, when one was resolved.
	PageID string `json:"page_id,omitempty"`
}

// turn carries what one Handle call needs while executing its queue.
type turn struct {
	m         *Machine
	sessionID string
	input     string
	target    string
	ws        *retryWorkspace
	targets   *resolver.TargetResolver
}

func (m *Machine) newTurn(ctx context.Context, state *domain.ConversationState, input string) *turn {
	t := &turn{m: m, sessionID: state.SessionID, input: input, target: state.Target()}
	t.ws = &retryWorkspace{inner: m.workspace, policy: m.retry}
	t.ws.onRetry = func(op string, attempt int, delay time.Duration, err error) {
		m.logger.Warn("Retrying workspace call",
			"session_id", t.sessionID,
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"err", err,
		)
		if m.hooks.OnRetry != nil {
			m.hooks.OnRetry(ctx, &domain.RetryEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRetry, SessionID: t.sessionID},
				Op:        op,
				Attempt:   attempt,
				Delay:     delay,
				Err:       err,
			})
		}
	}
	t.targets = resolver.NewTargetResolver(t.ws,
		resolver.WithThreshold(m.threshold),
		resolver.WithTargetLogger(m.logger),
	)
	return t
}

// execute runs the queue strictly in order. A failing command never stops
// the ones after it.
func (t *turn) execute(ctx context.Context, queue []domain.Command) []Result {
	results := make([]Result, 0, len(queue))
	for i, cmd := range queue {
		start := time.Now()
		t.emit(ctx, t.m.hooks.OnCommandStart, domain.EventCommandStart, i, cmd, nil, 0)

		res := t.run(ctx, cmd)
		if res.Err != nil {
			res.Message = failureMessage(cmd, res.Err)
			t.m.logger.Info("Command failed",
				"session_id", t.sessionID,
				"action", cmd.Action,
				"target", cmd.PrimaryTarget,
				"err", res.Err,
			)
		} else {
			t.m.logger.Debug("Command executed",
				"session_id", t.sessionID,
				"action", cmd.Action,
				"target", cmd.PrimaryTarget,
			)
		}
		t.emit(ctx, t.m.hooks.OnCommandEnd, domain.EventCommandEnd, i, cmd, res.Err, time.Since(start))
		results = append(results, res)
	}
	return results
}

func (t *turn) emit(ctx context.Context, hook func(context.Context, *domain.CommandEvent), typ domain.EventType, i int, cmd domain.Command, err error, d time.Duration) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.CommandEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: t.sessionID},
		Index:     i,
		Command:   cmd,
		Err:       err,
		Duration:  d,
	})
}

func (t *turn) run(ctx context.Context, cmd domain.Command) Result {
	res := Result{Command: cmd}
	var err error
	switch cmd.Action {
	case domain.ActionCreate:
		res.PageID, res.Message, err = t.create(ctx, cmd)
	case domain.ActionWrite, domain.ActionAppend:
		res.PageID, res.Message, err = t.write(ctx, cmd)
	case domain.ActionEdit:
		res.PageID, res.Message, err = t.edit(ctx, cmd)
	case domain.ActionDelete:
		res.PageID, res.Message, err = t.delete(ctx, cmd)
	case domain.ActionMove:
		res.PageID, res.Message, err = t.move(ctx, cmd)
	case domain.ActionRead:
		res.PageID, res.Message, err = t.read(ctx, cmd)
	case domain.ActionDebug:
		res.Message = t.debug(ctx, cmd)
	default:
		res.Message = HelpMessage
	}
	res.Err = err
	return res
}

// page resolves a page name or returns a TargetError.
func (t *turn) page(ctx context.Context, kind, name string) (*resolver.Match, error) {
	m, err := t.targets.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &domain.TargetError{Kind: kind, Name: name, Err: domain.ErrTargetNotFound}
	}
	return m, nil
}

func (t *turn) create(ctx context.Context, cmd domain.Command) (string, string, error) {
	parentID := ""
	var parent *resolver.Match
	if cmd.SecondaryTarget != "" {
		p, err := t.page(ctx, "parent page", cmd.SecondaryTarget)
		if err != nil {
			return "", "", err
		}
		parent, parentID = p, p.ID
	}
	pg, err := t.ws.CreatePage(ctx, parentID, cmd.PrimaryTarget)
	if err != nil {
		return "", "", fmt.Errorf("create page %q: %w", cmd.PrimaryTarget, err)
	}
	msg := fmt.Sprintf("Created page %q", pg.Title)
	if parent != nil {
		msg += fmt.Sprintf(" under %q", parent.Title)
	}
	if strings.TrimSpace(cmd.Content) != "" {
		if _, err := t.ws.AppendChildren(ctx, pg.ID, "", blocks.ForCommand(cmd)); err != nil {
			return pg.ID, "", fmt.Errorf("write initial content to %q: %w", pg.Title, err)
		}
		msg += fmt.Sprintf(" with %s", quoteContent(cmd.Content))
	}
	return pg.ID, msg, nil
}

func (t *turn) write(ctx context.Context, cmd domain.Command) (string, string, error) {
	pg, err := t.page(ctx, "page", cmd.PrimaryTarget)
	if err != nil {
		return "", "", err
	}
	ins := resolver.Insertion{ParentID: pg.ID}
	where := fmt.Sprintf("%q", pg.Title)

	if cmd.SectionTarget != "" {
		records, err := t.ws.ListChildren(ctx, pg.ID)
		if err != nil {
			return pg.ID, "", fmt.Errorf("read %q: %w", pg.Title, err)
		}
		doc := resolver.BuildStructure(pg.ID, records)
		match := t.m.sections.Find(doc, cmd.SectionTarget, resolver.WithInstruction(t.input))
		switch {
		case match != nil:
			ins = resolver.InsertionPoint(doc, match.Section, cmd.Placement)
			where = fmt.Sprintf("the %q section of %q", match.Section.Title(), pg.Title)
			if match.Advisory() {
				where += fmt.Sprintf(" (closest match for %q)", cmd.SectionTarget)
			}
		case t.m.sectionFallbackAppend:
			ins = resolver.AppendAtEnd(doc)
			where = fmt.Sprintf("the end of %q (no %q section)", pg.Title, cmd.SectionTarget)
		default:
			return pg.ID, "", &domain.TargetError{Kind: "section", Name: cmd.SectionTarget, Page: pg.Title, Err: domain.ErrSectionNotFound}
		}
	}

	if _, err := t.ws.AppendChildren(ctx, ins.ParentID, ins.AfterID, blocks.ForCommand(cmd)); err != nil {
		return pg.ID, "", fmt.Errorf("write to %q: %w", pg.Title, err)
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return pg.ID, fmt.Sprintf("Added an empty %s to %s", formatName(cmd.FormatType), where), nil
	}
	what := quoteContent(cmd.Content)
	if cmd.FormatType != domain.FormatParagraph {
		what += " as " + formatName(cmd.FormatType)
	}
	return pg.ID, fmt.Sprintf("Added %s to %s", what, where), nil
}

func formatName(f domain.FormatType) string {
	switch f {
	case domain.FormatToDo:
		return "a to-do"
	case domain.FormatBulleted:
		return "a bullet"
	case domain.FormatNumbered:
		return "a numbered item"
	case domain.FormatHeading1, domain.FormatHeading2, domain.FormatHeading3:
		return "a heading"
	case domain.FormatCode:
		return "code"
	case domain.FormatQuote, domain.FormatCallout, domain.FormatToggle:
		return "a " + string(f)
	}
	return "paragraph"
}

// locate finds the first child block of a page whose text contains needle,
// preferring a case-sensitive hit.
func (t *turn) locate(ctx context.Context, pg *resolver.Match, needle string) (ports.BlockRecord, error) {
	records, err := t.ws.ListChildren(ctx, pg.ID)
	if err != nil {
		return ports.BlockRecord{}, fmt.Errorf("read %q: %w", pg.Title, err)
	}
	for _, r := range records {
		if strings.Contains(r.Text, needle) {
			return r, nil
		}
	}
	lower := strings.ToLower(needle)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Text), lower) {
			return r, nil
		}
	}
	return ports.BlockRecord{}, &domain.TargetError{Kind: "block", Name: needle, Page: pg.Title, Err: domain.ErrTargetNotFound}
}

func (t *turn) editor() (ports.BlockEditor, error) {
	ed := t.ws.editor()
	if ed == nil {
		return nil, fmt.Errorf("%w: the workspace cannot change existing blocks", domain.ErrUnsupportedAction)
	}
	return ed, nil
}

func (t *turn) edit(ctx context.Context, cmd domain.Command) (string, string, error) {
	ed, err := t.editor()
	if err != nil {
		return "", "", err
	}
	pg, err := t.page(ctx, "page", cmd.PrimaryTarget)
	if err != nil {
		return "", "", err
	}
	rec, err := t.locate(ctx, pg, cmd.OldContent)
	if err != nil {
		return pg.ID, "", err
	}
	text := replaceFold(rec.Text, cmd.OldContent, cmd.NewContent)
	if err := ed.UpdateBlock(ctx, rec.ID, blocks.Synthesize(text, domain.ParseFormat(rec.Type))); err != nil {
		return pg.ID, "", fmt.Errorf("update block in %q: %w", pg.Title, err)
	}
	return pg.ID, fmt.Sprintf("Replaced %s with %s in %q", quoteContent(cmd.OldContent), quoteContent(cmd.NewContent), pg.Title), nil
}

// replaceFold replaces the first occurrence of old, falling back to a
// case-insensitive search.
func replaceFold(s, old, repl string) string {
	if strings.Contains(s, old) {
		return strings.Replace(s, old, repl, 1)
	}
	i := strings.Index(strings.ToLower(s), strings.ToLower(old))
	if i < 0 {
		return s
	}
	return s[:i] + repl + s[i+len(old):]
}

func (t *turn) delete(ctx context.Context, cmd domain.Command) (string, string, error) {
	ed, err := t.editor()
	if err != nil {
		return "", "", err
	}
	pg, err := t.page(ctx, "page", cmd.PrimaryTarget)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(cmd.Content) == "" {
		if err := ed.DeleteBlock(ctx, pg.ID); err != nil {
			return pg.ID, "", fmt.Errorf("delete page %q: %w", pg.Title, err)
		}
		return pg.ID, fmt.Sprintf("Deleted page %q", pg.Title), nil
	}
	rec, err := t.locate(ctx, pg, cmd.Content)
	if err != nil {
		return pg.ID, "", err
	}
	if err := ed.DeleteBlock(ctx, rec.ID); err != nil {
		return pg.ID, "", fmt.Errorf("delete block in %q: %w", pg.Title, err)
	}
	return pg.ID, fmt.Sprintf("Removed %s from %q", quoteContent(rec.Text), pg.Title), nil
}

func (t *turn) move(ctx context.Context, cmd domain.Command) (string, string, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return "", "", fmt.Errorf("%w: only blocks can be moved, not whole pages", domain.ErrUnsupportedAction)
	}
	ed, err := t.editor()
	if err != nil {
		return "", "", err
	}
	src, err := t.page(ctx, "page", cmd.PrimaryTarget)
	if err != nil {
		return "", "", err
	}
	dst, err := t.page(ctx, "page", cmd.SecondaryTarget)
	if err != nil {
		return src.ID, "", err
	}
	rec, err := t.locate(ctx, src, cmd.Content)
	if err != nil {
		return src.ID, "", err
	}
	block := blocks.Synthesize(rec.Text, domain.ParseFormat(rec.Type))
	if _, err := t.ws.AppendChildren(ctx, dst.ID, "", []blocks.ContentBlock{block}); err != nil {
		return src.ID, "", fmt.Errorf("write to %q: %w", dst.Title, err)
	}
	if err := ed.DeleteBlock(ctx, rec.ID); err != nil {
		return src.ID, "", fmt.Errorf("copied to %q but could not remove from %q: %w", dst.Title, src.Title, err)
	}
	return dst.ID, fmt.Sprintf("Moved %s from %q to %q", quoteContent(rec.Text), src.Title, dst.Title), nil
}

func (t *turn) read(ctx context.Context, cmd domain.Command) (string, string, error) {
	pg, err := t.page(ctx, "page", cmd.PrimaryTarget)
	if err != nil {
		return "", "", err
	}
	records, err := t.ws.ListChildren(ctx, pg.ID)
	if err != nil {
		return pg.ID, "", fmt.Errorf("read %q: %w", pg.Title, err)
	}
	return pg.ID, renderPage(pg.Title, records), nil
}

// debug reports how an instruction parses, without executing it.
func (t *turn) debug(ctx context.Context, cmd domain.Command) string {
	if cmd.Content == "" {
		return fmt.Sprintf("Debug: default target %q, model tier %s", t.target, onOff(t.m.interpreter.Parser.Networked()))
	}
	it := t.m.interpreter.Interpret(ctx, t.sessionID, cmd.Content, t.target)
	var b strings.Builder
	fmt.Fprintf(&b, "Debug: parsed by %s tier", it.Tier)
	if it.Split {
		b.WriteString(", split")
	}
	fmt.Fprintf(&b, " into %d command(s):", len(it.Commands))
	for i, c := range it.Commands {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Describe())
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
