package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
)

const reviewHelp = `a, accept [tags]    accept (tags replace the proposed ones)
d, discard          discard
s, skip             leave pending
t, translation TEXT set the translation
g, tags [tags]      replace the proposed tags
q, quit             stop reviewing (empty line also quits)`

func newReviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Decide on pending candidates one at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r := &reviewer{
				pending:  a.Harvest,
				decide:   a.Promotion,
				tags:     a.Vocabulary,
				out:      cmd.OutOrStdout(),
				readLine: promptLine,
			}
			return r.run(cmd.Context())
		},
	}
}

type pendingEditor interface {
	ListPending(ctx context.Context) ([]domain.PendingCandidate, error)
	SetTranslation(ctx context.Context, key domain.Key, translation *string) (*domain.PendingCandidate, error)
	SetTags(ctx context.Context, key domain.Key, tags []string) (*domain.PendingCandidate, error)
}

type decider interface {
	Accept(ctx context.Context, in promotion.AcceptInput) (*promotion.AcceptResult, error)
	Discard(ctx context.Context, key domain.Key) error
}

type tagLister interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

// lineReader reads one line of input. The review loop runs on go-prompt
// in a terminal and on scripted input in tests.
type lineReader func(prefix string, complete prompt.Completer, history []string) string

func promptLine(prefix string, complete prompt.Completer, history []string) string {
	return prompt.Input(prefix, complete,
		prompt.OptionTitle("harvester review"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionMaxSuggestion(8),
		prompt.OptionHistory(history),
	)
}

type reviewer struct {
	pending  pendingEditor
	decide   decider
	tags     tagLister
	out      io.Writer
	readLine lineReader

	history  []string
	tagNames []string
}

// reviewStats counts the decisions taken in one session.
type reviewStats struct {
	accepted, discarded, skipped int
}

func (r *reviewer) run(ctx context.Context) error {
	candidates, err := r.pending.ListPending(ctx)
	if err != nil {
		return err
	}
	var ready []domain.PendingCandidate
	for _, c := range candidates {
		if c.State == domain.CandidateStateAwaitingDecision {
			ready = append(ready, c)
		}
	}
	if len(ready) == 0 {
		fmt.Fprintln(r.out, "nothing to review")
		return nil
	}

	if tags, err := r.tags.ListTags(ctx); err == nil {
		for _, t := range tags {
			r.tagNames = append(r.tagNames, t.Name)
		}
	}

	fmt.Fprintf(r.out, "%d candidate(s) to review\n%s\n", len(ready), reviewHelp)

	var stats reviewStats
	defer func() {
		fmt.Fprintf(r.out, "accepted %d, discarded %d, skipped %d\n", stats.accepted, stats.discarded, stats.skipped)
	}()

	for i := range ready {
		quit, err := r.reviewOne(ctx, &ready[i], i+1, len(ready), &stats)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	return nil
}

// reviewOne prompts until a decision moves on from c. Service errors are
// shown and the prompt repeats; only a cancelled ctx ends the session.
func (r *reviewer) reviewOne(ctx context.Context, c *domain.PendingCandidate, n, total int, stats *reviewStats) (quit bool, err error) {
	r.show(c, n, total)

	for {
		if err := ctx.Err(); err != nil {
			return true, err
		}

		line := r.readLine("> ", r.completer(), r.history)
		if strings.TrimSpace(line) != "" {
			r.history = append(r.history, line)
		}

		d, err := parseDecision(line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}

		switch d.action {
		case actionQuit:
			return true, nil
		case actionHelp:
			fmt.Fprintln(r.out, reviewHelp)
		case actionSkip:
			stats.skipped++
			return false, nil
		case actionDiscard:
			if err := r.decide.Discard(ctx, c.Key); err != nil {
				if r.fatal(ctx, err) {
					return true, err
				}
				continue
			}
			stats.discarded++
			fmt.Fprintf(r.out, "discarded %s\n", c.Key)
			return false, nil
		case actionAccept:
			res, err := r.decide.Accept(ctx, promotion.AcceptInput{Key: c.Key, Tags: d.tags})
			if err != nil {
				if r.fatal(ctx, err) {
					return true, err
				}
				continue
			}
			stats.accepted++
			r.rememberTags(d.tags)
			if err := printAccept(r.out, res); err != nil {
				return true, err
			}
			return false, nil
		case actionTranslate:
			updated, err := r.pending.SetTranslation(ctx, c.Key, &d.text)
			if err != nil {
				if r.fatal(ctx, err) {
					return true, err
				}
				continue
			}
			*c = *updated
			r.show(c, n, total)
		case actionTags:
			updated, err := r.pending.SetTags(ctx, c.Key, d.tags)
			if err != nil {
				if r.fatal(ctx, err) {
					return true, err
				}
				continue
			}
			r.rememberTags(d.tags)
			*c = *updated
			r.show(c, n, total)
		}
	}
}

// fatal prints err and reports whether the session must end.
func (r *reviewer) fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}
	fmt.Fprintf(r.out, "error: %v\n", err)
	return false
}

func (r *reviewer) show(c *domain.PendingCandidate, n, total int) {
	fmt.Fprintf(r.out, "\n[%d/%d] %s [%s]\n", n, total, display(c.Key, c.Article), c.Key.POS)
	fmt.Fprintf(r.out, "  translation: %s\n", orDash(c.Translation))
	if len(c.Tags) > 0 {
		fmt.Fprintf(r.out, "  tags: %s\n", strings.Join(c.Tags, ", "))
	}
}

func (r *reviewer) rememberTags(tags []string) {
	for _, t := range tags {
		known := false
		for _, existing := range r.tagNames {
			if existing == t {
				known = true
				break
			}
		}
		if !known {
			r.tagNames = append(r.tagNames, t)
		}
	}
}

var reviewCommands = []prompt.Suggest{
	{Text: "accept", Description: "accept, optionally with tags"},
	{Text: "discard", Description: "drop the candidate"},
	{Text: "skip", Description: "leave it pending"},
	{Text: "translation", Description: "set the translation"},
	{Text: "tags", Description: "replace the proposed tags"},
	{Text: "quit", Description: "stop reviewing"},
}

// completer suggests commands for the first word and known tag names
// after accept or tags.
func (r *reviewer) completer() prompt.Completer {
	return func(in prompt.Document) []prompt.Suggest {
		before := in.TextBeforeCursor()
		fields := strings.Fields(before)
		word := in.GetWordBeforeCursorUntilSeparator(" ,")

		if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(before, " ")) {
			return prompt.FilterHasPrefix(reviewCommands, word, true)
		}

		switch parseAction(fields[0]) {
		case actionAccept, actionTags:
			s := make([]prompt.Suggest, 0, len(r.tagNames))
			for _, name := range r.tagNames {
				s = append(s, prompt.Suggest{Text: name})
			}
			return prompt.FilterHasPrefix(s, word, true)
		}
		return nil
	}
}

type action int

const (
	actionUnknown action = iota
	actionAccept
	actionDiscard
	actionSkip
	actionTranslate
	actionTags
	actionQuit
	actionHelp
)

// decision is one parsed review command.
type decision struct {
	action action
	// tags is nil when accept was given no tags, so the proposed ones stay.
	tags []string
	text string
}

func parseAction(word string) action {
	switch strings.ToLower(word) {
	case "a", "accept":
		return actionAccept
	case "d", "discard":
		return actionDiscard
	case "s", "skip", "n", "next":
		return actionSkip
	case "t", "translation":
		return actionTranslate
	case "g", "tags":
		return actionTags
	case "q", "quit", "exit":
		return actionQuit
	case "?", "h", "help":
		return actionHelp
	}
	return actionUnknown
}

func parseDecision(line string) (decision, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return decision{action: actionQuit}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	d := decision{action: parseAction(word)}
	switch d.action {
	case actionUnknown:
		return decision{}, fmt.Errorf("unknown command %q (? for help)", word)
	case actionAccept:
		if rest != "" {
			d.tags = splitTagWords(rest)
		}
	case actionTags:
		d.tags = splitTagWords(rest)
	case actionTranslate:
		if rest == "" {
			return decision{}, errors.New("translation text required")
		}
		d.text = rest
	}
	return d, nil
}

// splitTagWords accepts tags separated by commas, spaces or both.
func splitTagWords(s string) []string {
	return domain.SplitTagList(strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), ","))
}
