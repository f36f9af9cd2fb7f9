package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// display renders a lemma with its article, e.g. "der Hund".
func display(key domain.Key, article *string) string {
	if article == nil || *article == "" {
		return key.Lemma
	}
	return *article + " " + key.Lemma
}

func printCandidates(w io.Writer, candidates []domain.PendingCandidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, "no pending candidates")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "LEMMA\tPOS\tSTATE\tTRANSLATION\tTAGS")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			display(c.Key, c.Article), c.Key.POS, c.State, orDash(c.Translation), strings.Join(c.Tags, ","))
	}
	return tw.Flush()
}

func printEntries(w io.Writer, entries []domain.VocabularyEntry, total int) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "LEMMA\tPOS\tTRANSLATION\tDIFFICULTY\tTAGS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			display(e.Key, e.Article), e.Key.POS, orDash(e.Translation), e.Difficulty, strings.Join(e.TagNames(), ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d entries\n", len(entries), total)
	return err
}

func printEntry(w io.Writer, e *domain.VocabularyEntry) error {
	_, err := fmt.Fprintf(w, "%s [%s] = %s (difficulty %d) tags: %s\n",
		display(e.Key, e.Article), e.Key.POS, orDash(e.Translation), e.Difficulty, strings.Join(e.TagNames(), ","))
	return err
}

func printTags(w io.Writer, tags []domain.Tag) error {
	if len(tags) == 0 {
		_, err := fmt.Fprintln(w, "no tags")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tENTRIES\tDESCRIPTION")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.EntryCount, orDash(t.Description))
	}
	return tw.Flush()
}

func joinKeys(keys []domain.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

func printSummary(w io.Writer, s *domain.BatchSummary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "batch\t%s\n", s.BatchID)
	fmt.Fprintf(tw, "tokens\t%d\n", s.TokensSeen)
	fmt.Fprintf(tw, "new\t%d\n", len(s.New))
	fmt.Fprintf(tw, "known\t%d\n", len(s.Known))
	fmt.Fprintf(tw, "refreshed\t%d\n", len(s.Refreshed))
	fmt.Fprintf(tw, "translated\t%d\n", len(s.Translated))
	fmt.Fprintf(tw, "untranslated\t%d\n", s.FetchFailureCount())
	if len(s.Skipped) > 0 {
		fmt.Fprintf(tw, "skipped\t%s\n", joinKeys(s.Skipped))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s: %s\n", f.Key, f.Kind)
	}
	switch {
	case s.NetworkUnavailable:
		fmt.Fprintln(w, "translation source unreachable; run `harvester retry` when back online")
	case s.Cancelled:
		fmt.Fprintln(w, "batch cancelled; unfinished candidates stay pending")
	}
	return nil
}

func printStats(w io.Writer, s *domain.Stats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "vocabulary\t%d\n", s.Vocabulary)
	fmt.Fprintf(tw, "tags\t%d\n", s.Tags)
	fmt.Fprintf(tw, "pending\t%d\n", s.PendingTotal)
	for _, st := range []domain.CandidateState{
		domain.CandidateStateNew,
		domain.CandidateStateTranslating,
		domain.CandidateStateAwaitingDecision,
	} {
		fmt.Fprintf(tw, "  %s\t%d\n", st, s.Pending[st])
	}
	return tw.Flush()
}
