package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
)

func newProcessCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		rawURL string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "process [text...]",
		Short: "Extract new lemmas from text and fetch their translations",
		Example: `  harvester process "Der Hund läuft schnell."
  harvester process -f chapter1.txt
  cat notes.txt | harvester process -f -
  harvester process --url https://www.tagesschau.de/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := processSource(cmd.InOrStdin(), args, file, rawURL)
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var bar *progressBar
			if !quiet {
				bar = newProgressBar(cmd.ErrOrStderr())
				defer bar.stop()
			}

			var summary *domain.BatchSummary
			if rawURL != "" {
				summary, err = a.Harvest.ProcessURL(cmd.Context(), harvest.ProcessURLInput{URL: rawURL, Progress: bar.update})
			} else {
				summary, err = a.Harvest.ProcessText(cmd.Context(), harvest.ProcessInput{Text: text, Progress: bar.update})
			}
			bar.stop()
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read text from a file (- for stdin)")
	cmd.Flags().StringVarP(&rawURL, "url", "u", "", "Fetch and process a web article")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not draw the progress bar")
	cmd.MarkFlagsMutuallyExclusive("file", "url")

	return cmd
}

// processSource resolves exactly one text source out of the positional
// arguments, --file and --url. The URL itself is returned as "" text.
func processSource(stdin io.Reader, args []string, file, rawURL string) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, file != "", rawURL != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return "", errors.New("nothing to process: pass text, --file or --url")
	case sources > 1:
		return "", errors.New("pass only one of text, --file or --url")
	}

	switch {
	case rawURL != "":
		return "", nil
	case file == "-":
		b, err := io.ReadAll(io.LimitReader(stdin, harvest.MaxTextBytes+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return strings.Join(args, " "), nil
}

// progressBar draws fetch progress once the batch size is known. A nil
// *progressBar is a valid no-op.
type progressBar struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	stopped  bool
}

func newProgressBar(w io.Writer) *progressBar {
	p := uiprogress.New()
	p.SetOut(w)
	return &progressBar{progress: p}
}

func (b *progressBar) update(done, total int) {
	if b == nil || total == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.bar == nil {
		b.bar = b.progress.AddBar(total)
		b.bar.PrependFunc(func(*uiprogress.Bar) string { return "translating" })
		b.bar.AppendCompleted()
		b.bar.PrependElapsed()
		b.progress.Start()
	}
	_ = b.bar.Set(done)
}

func (b *progressBar) stop() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	if b.bar != nil {
		b.progress.Stop()
	}
}
