package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/adapter/source/api"
	"github.com/mmcdole/cinelog/internal/catalog"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/lists"
	"github.com/mmcdole/cinelog/internal/logbook"
	"github.com/mmcdole/cinelog/internal/session"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/store"
)

type options struct {
	list    string
	units   string
	asJSON  bool
	verbose bool
	refs    []string
}

func main() {
	var opts options
	flag.StringVar(&opts.list, "list", "", "saved draft list to summarize")
	flag.StringVar(&opts.units, "units", "", "duration units (en, tr); defaults to the config")
	flag.BoolVar(&opts.asJSON, "json", false, "print JSON")
	flag.BoolVar(&opts.verbose, "items", false, "print one row per title")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cinestat [flags] [movie:603 tv:1399 ...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.refs = flag.Args()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		return errors.New("not configured; run cinelog once to set the server URL")
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	localStore, err := store.NewLocalStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer localStore.Close()

	refs, title, err := resolveRefs(opts, lists.NewService(localStore, logger))
	if err != nil {
		return err
	}

	sess := session.FromToken(cfg.Server.Token, time.Now(), logger)
	if sess.Anonymous() {
		fmt.Fprintln(os.Stderr, "note: no session token, every title counts as unwatched")
	}
	client := api.NewClient(cfg.Server.URL, sess, logger,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetry(cfg.Server.Retries, 500*time.Millisecond),
	)
	loader := stats.NewLoader(
		catalog.NewService(client, localStore, logger),
		logbook.NewService(client, sess, logger),
		sess, logger,
	)

	summary, items, err := loader.Stats(ctx, refs)
	if err != nil {
		return err
	}

	lang := opts.units
	if lang == "" {
		lang = cfg.UI.DurationUnits
	}
	units := stats.UnitsFor(lang)

	if opts.asJSON {
		return writeJSON(out, title, summary, items)
	}
	return writeText(out, title, summary, items, units, opts.verbose)
}

// resolveRefs returns the refs to summarize and a label for them
func resolveRefs(opts options, svc *lists.Service) ([]domain.ContentRef, string, error) {
	if opts.list != "" {
		if len(opts.refs) > 0 {
			return nil, "", errors.New("pass either -list or refs, not both")
		}
		list, err := svc.Get(opts.list)
		if err != nil {
			return nil, "", err
		}
		return list.Refs(), list.Name, nil
	}

	if len(opts.refs) == 0 {
		return nil, "", errors.New("no titles given; pass refs like movie:603 or -list name")
	}
	refs := make([]domain.ContentRef, 0, len(opts.refs))
	for _, raw := range opts.refs {
		ref, err := domain.ParseContentRef(raw)
		if err != nil {
			return nil, "", err
		}
		refs = append(refs, ref)
	}
	return refs, fmt.Sprintf("%d titles", len(refs)), nil
}

func writeText(out io.Writer, title string, s domain.ListStats, items []stats.Item, units stats.Units, verbose bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", title)
	fmt.Fprintf(tw, "watched\t%d of %d\t(%d%%)\n", s.WatchedCount, s.TotalCount, s.PercentWatched)
	fmt.Fprintf(tw, "time\t%s of %s\t\n",
		stats.FormatDuration(s.WatchedDurationMinutes, units),
		stats.FormatDuration(s.TotalDurationMinutes, units))

	if verbose {
		fmt.Fprintln(tw)
		for _, it := range items {
			name := it.Ref.Key()
			if it.Detail != nil && it.Detail.Title != "" {
				name = it.Detail.Title
			}
			mark := " "
			if stats.IsFullyWatched(it.Type(), it.Logs) {
				mark = "✓"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d logs\n",
				mark, name, stats.FormatDuration(stats.Duration(it.Type(), it.Detail), units), len(it.Logs))
		}
	}
	return tw.Flush()
}

type jsonItem struct {
	Ref      string `json:"ref"`
	Title    string `json:"title,omitempty"`
	Minutes  int    `json:"minutes"`
	Watched  bool   `json:"watched"`
	LogCount int    `json:"logCount"`
}

func writeJSON(out io.Writer, title string, s domain.ListStats, items []stats.Item) error {
	payload := struct {
		Name                   string     `json:"name"`
		WatchedCount           int        `json:"watchedCount"`
		TotalCount             int        `json:"totalCount"`
		PercentWatched         int        `json:"percentWatched"`
		TotalDurationMinutes   int        `json:"totalDuration"`
		WatchedDurationMinutes int        `json:"watchedDuration"`
		Items                  []jsonItem `json:"items"`
	}{
		Name:                   title,
		WatchedCount:           s.WatchedCount,
		TotalCount:             s.TotalCount,
		PercentWatched:         s.PercentWatched,
		TotalDurationMinutes:   s.TotalDurationMinutes,
		WatchedDurationMinutes: s.WatchedDurationMinutes,
		Items:                  make([]jsonItem, 0, len(items)),
	}
	for _, it := range items {
		ji := jsonItem{
			Ref:      it.Ref.Key(),
			Minutes:  stats.Duration(it.Type(), it.Detail),
			Watched:  stats.IsFullyWatched(it.Type(), it.Logs),
			LogCount: len(it.Logs),
		}
		if it.Detail != nil {
			ji.Title = it.Detail.Title
		}
		payload.Items = append(payload.Items, ji)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
