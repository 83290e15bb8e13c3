package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-newsdesk/internal/app"
	"github.com/samvad-hq/samvad-newsdesk/internal/config"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/logger"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

var errFetchFailed = errors.New("fetch failed")

type options struct {
	mode     string
	country  string
	category string
	query    string
	from     string
	to       string
	language string
	sortBy   string
	pages    int
	pageSize int
	output   string
	export   bool
	saveKey  string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("newsfetch", flag.ContinueOnError)
	fs.StringVar(&o.mode, "mode", "headlines", "headlines or search")
	fs.StringVar(&o.country, "country", "", "headlines country code (default us)")
	fs.StringVar(&o.category, "category", "", "headlines category")
	fs.StringVar(&o.query, "q", "", "search query")
	fs.StringVar(&o.from, "from", "", "search start date YYYY-MM-DD (default 7 days ago)")
	fs.StringVar(&o.to, "to", "", "search end date YYYY-MM-DD (default today)")
	fs.StringVar(&o.language, "language", "", "search language (default en)")
	fs.StringVar(&o.sortBy, "sort", "", "search sort order (default publishedAt)")
	fs.IntVar(&o.pages, "pages", 1, "number of pages to walk")
	fs.IntVar(&o.pageSize, "page-size", 0, "page size (default from config)")
	fs.StringVar(&o.output, "o", "", "write the last page to this file")
	fs.BoolVar(&o.export, "export", false, "send each page to the configured exporters")
	fs.StringVar(&o.saveKey, "save-key", "", "store this NewsAPI key before fetching")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.pages < 1 {
		return options{}, fmt.Errorf("-pages must be >= 1")
	}
	return o, nil
}

func (o options) fetchMode() (domain.FetchMode, error) {
	switch o.mode {
	case "headlines":
		return domain.Headlines{Country: o.country, Category: o.category}, nil
	case "search":
		from, err := newsapi.ParseDate(o.from)
		if err != nil {
			return nil, err
		}
		to, err := newsapi.ParseDate(o.to)
		if err != nil {
			return nil, err
		}
		return domain.Search{Query: o.query, From: from, To: to, Language: o.language, SortBy: o.sortBy}, nil
	default:
		return nil, fmt.Errorf("unknown -mode %q", o.mode)
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "newsfetch: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	mode, err := opts.fetchMode()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.pageSize > 0 {
		cfg.PageSize = opts.pageSize
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	desk, err := app.NewDesk(ctx, cfg, log, app.Options{Output: os.Stdout})
	if err != nil {
		return fmt.Errorf("init desk: %w", err)
	}
	defer desk.Close()

	if opts.saveKey != "" {
		if err := desk.SaveAPIKey(opts.saveKey); err != nil {
			return err
		}
	}

	return fetchPages(ctx, desk, mode, opts)
}

func fetchPages(ctx context.Context, desk *app.Desk, mode domain.FetchMode, opts options) error {
	ctrl := desk.Controller()
	if _, err := ctrl.StartQuery(ctx, mode, desk.PageSize()); err != nil {
		return err
	}

	for page := 1; ; page++ {
		ctrl.Wait()
		snap := desk.Session().Snapshot()
		if snap.State != domain.StateReady {
			return errFetchFailed
		}
		if opts.export {
			if _, err := desk.Export(ctx); err != nil {
				return fmt.Errorf("export page %d: %w", page, err)
			}
		}
		if page >= opts.pages || !ctrl.NextPage(ctx) {
			break
		}
	}

	if opts.output != "" {
		if err := desk.SaveToFile(opts.output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", opts.output)
	}
	return nil
}
