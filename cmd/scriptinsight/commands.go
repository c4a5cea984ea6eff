package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"scriptinsight/internal/config"
	"scriptinsight/internal/fetch"
	"scriptinsight/internal/logger"
	"scriptinsight/internal/repository/analysis"
	"scriptinsight/internal/runner"
	"scriptinsight/internal/workers/script"
)

type app struct {
	cfg      *config.Config
	log      hclog.Logger
	logLevel string
	sqlite   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "scriptinsight [command]",
		Short:         "Explain what Apps Script projects do.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			if a.sqlite != "" {
				cfg.Store.SQLitePath = a.sqlite
			}
			a.cfg = cfg
			a.log = logger.New(cfg.LogLevel, "scriptinsight")
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.sqlite, "sqlite", "", "SQLite file for stored analyses")

	root.AddCommand(a.analyzeCmd(), a.listCmd(), a.showCmd())
	return root
}

func (a *app) openStore() (analysis.Store, io.Closer, error) {
	return analysis.Open(a.cfg, a.log.Named("store"))
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		dir     string
		remote  bool
		exclude []string
		out     string
		tuning  string
	)
	cmd := &cobra.Command{
		Use:   "analyze [project-id...]",
		Short: "Analyze projects and store the results",
		Long: `Analyze one or more script projects. Projects are read from --dir (one
sub-directory per project) or, with --remote, from the script content API.
With no ids, every project directory under --dir is analyzed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if dir == "" {
				dir = a.cfg.Fetch.SourceDir
			}
			tun, err := config.LoadTuning(firstNonEmpty(tuning, a.cfg.TuningPath))
			if err != nil {
				return err
			}

			var fetcher fetch.Fetcher
			if remote {
				if len(args) == 0 {
					return fmt.Errorf("--remote needs at least one project id")
				}
				fetcher = fetch.NewRemoteFetcher(a.cfg.Fetch.APIBase, a.cfg.Fetch.Token, a.cfg.Fetch.Timeout)
			} else {
				df := fetch.DirFetcher{Root: dir, Exclude: exclude}
				if len(args) == 0 {
					if args, err = df.Projects(); err != nil {
						return err
					}
				}
				fetcher = df
			}

			store, closer, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			r := &runner.Runner{
				Fetcher:     fetcher,
				Worker:      script.New(tun, a.log.Named("worker")),
				Store:       store,
				Parallelism: a.cfg.Parallelism,
				Log:         a.log.Named("runner"),
			}
			report, runErr := r.Run(ctx, args)

			if out != "" {
				if err := writeResults(cmd.OutOrStdout(), out, report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding one sub-directory per project")
	cmd.Flags().BoolVar(&remote, "remote", false, "fetch projects from the script content API")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob patterns of files to skip")
	cmd.Flags().StringVar(&out, "out", "", "write results as JSON to this file (- for stdout)")
	cmd.Flags().StringVar(&tuning, "tuning", "", "YAML file overriding engine thresholds and vocabularies")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closer, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()
			recs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROJECT\tRUN\tANALYZED\tCOMPLEXITY\tFUNCTIONS\tINVOCATION")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ProjectID, r.RunID, r.AnalyzedAt.Format("2006-01-02 15:04"),
					r.Result.Complexity, len(r.Result.Functions), r.Result.Invocation)
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var brief bool
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Print a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer.Close()
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("show %s: %w", args[0], err)
			}
			if brief {
				fmt.Fprintln(cmd.OutOrStdout(), rec.Result.Summary.Brief)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&brief, "brief", false, "print only the one-sentence summary")
	return cmd
}

func writeResults(stdout io.Writer, path string, report runner.Report) error {
	recs := make([]analysis.Record, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		if o.Record != nil {
			recs = append(recs, *o.Record)
		}
	}
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func printReport(w io.Writer, report runner.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\n", report.RunID)
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\tFAILED\t%v\n", o.ProjectID, o.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ProjectID, o.Record.Result.Complexity, o.Record.Result.Summary.Brief)
	}
	_ = tw.Flush()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
