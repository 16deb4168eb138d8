package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/lawgit/pkg/config"
	"github.com/coolbeans/lawgit/pkg/gitsink"
	"github.com/coolbeans/lawgit/pkg/materialize"
	"github.com/coolbeans/lawgit/pkg/ministers"
	"github.com/coolbeans/lawgit/pkg/pisrs"
	"github.com/coolbeans/lawgit/pkg/types"
)

var version = "0.1.0"

var (
	headline = color.New(color.FgCyan, color.Bold)
	success  = color.New(color.FgGreen, color.Bold)
	warning  = color.New(color.FgYellow)
	failure  = color.New(color.FgRed, color.Bold)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "lawgit",
		Short: "Slovenian law history as git commits",
		Long: `Lawgit fetches the consolidated versions of a Slovenian law from the
PISRS registry and replays them into a git repository: one commit per
version, authored by the minister responsible on the adoption date and
dated on that day.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with PISRS_API_KEY")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	rootCmd.PersistentFlags().String("ministers-file", "data/ministers_combined.json", "Government and minister dataset (JSON or YAML)")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(convertAllCmd())
	rootCmd.AddCommand(ministersCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		failure.Fprintln(os.Stderr, "Error: "+diagnose(err))
		stop()
		os.Exit(1)
	}
}

// diagnose names the failed precondition behind err.
func diagnose(err error) string {
	switch {
	case errors.Is(err, pisrs.ErrMissingAPIKey):
		return fmt.Sprintf("no PISRS API key; set %s or pass --pisrs-api-key (%v)", config.APIKeyEnv, err)
	case errors.Is(err, pisrs.ErrUnauthorized):
		return fmt.Sprintf("PISRS rejected the API key (%v)", err)
	case errors.Is(err, materialize.ErrAccess):
		return fmt.Sprintf("could not validate PISRS access; check --probe-law-id and the network (%v)", err)
	case errors.Is(err, materialize.ErrNoVersions):
		return fmt.Sprintf("law exists but PISRS lists no consolidated versions for it (%v)", err)
	case errors.Is(err, pisrs.ErrNotFound):
		return fmt.Sprintf("law not found in PISRS (%v)", err)
	case errors.Is(err, materialize.ErrNoTimeline):
		return fmt.Sprintf("no processable versions (%v)", err)
	case errors.Is(err, materialize.ErrNothingCommitted):
		return "every version was skipped, nothing was committed"
	case errors.Is(err, materialize.ErrNoLawConverted):
		return "none of the laws could be converted"
	case errors.Is(err, ministers.ErrNotFound):
		return "no minister found for that ministry and date"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return err.Error()
	}
}

// setup loads configuration and builds the logger for a command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.Options{
		Flags:      cmd.Flags(),
		ConfigFile: configFile,
		EnvFile:    envFile,
	})
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a law's version history into a git repository",
		Long: `Convert fetches every consolidated version of a law and commits it to
<output-dir>/<short code>.html, one commit per version in adoption order.

Versions without content or without an identifiable minister are skipped.
The command fails if PISRS access cannot be validated, the law is unknown,
or no version could be committed.

Example:
  lawgit convert --law-id ZAKO4697 --output-dir /tmp/slovenian_laws`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			reportJSON, _ := cmd.Flags().GetBool("report-json")

			client, resolver, err := pipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer logCacheStats(logger, client)

			var repository *gitsink.Repository
			openRepository := func(string) (materialize.CommitSink, error) {
				opened, err := gitsink.Open(cfg.OutputDir, logger)
				if err != nil {
					return nil, err
				}
				repository = opened
				return opened, nil
			}
			converter := materialize.NewConverter(client, resolver, openRepository,
				materialize.Options{EmailDomain: cfg.EmailDomain, Progress: os.Stderr}, logger)

			headline.Printf("Converting %s into %s\n", cfg.LawID, cfg.OutputDir)
			result, convertErr := converter.Convert(cmd.Context(), cfg.LawID)
			if result != nil {
				printSummary(result, repository, reportJSON)
			}
			return convertErr
		},
	}

	cmd.Flags().String("law-id", config.Defaults().LawID, "MOPED identifier of the law")
	cmd.Flags().StringP("output-dir", "o", config.Defaults().OutputDir, "Git repository to write to (created if missing)")
	addPISRSFlags(cmd)
	cmd.Flags().Bool("report-json", false, "Print the per-version report as JSON")

	return cmd
}

func convertAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert-all LAW_ID...",
		Short: "Convert several laws, each into its own repository",
		Long: `Convert-all runs convert for every given law, writing each history to
<output-dir>/law_<id in lower case>. A law that fails is reported and the
batch continues; a failed PISRS access check stops it. The command fails
only if no law could be converted.

Example:
  lawgit convert-all ZAKO4697 ZAKO1111 --output-dir /tmp/slovenian_laws`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client, resolver, err := pipeline(cfg, logger)
			if err != nil {
				return err
			}
			defer logCacheStats(logger, client)

			openRepository := func(lawID string) (materialize.CommitSink, error) {
				repository, err := gitsink.Open(lawRepositoryPath(cfg.OutputDir, lawID), logger)
				if err != nil {
					return nil, err
				}
				return repository, nil
			}
			converter := materialize.NewConverter(client, resolver, openRepository,
				materialize.Options{EmailDomain: cfg.EmailDomain, Progress: os.Stderr}, logger)

			headline.Printf("Converting %d laws into %s\n", len(args), cfg.OutputDir)
			batch, err := converter.ConvertAll(cmd.Context(), args)
			if batch != nil {
				printBatch(batch)
			}
			return err
		},
	}

	cmd.Flags().StringP("output-dir", "o", config.Defaults().OutputDir, "Directory holding one repository per law")
	addPISRSFlags(cmd)

	return cmd
}

// lawRepositoryPath is the repository of lawID inside a batch output
// directory.
func lawRepositoryPath(outputDir, lawID string) string {
	return filepath.Join(outputDir, "law_"+strings.ToLower(lawID))
}

func addPISRSFlags(cmd *cobra.Command) {
	defaults := config.Defaults()
	cmd.Flags().String("pisrs-api-key", "", "PISRS API key (prefer the "+config.APIKeyEnv+" environment variable)")
	cmd.Flags().String("pisrs-base-url", defaults.PISRSBaseURL, "PISRS API root")
	cmd.Flags().String("email-domain", defaults.EmailDomain, "Domain of synthesized author emails")
	cmd.Flags().Duration("request-interval", defaults.RequestInterval, "Minimum interval between PISRS requests")
	cmd.Flags().Duration("request-timeout", defaults.RequestTimeout, "Timeout of one PISRS request")
	cmd.Flags().String("probe-law-id", defaults.ProbeLawID, "Law fetched to validate API access")
}

// pipeline builds the PISRS client and the minister resolver shared by the
// convert commands.
func pipeline(cfg *config.Config, logger *zap.Logger) (*pisrs.Client, *ministers.Resolver, error) {
	registry, err := ministers.LoadRegistry(cfg.MinistersFile, logger)
	if err != nil {
		return nil, nil, err
	}

	clientConfig := pisrs.DefaultConfig()
	clientConfig.BaseURL = cfg.PISRSBaseURL
	clientConfig.APIKey = cfg.PISRSAPIKey
	clientConfig.RateLimit = cfg.RequestInterval
	clientConfig.Timeout = cfg.RequestTimeout
	clientConfig.ProbeLawID = cfg.ProbeLawID
	clientConfig.Logger = logger
	client, err := pisrs.NewClient(clientConfig)
	if err != nil {
		return nil, nil, err
	}
	return client, ministers.NewResolver(registry, logger), nil
}

func logCacheStats(logger *zap.Logger, client *pisrs.Client) {
	stats := client.CacheStats()
	logger.Debug("register cache",
		zap.Int("entries", stats.Entries),
		zap.Int("hits", stats.Hits),
		zap.Int("misses", stats.Misses))
}

func printBatch(batch *materialize.BatchReport) {
	if len(batch.Laws) == 0 {
		return
	}
	fmt.Println()
	fmt.Print(materialize.FormatBatch(batch))
	if batch.Converted == len(batch.Laws) {
		success.Println("All laws converted")
	} else {
		warning.Printf("%d of %d laws not converted\n", len(batch.Laws)-batch.Converted, len(batch.Laws))
	}
}

func printSummary(result *materialize.Result, repository *gitsink.Repository, reportJSON bool) {
	if result.Law != nil {
		fmt.Printf("\n%s (%s)\n", result.Law.Title, result.Law.ShortCode)
	}

	stats := result.Stats
	if stats.Entries > 0 {
		fmt.Printf("Versions: %d from %s to %s, %d amendments, %d ministries\n",
			stats.Entries, stats.First, stats.Last, stats.Amendments, len(stats.Ministries))
	}

	report := result.Report
	if report == nil {
		return
	}
	if reportJSON {
		fmt.Println(materialize.FormatReportJSON(report))
	} else {
		fmt.Print(materialize.FormatReport(report))
	}

	if report.Skipped > 0 {
		var reasons []string
		for reason, count := range report.SkipCounts() {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, count))
		}
		sort.Strings(reasons)
		warning.Printf("%d versions skipped (%s)\n", report.Skipped, strings.Join(reasons, ", "))
	}
	if report.Processed > 0 && repository != nil {
		success.Printf("Committed %d of %d versions to %s\n", report.Processed, report.Attempted, repository.Root())
		if count, err := repository.CommitCount(); err == nil {
			fmt.Printf("Repository now has %d commits\n", count)
		}
	}
}

func ministersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ministers",
		Short: "Query the government and minister dataset",
	}
	cmd.AddCommand(ministersLookupCmd())
	cmd.AddCommand(ministersStatsCmd())
	return cmd
}

func loadResolver(cmd *cobra.Command) (*ministers.Resolver, *zap.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	registry, err := ministers.LoadRegistry(cfg.MinistersFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return ministers.NewResolver(registry, logger), logger, nil
}

func ministersLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find the minister responsible for a ministry on a date",
		Long: `Lookup resolves a ministry name and a date to the officeholder, the
same way convert attributes commits.

Example:
  lawgit ministers lookup --ministry "Ministrstvo za finance" --date 2010-05-15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ministry, _ := cmd.Flags().GetString("ministry")
			rawDate, _ := cmd.Flags().GetString("date")
			date, err := types.ParseDate(rawDate)
			if err != nil {
				return err
			}
			if date.IsZero() {
				return fmt.Errorf("--date is required")
			}

			resolver, logger, err := loadResolver(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			minister, err := resolver.Resolve(ministry, date)
			if err != nil {
				if term, found := resolver.TermAt(date); found {
					warning.Printf("Government %d (%s) has no matching appointment; in office on %s:\n",
						term.Number, term.Period, date)
					for _, appointment := range resolver.ActiveAt(date) {
						fmt.Printf("  %-40s %s\n", appointment.Ministry, appointment.Name)
					}
				}
				return err
			}

			success.Println(minister.Name)
			fmt.Printf("  Ministry:   %s\n", minister.Ministry)
			if minister.Title != "" {
				fmt.Printf("  Title:      %s\n", minister.Title)
			}
			if !minister.Tenure.Start.IsZero() || !minister.Tenure.End.IsZero() {
				fmt.Printf("  Tenure:     %s\n", minister.Tenure)
			}
			fmt.Printf("  Government: %d (%s)\n", minister.Government.Number, minister.Government.Period)
			if minister.Government.PrimeMinister != "" {
				fmt.Printf("  PM:         %s\n", minister.Government.PrimeMinister)
			}
			fmt.Printf("  Email:      %s\n", gitsink.NewIdentity(minister.Name, "").Email)
			fmt.Printf("  Score:      %.2f\n", minister.Score)
			return nil
		},
	}
	cmd.Flags().String("ministry", "", "Ministry name, Slovene or English")
	cmd.Flags().String("date", "", "Date (YYYY-MM-DD or DD.MM.YYYY)")
	_ = cmd.MarkFlagRequired("ministry")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func ministersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dataset statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, logger, err := loadResolver(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			stats := resolver.Stats()
			headline.Println("Minister dataset")
			fmt.Printf("  Governments:           %d\n", stats.Terms)
			fmt.Printf("  Governments with data: %d\n", stats.TermsWithAppointments)
			fmt.Printf("  Appointments:          %d\n", stats.Appointments)
			fmt.Printf("  Undated appointments:  %d\n", stats.UndatedAppointmentCount)
			fmt.Printf("  Unique officeholders:  %d\n", stats.UniqueOfficeholders)
			fmt.Printf("  Appointments per term: %.1f\n", stats.AppointmentsPerTerm)

			fmt.Println()
			for _, term := range resolver.Registry().Terms() {
				fmt.Printf("  %2d  %-25s %-22s %d ministers\n",
					term.Number, term.Period, term.PrimeMinister, len(term.Appointments))
			}
			return nil
		},
	}
}
