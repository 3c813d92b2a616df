package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/ppiankov/awsfootprint/internal/aws"
	"github.com/ppiankov/awsfootprint/internal/discovery"
	"github.com/ppiankov/awsfootprint/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var discoverFlags struct {
	start       string
	end         string
	region      string
	services    []string
	details     bool
	format      string
	outputFile  string
	granularity string
	timeout     time.Duration
	callTimeout time.Duration
	concurrency int
	noProgress  bool
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Report costs per service and the resources behind them",
	Long: `Query Cost Explorer for per-service costs over a billing period, then inventory
the resources of every billed service that has an analyzer. Services without an
analyzer, or whose analyzer fails, are still listed with a note.

Dates are inclusive and default to the current calendar month.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runDiscover(cmd, args)
		if err != nil {
			_ = report.WriteError(cmd.OutOrStdout(), err)
		}
		return err
	},
}

func init() {
	f := discoverCmd.Flags()
	f.StringVar(&discoverFlags.start, "start", "", "Start date YYYY-MM-DD (default: first day of this month)")
	f.StringVar(&discoverFlags.end, "end", "", "End date YYYY-MM-DD, inclusive (default: last day of this month)")
	f.StringVar(&discoverFlags.region, "region", "", "AWS region for resource inventory")
	f.StringSliceVar(&discoverFlags.services, "services", nil, "Comma-separated service filter (names or aliases such as s3, ec2, rds)")
	f.BoolVar(&discoverFlags.details, "details", false, "Include per-resource details (default: summary only)")
	f.StringVar(&discoverFlags.format, "format", "json", "Output format: json or md")
	f.StringVarP(&discoverFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&discoverFlags.granularity, "granularity", "MONTHLY", "Cost Explorer granularity: MONTHLY or DAILY")
	f.DurationVar(&discoverFlags.timeout, "timeout", 10*time.Minute, "Overall run timeout")
	f.DurationVar(&discoverFlags.callTimeout, "call-timeout", 2*time.Minute, "Timeout for each service analyzer")
	f.IntVar(&discoverFlags.concurrency, "concurrency", 4, "Number of services analyzed in parallel")
	f.BoolVar(&discoverFlags.noProgress, "no-progress", false, "Disable progress output")
	f.SetNormalizeFunc(discoverFlagAliases)
}

// discoverFlagAliases accepts the long-form spellings of some flags.
func discoverFlagAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "resources-details":
		name = "details"
	case "output-format":
		name = "format"
	}
	return pflag.NormalizedName(name)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Apply config file defaults where flags were not explicitly set
	applyConfigDefaults(cmd.Flags())

	format, err := normalizeFormat(discoverFlags.format)
	if err != nil {
		return err
	}
	period, err := resolvePeriod(discoverFlags.start, discoverFlags.end, time.Now().UTC())
	if err != nil {
		return err
	}

	if discoverFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, discoverFlags.timeout)
		defer cancel()
	}

	// Resolve profile from flag or config
	prof := profile
	if prof == "" {
		prof = cfg.Profile
	}

	client, err := aws.NewClient(ctx, prof, discoverFlags.region)
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}
	if client.Config().Region == "" {
		return fmt.Errorf("no region specified; use --region, set region in .awsfootprint.yaml, or set AWS_REGION")
	}

	registry := analyzer.NewRegistry()
	aws.RegisterBuiltins(registry, client.Config(), aws.Options{
		Period: aws.Period{Start: period.Start, End: period.End.AddDate(0, 0, 1)},
	})
	slog.Debug("Registered analyzers", "tokens", registry.Len())

	filter := discovery.NewFilter(cfg.BlacklistOrDefault(), cfg.AliasesOrDefault(), discoverFlags.services)
	pipeline := discovery.NewPipeline(aws.NewCostCollector(client.CostExplorer()), registry, filter, discovery.Options{
		Concurrency: discoverFlags.concurrency,
		CallTimeout: discoverFlags.callTimeout,
		Granularity: strings.ToUpper(discoverFlags.granularity),
	})

	stop := startProgress(pipeline)
	result, err := pipeline.Discover(ctx, period, discoverFlags.details)
	stop()
	if err != nil {
		return enhanceError("query service costs", err)
	}

	if account, err := client.AccountID(ctx); err != nil {
		slog.Warn("Failed to resolve account id", "error", err)
	} else {
		result.Account = account
	}

	reporter, closeOutput, err := selectReporter(format, discoverFlags.outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()
	return reporter.Generate(result)
}

// startProgress shows a spinner on stderr while services are analyzed. It
// returns a func that stops it.
func startProgress(p *discovery.Pipeline) func() {
	if discoverFlags.noProgress || verbose {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Querying Cost Explorer..."
	p.SetProgressFn(func(pr discovery.Progress) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" [%d/%d] %s", pr.Done, pr.Total, pr.Service)
		s.Unlock()
	})
	s.Start()
	return s.Stop
}

func applyConfigDefaults(flags *pflag.FlagSet) {
	if !flags.Changed("region") && cfg.Region != "" {
		discoverFlags.region = cfg.Region
	}
	if !flags.Changed("services") && len(cfg.Services) > 0 {
		discoverFlags.services = cfg.Services
	}
	if !flags.Changed("details") && cfg.Details {
		discoverFlags.details = true
	}
	if !flags.Changed("format") && cfg.Format != "" {
		discoverFlags.format = cfg.Format
	}
	if !flags.Changed("granularity") && cfg.Granularity != "" {
		discoverFlags.granularity = cfg.Granularity
	}
	if !flags.Changed("timeout") && cfg.TimeoutDuration() > 0 {
		discoverFlags.timeout = cfg.TimeoutDuration()
	}
	if !flags.Changed("call-timeout") && cfg.CallTimeoutDuration() > 0 {
		discoverFlags.callTimeout = cfg.CallTimeoutDuration()
	}
	if !flags.Changed("concurrency") && cfg.Concurrency > 0 {
		discoverFlags.concurrency = cfg.Concurrency
	}
}

func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return "json", nil
	case "md", "markdown":
		return "md", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use json or md)", format)
	}
}

func selectReporter(format, outputFile string) (report.Reporter, func(), error) {
	var w io.Writer = os.Stdout
	closeFn := func() {}
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("create output file: %w", err)
		}
		w = f
		closeFn = func() {
			if err := f.Close(); err != nil {
				slog.Warn("Failed to close output file", "path", outputFile, "error", err)
			}
		}
	}

	switch format {
	case "json":
		return &report.JSONReporter{Writer: w}, closeFn, nil
	case "md":
		return &report.MarkdownReporter{Writer: w, Tool: "awsfootprint"}, closeFn, nil
	default:
		closeFn()
		return nil, nil, fmt.Errorf("unsupported format: %s (use json or md)", format)
	}
}
