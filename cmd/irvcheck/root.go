package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/DemocracyDevelopers/irvcheck/internal/audit"
	"github.com/DemocracyDevelopers/irvcheck/internal/buildconfig"
	"github.com/DemocracyDevelopers/irvcheck/internal/config"
	"github.com/DemocracyDevelopers/irvcheck/internal/domain"
	"github.com/DemocracyDevelopers/irvcheck/internal/report"
	"github.com/DemocracyDevelopers/irvcheck/internal/service"
	"github.com/DemocracyDevelopers/irvcheck/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// notProvedError makes the process exit 1 without printing an error: the
// report already says which contests failed.
type notProvedError struct {
	contests int
}

func (e *notProvedError) Error() string {
	return fmt.Sprintf("%d contest(s) not proved", e.contests)
}

type verifyOptions struct {
	auditPath    string
	manifestPath string
	format       string
	provedOnly   bool
	timeout      time.Duration
	concurrency  int
	verbose      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "irvcheck",
		Short:         "Check that RAIRE assertions prove the reported winner of IRV contests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = config.Load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newVerifyCmd(), newVersionCmd())
	return root
}

func newVerifyCmd() *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify --audit FILE",
		Short: "Verify every contest in a RAIRE assertion file or audit log",
		Long: `Verify reads a RAIRE assertion file ({"audits": [...]}) or an audit log
({"contests": {...}}) and checks, for each contest, that the assertions rule out
every elimination order in which someone other than the reported winner wins.

Exits with status 1 if any contest is not proved or could not be checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = config.VerifyTimeout()
			}
			if !cmd.Flags().Changed("concurrency") {
				opts.concurrency = config.VerifyConcurrency()
			}
			return runVerify(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.auditPath, "audit", "a", "", "RAIRE assertion file or audit log (JSON)")
	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "Candidate manifest used to print names")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.provedOnly, "proved-only", false, "Only use assertions the audit log marks as proved")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Give up on a contest after this long")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Contests verified at once")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each contest as it is verified")
	_ = cmd.MarkFlagRequired("audit")

	return cmd
}

func runVerify(ctx context.Context, stdout, stderr io.Writer, opts verifyOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.auditPath)
	if err != nil {
		return fmt.Errorf("reading audit file: %w", err)
	}
	f, err := audit.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.auditPath, err)
	}
	if opts.provedOnly && !f.IsLogFile() {
		return fmt.Errorf("--proved-only needs an audit log; %s is a plain assertion file", opts.auditPath)
	}

	var manifest *audit.Manifest
	if opts.manifestPath != "" {
		raw, err := os.ReadFile(opts.manifestPath)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		if manifest, err = audit.ParseManifest(raw); err != nil {
			return fmt.Errorf("%s: %w", opts.manifestPath, err)
		}
	}

	logger := newCLILogger(stderr, opts.verbose)
	defer func() { _ = logger.Sync() }()

	svc := service.NewVerificationService(store.NewInMemoryRunStore(), logger)
	svc.SetTimeout(opts.timeout)
	svc.SetConcurrency(opts.concurrency)
	svc.SetMaxCandidates(config.MaxCandidates())

	results, err := svc.VerifyAudit(ctx, f, opts.provedOnly)
	if err != nil {
		return err
	}
	if err := report.Render(stdout, results, manifest, format); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Run == nil || r.Run.Verdict != domain.VerdictProved {
			failed++
		}
	}
	if failed > 0 {
		return &notProvedError{contests: failed}
	}
	return nil
}

// newCLILogger writes human-readable logs to w, warnings only unless verbose.
func newCLILogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func newVersionCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildconfig.VersionInfo()
			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				if err := enc.Encode(info); err != nil {
					return err
				}
				return enc.Close()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}
