package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ferrule.dev/pkg/ferrule/internal/domain"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

// errAnalysisFailed makes the process exit non-zero after the report was shown.
var errAnalysisFailed = errors.New("analysis reported errors")

var analyzeParallelFlag int
var analyzeSelectFlag []string
var analyzeIgnoreFlag []string

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze [paths...]",
		Aliases: []string{"check"},
		Short:   "Analyze Rust sources",
		Long:    analyzeLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger("", viper.GetBool(logVerboseKey))

			cfg, err := loadEngineConfig()
			if err != nil {
				return err
			}

			wf, err := newWorkflow(cfg, uiFor(cmd))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run, err := wf.Analyze(ctx, domain.AnalyzeArgs{
				Paths:    parsePaths(args),
				Exclude:  viper.GetStringSlice(excludeConfigKey),
				Parallel: viper.GetInt(parallelConfigKey),
				Timeout:  viper.GetDuration(timeoutConfigKey),
				Reports:  m.Path(viper.GetString(outputFlagName)),
			})
			if err != nil {
				return err
			}

			if run.Summary.HasErrors() {
				return errAnalysisFailed
			}

			return nil
		},
	}

	configureAnalyzeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func configureAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&analyzeParallelFlag, parallelFlagName, "p", defaultParallel, "number of files analyzed concurrently (0 for unlimited)")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	cmd.Flags().Duration(timeoutFlagName, defaultTimeout, "per-file analysis timeout (0 disables it)")
	bindFlagToConfig(cmd.Flags().Lookup(timeoutFlagName), timeoutConfigKey)

	cmd.Flags().StringSliceVar(&analyzeSelectFlag, selectFlagName, nil, "run only these rules (comma separated)")
	bindFlagToConfig(cmd.Flags().Lookup(selectFlagName), selectConfigKey)

	cmd.Flags().StringSliceVar(&analyzeIgnoreFlag, ignoreFlagName, nil, "disable these rules (comma separated)")
	bindFlagToConfig(cmd.Flags().Lookup(ignoreFlagName), ignoreConfigKey)

	cmd.Flags().Bool(noTUIFlagName, defaultNoTUI, "print plain text output even on a terminal")
	bindFlagToConfig(cmd.Flags().Lookup(noTUIFlagName), noTUIConfigKey)

	cmd.Flags().BoolP(verboseFlagName, "v", defaultLogVerbose, "log debug output to the log file")
	bindFlagToConfig(cmd.Flags().Lookup(verboseFlagName), logVerboseKey)
}
