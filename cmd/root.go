// Package cmd provides the root command and CLI setup for ferrule.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ferrule.dev/pkg/ferrule/internal/adapter"
	"ferrule.dev/pkg/ferrule/internal/controller"
	"ferrule.dev/pkg/ferrule/internal/domain"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

var sourceFSAdapter adapter.SourceFSAdapter
var rustFileAdapter adapter.RustFileAdapter
var reportStore adapter.ReportStore

// newWorkflow builds the workflow for a validated engine configuration.
// Commands call it after loading the configuration; tests replace it.
var newWorkflow = buildWorkflow

// reportsPathFlag is a root-level flag shared by commands that read/write reports.
var reportsPathFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	rustFileAdapter = adapter.NewLocalRustFileAdapter()
	reportStore = adapter.NewLocalReportStore()
}

func buildWorkflow(cfg domain.Config, view controller.UI) (domain.Workflow, error) {
	engine, err := domain.NewEngine(cfg, rustFileAdapter)
	if err != nil {
		return nil, err
	}

	return domain.NewWorkflow(sourceFSAdapter, reportStore, view, engine), nil
}

// uiFor returns the UI commands report through: the TUI on an interactive
// terminal unless disabled, plain text otherwise.
func uiFor(cmd *cobra.Command) controller.UI {
	return controller.NewUI(cmd, !viper.GetBool(noTUIConfigKey) && controller.IsTTY(os.Stdout))
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...             recursively scan current directory
  - ./src/...         recursively scan the src directory
  - ./src ./benches   scan multiple directories
  - ./src/lib.rs      analyze a single file`

const rootLongDescription = `Ferrule is a rule-based static analyzer for Rust sources. It parses every
file into a source model, runs a configurable set of rules over it and
reports findings with positions, severities and suggested fixes.

` + pathPatternsHelp

const analyzeLongDescription = `Analyze Rust sources for the given paths (default: current directory).

Files are analyzed concurrently and independently: a file that cannot be
parsed is reported as failed without affecting the others. The command
exits with a non-zero status when any error-severity finding or failed
file is reported.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ferrule",
		Short:        "Static analysis for Rust sources",
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsPathFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"file the last analysis run is saved to and viewed from",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{"./..."}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
