package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ferrule.dev/pkg/ferrule/internal/domain"
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

const (
	formatFlagName = "format"
	formatTable    = "table"
	formatYAML     = "yaml"
)

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available rules",
		Long: `List every rule in dispatch order with its severity and whether the
effective configuration enables it. With --format yaml the effective engine
configuration is printed instead.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadEngineConfig()
			if err != nil {
				return err
			}

			switch format {
			case formatYAML:
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("encode configuration: %w", err)
				}

				_, err = cmd.OutOrStdout().Write(data)

				return err
			case formatTable:
				out, err := renderRulesTable(cfg)
				if err != nil {
					return err
				}

				cmd.Print(out)

				return nil
			}

			return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatYAML)
		},
	}

	cmd.Flags().StringVarP(&format, formatFlagName, "f", formatTable, "output format: table or yaml")

	return cmd
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func renderRulesTable(cfg domain.Config) (string, error) {
	infos, err := rules.Describe(cfg.Rules)
	if err != nil {
		return "", err
	}

	enabled, err := cfg.Enabled()
	if err != nil {
		return "", err
	}

	active := make(map[m.RuleID]bool, len(enabled))
	for _, id := range enabled {
		active[id] = true
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rule", "Severity", "Enabled", "Description"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, info := range infos {
		severity := info.DefaultSeverity
		if common, ok := cfg.Rules.CommonFor(info.ID); ok {
			if resolved, err := common.ResolveSeverity(severity); err == nil {
				severity = resolved
			}
		}

		state := "no"
		if active[info.ID] {
			state = "yes"
		}

		table.Append([]string{string(info.ID), severity.String(), state, info.Description})
	}

	table.Render()

	return tableBuffer.String(), nil
}
