package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ferrule.dev/pkg/ferrule/internal/domain"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the last analysis run",
		Long:  "View the findings of the last analysis run saved by the analyze command.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, err := newWorkflow(domain.DefaultConfig(), uiFor(cmd))
			if err != nil {
				return err
			}

			reportsPath := m.Path(viper.GetString(outputFlagName))

			return wf.View(cmd.Context(), reportsPath)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
