package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"ferrule.dev/pkg/ferrule/internal/domain"
	"ferrule.dev/pkg/ferrule/internal/domain/rules"
	m "ferrule.dev/pkg/ferrule/internal/model"
)

const (
	rawFlagName     = "raw"
	explainWordWrap = 80
)

// explainCmd represents the explain command.
var explainCmd = newExplainCmd()

func newExplainCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "explain <rule>",
		Short: "Show the documentation of a rule",
		Long:  "Render the documentation of a rule: what it reports, why, and how to configure it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := m.RuleID(strings.TrimSpace(args[0]))
			if !rules.Known(id) {
				return unknownRuleError(string(id))
			}

			doc, err := rules.Doc(id)
			if err != nil {
				return err
			}

			if raw {
				cmd.Print(doc)
				return nil
			}

			cmd.Print(renderMarkdown(doc))

			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, rawFlagName, false, "print the markdown source without styling")

	return cmd
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func unknownRuleError(id string) error {
	suggestions := domain.Suggest(id, rules.IDStrings(rules.DefaultOrder()))
	if len(suggestions) == 0 {
		return fmt.Errorf("unknown rule %q; run `ferrule rules` for the list", id)
	}

	return fmt.Errorf("unknown rule %q; did you mean %s?", id, strings.Join(suggestions, ", "))
}

// renderMarkdown styles md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(explainWordWrap),
	)
	if err != nil {
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}

	return rendered
}
