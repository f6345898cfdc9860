package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/policy"
)

func newPolicyCmd() *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show the active policy table",
		Long: `Policy prints the categories, weights, and thresholds used for scoring.
With -o yaml the full table is printed and can be edited and passed back
through analysis.policy_file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				cfg, err := config.LoadPipeline()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				file = cfg.Analysis.PolicyFile
			}

			p, err := policy.Load(file)
			if err != nil {
				return err
			}

			switch output {
			case "yaml":
				data, err := p.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			case "human":
				displayPolicy(cmd, p)
				return nil
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Policy file to load instead of the configured one")
	cmd.Flags().StringVarP(&output, "output", "o", "human", "Output format (human, yaml)")

	return cmd
}

func displayPolicy(cmd *cobra.Command, p *policy.Policy) {
	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)

	bold.Fprintln(w, "Categories")
	for _, c := range p.Categories {
		fmt.Fprintf(w, "   %-28s %4.2f  %s\n", c.Name, c.Weight, color.HiBlackString(c.Label))
	}

	bold.Fprintln(w, "\nLevels")
	fmt.Fprintf(w, "   %s <= %d < %s <= %d < %s\n",
		color.GreenString("LOW"), p.RiskLevels.LowMax,
		color.YellowString("MEDIUM"), p.RiskLevels.MediumMax,
		color.RedString("HIGH"),
	)

	fmt.Fprintf(w, "\n%s %d lexicon terms, %d allow-listed phrases\n",
		color.HiBlackString("Guards:"), len(p.Lexicon), len(p.AllowList))
}
