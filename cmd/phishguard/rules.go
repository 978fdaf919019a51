package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nao1215/phishguard/internal/report"
	"github.com/nao1215/phishguard/internal/threat"
	"github.com/spf13/cobra"
)

// ruleOutput is the JSON form of a rule.
type ruleOutput struct {
	Category string `json:"category"`
	Pattern  string `json:"pattern,omitempty"`
	Weight   int    `json:"weight"`
	Message  string `json:"message"`
	Scope    string `json:"scope"`
}

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the detection rules and their weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			rules := threat.Rules()
			if asJSON {
				out := make([]ruleOutput, len(rules))
				for i, r := range rules {
					out[i] = ruleOutput{
						Category: string(r.Category),
						Pattern:  r.Pattern,
						Weight:   r.Weight,
						Message:  r.Message,
						Scope:    r.Scope.String(),
					}
				}
				_, err := report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Encode(out)
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tPATTERN\tWEIGHT\tSCOPE\tMESSAGE")
			for _, r := range rules {
				pattern := r.Pattern
				if pattern == "" {
					pattern = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%+d\t%s\t%s\n", r.Category, pattern, r.Weight, r.Scope, r.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}
