package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ignite/offer-monitor/internal/engine"
)

var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "List the action rule sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, v := range engine.RuleSetVersions() {
			rs, err := engine.RuleSetByVersion(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (compatibility: %s)\n", rs.Version, rs.Compatibility)

			rules := make([]int, 0, len(rs.Texts))
			for r := range rs.Texts {
				rules = append(rules, r)
			}
			sort.Ints(rules)
			for _, r := range rules {
				fmt.Fprintf(out, "  %d. %s\n", r, rs.Texts[r])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
}
