package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/shieldscan/internal/config"
	"github.com/dshills/shieldscan/internal/filter"
)

var flagLastFound bool

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Ignore findings in future scans",
	Long:  "Add the secrets found by the last scan to matches_ignore in " + config.LocalFileName + ".",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagLastFound {
			return fail(cmd, ExitUsageError, errors.New("nothing to ignore: use --last-found"))
		}
		c, err := openCache(cmd)
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		found := c.LastFound()
		matches := make([]filter.IgnoredMatch, 0, len(found))
		for _, s := range found {
			matches = append(matches, filter.IgnoredMatch{Name: s.Name, Match: s.Match})
		}

		local, err := config.ReadFile(config.LocalFileName)
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		added := local.AddIgnoredMatches(matches)
		if err := config.Save(config.LocalFileName, local); err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("saving %s: %w", config.LocalFileName, err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d secret(s) to matches_ignore in %s\n", added, config.LocalFileName)
		return nil
	},
}

func init() {
	ignoreCmd.Flags().BoolVar(&flagLastFound, "last-found", false, "Ignore the secrets found by the last scan")
}
