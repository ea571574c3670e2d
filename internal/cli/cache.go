package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/shieldscan/internal/cache"
	"github.com/dshills/shieldscan/internal/config"
	"github.com/dshills/shieldscan/internal/log"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the finding cache",
}

// openCache loads the cache named by the effective config.
func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, err
	}
	logger := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	return cache.New(true, cfg.CachePath, logger.Slog()), nil
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the findings recorded by the last scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		if err := c.Clear(); err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("clearing cache: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache purged: %s\n", c.Path())
		return nil
	},
}

type cacheView struct {
	cache.Stats
	LastFound []string `json:"lastFound"`
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cache file and the findings it records",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		stats, err := c.GetStats()
		if err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("reading cache stats: %w", err))
		}
		view := cacheView{Stats: stats, LastFound: []string{}}
		for _, s := range c.LastFound() {
			view.LastFound = append(view.LastFound, s.Name)
		}
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
