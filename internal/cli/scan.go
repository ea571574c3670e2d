package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/shieldscan/internal/gitctx"
	"github.com/dshills/shieldscan/internal/patch"
	"github.com/dshills/shieldscan/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for secrets",
	Long:  "Scan commits, staged changes or files for secrets. Use subcommands to specify what to scan.",
}

var scanCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Scan the changes of one commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := setup(cmd, "commit", args[0])
		if env == nil {
			return nil
		}
		repo, err := env.repo()
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		env.finish(cmd, env.scanCommit(cmd, scan.NewCommit(args[0], repo, env.exclude), "commit"))
		return nil
	},
}

var scanRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Scan every commit of a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := setup(cmd, "range", args[0])
		if env == nil {
			return nil
		}
		repo, err := env.repo()
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		commits, err := repo.ListCommits(env.ctx, args[0], env.cfg.MaxCommits)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		env.log.Info("scanning commit range", "range", args[0], "commits", len(commits))

		outcome := &scan.Outcome{}
		for _, ci := range commits {
			outcome.Merge(env.scanCommit(cmd, scan.NewCommit(ci.SHA, repo, env.exclude), "commit_range"))
		}
		env.finish(cmd, outcome)
		return nil
	},
}

var scanPreCommitCmd = &cobra.Command{
	Use:   "pre-commit",
	Short: "Scan staged changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env := setup(cmd, "pre-commit", "")
		if env == nil {
			return nil
		}
		repo, err := env.repo()
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		env.finish(cmd, env.scanCommit(cmd, scan.NewCommit("", repo, env.exclude), "pre_commit"))
		return nil
	},
}

var flagExtensions []string

var scanPathCmd = &cobra.Command{
	Use:   "path <dir>",
	Short: "Scan the files of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		env := setup(cmd, "path", root)
		if env == nil {
			return nil
		}
		files, err := gitctx.WalkFiles(root, env.exclude)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		units := make([]scan.Unit, 0, len(files))
		for _, f := range files {
			units = append(units, scan.NewFileFromBytes(f.Content, f.Path))
		}
		coll, err := scan.NewCollection(units).RelativeTo(root)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		if len(flagExtensions) > 0 {
			coll = coll.WithExtensions(flagExtensions...)
		}
		env.finish(cmd, env.scanCollection(cmd, coll, "path"))
		return nil
	},
}

// scanCommit scans the files of c. A patch that cannot be read or parsed
// becomes an outcome error.
func (e *scanEnv) scanCommit(cmd *cobra.Command, c *scan.Commit, mode string) *scan.Outcome {
	files, err := c.Files(e.ctx)
	if err != nil {
		var perr *patch.ParseError
		if errors.As(err, &perr) {
			e.log.Warn("cannot parse patch", "commit", c.SHA, "error", err)
		} else {
			e.log.Warn("cannot read patch", "commit", c.SHA, "error", err)
		}
		return scan.OutcomeFromError(err)
	}
	if c.SHA != "" {
		if info, err := c.Info(e.ctx); err == nil {
			e.log.Debug("scanning commit", "sha", c.SHA, "author", info.Author, "date", info.Date, "files", files.Len())
		}
	}
	return e.scanCollection(cmd, files, mode)
}

func init() {
	scanCmd.AddCommand(scanCommitCmd)
	scanCmd.AddCommand(scanRangeCmd)
	scanCmd.AddCommand(scanPreCommitCmd)
	scanCmd.AddCommand(scanPathCmd)
	scanCmd.AddCommand(scanPrePushCmd)
	scanCmd.AddCommand(scanDiffCmd)

	for _, cmd := range []*cobra.Command{
		scanCommitCmd,
		scanRangeCmd,
		scanPreCommitCmd,
		scanPathCmd,
		scanPrePushCmd,
		scanDiffCmd,
	} {
		addScanFlags(cmd)
	}

	scanRangeCmd.Flags().IntVar(&flagMaxCommits, "max-commits", 0, "Scan at most this many of the most recent commits")
	scanPathCmd.Flags().StringSliceVar(&flagExtensions, "ext", nil, "Only scan files with these extensions (e.g. .tf,.yaml)")
	scanDiffCmd.Flags().StringVar(&flagRef, "ref", "", "Git ref to compare the working tree against")
	_ = scanDiffCmd.MarkFlagRequired("ref")
}
