package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/shieldscan/internal/gitctx"
	"github.com/dshills/shieldscan/internal/output"
	"github.com/dshills/shieldscan/internal/reconcile"
	"github.com/dshills/shieldscan/internal/scan"
)

var flagRef string

var scanPrePushCmd = &cobra.Command{
	Use:   "pre-push [remote] [url]",
	Short: "Report secrets added by the pushed commits",
	Long: "Scan the tree of the pushed commit and of the remote commit it replaces, and report the secrets the push adds. " +
		"Ref lines are read from stdin as git passes them to pre-push hooks.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := gitctx.ParsePrePush(cmd.InOrStdin())
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		if len(refs) == 0 {
			if ref, ok := gitctx.PushRefFromEnv(os.Getenv); ok {
				refs = append(refs, ref)
			}
		}
		var push *gitctx.PushRef
		for i := range refs {
			if !refs[i].Deletion() {
				push = &refs[i]
				break
			}
		}
		if push == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to scan: no commits pushed")
			return nil
		}

		env := setup(cmd, "pre-push", push.LocalRef)
		if env == nil {
			return nil
		}
		repo, err := env.repo()
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		current, err := repo.FilesAtRef(env.ctx, push.LocalSHA, env.exclude)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		var baseline []gitctx.File
		if push.Baseline() != "" {
			baseline, err = repo.FilesAtRef(env.ctx, push.Baseline(), env.exclude)
			if err != nil {
				return fail(cmd, ExitRuntimeError, err)
			}
		}
		env.diff(cmd, push.Baseline(), baseline, current)
		return nil
	},
}

var scanDiffCmd = &cobra.Command{
	Use:   "diff --ref <ref>",
	Short: "Report secrets the working tree adds compared to a ref",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env := setup(cmd, "diff", flagRef)
		if env == nil {
			return nil
		}
		repo, err := env.repo()
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		sha, err := repo.ResolveRef(env.ctx, flagRef)
		if err != nil {
			return fail(cmd, ExitUsageError, err)
		}
		baseline, err := repo.FilesAtRef(env.ctx, sha, env.exclude)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		current, err := repo.TrackedFiles(env.ctx, env.exclude)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}
		env.diff(cmd, flagRef, baseline, current)
		return nil
	},
}

// diff scans both states, reconciles them and writes the report. An empty
// baselineRef means there is no baseline.
func (e *scanEnv) diff(cmd *cobra.Command, baselineRef string, baseline, current []gitctx.File) {
	var base *scan.Outcome
	if baselineRef != "" {
		base = e.scanFiles(cmd, baseline, "diff")
	}
	cur := e.scanFiles(cmd, current, "diff")

	report := &output.DiffReport{
		Info:     e.info,
		Baseline: baselineRef,
		Result:   reconcile.Reconcile(base, cur),
		Errors:   cur.Errors,
	}
	if base != nil {
		report.Errors = append(report.Errors, base.Errors...)
	}
	if err := output.WriteDiffReport(report, e.cfg.Format, flagOut); err != nil {
		_ = fail(cmd, ExitRuntimeError, fmt.Errorf("writing output: %w", err))
		return
	}
	exitCode = diffExitCode(report, cur, e.cfg.ExitZero)
}

func diffExitCode(r *output.DiffReport, cur *scan.Outcome, exitZero bool) int {
	switch {
	case r.Result.HasNew() && exitZero:
		return ExitSuccess
	case r.Result.HasNew():
		return ExitFindings
	case cur.AuthFailed():
		return ExitAuthError
	case len(r.Errors) > 0:
		return ExitRuntimeError
	}
	return ExitSuccess
}
