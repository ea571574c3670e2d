package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// hookCommands maps a git hook to the scan it runs.
var hookCommands = map[string]string{
	"pre-commit": "shieldscan scan pre-commit",
	"pre-push":   `shieldscan scan pre-push "$@"`,
}

func hookMarkers(hookType string) (start, end string) {
	return "# >>> shieldscan " + hookType + " hook >>>", "# <<< shieldscan " + hookType + " hook <<<"
}

var flagHookType string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit and pre-push hooks",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shieldscan as a git hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(flagHookType)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}

		section := generateHookScript(flagHookType)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("reading hook file: %w", err))
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceSection(string(existing), section, flagHookType)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("creating hooks directory: %w", err))
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("writing hook file: %w", err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed shieldscan %s hook at %s\n", flagHookType, hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the shieldscan git hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(flagHookType)
		if err != nil {
			return fail(cmd, ExitRuntimeError, err)
		}

		existing, err := os.ReadFile(hookPath)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s hook found.\n", flagHookType)
			return nil
		}
		if err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("reading hook file: %w", err))
		}

		content := removeSection(string(existing), flagHookType)

		// Only the shebang left: delete the file.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				return fail(cmd, ExitRuntimeError, fmt.Errorf("removing hook file: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed shieldscan %s hook at %s\n", flagHookType, hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			return fail(cmd, ExitRuntimeError, fmt.Errorf("writing hook file: %w", err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed shieldscan section from %s\n", hookPath)
		return nil
	},
}

func getHookPath(hookType string) (string, error) {
	if _, ok := hookCommands[hookType]; !ok {
		return "", fmt.Errorf("unsupported hook type %q: use pre-commit or pre-push", hookType)
	}
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), hookType), nil
}

func generateHookScript(hookType string) string {
	start, end := hookMarkers(hookType)
	var b strings.Builder
	b.WriteString(start + "\n")
	b.WriteString(hookCommands[hookType] + "\n")
	b.WriteString("SHIELDSCAN_EXIT=$?\n")
	b.WriteString("if [ $SHIELDSCAN_EXIT -eq 1 ]; then\n")
	fmt.Fprintf(&b, "  echo \"shieldscan: secrets found, %s blocked\"\n", strings.TrimPrefix(hookType, "pre-"))
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $SHIELDSCAN_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"shieldscan: warning: scan failed (exit $SHIELDSCAN_EXIT), continuing\"\n")
	b.WriteString("fi\n")
	b.WriteString(end + "\n")
	return b.String()
}

func replaceSection(existing, section, hookType string) string {
	start, end := hookMarkers(hookType)
	startIdx := strings.Index(existing, start)
	endIdx := strings.Index(existing, end)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	after := strings.TrimPrefix(existing[endIdx+len(end):], "\n")
	return existing[:startIdx] + section + after
}

func removeSection(existing, hookType string) string {
	start, end := hookMarkers(hookType)
	startIdx := strings.Index(existing, start)
	endIdx := strings.Index(existing, end)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	after := strings.TrimPrefix(existing[endIdx+len(end):], "\n")
	return existing[:startIdx] + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.PersistentFlags().StringVar(&flagHookType, "type", "pre-commit", "Hook to manage (pre-commit, pre-push)")
}
