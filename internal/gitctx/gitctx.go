package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Repo is a git working tree.
type Repo struct {
	Dir string
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// Open returns the repository containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{Dir: dir}
	root, err := r.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	r.Dir = strings.TrimSpace(root)
	return r, nil
}

// Meta collects repository metadata.
func (r *Repo) Meta(ctx context.Context) RepoMeta {
	meta := RepoMeta{Root: r.Dir}
	if head, err := r.output(ctx, "rev-parse", "HEAD"); err == nil {
		meta.Head = strings.TrimSpace(head)
	}
	if branch, err := r.output(ctx, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		meta.Branch = strings.TrimSpace(branch)
	}
	return meta
}

// Patch returns the raw patch of a commit. An empty sha returns the staged
// changes.
func (r *Repo) Patch(ctx context.Context, sha string) (string, error) {
	if sha == "" {
		return r.output(ctx, "diff", "--cached", "--raw", "-z", "--patch")
	}
	return r.output(ctx, "show", sha, "--raw", "-z", "--patch")
}

// ResolveRef returns the commit SHA a ref points to.
func (r *Repo) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := r.output(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("invalid git ref %q: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// ListCommits returns the commits of a revision range, oldest first. max
// limits the result to the most recent commits; zero means no limit.
func (r *Repo) ListCommits(ctx context.Context, revRange string, max int) ([]CommitInfo, error) {
	args := []string{"rev-list", "--reverse", "--format=%s"}
	if max > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", max))
	}
	out, err := r.output(ctx, append(args, revRange)...)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}
	return parseRevList(out), nil
}

// parseRevList parses `rev-list --format=%s` output: a "commit <sha>" line
// followed by the subject, per commit.
func parseRevList(out string) []CommitInfo {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	var commits []CommitInfo
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		sha, ok := strings.CutPrefix(line, "commit ")
		if !ok {
			continue
		}
		var subject string
		if i+1 < len(lines) && !strings.HasPrefix(lines[i+1], "commit ") {
			subject = strings.TrimSpace(lines[i+1])
			i++
		}
		commits = append(commits, CommitInfo{SHA: sha, Subject: subject})
	}
	return commits
}

func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
