package gitctx

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// EmptySHA is the object name git passes for a ref that does not exist.
const EmptySHA = "0000000000000000000000000000000000000000"

// PushRef is one line of pre-push hook input.
type PushRef struct {
	LocalRef  string
	LocalSHA  string
	RemoteRef string
	RemoteSHA string
}

// Deletion reports whether the push deletes the remote ref.
func (p PushRef) Deletion() bool {
	return p.LocalSHA == EmptySHA
}

// Baseline returns the remote commit to compare against, or "" when the
// remote branch does not exist yet.
func (p PushRef) Baseline() string {
	if p.RemoteSHA == EmptySHA || strings.Contains(p.RemoteSHA, "~1") {
		return ""
	}
	return p.RemoteSHA
}

// ParsePrePush reads the "<local ref> <local sha> <remote ref> <remote sha>"
// lines git writes to the standard input of a pre-push hook.
func ParsePrePush(r io.Reader) ([]PushRef, error) {
	var refs []PushRef
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		if len(f) != 4 {
			return nil, fmt.Errorf("malformed pre-push line %q", line)
		}
		refs = append(refs, PushRef{LocalRef: f[0], LocalSHA: f[1], RemoteRef: f[2], RemoteSHA: f[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading pre-push input: %w", err)
	}
	return refs, nil
}

// PushRefFromEnv builds a PushRef from the variables the pre-commit
// framework sets for pre-push hooks. ok is false when they are absent.
func PushRefFromEnv(getenv func(string) string) (PushRef, bool) {
	to := getenv("PRE_COMMIT_TO_REF")
	if to == "" {
		to = getenv("PRE_COMMIT_LOCAL_BRANCH")
	}
	from := getenv("PRE_COMMIT_FROM_REF")
	if from == "" {
		from = getenv("PRE_COMMIT_REMOTE_BRANCH")
	}
	if to == "" {
		return PushRef{}, false
	}
	if from == "" {
		from = EmptySHA
	}
	return PushRef{LocalRef: to, LocalSHA: to, RemoteRef: from, RemoteSHA: from}, true
}
