package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shieldscan/internal/filter"
	"github.com/dshills/shieldscan/internal/patch"
)

// setupTestRepo creates a temp git repo with one commit and returns it.
func setupTestRepo(t *testing.T) (*Repo, func(args ...string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
			"GIT_CONFIG_GLOBAL=/dev/null",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
		return strings.TrimSpace(string(out))
	}

	run("init", "-q")
	run("checkout", "-q", "-b", "main")

	write(t, dir, "app.py", "token = 'abc'\n")
	write(t, dir, "vendor/lib.py", "x = 1\n")
	write(t, dir, "image.bin", "\x00\x01\x02")

	run("add", "-A")
	run("commit", "-q", "-m", "init")

	repo, err := Open(context.Background(), dir)
	require.NoError(t, err)
	return repo, run
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func paths(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := Open(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestPatch_CommitParsesIntoDocuments(t *testing.T) {
	repo, run := setupTestRepo(t)
	ctx := context.Background()

	write(t, repo.Dir, "app.py", "token = 'def'\n")
	write(t, repo.Dir, "new.py", "secret = 1\n")
	run("add", "-A")
	run("commit", "-q", "-m", "second")

	raw, err := repo.Patch(ctx, "HEAD")
	require.NoError(t, err)

	docs, err := patch.Split("HEAD", raw, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "app.py", docs[0].Filename)
	assert.Equal(t, patch.FileModify, docs[0].Mode)
	assert.Equal(t, "new.py", docs[1].Filename)
	assert.Equal(t, patch.FileNew, docs[1].Mode)
	assert.Contains(t, docs[1].Content, "+secret = 1")

	info := patch.ParseInfo(raw)
	assert.Equal(t, "test", info.Author)
	assert.Equal(t, "test@test.com", info.Email)
}

func TestPatch_Staged(t *testing.T) {
	repo, run := setupTestRepo(t)

	write(t, repo.Dir, "staged.py", "password = 'x'\n")
	run("add", "staged.py")

	raw, err := repo.Patch(context.Background(), "")
	require.NoError(t, err)
	docs, err := patch.Split("", raw, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "staged.py", docs[0].Filename)
	assert.Equal(t, patch.FileNew, docs[0].Mode)
}

func TestListCommits(t *testing.T) {
	repo, run := setupTestRepo(t)
	ctx := context.Background()
	first := run("rev-parse", "HEAD")

	write(t, repo.Dir, "a.py", "a\n")
	run("add", "-A")
	run("commit", "-q", "-m", "second")
	write(t, repo.Dir, "b.py", "b\n")
	run("add", "-A")
	run("commit", "-q", "-m", "third")

	commits, err := repo.ListCommits(ctx, first+"..HEAD", 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "second", commits[0].Subject)
	assert.Equal(t, "third", commits[1].Subject)

	limited, err := repo.ListCommits(ctx, first+"..HEAD", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestParseRevList(t *testing.T) {
	out := "commit aaa\nfirst\ncommit bbb\ncommit ccc\nthird\n"
	commits := parseRevList(out)
	require.Len(t, commits, 3)
	assert.Equal(t, CommitInfo{SHA: "aaa", Subject: "first"}, commits[0])
	assert.Equal(t, CommitInfo{SHA: "bbb"}, commits[1])
	assert.Equal(t, CommitInfo{SHA: "ccc", Subject: "third"}, commits[2])
	assert.Nil(t, parseRevList("  \n"))
}

func TestResolveRef(t *testing.T) {
	repo, run := setupTestRepo(t)
	ctx := context.Background()

	sha, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, run("rev-parse", "HEAD"), sha)

	_, err = repo.ResolveRef(ctx, "no-such-ref")
	assert.Error(t, err)
}

func TestMeta(t *testing.T) {
	repo, run := setupTestRepo(t)
	meta := repo.Meta(context.Background())
	assert.Equal(t, "main", meta.Branch)
	assert.Equal(t, run("rev-parse", "HEAD"), meta.Head)
	assert.Equal(t, repo.Dir, meta.Root)
}

func TestFilesAtRef(t *testing.T) {
	repo, run := setupTestRepo(t)
	ctx := context.Background()
	first := run("rev-parse", "HEAD")

	write(t, repo.Dir, "app.py", "token = 'changed'\n")
	run("commit", "-q", "-am", "change")

	files, err := repo.FilesAtRef(ctx, first, filter.Paths{"vendor/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, paths(files))
	assert.Equal(t, "token = 'abc'\n", string(files[0].Content))

	head, err := repo.FilesAtRef(ctx, "HEAD", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "vendor/lib.py"}, paths(head))
	assert.Equal(t, "token = 'changed'\n", string(head[0].Content))
}

func TestTrackedFiles(t *testing.T) {
	repo, _ := setupTestRepo(t)
	write(t, repo.Dir, "app.py", "token = 'dirty'\n")
	write(t, repo.Dir, "untracked.py", "x\n")

	files, err := repo.TrackedFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "vendor/lib.py"}, paths(files))
	assert.Equal(t, "token = 'dirty'\n", string(files[0].Content))
}

func TestWalkFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.tf", "resource {}\n")
	write(t, dir, "nested/deep/vars.tf", "variable {}\n")
	write(t, dir, "node_modules/x.js", "x\n")
	write(t, dir, ".git/config", "[core]\n")
	write(t, dir, "blob.bin", "a\x00b")
	write(t, dir, "huge.txt", strings.Repeat("a", maxFileBytes+1))

	files, err := WalkFiles(dir, filter.Paths{"node_modules/**"})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(filepath.ToSlash(dir), f.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"main.tf", "nested/deep/vars.tf"}, rel)
}

func TestParseTree(t *testing.T) {
	out := "100644 blob 1111 12\tapp.py\x00" +
		"160000 commit 2222 -\tsubmodule\x00" +
		"100644 blob 3333 7\tdir/with space.py\x00"
	entries, err := parseTree(out)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, treeEntry{object: "1111", size: 12, path: "app.py"}, entries[0])
	assert.Equal(t, "dir/with space.py", entries[1].path)

	_, err = parseTree("garbage\x00")
	assert.Error(t, err)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("plain text")))
	assert.True(t, isBinary([]byte("a\x00b")))
	late := append([]byte(strings.Repeat("a", binarySniffLen)), 0)
	assert.False(t, isBinary(late))
}
