package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shieldscan/internal/filter"
	"github.com/dshills/shieldscan/internal/patch"
)

type fakePatchSource struct {
	patches map[string]string
	calls   int
	err     error
}

func (f *fakePatchSource) Patch(_ context.Context, sha string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.patches[sha], nil
}

const samplePatch = "commit abc123\nAuthor: Jane Doe <jane@example.com>\nDate:   Mon Oct 19 10:00:00 2026 +0200\n\n    msg\n\n" +
	":100644 100644 1111111 2222222 M\x00app.py\x00" +
	":000000 100644 0000000 3333333 A\x00vendor/lib.py\x00" +
	"diff --git a/app.py b/app.py\n--- a/app.py\n+++ b/app.py\n@@ -1 +1 @@\n-x = 1\n+x = 2\n" +
	"diff --git a/vendor/lib.py b/vendor/lib.py\nnew file mode 100644\n--- /dev/null\n+++ b/vendor/lib.py\n@@ -0,0 +1 @@\n+y = 1\n"

func TestCommit_FilesAndMemoization(t *testing.T) {
	src := &fakePatchSource{patches: map[string]string{"abc123": samplePatch}}
	c := NewCommit("abc123", src, filter.Paths{"vendor/**"})

	files, err := c.Files(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, files.Len())

	u, ok := files.Get("app.py")
	require.True(t, ok)
	assert.Equal(t, patch.FileModify, u.Mode())
	assert.Equal(t, "@@ -1 +1 @@\n-x = 1\n+x = 2\n", u.Content())

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.Author)

	_, err = c.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "patch is fetched once")
}

func TestCommit_PatchError(t *testing.T) {
	src := &fakePatchSource{err: errors.New("git failed")}
	_, err := NewCommit("abc", src, nil).Files(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit abc")
}

func TestCommit_ParseError(t *testing.T) {
	bad := ":100644 100644 1111111 2222222 Q\x00app.py\x00diff --git a/app.py b/app.py\n@@ -1 +1 @@\n+x\n"
	src := &fakePatchSource{patches: map[string]string{"": bad}}

	_, err := NewCommit("", src, nil).Files(context.Background())
	var perr *patch.ParseError
	require.True(t, errors.As(err, &perr))
}
