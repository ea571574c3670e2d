package gitctx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrePush(t *testing.T) {
	in := "refs/heads/main 67890 refs/heads/main 12345\n\n" +
		"refs/heads/feature abcde refs/heads/feature " + EmptySHA + "\n"

	refs, err := ParsePrePush(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, PushRef{
		LocalRef: "refs/heads/main", LocalSHA: "67890",
		RemoteRef: "refs/heads/main", RemoteSHA: "12345",
	}, refs[0])
	assert.Equal(t, "12345", refs[0].Baseline())
	assert.Equal(t, "", refs[1].Baseline())
}

func TestParsePrePush_Malformed(t *testing.T) {
	_, err := ParsePrePush(strings.NewReader("only two\n"))
	assert.Error(t, err)
}

func TestParsePrePush_Empty(t *testing.T) {
	refs, err := ParsePrePush(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestPushRef_Baseline(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"12345", "12345"},
		{EmptySHA, ""},
		{"abcde~1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, PushRef{RemoteSHA: tt.remote}.Baseline())
		})
	}
}

func TestPushRef_Deletion(t *testing.T) {
	assert.True(t, PushRef{LocalSHA: EmptySHA}.Deletion())
	assert.False(t, PushRef{LocalSHA: "abc"}.Deletion())
}

func TestPushRefFromEnv(t *testing.T) {
	env := map[string]string{
		"PRE_COMMIT_TO_REF":   "HEAD",
		"PRE_COMMIT_FROM_REF": "origin/main",
	}
	ref, ok := PushRefFromEnv(func(k string) string { return env[k] })
	require.True(t, ok)
	assert.Equal(t, "HEAD", ref.LocalSHA)
	assert.Equal(t, "origin/main", ref.Baseline())

	ref, ok = PushRefFromEnv(func(k string) string {
		if k == "PRE_COMMIT_LOCAL_BRANCH" {
			return "feature"
		}
		return ""
	})
	require.True(t, ok)
	assert.Equal(t, "", ref.Baseline())

	_, ok = PushRefFromEnv(func(string) string { return "" })
	assert.False(t, ok)
}
