package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shieldscan/internal/client"
)

func testBreak(secret string) client.PolicyBreak {
	return client.PolicyBreak{
		Type:    "Generic High Entropy Secret",
		Policy:  client.SecretsPolicy,
		Matches: []client.Match{{Match: secret, Type: "apikey"}},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cache_shieldscan")
	pb := testBreak("s3cr3t")

	c := New(true, path, nil)
	c.Purge()
	c.AddFoundPolicyBreak(pb, "x.tf")
	require.NoError(t, c.Save())

	reloaded := New(true, path, nil)
	assert.Equal(t, []FoundSecret{{
		Name:  "Generic High Entropy Secret - x.tf",
		Match: pb.Fingerprint(),
	}}, reloaded.LastFound())
}

func TestCache_PurgeForgetsPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := New(true, path, nil)
	c.AddFoundPolicyBreak(testBreak("old"), "a.txt")
	require.NoError(t, c.Save())

	c = New(true, path, nil)
	require.Len(t, c.LastFound(), 1)
	c.Purge()
	assert.Empty(t, c.LastFound())
	require.NoError(t, c.Save())

	assert.Empty(t, New(true, path, nil).LastFound())
}

func TestCache_Deduplicates(t *testing.T) {
	c := New(true, filepath.Join(t.TempDir(), "c"), nil)
	pb := testBreak("dup")
	c.AddFoundPolicyBreak(pb, "a.txt")
	c.AddFoundPolicyBreak(pb, "a.txt")
	c.AddFoundPolicyBreak(pb, "b.txt")
	assert.Len(t, c.LastFound(), 2)
}

func TestCache_ConcurrentAdds(t *testing.T) {
	c := New(true, filepath.Join(t.TempDir(), "c"), nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AddFoundPolicyBreak(testBreak(string(rune('a'+i%26))), "f.txt")
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.LastFound(), 26)
}

func TestCache_CorruptFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := New(true, path, nil)
	assert.Empty(t, c.LastFound())

	c.AddFoundPolicyBreak(testBreak("x"), "a")
	require.NoError(t, c.Save())
	assert.Len(t, New(true, path, nil).LastFound(), 1)
}

func TestCache_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(true, filepath.Join(dir, "c"), nil)
	c.AddFoundPolicyBreak(testBreak("x"), "a")
	require.NoError(t, c.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Name())
}

func TestCache_SaveErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	c := New(true, filepath.Join(blocker, "cache"), nil)
	c.AddFoundPolicyBreak(testBreak("x"), "a")
	assert.Error(t, c.Save())
}

func TestCache_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c")
	c := New(false, path, nil)

	c.AddFoundPolicyBreak(testBreak("x"), "a")
	require.NoError(t, c.Save())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_ClearAndStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c")
	c := New(true, path, nil)
	c.AddFoundPolicyBreak(testBreak("x"), "a")
	require.NoError(t, c.Save())

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Positive(t, stats.TotalBytes)

	require.NoError(t, c.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, c.LastFound())
}

func TestCache_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New(false, "", nil).Path())
}

func TestCache_RecordsOnlySecrets(t *testing.T) {
	c := New(true, filepath.Join(t.TempDir(), "c"), nil)
	iac := client.PolicyBreak{
		Type:    "Unencrypted bucket",
		Policy:  "Infrastructure as code",
		Matches: []client.Match{{Match: "aws_s3_bucket.logs", Type: "resource"}},
	}

	c.AddFoundPolicyBreak(iac, "main.tf")
	c.AddFoundPolicyBreak(testBreak("s3cr3t"), "main.tf")

	require.Len(t, c.LastFound(), 1)
	assert.Equal(t, "Generic High Entropy Secret - main.tf", c.LastFound()[0].Name)
}
