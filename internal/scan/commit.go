package scan

import (
	"context"
	"fmt"

	"github.com/dshills/shieldscan/internal/patch"
)

// PatchSource returns the raw patch of a commit, as produced by
// `git show <sha> --raw -z --patch`. An empty sha means the staged changes.
type PatchSource interface {
	Patch(ctx context.Context, sha string) (string, error)
}

// Commit is the set of files changed by one commit, or by the index when
// SHA is empty. The patch is fetched once, on first use.
type Commit struct {
	SHA string

	src     PatchSource
	exclude patch.Matcher
	patch   *string
	files   *Collection
}

// NewCommit creates a Commit. exclude may be nil.
func NewCommit(sha string, src PatchSource, exclude patch.Matcher) *Commit {
	return &Commit{SHA: sha, src: src, exclude: exclude}
}

// Patch returns the raw patch of the commit.
func (c *Commit) Patch(ctx context.Context) (string, error) {
	if c.patch == nil {
		p, err := c.src.Patch(ctx, c.SHA)
		if err != nil {
			return "", fmt.Errorf("getting patch for %s: %w", c.label(), err)
		}
		c.patch = &p
	}
	return *c.patch, nil
}

// Info returns the author and date of the commit.
func (c *Commit) Info(ctx context.Context) (patch.Info, error) {
	p, err := c.Patch(ctx)
	if err != nil {
		return patch.Info{}, err
	}
	return patch.ParseInfo(p), nil
}

// Files parses the patch into a Collection. Parse failures are returned as
// *patch.ParseError.
func (c *Commit) Files(ctx context.Context) (*Collection, error) {
	if c.files != nil {
		return c.files, nil
	}
	p, err := c.Patch(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := patch.Split(c.SHA, p, c.exclude)
	if err != nil {
		return nil, err
	}
	units := make([]Unit, 0, len(docs))
	for _, d := range docs {
		units = append(units, NewUnit(d.Content, d.Filename, d.Mode))
	}
	c.files = NewCollection(units)
	return c.files, nil
}

func (c *Commit) label() string {
	if c.SHA == "" {
		return "staged changes"
	}
	return "commit " + c.SHA
}

func (c *Commit) String() string {
	return fmt.Sprintf("<Commit sha=%s>", c.SHA)
}
