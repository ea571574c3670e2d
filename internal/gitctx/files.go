package gitctx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/shieldscan/internal/patch"
)

// maxFileBytes is the size above which files are not collected.
const maxFileBytes = patch.MaxFileSize * 9 / 10

// binarySniffLen is how much of a file is checked for NUL bytes, as git does.
const binarySniffLen = 8000

// File is a tracked text file. Path is slash-separated.
type File struct {
	Path    string
	Content []byte
}

type treeEntry struct {
	object string
	size   int64
	path   string
}

// FilesAtRef returns the text files of the tree at ref. Files matched by
// exclude, binary files and files too large to scan are skipped.
func (r *Repo) FilesAtRef(ctx context.Context, ref string, exclude patch.Matcher) ([]File, error) {
	out, err := r.output(ctx, "ls-tree", "-r", "-l", "-z", ref)
	if err != nil {
		return nil, fmt.Errorf("git ls-tree %s: %w", ref, err)
	}
	entries, err := parseTree(out)
	if err != nil {
		return nil, err
	}
	var keep []treeEntry
	for _, e := range entries {
		if e.size > maxFileBytes || excluded(exclude, e.path) {
			continue
		}
		keep = append(keep, e)
	}
	return r.readBlobs(ctx, keep)
}

// parseTree parses `ls-tree -r -l -z` output. Records are
// "<mode> SP <type> SP <object> SP <size> TAB <path>" separated by NUL.
// Only blobs are returned.
func parseTree(out string) ([]treeEntry, error) {
	var entries []treeEntry
	for _, rec := range strings.Split(out, "\x00") {
		if rec == "" {
			continue
		}
		meta, path, ok := strings.Cut(rec, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed ls-tree record %q", rec)
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed ls-tree record %q", rec)
		}
		if fields[1] != "blob" {
			continue
		}
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ls-tree size for %s: %w", path, err)
		}
		entries = append(entries, treeEntry{object: fields[2], size: size, path: path})
	}
	return entries, nil
}

// readBlobs reads all entries through a single `git cat-file --batch`.
func (r *Repo) readBlobs(ctx context.Context, entries []treeEntry) ([]File, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	var stdin bytes.Buffer
	for _, e := range entries {
		stdin.WriteString(e.object + "\n")
	}
	cmd := exec.CommandContext(ctx, "git", "cat-file", "--batch")
	cmd.Dir = r.Dir
	cmd.Stdin = &stdin
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("git cat-file: %w", err)
	}

	files, readErr := readBatch(bufio.NewReader(stdout), entries)
	if readErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil && readErr == nil {
		readErr = fmt.Errorf("git cat-file: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	return files, nil
}

func readBatch(br *bufio.Reader, entries []treeEntry) ([]File, error) {
	var files []File
	for _, e := range entries {
		header, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.path, err)
		}
		fields := strings.Fields(header)
		if len(fields) != 3 {
			return nil, fmt.Errorf("reading %s: unexpected header %q", e.path, strings.TrimSpace(header))
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.path, err)
		}
		content := make([]byte, size+1)
		if _, err := io.ReadFull(br, content); err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.path, err)
		}
		content = content[:size]
		if isBinary(content) {
			continue
		}
		files = append(files, File{Path: e.path, Content: content})
	}
	return files, nil
}

// TrackedFiles returns the working tree contents of the files tracked by
// git, as they are on disk.
func (r *Repo) TrackedFiles(ctx context.Context, exclude patch.Matcher) ([]File, error) {
	out, err := r.output(ctx, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	var files []File
	for _, path := range strings.Split(out, "\x00") {
		if path == "" || excluded(exclude, path) {
			continue
		}
		f, ok, err := readFile(filepath.Join(r.Dir, filepath.FromSlash(path)), path)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, f)
		}
	}
	return files, nil
}

// WalkFiles returns the text files below root. Paths are root joined with
// the slash-separated relative path; exclude is matched against the
// relative path. The .git directory and symlinks are skipped.
func WalkFiles(root string, exclude patch.Matcher) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" || (rel != "." && excluded(exclude, rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excluded(exclude, rel) {
			return nil
		}
		f, ok, err := readFile(path, filepath.ToSlash(path))
		if err != nil {
			return err
		}
		if ok {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// readFile reads a text file of acceptable size. Missing files, such as
// deletions not yet staged, are skipped.
func readFile(path, name string) (File, bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, err
	}
	if !info.Mode().IsRegular() || info.Size() > maxFileBytes {
		return File{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, false, fmt.Errorf("reading %s: %w", name, err)
	}
	if isBinary(data) {
		return File{}, false, nil
	}
	return File{Path: name, Content: data}, true, nil
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func excluded(m patch.Matcher, path string) bool {
	return m != nil && m.Match(path)
}
