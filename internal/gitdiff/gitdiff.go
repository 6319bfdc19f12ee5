// Package gitdiff computes the minimal set of files to re-index from the
// working tree's diff against the last committed state.
package gitdiff

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/codelens/internal/domain"
	"github.com/cloo-solutions/codelens/internal/walker"
)

// Change is one file scheduled for re-indexing.
type Change struct {
	Path     string // repository-relative
	AbsPath  string
	Language domain.Language
}

// Detector resolves changed files via git, falling back to a full scan when
// the repository state cannot be read.
type Detector struct {
	root       string
	extensions map[string]domain.Language
}

// NewDetector creates a detector for the repository at root. extensions maps
// file extensions to the languages requested for this run.
func NewDetector(root string, extensions map[string]domain.Language) *Detector {
	return &Detector{root: root, extensions: extensions}
}

// FullScan returns every matching source file under the root and no deletes.
func (d *Detector) FullScan() ([]Change, []string, error) {
	files, err := walker.FindSourceFiles(d.root, d.extensions)
	if err != nil {
		return nil, nil, err
	}
	changes := make([]Change, 0, len(files))
	for _, f := range files {
		changes = append(changes, Change{Path: f.Path, AbsPath: f.AbsPath, Language: f.Language})
	}
	return changes, nil, nil
}

// ChangedSince diffs the working tree against HEAD and returns the files to
// re-index and the paths to purge. Renames purge the old path and index the
// new one; untracked files count as added. On any failure reading git state
// it falls back to a full scan rather than failing the run.
func (d *Detector) ChangedSince() ([]Change, []string, error) {
	diffOut, err := d.git("diff", "--name-status", "-M", "HEAD")
	if err != nil {
		log.Printf("gitdiff: diff failed (%v), falling back to full scan", err)
		return d.FullScan()
	}
	untrackedOut, err := d.git("ls-files", "--others", "--exclude-standard")
	if err != nil {
		log.Printf("gitdiff: ls-files failed (%v), falling back to full scan", err)
		return d.FullScan()
	}

	toIndex, toDelete := ParseNameStatus(diffOut)
	toIndex = append(toIndex, ParseUntracked(untrackedOut)...)

	changes, deletes := d.resolve(toIndex, toDelete)
	return changes, deletes, nil
}

// resolve filters the diffed paths down to indexable changes. Files to index
// must match the run's languages and still exist on disk; deleted paths are
// kept regardless of language so a scoped run still purges every file the
// index may hold.
func (d *Detector) resolve(toIndex, toDelete []string) ([]Change, []string) {
	var changes []Change
	seen := make(map[string]bool)
	for _, rel := range toIndex {
		if seen[rel] || walker.InSkippedDir(rel) {
			continue
		}
		lang, ok := d.extensions[strings.ToLower(filepath.Ext(rel))]
		if !ok {
			continue
		}
		abs := filepath.Join(d.root, filepath.FromSlash(rel))
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		seen[rel] = true
		changes = append(changes, Change{Path: rel, AbsPath: abs, Language: lang})
	}

	var deletes []string
	for _, rel := range toDelete {
		if walker.InSkippedDir(rel) {
			continue
		}
		deletes = append(deletes, rel)
	}

	return changes, deletes
}

func (d *Detector) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", d.root}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ParseNameStatus parses `git diff --name-status -M` output into the paths to
// index and the paths to delete. A rename contributes to both lists: identity
// is path-keyed, so a rename is a delete plus an add, never an in-place move.
func ParseNameStatus(out string) (toIndex, toDelete []string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		switch {
		case strings.HasPrefix(status, "R"):
			if len(fields) >= 3 {
				toDelete = append(toDelete, fields[1])
				toIndex = append(toIndex, fields[2])
			}
		case status == "D":
			toDelete = append(toDelete, fields[1])
		case status == "A" || status == "M" || status == "T":
			toIndex = append(toIndex, fields[1])
		}
	}
	return toIndex, toDelete
}

// ParseUntracked parses `git ls-files --others --exclude-standard` output.
func ParseUntracked(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

// HasRepository reports whether root carries version-control metadata.
func HasRepository(root string) bool {
	info, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil && info.IsDir()
}
