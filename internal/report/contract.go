// Package report handles the artifact side of a run: checking the output
// contracts a movement declares against the report directory, and watching
// that directory for artifacts as agents write them.
//
// Contracts are glob patterns relative to the report directory. A contract
// is satisfied when at least one regular file under the directory matches
// its pattern.
package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/batonhq/baton/internal/errors"
)

// Artifact is one file found under the report directory.
type Artifact struct {
	// Path is the absolute path on disk.
	Path string

	// RelPath is the slash-separated path relative to the report directory.
	// Contracts match against this form.
	RelPath string

	// Size is the file size in bytes.
	Size int64
}

// Read returns the artifact's full contents.
func (a Artifact) Read() (string, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return "", fmt.Errorf("reading report artifact %s: %w", a.RelPath, err)
	}
	return string(data), nil
}

// ContractResult reports which declared output contracts are met.
type ContractResult struct {
	// Satisfied maps each matched pattern to its matching artifacts,
	// sorted by RelPath.
	Satisfied map[string][]Artifact

	// Missing lists the patterns no file matched, in declaration order.
	Missing []string
}

// AllSatisfied returns true when every contract matched at least one file.
func (r *ContractResult) AllSatisfied() bool {
	return len(r.Missing) == 0
}

// AnySatisfied returns true when at least one contract matched.
func (r *ContractResult) AnySatisfied() bool {
	return len(r.Satisfied) > 0
}

// Artifacts returns every matched artifact once, sorted by RelPath.
func (r *ContractResult) Artifacts() []Artifact {
	seen := make(map[string]Artifact)
	for _, arts := range r.Satisfied {
		for _, a := range arts {
			seen[a.RelPath] = a
		}
	}
	out := make([]Artifact, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}

// CheckContracts walks dir and matches every regular file against each glob
// pattern. Patterns use '/' as the separator, so "*" stays within one
// directory level and "**" crosses levels. An unreadable or absent directory
// leaves every contract missing rather than failing the check.
func CheckContracts(dir string, patterns []string) (*ContractResult, error) {
	globs := make([]glob.Glob, len(patterns))
	for i, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.NewValidationError("invalid output contract pattern").
				WithField("pattern").WithValue(pattern).WithCause(err)
		}
		globs[i] = g
	}

	result := &ContractResult{Satisfied: make(map[string][]Artifact)}

	var artifacts []Artifact
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		artifacts = append(artifacts, Artifact{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
		})
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return nil, fmt.Errorf("scanning report directory %s: %w", dir, walkErr)
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].RelPath < artifacts[j].RelPath })

	for i, pattern := range patterns {
		var matched []Artifact
		for _, a := range artifacts {
			if globs[i].Match(a.RelPath) {
				matched = append(matched, a)
			}
		}
		if len(matched) == 0 {
			result.Missing = append(result.Missing, pattern)
			continue
		}
		result.Satisfied[pattern] = matched
	}
	return result, nil
}

// Combined concatenates the given artifacts' contents in order, each under a
// "=== {relpath} ===" header, for feeding into judgment. Unreadable files
// fail the combine; a judgment made on partial artifacts would be silent
// data loss.
func Combined(artifacts []Artifact) (string, error) {
	var b strings.Builder
	for i, a := range artifacts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		content, err := a.Read()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "=== %s ===\n%s", a.RelPath, strings.TrimRight(content, "\n"))
	}
	return b.String(), nil
}
