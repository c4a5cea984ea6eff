package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/safeio"
)

// UnitOptions tunes LoadUnit.
type UnitOptions struct {
	// Exclude holds glob patterns matched against slash-separated relative paths.
	Exclude []string
	// MaxFileBytes caps how much of each file is read; 0 means unlimited.
	MaxFileBytes int64
}

var skipDirs = map[string]bool{".git": true, "node_modules": true, ".clasp": true, "dist": true, "build": true}

// KindOf classifies a file name by extension; ok is false for files that are
// not part of a script project.
func KindOf(name string) (artifact.FileKind, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".gs", ".js", ".ts":
		return artifact.FileKindCode, true
	case ".html", ".htm":
		return artifact.FileKindMarkup, true
	case ".json":
		return artifact.FileKindConfig, true
	}
	return "", false
}

// LoadUnit walks fsys and returns every recognised file as a SourceUnit named name.
// Files come back in lexical path order.
func LoadUnit(fsys *safeio.SafeFS, name string, opts UnitOptions) (artifact.SourceUnit, error) {
	unit := artifact.SourceUnit{Name: name, Files: []artifact.SourceFile{}}
	if fsys == nil {
		return unit, errors.New("scan: filesystem is nil")
	}
	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pat := range opts.Exclude {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		g, err := glob.Compile(pat, '/')
		if err != nil {
			return unit, fmt.Errorf("scan: bad exclude pattern %q: %w", pat, err)
		}
		excludes = append(excludes, g)
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		for _, g := range excludes {
			if g.Match(p) {
				return nil
			}
		}
		kind, ok := KindOf(p)
		if !ok {
			return nil
		}
		b, err := fsys.ReadFile(p, opts.MaxFileBytes)
		if err != nil && !errors.Is(err, safeio.ErrTruncated) {
			return fmt.Errorf("scan: read %s: %w", p, err)
		}
		unit.Files = append(unit.Files, artifact.SourceFile{Name: p, Kind: kind, Source: string(b)})
		return nil
	})
	if err != nil {
		return unit, err
	}
	return unit, nil
}
