// Package index writes and checks the document that links every copied file.
package index

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/docs"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultTitle is the heading used when none is configured.
const DefaultTitle = "Documentation Index"

// Result summarises a generated index.
type Result struct {
	Path    string
	Entries []string
}

// Generator lists the documentation files of an output tree.
type Generator struct {
	outputRoot string
	indexPath  string
	title      string
	copier     *docs.Copier
}

// NewGenerator returns a generator that scans outputRoot and writes indexPath.
// Links are relative to the directory containing indexPath.
func NewGenerator(outputRoot, indexPath, title string, extensions []string) *Generator {
	if title == "" {
		title = DefaultTitle
	}
	return &Generator{
		outputRoot: outputRoot,
		indexPath:  indexPath,
		title:      title,
		copier:     docs.NewCopier(extensions),
	}
}

// Collect returns the sorted, slash separated link targets for every documentation file.
func (g *Generator) Collect() ([]string, error) {
	indexAbs, err := filepath.Abs(g.indexPath)
	if err != nil {
		return nil, err
	}
	indexDir := filepath.Dir(indexAbs)
	root, err := filepath.Abs(g.outputRoot)
	if err != nil {
		return nil, err
	}

	var entries []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !g.copier.IsDocFile(d.Name()) || p == indexAbs {
			return nil
		}
		rel, err := filepath.Rel(indexDir, p)
		if err != nil {
			return err
		}
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// Render formats the index document.
func (g *Generator) Render(entries []string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", g.title)
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s](%s)\n", escapeText(e), linkTarget(e))
	}
	return b.Bytes()
}

// Generate collects the entries and replaces the index document.
func (g *Generator) Generate() (Result, error) {
	entries, err := g.Collect()
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryIndex, "failed to scan output tree").
			WithContext("root", g.outputRoot).
			Fatal().
			Build()
	}
	if dir := filepath.Dir(g.indexPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return Result{}, errors.FileSystemError("failed to create index directory").WithCause(err).Fatal().Build()
		}
	}
	// #nosec G306 -- the index is a published document
	if err := os.WriteFile(g.indexPath, g.Render(entries), 0o644); err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryIndex, "failed to write index").
			WithContext("path", g.indexPath).
			Fatal().
			Build()
	}
	slog.Info("Index written", logfields.Path(g.indexPath), logfields.Count(len(entries)))
	return Result{Path: g.indexPath, Entries: entries}, nil
}

// linkTarget percent-encodes '%' and '\' so renderers resolve the literal file
// name, and wraps targets with spaces, parentheses or angle brackets in <...>.
func linkTarget(p string) string {
	p = strings.NewReplacer("%", "%25", `\`, "%5C").Replace(p)
	if strings.ContainsAny(p, " ()<>") {
		r := strings.NewReplacer("<", `\<`, ">", `\>`)
		return "<" + r.Replace(p) + ">"
	}
	return p
}

func escapeText(p string) string {
	return strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`).Replace(p)
}
