package index

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// Links parses a Markdown document and returns its link destinations in order.
func Links(body []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))
	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			out = append(out, string(link.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return out
}

// Verify reads the index at indexPath and returns the local link targets that do
// not exist. External and fragment-only links are ignored.
func Verify(indexPath string) ([]string, error) {
	body, err := os.ReadFile(indexPath) // #nosec G304 -- configured index location
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIndex, "failed to read index").
			WithContext("path", indexPath).
			Build()
	}

	dir := filepath.Dir(indexPath)
	var missing []string
	for _, dest := range Links(body) {
		if isExternal(dest) {
			continue
		}
		target := dest
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(target))); err != nil {
			slog.Debug("Index link target missing", logfields.Path(dest), logfields.Error(err))
			missing = append(missing, dest)
		}
	}
	return missing, nil
}

func isExternal(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}
