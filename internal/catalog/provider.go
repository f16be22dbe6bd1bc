package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check.
var _ Provider = (*DirProvider)(nil)

// DirProvider resolves ontology ids against a directory of already-downloaded
// artifacts: <dir>/<id>.owl, or <dir>/<id>-base.owl for pseudo-base variants.
// Downloading itself happens out of process; this provider only locates and
// sizes the files.
type DirProvider struct {
	Dir string

	// SourceBase is prefixed to "<id>.owl" to reconstruct the source URI,
	// e.g. "http://purl.obolibrary.org/obo/". May be empty.
	SourceBase string
}

// Resolve locates the artifact for id, preferring the pseudo-base variant
// when both exist.
func (p *DirProvider) Resolve(_ context.Context, id string) (Ontology, error) {
	basePath := filepath.Join(p.Dir, id+"-base.owl")
	fullPath := filepath.Join(p.Dir, id+".owl")

	path, isBase := basePath, true
	info, err := os.Stat(basePath)
	if err != nil {
		path, isBase = fullPath, false
		info, err = os.Stat(fullPath)
	}
	if err != nil {
		return Ontology{}, fmt.Errorf("no artifact for %q under %s: %w", id, p.Dir, err)
	}

	return Ontology{
		ID:        id,
		SourceURI: p.sourceURI(path),
		LocalPath: path,
		ByteSize:  info.Size(),
		IsBase:    isBase,
	}, nil
}

func (p *DirProvider) sourceURI(path string) string {
	if p.SourceBase == "" {
		return ""
	}
	return strings.TrimSuffix(p.SourceBase, "/") + "/" + filepath.Base(path)
}
