package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches files to normalisers by extension.
// When several normalisers claim an extension the highest priority wins;
// equal priorities keep registration order.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string][]driven.Normaliser),
	}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Lookup returns the preferred normaliser for path.
func (r *Registry) Lookup(path string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byExt[strings.ToLower(filepath.Ext(path))]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// Normalise extracts path using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, path string) ([]domain.Document, error) {
	n, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
	return n.Normalise(ctx, path)
}

// SupportedExtensions returns all extensions that can be normalised, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
