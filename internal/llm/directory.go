package llm

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Directory discovers which generation-capable models are usable for the
// configured credential. The listing is fetched at most once per Directory:
// concurrent first callers collapse into a single backend call and the result
// is cached for the Directory's lifetime, which should match the credential's.
// Re-querying on every generation wastes quota.
type Directory struct {
	fetch func(ctx context.Context) ([]string, error)

	group  singleflight.Group
	mu     sync.RWMutex
	models []string
}

// NewDirectory creates a Directory backed by the client's capability listing.
func NewDirectory(client *GeminiClient) *Directory {
	return &Directory{fetch: client.listGenerativeModels}
}

// UsableModels returns the usable model identifiers in the order the backend
// reported them. Callers impose their own priority ordering on a copy; the
// cached list itself is never mutated. A failed fetch is not cached, so a
// later call retries discovery. Errors are *CapabilityDiscoveryError and are
// a hard stop for the pipeline, not something to retry locally.
func (d *Directory) UsableModels(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	cached := d.models
	d.mu.RUnlock()
	if cached != nil {
		return append([]string(nil), cached...), nil
	}

	v, err, _ := d.group.Do("models", func() (any, error) {
		models, err := d.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if models == nil {
			// An empty listing is still a listing; cache it.
			models = []string{}
		}
		d.mu.Lock()
		d.models = models
		d.mu.Unlock()
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// Prioritize reorders an available model list by a caller preference:
// preferred names that are actually available come first, in preference
// order, followed by the remaining available models in their original order.
// Preferred names the backend does not offer are dropped, which is how a
// deprecated identifier silently falls out of rotation.
func Prioritize(available, preferred []string) []string {
	seen := make(map[string]bool, len(available))
	for _, m := range available {
		seen[m] = true
	}

	out := make([]string, 0, len(available))
	picked := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		if seen[p] && !picked[p] {
			out = append(out, p)
			picked[p] = true
		}
	}
	for _, m := range available {
		if !picked[m] {
			out = append(out, m)
		}
	}
	return out
}
