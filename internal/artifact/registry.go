package artifact

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record describes one artifact produced during a session.
type Record struct {
	Name       string    `yaml:"name"`
	Path       string    `yaml:"path"`
	Source     string    `yaml:"source"`
	Identifier string    `yaml:"identifier"`
	Variants   []string  `yaml:"variants,omitempty"`
	BuiltAt    time.Time `yaml:"built_at"`
}

// Registry tracks artifacts built in a session. It is a record of what
// was emitted, never a build cache.
type Registry struct {
	sync.RWMutex
	records  map[string]*Record   // name -> record
	bySource map[string][]*Record // source -> records
	logger   *zap.Logger
}

// NewRegistry creates a new artifact registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		records:  make(map[string]*Record),
		bySource: make(map[string][]*Record),
		logger:   logger.With(zap.String("component", "artifact-registry")),
	}
}

// Register adds or refreshes a record. A rebuild of a known artifact updates
// its timestamp and merges the requested variant.
func (r *Registry) Register(rec Record) {
	r.Lock()
	defer r.Unlock()

	if existing, ok := r.records[rec.Name]; ok {
		existing.Path = rec.Path
		existing.BuiltAt = rec.BuiltAt
		existing.Variants = mergeVariants(existing.Variants, rec.Variants)
		r.logger.Debug("Artifact rebuilt", zap.String("name", rec.Name))
		return
	}

	stored := rec
	stored.Variants = mergeVariants(nil, rec.Variants)
	r.records[rec.Name] = &stored
	r.bySource[rec.Source] = append(r.bySource[rec.Source], &stored)

	r.logger.Info("Artifact registered",
		zap.String("name", rec.Name),
		zap.String("source", rec.Source),
	)
}

// Get retrieves a record by artifact name.
func (r *Registry) Get(name string) (Record, bool) {
	r.RLock()
	defer r.RUnlock()

	rec, ok := r.records[name]
	if !ok {
		return Record{}, false
	}
	return clone(rec), true
}

// LookupBySource finds the artifacts built from a source file.
func (r *Registry) LookupBySource(source string) []Record {
	r.RLock()
	defer r.RUnlock()

	recs := r.bySource[source]
	result := make([]Record, len(recs))
	for i, rec := range recs {
		result[i] = clone(rec)
	}
	return result
}

// List returns all records sorted by name.
func (r *Registry) List() []Record {
	r.RLock()
	defer r.RUnlock()

	result := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		result = append(result, clone(rec))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Unregister removes a record.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	rec, ok := r.records[name]
	if !ok {
		return
	}

	recs := r.bySource[rec.Source]
	for i, other := range recs {
		if other.Name == name {
			r.bySource[rec.Source] = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	if len(r.bySource[rec.Source]) == 0 {
		delete(r.bySource, rec.Source)
	}

	delete(r.records, name)

	r.logger.Info("Artifact unregistered", zap.String("name", name))
}

// Count returns the number of records.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.records)
}

func clone(rec *Record) Record {
	c := *rec
	c.Variants = append([]string(nil), rec.Variants...)
	return c
}

func mergeVariants(have, add []string) []string {
	seen := make(map[string]bool, len(have))
	out := append([]string(nil), have...)
	for _, v := range have {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
