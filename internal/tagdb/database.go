package tagdb

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ExtractionResult is the extractor's raw output for one module: three
// maps keyed by SymbolKey. Merging two results
// is a union with right-wins conflict resolution.
type ExtractionResult struct {
	TagRules    map[SymbolKey]TagRule
	FilterArity map[SymbolKey]FilterArity
	BlockSpecs  map[SymbolKey]BlockSpec
}

// NewExtractionResult returns an empty result ready to be populated by
// the registration scanner and rule extractor.
func NewExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		TagRules:    make(map[SymbolKey]TagRule),
		FilterArity: make(map[SymbolKey]FilterArity),
		BlockSpecs:  make(map[SymbolKey]BlockSpec),
	}
}

// Merge folds other into r, with other's entries winning any key
// collision.
func (r *ExtractionResult) Merge(other *ExtractionResult) {
	if other == nil {
		return
	}
	for k, v := range other.TagRules {
		r.TagRules[k] = v
	}
	for k, v := range other.FilterArity {
		r.FilterArity[k] = v
	}
	for k, v := range other.BlockSpecs {
		r.BlockSpecs[k] = v
	}
}

// RekeyModule rewrites the module component of every key in r to
// newModule, asserting (by construction, since a map can't hold two equal
// keys) that no duplicate keys result. Calling RekeyModule(x) then
// RekeyModule(y) is equal to calling RekeyModule(y) directly, since the
// module component carries no history.
func (r *ExtractionResult) RekeyModule(newModule string) {
	r.TagRules = rekeyTagRules(r.TagRules, newModule)
	r.FilterArity = rekeyFilterArity(r.FilterArity, newModule)
	r.BlockSpecs = rekeyBlockSpecs(r.BlockSpecs, newModule)
}

func rekeyTagRules(m map[SymbolKey]TagRule, module string) map[SymbolKey]TagRule {
	out := make(map[SymbolKey]TagRule, len(m))
	for k, v := range m {
		k.Module = module
		out[k] = v
	}
	return out
}

func rekeyFilterArity(m map[SymbolKey]FilterArity, module string) map[SymbolKey]FilterArity {
	out := make(map[SymbolKey]FilterArity, len(m))
	for k, v := range m {
		k.Module = module
		out[k] = v
	}
	return out
}

func rekeyBlockSpecs(m map[SymbolKey]BlockSpec, module string) map[SymbolKey]BlockSpec {
	out := make(map[SymbolKey]BlockSpec, len(m))
	for k, v := range m {
		k.Module = module
		out[k] = v
	}
	return out
}

// Database is the live tag-spec database: a map keyed by SymbolKey,
// seeded from the static Django built-ins table and extended (or
// overridden) by extraction results. It is owned by the query
// engine; callers outside internal/query should
// treat it as read-mostly and go through internal/workspace's database
// query rather than constructing their own, except in tests.
type Database struct {
	mu    sync.RWMutex
	specs map[SymbolKey]*TagSpec

	// byName caches name-based lookups: the validator resolves every
	// tag and filter occurrence by name, and the linear scan over
	// specs would otherwise repeat per occurrence.
	byName *lru.Cache[nameKey, []*TagSpec]
}

type nameKey struct {
	name  string
	isTag bool
}

// NewDatabase returns a database seeded with the Django built-ins.
func NewDatabase() *Database {
	cache, err := lru.New[nameKey, []*TagSpec](1024)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	db := &Database{specs: make(map[SymbolKey]*TagSpec), byName: cache}
	for key, block := range builtinBlocks {
		b := block
		db.specs[key] = &TagSpec{Key: key, Block: &b}
	}
	for key, arity := range builtinFilterArities {
		a := arity
		db.specs[key] = &TagSpec{Key: key, FilterArity: &a}
	}
	return db
}

// Lookup returns the spec for key, or nil if unknown.
func (db *Database) Lookup(key SymbolKey) *TagSpec {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.specs[key]
}

// LookupByName finds any tag (or filter) spec with the given name,
// across every module that has registered one. Used when a template's
// {% load %} state says the symbol should be visible but the template
// validator doesn't (and shouldn't) know which module backs it.
func (db *Database) LookupByName(name string, isTag bool) []*TagSpec {
	key := nameKey{name: name, isTag: isTag}
	if cached, ok := db.byName.Get(key); ok {
		return cached
	}
	db.mu.RLock()
	var out []*TagSpec
	for k, v := range db.specs {
		if k.Name == name && k.IsTag == isTag {
			out = append(out, v)
		}
	}
	db.mu.RUnlock()
	db.byName.Add(key, out)
	return out
}

// AllSpecs returns every spec in the database, in no particular order.
// The block balancer uses this to build its closer/intermediate index.
func (db *Database) AllSpecs() []*TagSpec {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*TagSpec, 0, len(db.specs))
	for _, v := range db.specs {
		out = append(out, v)
	}
	return out
}

// MergeExtraction folds an ExtractionResult into the database. When
// extraction discovers a rule for a built-in symbol, the extracted rule replaces the built-in's (empty) rule, but
// the built-in's block structure is NOT overwritten if extraction only
// yields a dynamic (unnamed) end-tag.
func (db *Database) MergeExtraction(res *ExtractionResult) {
	db.byName.Purge()
	db.mu.Lock()
	defer db.mu.Unlock()

	for key, rule := range res.TagRules {
		spec := db.getOrCreateLocked(db.targetKeyLocked(key))
		r := rule
		spec.Rule = &r
	}
	for key, fa := range res.FilterArity {
		spec := db.getOrCreateLocked(db.targetKeyLocked(key))
		f := fa
		spec.FilterArity = &f
	}
	for key, block := range res.BlockSpecs {
		spec := db.getOrCreateLocked(db.targetKeyLocked(key))
		if spec.Block != nil && block.Dynamic && block.EndTag == "" {
			// Keep the built-in's known block structure rather than
			// overwrite it with a weaker dynamic-detection result.
			continue
		}
		b := block
		spec.Block = &b
	}
}

// targetKeyLocked redirects an extracted symbol onto the built-in entry
// of the same name, so extraction from a workspace copy of Django's own
// tag modules replaces the built-ins' empty rules instead of
// registering a parallel symbol gated behind a {% load %}.
func (db *Database) targetKeyLocked(key SymbolKey) SymbolKey {
	for _, mod := range []string{builtinModule, builtinFilterModule} {
		builtin := SymbolKey{Module: mod, Name: key.Name, IsTag: key.IsTag}
		if _, ok := db.specs[builtin]; ok {
			return builtin
		}
	}
	return key
}

func (db *Database) getOrCreateLocked(key SymbolKey) *TagSpec {
	if spec, ok := db.specs[key]; ok {
		return spec
	}
	spec := &TagSpec{Key: key}
	db.specs[key] = spec
	return spec
}
