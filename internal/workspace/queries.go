package workspace

import (
	"strings"

	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/extract"
	"github.com/djls-dev/djls/internal/pyast"
	"github.com/djls-dev/djls/internal/query"
	"github.com/djls-dev/djls/internal/tagdb"
	"github.com/djls-dev/djls/internal/template"
	"github.com/djls-dev/djls/internal/tmpllex"
)

// Diagnostics is the accumulator stream the validator emits into and
// the front-ends collect from.
var Diagnostics = query.NewAccumulator[diag.Diagnostic]("diagnostics")

// queries bundles the per-workspace query instances. They close over
// the owning Workspace so the engine can key them while they still
// reach the VFS and module set.
type queries struct {
	sourceText  *query.Query[string, string]
	moduleFacts *query.Query[string, *tagdb.ExtractionResult]
	database    *query.Query[struct{}, *tagdb.Database]
	nodeList    *query.Query[string, []tmpllex.Node]
	validate    *query.Query[string, int]
}

func pathKey(p string) string { return p }
func unitKey(struct{}) string { return "" }

func newQueries(w *Workspace) *queries {
	q := &queries{}

	// source_text reads through the VFS, recording the file's revision
	// as a dependency. An I/O failure is an empty file, not an error:
	// downstream queries then naturally produce no facts and no
	// diagnostics.
	q.sourceText = query.New("source_text", pathKey, "",
		func(ctx *query.Ctx, path string) string {
			ctx.ReadFile(path)
			text, err := w.FS.ReadFile(path)
			if err != nil {
				logger.Tracef("source_text(%s): %v", path, err)
				return ""
			}
			return text
		})

	// module_facts parses one templatetag module and extracts its
	// registrations, rules, block specs, and filter arities, rekeyed to
	// the module's own path. A Python parse failure yields an empty
	// result: a broken third-party module must not poison the analysis
	// of unrelated templates.
	q.moduleFacts = query.New("module_facts", pathKey, tagdb.NewExtractionResult(),
		func(ctx *query.Ctx, path string) *tagdb.ExtractionResult {
			source := query.Get(ctx, q.sourceText, path)
			if strings.TrimSpace(source) == "" {
				return tagdb.NewExtractionResult()
			}
			tree, err := pyast.Parse([]byte(source))
			if err != nil {
				logger.Debugf("module_facts(%s): %v", path, err)
				return tagdb.NewExtractionResult()
			}
			defer tree.Close()
			res := extract.AnalyzeModule(tree.Root(), path)
			res.RekeyModule(path)
			return res
		})

	// database folds every module's facts over the built-ins table. It
	// depends on the synthetic module-set input so that adding or
	// removing a module rebuilds it.
	q.database = query.New("database", unitKey, tagdb.NewDatabase(),
		func(ctx *query.Ctx, _ struct{}) *tagdb.Database {
			ctx.ReadFile(moduleSetPath)
			db := tagdb.NewDatabase()
			for _, mod := range w.Modules() {
				db.MergeExtraction(query.Get(ctx, q.moduleFacts, mod))
			}
			return db
		})

	// node_list tokenizes one template.
	q.nodeList = query.New("node_list", pathKey, []tmpllex.Node(nil),
		func(ctx *query.Ctx, path string) []tmpllex.Node {
			return tmpllex.Tokenize(query.Get(ctx, q.sourceText, path))
		})

	// validate walks one template's node list and emits diagnostics
	// into the accumulator; its return value is the emission count.
	q.validate = query.New("validate", pathKey, 0,
		func(ctx *query.Ctx, path string) int {
			source := query.Get(ctx, q.sourceText, path)
			nodes := query.Get(ctx, q.nodeList, path)
			db := query.Get(ctx, q.database, struct{}{})

			loads := template.CollectLoads(nodes)
			opaque := template.OpaqueRegions(nodes, func(name string) *tagdb.BlockSpec {
				for _, c := range db.LookupByName(name, true) {
					if c.Block != nil {
						return c.Block
					}
				}
				return nil
			}, uint32(len(source)))

			count := 0
			v := &template.Validator{
				DB:     db,
				Loads:  loads,
				Opaque: opaque,
				Emit: func(d diag.Diagnostic) {
					count++
					Diagnostics.Emit(ctx, d)
				},
			}
			v.Validate(nodes)
			return count
		})

	return q
}

// SourceText returns path's content at its current revision.
func (w *Workspace) SourceText(path string) string {
	return query.Run(w.Engine, w.queries.sourceText, path)
}

// NodeList returns path's parsed template nodes.
func (w *Workspace) NodeList(path string) []tmpllex.Node {
	return query.Run(w.Engine, w.queries.nodeList, path)
}

// Database returns the current tag-spec database, rebuilt only when a
// templatetag module or the module set changed.
func (w *Workspace) Database() *tagdb.Database {
	return query.Run(w.Engine, w.queries.database, struct{}{})
}

// ModuleFacts returns the extraction result for one templatetag module.
func (w *Workspace) ModuleFacts(path string) *tagdb.ExtractionResult {
	return query.Run(w.Engine, w.queries.moduleFacts, path)
}

// Diagnose validates one template and returns its accumulated
// diagnostics, memoized against the template's and the database's
// revisions.
func (w *Workspace) Diagnose(path string) []diag.Diagnostic {
	return query.Collect(w.Engine, w.queries.validate, path, Diagnostics)
}

// Loads returns the template's load statements, for completion.
func (w *Workspace) Loads(path string) []template.LoadStatement {
	return template.CollectLoads(w.NodeList(path))
}
