// Package driver checks a set of unit files: it loads them, resolves calls
// between them and runs the compiler pipeline on each unit in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gxpc/internal/diag"
	"gxpc/internal/msgextract"
	"gxpc/internal/observ"
	"gxpc/internal/pipeline"
	"gxpc/internal/schema"
	"gxpc/internal/servicedir"
	"gxpc/internal/source"
	"gxpc/internal/trace"
	"gxpc/internal/tree"
	"gxpc/internal/unitfile"
	"gxpc/internal/version"
)

// Options configures Check.
type Options struct {
	Registry *schema.Registry
	// Policy decides effective severities for Report.Errors.
	Policy diag.Policy
	// Jobs bounds parallel compilation; <= 0 means GOMAXPROCS.
	Jobs  int
	Cache *DiskCache
	// Files receives every unit file read; a fresh set is used when nil.
	Files *source.FileSet
	Timer *observ.Timer
	// Observer sees unit start/finish; PhaseObserver sees every stage.
	Observer      UnitObserver
	PhaseObserver pipeline.PhaseObserver
	// CrashDump receives the trace ring, if any, when a unit hits an
	// internal error.
	CrashDump io.Writer
}

// UnitResult is the outcome for one unit file.
type UnitResult struct {
	Path         string
	Name         tree.TemplateName
	Diagnostics  diag.Set
	Requirements []tree.TemplateName
	Messages     []*msgextract.Message
	Cached       bool
	Internal     *pipeline.InternalError
}

// Report is the outcome of a Check run.
type Report struct {
	// Units are sorted by path. Units that failed to load have no entry.
	Units       []*UnitResult
	Diagnostics diag.Set
	Errors      int
	CacheHits   int
	// Files holds the unit files as read, for source excerpts.
	Files *source.FileSet
}

type loaded struct {
	path string
	file *source.File
	unit *unitfile.Unit
	err  error
}

// Check loads and compiles the units found under paths. Go errors are
// reserved for problems outside the units: unreadable paths, cancellation.
func Check(ctx context.Context, paths []string, opts Options) (*Report, error) {
	if opts.Registry == nil {
		opts.Registry = schema.Builtin()
	}
	if opts.Files == nil {
		opts.Files = source.NewFileSet()
	}
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "check")
	defer span.End("")

	files, err := ListUnits(paths)
	if err != nil {
		return nil, err
	}
	span.WithExtra("units", strconv.Itoa(len(files)))

	stop := opts.Timer.Begin("load")
	units, err := loadAll(ctx, files, opts)
	stop(fmt.Sprintf("%d units", len(files)))
	if err != nil {
		return nil, err
	}

	var driverDiags diag.Builder
	index := make(map[tree.TemplateName]*loaded, len(units))
	order := make([]*loaded, 0, len(units))
	for _, l := range units {
		if l.err != nil {
			driverDiags.Add(loadDiagnostic(l))
			continue
		}
		root := l.unit.Root
		if first, dup := index[root.RootName()]; dup {
			diag.ReportError(&driverDiags, diag.DrvDuplicateUnit, root.RootPos(),
				fmt.Sprintf("%s is already defined", root.RootName())).
				WithNote(first.unit.Root.RootPos(), "first definition is here").
				Emit()
		} else {
			index[root.RootName()] = l
		}
		checkFileName(&driverDiags, l.path, root.RootName(), root.RootPos())
		order = append(order, l)
	}

	dir := servicedir.NewOnDemand(
		func(n tree.TemplateName) (tree.Root, bool) {
			l, ok := index[n]
			if !ok {
				return nil, false
			}
			return l.unit.Root, true
		},
		func() []tree.TemplateName {
			names := make([]tree.TemplateName, 0, len(index))
			for n := range index {
				names = append(names, n)
			}
			return names
		},
	)

	c := &checker{opts: opts, dir: dir, regDigest: registryDigest(opts.Registry)}
	results := make([]*UnitResult, len(order))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(order))))
	for i, l := range order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.compile(gctx, l)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Units: results, CacheHits: int(c.hits.Load()), Files: opts.Files}
	all := driverDiags.Build()
	for _, r := range results {
		all = all.Union(r.Diagnostics)
	}
	report.Diagnostics = all
	report.Errors = diag.CountErrors(opts.Policy, all)
	span.WithExtra("errors", strconv.Itoa(report.Errors)).
		WithExtra("cache_hits", strconv.Itoa(report.CacheHits))
	return report, nil
}

func loadAll(ctx context.Context, files []string, opts Options) ([]*loaded, error) {
	out := make([]*loaded, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l := &loaded{path: path}
			id, err := opts.Files.Load(path)
			if err != nil {
				l.err = err
			} else {
				l.file = opts.Files.Get(id)
				l.unit, l.err = unitfile.Decode(path, l.file.Content, opts.Registry)
			}
			out[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadDiagnostic(l *loaded) diag.Diagnostic {
	var uerr *unitfile.Error
	if errors.As(l.err, &uerr) {
		pos := uerr.Pos
		if !pos.Known() {
			pos = source.Pos{Path: l.path}
		}
		return diag.NewError(diag.DrvUnitSyntax, pos, uerr.Err.Error())
	}
	return diag.NewError(diag.DrvUnitLoad, source.Pos{Path: l.path}, l.err.Error())
}

// checkFileName warns when a unit file is not named after the template it
// defines. Files outside the unit extension are not checked.
func checkFileName(r diag.Reporter, path string, name tree.TemplateName, pos source.Pos) {
	base := filepath.Base(path)
	stem, ok := strings.CutSuffix(base, unitfile.Extension)
	if !ok || strings.EqualFold(stem, name.Base) {
		return
	}
	diag.ReportWarning(r, diag.DrvNameMismatch, pos,
		fmt.Sprintf("%s defines %s; expected it in %s", base, name, name.Base+unitfile.Extension)).
		Emit()
}

type checker struct {
	opts      Options
	dir       servicedir.Directory
	regDigest Digest
	hits      atomic.Int64
}

func (c *checker) key(l *loaded) Digest {
	return Combine(Digest(l.file.Hash), c.regDigest, contentDigest([]byte(version.Version)))
}

func (c *checker) compile(ctx context.Context, l *loaded) *UnitResult {
	root := l.unit.Root
	ctx = trace.WithUnit(ctx, root.RootName().String())
	span, ctx := trace.Start(ctx, trace.ScopeUnit, l.path)
	c.notify(UnitEvent{Path: l.path, Name: root.RootName(), Status: UnitStart})
	start := time.Now()

	res := &UnitResult{Path: l.path, Name: root.RootName()}
	key := c.key(l)
	if c.fromCache(key, res) {
		c.hits.Add(1)
		res.Cached = true
	} else {
		c.run(ctx, l, key, res)
	}

	errs := diag.CountErrors(c.opts.Policy, res.Diagnostics)
	span.WithExtra("cached", strconv.FormatBool(res.Cached)).
		WithExtra("errors", strconv.Itoa(errs)).
		End(root.RootName().String())
	c.notify(UnitEvent{
		Path:    l.path,
		Name:    root.RootName(),
		Status:  UnitDone,
		Cached:  res.Cached,
		Errors:  errs,
		Elapsed: time.Since(start),
	})
	return res
}

func (c *checker) fromCache(key Digest, res *UnitResult) bool {
	if c.opts.Cache == nil {
		return false
	}
	var p DiskPayload
	ok, err := c.opts.Cache.Get(key, &p)
	if err != nil || !ok {
		return false
	}
	reqs, err := parseNames(p.Requirements)
	if err != nil {
		return false
	}
	deps, err := parseNames(p.Dependencies)
	if err != nil {
		return false
	}
	if dependencyDigest(c.dir, deps) != p.DependencyHash {
		return false
	}
	res.Diagnostics = diag.NewSet(p.Diagnostics...)
	res.Requirements = reqs
	res.Messages = p.Messages
	return true
}

func (c *checker) run(ctx context.Context, l *loaded, key Digest, res *UnitResult) {
	out, err := pipeline.Compile(ctx, l.unit.Root, pipeline.Options{
		Directory: c.dir,
		Registry:  c.opts.Registry,
		Timer:     c.opts.Timer,
		Observer:  c.opts.PhaseObserver,
	})
	res.Diagnostics = out.Diagnostics
	res.Requirements = out.Requirements
	res.Messages = out.Messages

	var ie *pipeline.InternalError
	if errors.As(err, &ie) {
		res.Internal = ie
		c.dumpRing(ctx, res.Name.String())
		return
	}

	payload := &DiskPayload{
		Schema:         CacheFormat,
		Name:           res.Name.String(),
		Path:           l.path,
		ContentHash:    key,
		DependencyHash: dependencyDigest(c.dir, out.Dependencies),
		Requirements:   nameStrings(out.Requirements),
		Dependencies:   nameStrings(out.Dependencies),
		Diagnostics:    out.Diagnostics.Items(),
		Messages:       out.Messages,
		Broken:         out.Diagnostics.HasErrors(),
	}
	if err := c.opts.Cache.Put(key, payload); err != nil {
		trace.Note(ctx, trace.ScopeUnit, "cache-error", err.Error())
	}
}

func parseNames(in []string) ([]tree.TemplateName, error) {
	out := make([]tree.TemplateName, 0, len(in))
	for _, s := range in {
		n, err := tree.ParseTemplateName(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func nameStrings(in []tree.TemplateName) []string {
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = n.String()
	}
	return out
}

func (c *checker) dumpRing(ctx context.Context, unit string) {
	if c.opts.CrashDump == nil {
		return
	}
	if ring := trace.RingOf(trace.FromContext(ctx)); ring != nil {
		_ = ring.DumpUnit(c.opts.CrashDump, trace.FormatText, unit)
	}
}

func (c *checker) notify(ev UnitEvent) {
	if c.opts.Observer != nil {
		c.opts.Observer(ev)
	}
}

// Result finds the unit result for path.
func (r *Report) Result(path string) (*UnitResult, bool) {
	i := slices.IndexFunc(r.Units, func(u *UnitResult) bool { return u.Path == path })
	if i < 0 {
		return nil, false
	}
	return r.Units[i], true
}
