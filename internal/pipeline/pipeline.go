// Package pipeline chains the compiler stages in their fixed order:
// bind, collapse, escape, msgextract, validate.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"gxpc/internal/bind"
	"gxpc/internal/collapse"
	"gxpc/internal/diag"
	"gxpc/internal/escape"
	"gxpc/internal/msgextract"
	"gxpc/internal/observ"
	"gxpc/internal/schema"
	"gxpc/internal/servicedir"
	"gxpc/internal/trace"
	"gxpc/internal/tree"
	"gxpc/internal/validate"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageBind     Stage = "bind"
	StageCollapse Stage = "collapse"
	StageEscape   Stage = "escape"
	StageMessages Stage = "msgextract"
	StageValidate Stage = "validate"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageBind, StageCollapse, StageEscape, StageMessages, StageValidate}

// PhaseStatus reports whether a stage started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a stage boundary for one unit.
type PhaseEvent struct {
	Unit    tree.TemplateName
	Stage   Stage
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Compile. It may be
// called from several goroutines when units compile in parallel.
type PhaseObserver func(PhaseEvent)

// Options configures one Compile call.
type Options struct {
	Directory servicedir.Directory
	Registry  *schema.Registry
	// Carried diagnostics are passed into the first stage, e.g. load warnings.
	Carried  diag.Set
	Timer    *observ.Timer
	Observer PhaseObserver
}

// Result is everything downstream code generation needs from one unit.
type Result struct {
	Root        tree.Root
	Diagnostics diag.Set
	// Requirements are the names this unit calls or implements, resolved or
	// not, sorted.
	Requirements []tree.TemplateName
	// Dependencies are the requirements plus every other name binding
	// consulted, sorted. Results stay valid while the directory answers
	// the same for each of them.
	Dependencies []tree.TemplateName
	// Callables are the resolved requirements.
	Callables []*tree.Callable
	Messages  []*msgextract.Message
}

// InternalError is returned when a stage panics on an invariant violation.
type InternalError struct {
	Unit  tree.TemplateName
	Stage Stage
	Value any
	Stack []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s while compiling %s: %v", e.Stage, e.Unit, e.Value)
}

// Compile runs every stage over root. Semantic problems end up in the
// result's diagnostics; the error is non-nil only for an internal error, in
// which case the result holds the input tree and an InternalError
// diagnostic.
func Compile(ctx context.Context, root tree.Root, opts Options) (res *Result, err error) {
	if opts.Directory == nil {
		opts.Directory = servicedir.NewStatic()
	}
	if opts.Registry == nil {
		opts.Registry = schema.Builtin()
	}
	r := &run{ctx: ctx, opts: opts, unit: root.RootName()}
	carried := opts.Carried

	defer func() {
		if v := recover(); v != nil {
			ie := &InternalError{Unit: r.unit, Stage: r.stage, Value: v, Stack: debug.Stack()}
			trace.Note(ctx, trace.ScopeUnit, "internal-error", ie.Error())
			d := diag.NewError(diag.DrvInternalError, root.RootPos(), ie.Error())
			res = &Result{Root: root, Diagnostics: carried.Union(diag.NewSet(d))}
			err = ie
		}
	}()

	var bound *bind.Tree
	r.step(StageBind, func() (tree.Root, diag.Set) {
		bound = bind.Run(root, opts.Directory, opts.Registry, carried)
		return bound.Root, bound.Diagnostics
	}, &root, &carried)

	r.step(StageCollapse, func() (tree.Root, diag.Set) {
		return collapse.Run(root), carried
	}, &root, &carried)

	r.step(StageEscape, func() (tree.Root, diag.Set) {
		return escape.Run(root, carried)
	}, &root, &carried)

	var extracted *msgextract.Tree
	r.step(StageMessages, func() (tree.Root, diag.Set) {
		extracted = msgextract.Run(root, carried)
		return extracted.Root, extracted.Diagnostics
	}, &root, &carried)

	r.step(StageValidate, func() (tree.Root, diag.Set) {
		return validate.Run(root, carried)
	}, &root, &carried)

	return &Result{
		Root:         root,
		Diagnostics:  carried,
		Requirements: bound.RequiredNames(),
		Dependencies: dependencies(bound),
		Callables:    bound.Requirements,
		Messages:     extracted.Messages,
	}, nil
}

func dependencies(t *bind.Tree) []tree.TemplateName {
	out := append(t.RequiredNames(), t.Probed...)
	slices.SortFunc(out, tree.TemplateName.Compare)
	return slices.Compact(out)
}

type run struct {
	ctx   context.Context
	opts  Options
	unit  tree.TemplateName
	stage Stage
}

// step runs one stage inside a phase span and stores its outputs.
func (r *run) step(stage Stage, f func() (tree.Root, diag.Set), root *tree.Root, carried *diag.Set) {
	r.stage = stage
	span, _ := trace.Start(r.ctx, trace.ScopePhase, string(stage))
	stop := r.opts.Timer.Begin(string(stage))
	r.notify(PhaseEvent{Unit: r.unit, Stage: stage, Status: PhaseStart})
	start := time.Now()

	before := carried.Len()
	*root, *carried = f()

	elapsed := time.Since(start)
	stop("")
	r.notify(PhaseEvent{Unit: r.unit, Stage: stage, Status: PhaseEnd, Elapsed: elapsed})
	span.WithExtra("diagnostics", strconv.Itoa(carried.Len()-before)).
		WithExtra("nodes", strconv.Itoa(countNodes(*root))).
		End(r.unit.String())
}

func (r *run) notify(ev PhaseEvent) {
	if r.opts.Observer != nil {
		r.opts.Observer(ev)
	}
}

func countNodes(root tree.Root) int {
	t, ok := root.(*tree.Template)
	if !ok {
		return 0
	}
	n := tree.CountNodes(t.Content)
	for _, p := range t.Params {
		n += tree.CountNodes(p.Default)
	}
	return n
}
