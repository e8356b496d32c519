package driver

import (
	"time"

	"gxpc/internal/tree"
)

// UnitStatus reports whether a unit started or finished.
type UnitStatus int

const (
	UnitStart UnitStatus = iota
	UnitDone
)

// UnitEvent describes a unit boundary.
type UnitEvent struct {
	Path    string
	Name    tree.TemplateName
	Status  UnitStatus
	Cached  bool
	Errors  int
	Elapsed time.Duration
}

// UnitObserver receives unit events. Units compile in parallel, so it must
// be safe for concurrent use.
type UnitObserver func(UnitEvent)
