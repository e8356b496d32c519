package ui

import (
	"gxpc/internal/driver"
	"gxpc/internal/pipeline"
	"gxpc/internal/tree"
)

// Status is the state of one unit in the progress view.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusCached
	StatusError
)

// Event moves one unit forward. Stage is empty for unit-level events.
type Event struct {
	File   string
	Unit   tree.TemplateName
	Stage  pipeline.Stage
	Status Status
	// Errors is set on the final event of a failed unit.
	Errors int
}

// ChannelSink forwards driver callbacks into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) send(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// Unit is a driver.UnitObserver.
func (s ChannelSink) Unit(ev driver.UnitEvent) {
	out := Event{File: ev.Path, Unit: ev.Name, Status: StatusWorking}
	if ev.Status == driver.UnitDone {
		switch {
		case ev.Errors > 0:
			out.Status = StatusError
			out.Errors = ev.Errors
		case ev.Cached:
			out.Status = StatusCached
		default:
			out.Status = StatusDone
		}
	}
	s.send(out)
}

// Phase is a pipeline.PhaseObserver.
func (s ChannelSink) Phase(ev pipeline.PhaseEvent) {
	if ev.Status != pipeline.PhaseStart {
		return
	}
	s.send(Event{Unit: ev.Unit, Stage: ev.Stage, Status: StatusWorking})
}
