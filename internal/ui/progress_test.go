package ui

import (
	"strings"
	"testing"

	"gxpc/internal/driver"
	"gxpc/internal/pipeline"
	"gxpc/internal/tree"

	"github.com/mattn/go-runewidth"
)

func TestProgressFollowsUnitsAndStages(t *testing.T) {
	files := []string{"a.gxp.json", "b.gxp.json"}
	m := NewProgressModel("checking", files, nil).(*progressModel)
	name := tree.MustTemplateName("x.A")

	ch := make(chan Event, 8)
	sink := ChannelSink{Ch: ch}
	sink.Unit(driver.UnitEvent{Path: "a.gxp.json", Name: name, Status: driver.UnitStart})
	sink.Phase(pipeline.PhaseEvent{Unit: name, Stage: pipeline.StageEscape, Status: pipeline.PhaseStart})
	sink.Phase(pipeline.PhaseEvent{Unit: name, Stage: pipeline.StageEscape, Status: pipeline.PhaseEnd})
	close(ch)
	for ev := range ch {
		m.applyEvent(ev)
	}
	if got := m.items[0].status; got != "escape" {
		t.Fatalf("status = %q, want escape", got)
	}
	if got, want := m.percent(), progressFromStage(pipeline.StageEscape)/2; got != want {
		t.Fatalf("percent = %v, want %v", got, want)
	}

	m.applyEvent(Event{File: "a.gxp.json", Unit: name, Status: StatusError})
	m.applyEvent(Event{Unit: name, Stage: pipeline.StageValidate, Status: StatusWorking})
	if got := m.items[0].status; got != "error" {
		t.Fatalf("status after late stage = %q, want error", got)
	}
	m.applyEvent(Event{File: "b.gxp.json", Status: StatusCached})
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}
	if view := m.View(); !strings.Contains(view, "[2/2]") || !strings.Contains(view, "cached") {
		t.Fatalf("view = %q", view)
	}
}

func TestChannelSinkMapsOutcome(t *testing.T) {
	tests := []struct {
		ev   driver.UnitEvent
		want Status
	}{
		{driver.UnitEvent{Status: driver.UnitStart}, StatusWorking},
		{driver.UnitEvent{Status: driver.UnitDone}, StatusDone},
		{driver.UnitEvent{Status: driver.UnitDone, Cached: true}, StatusCached},
		{driver.UnitEvent{Status: driver.UnitDone, Cached: true, Errors: 1}, StatusError},
	}
	for _, tt := range tests {
		ch := make(chan Event, 1)
		ChannelSink{Ch: ch}.Unit(tt.ev)
		if got := (<-ch).Status; got != tt.want {
			t.Errorf("%+v -> %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"templates/page.gxp.json", 12, "templates..."},
		{"abcdef", 3, "abc"},
		{"страница.gxp.json", 8, "стран..."},
		{"漢字漢字漢字", 7, "漢字..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if w := runewidth.StringWidth(got); w > tt.width {
			t.Errorf("truncate(%q, %d) is %d columns wide", tt.in, tt.width, w)
		}
	}
}

func TestProgressCountsErrors(t *testing.T) {
	m := NewProgressModel("checking", []string{"a.gxp.json", "b.gxp.json"}, nil).(*progressModel)
	a, b := tree.MustTemplateName("x.A"), tree.MustTemplateName("x.B")

	ch := make(chan Event, 4)
	sink := ChannelSink{Ch: ch}
	sink.Unit(driver.UnitEvent{Path: "a.gxp.json", Name: a, Status: driver.UnitDone, Errors: 3})
	sink.Unit(driver.UnitEvent{Path: "b.gxp.json", Name: b, Status: driver.UnitDone})
	close(ch)
	for ev := range ch {
		m.applyEvent(ev)
	}
	m.done = true

	if got := m.items[0].status; got != "3 errors" {
		t.Fatalf("status = %q", got)
	}
	if got := m.tally(); got != "1 ok, 0 cached, 1 failed" {
		t.Fatalf("tally = %q", got)
	}
	view := m.View()
	if !strings.Contains(view, "(x.A)") || !strings.Contains(view, "1 failed") {
		t.Fatalf("view = %q", view)
	}
}
