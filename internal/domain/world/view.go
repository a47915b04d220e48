package world

import "errors"

var ErrSelfMissing = errors.New("own piece not found on board")

// MapView decides how authoritative boards and probe results become the
// remembered map. FullView trusts every board; FogView only remembers what
// was observed.
type MapView interface {
	Partial() bool
	Initial(board Map, ours Side) (Map, Fix, error)
	MergeBoard(memory, incoming Map, ours Side, fix Fix) (Map, Fix)
	MergeProbe(memory Map, probe Probe, ours Side, fix Fix) Fix
}

// NewMapView picks the view for the configured visibility.
func NewMapView(fogOfWar bool) MapView {
	if fogOfWar {
		return FogView{}
	}
	return FullView{}
}

type FullView struct{}

func (FullView) Partial() bool { return false }

func (FullView) Initial(board Map, ours Side) (Map, Fix, error) {
	self, ok := board.Find(ours)
	if !ok {
		return Map{}, Fix{}, ErrSelfMissing
	}
	fix := Fix{Self: self}
	fix.Opponent, fix.Sighted = board.Find(ours.Other())
	return board.Clone(), fix, nil
}

// MergeBoard replaces memory wholesale and relocates both pieces.
func (FullView) MergeBoard(_, incoming Map, ours Side, fix Fix) (Map, Fix) {
	if p, ok := locate(incoming, ours, fix.Self, true); ok {
		fix.Self = p
	}
	fix.Opponent, fix.Sighted = locate(incoming, ours.Other(), fix.Opponent, fix.Sighted)
	return incoming.Clone(), fix
}

// MergeProbe is a no-op: the next board carries everything a probe could.
func (FullView) MergeProbe(_ Map, _ Probe, _ Side, fix Fix) Fix { return fix }

type FogView struct{}

func (FogView) Partial() bool { return true }

// Initial starts from a blank memory holding only the pieces seen on the
// join board.
func (FogView) Initial(board Map, ours Side) (Map, Fix, error) {
	self, ok := board.Find(ours)
	if !ok {
		return Map{}, Fix{}, ErrSelfMissing
	}
	memory := NewMap(board.Width(), board.Height())
	putMarker(memory, ours, self)
	fix := Fix{Self: self}
	if opp, ok := board.Find(ours.Other()); ok {
		putMarker(memory, ours.Other(), opp)
		fix.Opponent, fix.Sighted = opp, true
	}
	return memory, fix, nil
}

// MergeBoard only moves the two piece markers; everything else in memory
// stays as last observed.
func (FogView) MergeBoard(memory, incoming Map, ours Side, fix Fix) (Map, Fix) {
	if p, ok := locate(incoming, ours, fix.Self, true); ok && memory.InBounds(p) {
		clearAll(memory, ours)
		putMarker(memory, ours, p)
		fix.Self = p
	}
	theirs := ours.Other()
	if p, ok := locate(incoming, theirs, fix.Opponent, fix.Sighted); ok && memory.InBounds(p) {
		clearAll(memory, theirs)
		putMarker(memory, theirs, p)
		fix.Opponent, fix.Sighted = p, true
	}
	return memory, fix
}

func (FogView) MergeProbe(memory Map, probe Probe, ours Side, fix Fix) Fix {
	return MergeProbe(memory, probe, ours, fix)
}
