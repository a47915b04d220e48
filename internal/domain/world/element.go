package world

import (
	"errors"
	"fmt"
)

// Element is the content of a single board cell.
type Element uint8

const (
	Blank Element = iota
	Wall
	Heart
	Cold
	Hot
	// BothColdAndHot marks a cell that both pieces occupy at once.
	BothColdAndHot
)

const (
	codeBothColdHot = 34
	codeBothHotCold = 43
)

var ErrUnknownElement = errors.New("unknown element code")

// ElementFromCode decodes a wire cell code.
func ElementFromCode(code int) (Element, error) {
	switch code {
	case 0:
		return Blank, nil
	case 1:
		return Wall, nil
	case 2:
		return Heart, nil
	case 3:
		return Cold, nil
	case 4:
		return Hot, nil
	case codeBothColdHot, codeBothHotCold:
		return BothColdAndHot, nil
	default:
		return Blank, fmt.Errorf("%w: %d", ErrUnknownElement, code)
	}
}

// Code is the wire code of e. BothColdAndHot encodes as 34.
func (e Element) Code() int {
	if e == BothColdAndHot {
		return codeBothColdHot
	}
	return int(e)
}

// Holds reports whether a piece of the given side stands on e.
func (e Element) Holds(side Side) bool {
	return e == side.Element() || e == BothColdAndHot
}

func (e Element) String() string {
	switch e {
	case Blank:
		return "blank"
	case Wall:
		return "wall"
	case Heart:
		return "heart"
	case Cold:
		return "cold"
	case Hot:
		return "hot"
	case BothColdAndHot:
		return "both"
	default:
		return fmt.Sprintf("element(%d)", uint8(e))
	}
}

// RelElement is a probe code, relative to the side that issued the probe.
type RelElement uint8

const (
	RelBlank RelElement = iota
	RelOpponent
	RelWall
	RelHeart
)

var ErrUnknownRelElement = errors.New("unknown probe code")

func RelElementFromCode(code int) (RelElement, error) {
	if code < 0 || code > int(RelHeart) {
		return RelBlank, fmt.Errorf("%w: %d", ErrUnknownRelElement, code)
	}
	return RelElement(code), nil
}

// Absolute translates a probe code seen by ours into a board element.
func (r RelElement) Absolute(ours Side) Element {
	switch r {
	case RelOpponent:
		return ours.Other().Element()
	case RelWall:
		return Wall
	case RelHeart:
		return Heart
	default:
		return Blank
	}
}
