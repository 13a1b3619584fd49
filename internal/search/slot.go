package search

import (
	"fmt"
	"strings"
)

// Slot identifies one text input with its own suggestion list.
type Slot int

const (
	Main Slot = iota
	RouteStart
	RouteEnd
)

// Slots lists every slot in display order.
var Slots = []Slot{Main, RouteStart, RouteEnd}

var slotNames = [...]string{"main", "start", "end"}

func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// IsRoute reports whether the slot is a directions endpoint.
func (s Slot) IsRoute() bool {
	return s == RouteStart || s == RouteEnd
}

// ParseSlot parses a slot name as used in URLs.
func ParseSlot(name string) (Slot, error) {
	for i, n := range slotNames {
		if strings.EqualFold(n, name) {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown search slot %q", name)
}

// Phase is the position of a slot in the search state machine.
type Phase int

const (
	Idle Phase = iota
	Typing
	Suggested
	Selected
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Typing:
		return "typing"
	case Suggested:
		return "suggested"
	case Selected:
		return "selected"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}
