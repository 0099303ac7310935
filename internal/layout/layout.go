// Package layout derives per-viewport rendering parameters from the terminal
// size and debounces resize bursts.
package layout

import "fmt"

// DeviceClass groups terminal sizes that share a card layout.
type DeviceClass int

const (
	Desktop DeviceClass = iota
	Mobile
)

func (d DeviceClass) String() string {
	switch d {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	default:
		return fmt.Sprintf("DeviceClass(%d)", int(d))
	}
}

// Params are the inputs that do not depend on the terminal.
type Params struct {
	MobileMaxWidth int // widths at or below this are Mobile
	InitialBatch   int
	Increment      int
}

// DefaultParams matches the shipped configuration.
func DefaultParams() Params {
	return Params{MobileMaxWidth: 80, InitialBatch: 20, Increment: 20}
}

// Profile is the rendering configuration for one terminal size. Batch sizes
// come from Params and never vary with the size.
type Profile struct {
	Width        int
	Height       int
	Device       DeviceClass
	InitialBatch int
	Increment    int
}

// ProfileFor classifies a width x height terminal.
func ProfileFor(width, height int, p Params) Profile {
	if p.MobileMaxWidth <= 0 {
		p.MobileMaxWidth = DefaultParams().MobileMaxWidth
	}
	dev := Desktop
	if width <= p.MobileMaxWidth {
		dev = Mobile
	}
	return Profile{
		Width:        width,
		Height:       height,
		Device:       dev,
		InitialBatch: p.InitialBatch,
		Increment:    p.Increment,
	}
}

// Compact reports whether cards should drop their excerpt.
func (p Profile) Compact() bool { return p.Device == Mobile }

// CardWidth is the usable width of one card, leaving room for the border
// and the scroll gutter.
func (p Profile) CardWidth() int {
	w := p.Width - 6
	if w < 20 {
		w = 20
	}
	return w
}

// Changed reports whether moving from old to p requires rebuilding the
// rendered cards. Height alone only changes how many are visible.
func (p Profile) Changed(old Profile) bool {
	return p.Width != old.Width || p.Device != old.Device
}
