// Package tabs tracks which of a fixed set of tabs is active.
package tabs

import "github.com/abelbrown/docwatch/internal/logging"

// Controller holds exactly one active id out of a fixed, ordered set.
// Switching tabs never touches the data behind them.
type Controller struct {
	ids    []string
	active int
}

// New returns a controller over ids with the first one active.
func New(ids ...string) *Controller {
	return &Controller{ids: append([]string(nil), ids...)}
}

// Activate makes id the active tab. Unknown ids are logged and ignored.
// It reports whether the active tab changed.
func (c *Controller) Activate(id string) bool {
	i := c.index(id)
	if i < 0 {
		logging.Warn("unknown tab", "id", id)
		return false
	}
	if i == c.active {
		return false
	}
	c.active = i
	return true
}

// ActivateIndex activates the i-th tab, counting from zero.
func (c *Controller) ActivateIndex(i int) bool {
	if i < 0 || i >= len(c.ids) {
		return false
	}
	return c.Activate(c.ids[i])
}

// Active returns the active id, or "" when there are no tabs.
func (c *Controller) Active() string {
	if len(c.ids) == 0 {
		return ""
	}
	return c.ids[c.active]
}

// ActiveIndex returns the position of the active tab.
func (c *Controller) ActiveIndex() int { return c.active }

// IsActive reports whether id is the active tab.
func (c *Controller) IsActive(id string) bool {
	return len(c.ids) > 0 && c.ids[c.active] == id
}

// Next activates the following tab, wrapping around.
func (c *Controller) Next() string {
	if len(c.ids) > 0 {
		c.active = (c.active + 1) % len(c.ids)
	}
	return c.Active()
}

// Prev activates the preceding tab, wrapping around.
func (c *Controller) Prev() string {
	if len(c.ids) > 0 {
		c.active = (c.active - 1 + len(c.ids)) % len(c.ids)
	}
	return c.Active()
}

// IDs returns the tab ids in order.
func (c *Controller) IDs() []string { return c.ids }

// Len returns the number of tabs.
func (c *Controller) Len() int { return len(c.ids) }

func (c *Controller) index(id string) int {
	for i, v := range c.ids {
		if v == id {
			return i
		}
	}
	return -1
}
