package browse

// Coordinator routes the single global search term to every registered
// group, in registration order.
type Coordinator struct {
	handles []Handle
	term    string
	applied bool
}

// NewCoordinator returns a coordinator over handles.
func NewCoordinator(handles ...Handle) *Coordinator {
	return &Coordinator{handles: handles}
}

// Register appends a handle. It does not apply the current term.
func (c *Coordinator) Register(h Handle) {
	c.handles = append(c.handles, h)
}

// Search applies term to every group. It reports false and does nothing when
// term equals the term already applied.
func (c *Coordinator) Search(term string) bool {
	if c.applied && term == c.term {
		return false
	}
	c.term = term
	c.applied = true
	for _, h := range c.handles {
		h.Filter(term)
	}
	return true
}

// Term returns the last applied term.
func (c *Coordinator) Term() string { return c.term }

// Handles returns the registered handles.
func (c *Coordinator) Handles() []Handle { return c.handles }
