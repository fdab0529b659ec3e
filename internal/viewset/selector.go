package viewset

// Selector holds the name of the current view. It does not know which views
// exist; Set checks presence before calling Select.
type Selector struct {
	current Name
	valid   bool
}

// Select makes n the current view.
func (s *Selector) Select(n Name) {
	s.current = n
	s.valid = true
}

// Current returns the current view name and whether one is selected.
func (s *Selector) Current() (Name, bool) {
	return s.current, s.valid
}

// Is reports whether n is the current view.
func (s *Selector) Is(n Name) bool {
	return s.valid && s.current == n
}

// Reset leaves no view selected.
func (s *Selector) Reset() {
	s.current = 0
	s.valid = false
}
