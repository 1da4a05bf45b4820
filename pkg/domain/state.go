package domain

import "time"

// ActiveNode is a node currently shown in its "active" style.
type ActiveNode struct {
	Coord Coord     `json:"coord"`
	Until time.Time `json:"until"`
}

// Selection is the view state of one client session.
// It is external to the lattice topology: clearing it never changes nodes or edges.
type Selection struct {
	SessionID string       `json:"session_id"`
	Selected  *Coord       `json:"selected,omitempty"`
	Active    []ActiveNode `json:"active,omitempty"`
	Palette   string       `json:"palette"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSelection creates an empty selection using the given colour palette.
func NewSelection(sessionID, palette string) *Selection {
	return &Selection{
		SessionID: sessionID,
		Palette:   palette,
		Active:    []ActiveNode{},
	}
}

// IsActive reports whether c is active at instant now.
func (s *Selection) IsActive(c Coord, now time.Time) bool {
	for _, a := range s.Active {
		if a.Coord == c && now.Before(a.Until) {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the selection.
func (s *Selection) Snapshot() *Selection {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Selected != nil {
		sel := *s.Selected
		cp.Selected = &sel
	}
	cp.Active = make([]ActiveNode, len(s.Active))
	copy(cp.Active, s.Active)
	return &cp
}
