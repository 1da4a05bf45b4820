package domain

// SelectionDiff represents the changes between two selection snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SelectionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Selected is set when the selected node changed.
	Selected *Coord `json:"selected,omitempty"`

	// Activated lists nodes that entered the active style.
	Activated []Coord `json:"activated,omitempty"`

	// Released lists nodes that left the active style.
	Released []Coord `json:"released,omitempty"`

	// Palette is set when the colour palette changed.
	Palette *string `json:"palette,omitempty"`
}

// Diff calculates the difference between oldSel and newSel.
// If oldSel is nil, it returns a diff representing the entire newSel (initial load).
// It returns nil when nothing changed.
func Diff(oldSel, newSel *Selection) *SelectionDiff {
	if newSel == nil {
		return nil
	}

	diff := &SelectionDiff{SessionID: newSel.SessionID}

	if oldSel == nil {
		diff.Selected = newSel.Selected
		diff.Palette = &newSel.Palette
		for _, a := range newSel.Active {
			diff.Activated = append(diff.Activated, a.Coord)
		}
		return diff
	}

	if !sameCoord(oldSel.Selected, newSel.Selected) {
		diff.Selected = newSel.Selected
	}
	if oldSel.Palette != newSel.Palette {
		p := newSel.Palette
		diff.Palette = &p
	}

	oldActive := activeSet(oldSel)
	newActive := activeSet(newSel)
	for _, a := range newSel.Active {
		if !oldActive[a.Coord] {
			diff.Activated = append(diff.Activated, a.Coord)
		}
	}
	for _, a := range oldSel.Active {
		if !newActive[a.Coord] {
			diff.Released = append(diff.Released, a.Coord)
		}
	}

	if diff.Selected == nil &&
		diff.Palette == nil &&
		len(diff.Activated) == 0 &&
		len(diff.Released) == 0 {
		return nil
	}

	return diff
}

func sameCoord(a, b *Coord) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func activeSet(s *Selection) map[Coord]bool {
	set := make(map[Coord]bool, len(s.Active))
	for _, a := range s.Active {
		set[a.Coord] = true
	}
	return set
}
