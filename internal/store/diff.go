package store

// HeadChange pairs a head with its change numbers in two passes.
type HeadChange struct {
	Current    ObservedHead
	PrevChange int64
}

// DiffResult classifies how the head set moved between two passes.
type DiffResult struct {
	Added   []ObservedHead // present now, absent before
	Updated []HeadChange   // present in both, change number moved
	Removed []ObservedHead // present before, absent now
}

// Empty reports whether nothing changed.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Diff compares two observation sets by head name. Heads are keyed by
// name only, matching head identity everywhere else in this module; if
// a pass carried duplicate names (a configuration error the host
// surfaces), the last observation wins here.
//
// Output order follows the newer pass's emission order for Added and
// Updated, and the older pass's order for Removed.
func Diff(older, newer []ObservedHead) DiffResult {
	prev := make(map[string]ObservedHead, len(older))
	for _, o := range older {
		prev[o.Head.Name] = o
	}
	cur := make(map[string]ObservedHead, len(newer))
	for _, o := range newer {
		cur[o.Head.Name] = o
	}

	var d DiffResult
	seen := make(map[string]bool, len(newer))
	for _, o := range newer {
		if seen[o.Head.Name] {
			continue
		}
		seen[o.Head.Name] = true

		before, ok := prev[o.Head.Name]
		switch {
		case !ok:
			d.Added = append(d.Added, cur[o.Head.Name])
		case before.Change != cur[o.Head.Name].Change:
			d.Updated = append(d.Updated, HeadChange{Current: cur[o.Head.Name], PrevChange: before.Change})
		}
	}

	removedSeen := make(map[string]bool, len(older))
	for _, o := range older {
		if removedSeen[o.Head.Name] {
			continue
		}
		removedSeen[o.Head.Name] = true
		if _, ok := cur[o.Head.Name]; !ok {
			d.Removed = append(d.Removed, prev[o.Head.Name])
		}
	}

	return d
}
