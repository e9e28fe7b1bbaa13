package model

// Transitions lists, for every state, the states it may move to.
type Transitions[S comparable] map[S][]S

// Allows reports whether from -> to is a listed edge.
func (t Transitions[S]) Allows(from, to S) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Targets returns the states reachable from from.
func (t Transitions[S]) Targets(from S) []S {
	out := make([]S, len(t[from]))
	copy(out, t[from])
	return out
}
