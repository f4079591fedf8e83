package tui

// Phase is the single source of truth for where the screen is in its fetch cycle
type Phase int

const (
	PhaseIdle       Phase = iota // No fetch issued yet
	PhaseLoading                 // First fetch in flight, nothing to show
	PhaseRefreshing              // User refresh in flight, prior posts stay visible
	PhaseReady                   // Last fetch succeeded
	PhaseFailed                  // Last fetch failed, prior posts kept
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Blocking reports whether the full-screen loader replaces the list.
// This is the only thing deciding loader vs list.
func (p Phase) Blocking() bool {
	return p == PhaseIdle || p == PhaseLoading
}

// InFlight reports whether a fetch is outstanding
func (p Phase) InFlight() bool {
	return p == PhaseLoading || p == PhaseRefreshing
}

// settle returns the phase a finished fetch lands in
func settle(ok bool) Phase {
	if ok {
		return PhaseReady
	}
	return PhaseFailed
}
