package session

// Status is the orchestrator state a session is in.
type Status int

const (
	Idle Status = iota
	Authenticating
	Saving
	IndexMerging
	IndexPersisting
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Saving:
		return "saving"
	case IndexMerging:
		return "index_merging"
	case IndexPersisting:
		return "index_persisting"
	}
	return "unknown"
}

// InFlight reports whether a flow is suspended on a remote call.
func (s Status) InFlight() bool {
	return s != Idle
}

// Outcome describes how a remote call ended.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeOK       Outcome = "ok"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected" // refused locally, nothing was sent
)

// Effect records one remote call made by a transition.
type Effect struct {
	Op      string  `json:"op"` // "get" or "set"
	Key     string  `json:"key"`
	Outcome Outcome `json:"outcome"`
}

// Transition is the result of one orchestrated flow: the state that replaces
// the previous one and the remote calls that produced it, in call order.
type Transition struct {
	State   State
	Effects []Effect
}
