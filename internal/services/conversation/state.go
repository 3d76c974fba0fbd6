package conversation

// State is a step of the connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateResolvingScenario
	StateSessionReady
	StateActiveLoop
	StateAnalyzing
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateResolvingScenario:
		return "resolving_scenario"
	case StateSessionReady:
		return "session_ready"
	case StateActiveLoop:
		return "active_loop"
	case StateAnalyzing:
		return "analyzing"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection outcomes reported to metrics.
const (
	outcomeUnauthorized = "unauthorized"
	outcomeRejected     = "rejected"
	outcomeEnded        = "ended"
	outcomeDisconnected = "disconnected"
	outcomeIdle         = "idle"
	outcomeShutdown     = "shutdown"
	outcomeError        = "error"
)
