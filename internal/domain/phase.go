package domain

// Phase is the coarse state of the whole preview pipeline.
type Phase int

const (
	PhaseUnconfigured Phase = iota
	PhaseConfiguring
	PhaseStreaming
	PhaseTearingDown
	PhaseReleased
	PhaseFailed
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnconfigured:
		return "Unconfigured"
	case PhaseConfiguring:
		return "Configuring"
	case PhaseStreaming:
		return "Streaming"
	case PhaseTearingDown:
		return "TearingDown"
	case PhaseReleased:
		return "Released"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
