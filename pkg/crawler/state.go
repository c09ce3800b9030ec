package crawler

// State is a job's position in its lifecycle. A job only moves forward:
// Planning, Paging (skipped for page patterns), Discovering, Downloading,
// Completed.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StatePaging
	StateDiscovering
	StateDownloading
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StatePaging:
		return "paging"
	case StateDiscovering:
		return "discovering"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
