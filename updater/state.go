package updater

// State is the lifecycle position of an Updater.
type State int32

const (
	// Uninitialized means no path has been loaded; poses are stored but nothing is published.
	Uninitialized State = iota
	// Ready means a path is loaded and no trajectory has been offered yet.
	Ready
	// Publishing means at least one trajectory has been offered.
	Publishing
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Publishing:
		return "publishing"
	}
	return "unknown"
}
