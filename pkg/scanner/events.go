package scanner

// Event is the interface implemented by all scanner events.
type Event interface {
	isEvent()
}

// EventEmitter receives scanner events. Invocations run concurrently, so
// Emit may be called from several goroutines at once.
type EventEmitter interface {
	Emit(event Event)
}

// ScanStarted is emitted once per top-level scan.
type ScanStarted struct {
	Root      string
	Recursive bool
}

func (ScanStarted) isEvent() {}

// DirectoryListed is emitted after each directory listing.
type DirectoryListed struct {
	Path  string
	Count int
}

func (DirectoryListed) isEvent() {}

// EntryClassified is emitted when a child has been classified.
type EntryClassified struct {
	Path  string
	IsDir bool
}

func (EntryClassified) isEvent() {}

// ProblemAbsorbed is emitted for every failure recorded instead of returned.
type ProblemAbsorbed struct {
	Problem Problem
}

func (ProblemAbsorbed) isEvent() {}

// ScanComplete is emitted when a top-level scan delivers its result.
type ScanComplete struct {
	Root     string
	Count    int
	Problems int
}

func (ScanComplete) isEvent() {}
