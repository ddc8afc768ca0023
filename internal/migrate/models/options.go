package models

// Options configures one migration run. It is passed by value and never
// mutated once the run starts.
type Options struct {
	SourceDir string
	DestDir   string
	// Clean removes DestDir before anything is written.
	Clean   bool
	Verbose bool
	// KeepGoing records per-file failures in Result.Errors and continues
	// the current stage instead of aborting the run.
	KeepGoing bool
	// Resume replays stages a previous unfinished run already completed.
	// Requires a journal and is incompatible with Clean.
	Resume bool
	// RunID identifies the run; generated when empty.
	RunID string
}
