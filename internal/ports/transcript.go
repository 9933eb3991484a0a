package ports

// TranscriptPort is the run-scoped log of every attempted command.
// Entries are append-only so a failed run is reproducible from the
// transcript alone.
type TranscriptPort interface {
	Attempt(description string, attempt int, maxAttempts int, output []byte, err error)
	Note(message string)
	Path() string
}
