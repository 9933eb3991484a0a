package adapters

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/ports"
)

// TranscriptFile is the run-scoped log: every attempted command, its
// attempt number, and its raw output land here regardless of outcome,
// so a failed run can be reconstructed from the transcript alone.
type TranscriptFile struct {
	path string
	mu   *sync.Mutex
	file *os.File
	now  func() time.Time
}

func NewTranscriptFile(path string) (*TranscriptFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open transcript log").
			WithCause(err)
	}
	return &TranscriptFile{path: path, mu: &sync.Mutex{}, file: file, now: time.Now}, nil
}

func (t *TranscriptFile) Attempt(description string, attempt int, maxAttempts int, output []byte, err error) {
	status := "ok"
	if err != nil {
		status = "failed: " + err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (attempt %d/%d) %s\n",
		t.now().Format(time.RFC3339), description, attempt, maxAttempts, status)
	if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
		b.WriteString(trimmed)
		b.WriteString("\n")
	}
	t.append(b.String())
}

func (t *TranscriptFile) Note(message string) {
	t.append(fmt.Sprintf("[%s] %s\n", t.now().Format(time.RFC3339), message))
}

func (t *TranscriptFile) Path() string {
	return t.path
}

func (t *TranscriptFile) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

func (t *TranscriptFile) append(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.file.WriteString(entry)
}

var _ ports.TranscriptPort = (*TranscriptFile)(nil)
