package crew

import "time"

// Project statuses exposed on the HTTP surface.
const (
	ProjectPending    = "pending"
	ProjectProcessing = "processing"
	ProjectCompleted  = "completed"
	ProjectError      = "error"
)

// Project is the caller-facing record wrapping a pipeline run. The output
// fields are filled from the run's decomposed outcome once it completes.
type Project struct {
	ID               string    `json:"id"`
	ProjectName      string    `json:"project_name"`
	Topic            string    `json:"topic"`
	Guidelines       string    `json:"guidelines"`
	Status           string    `json:"status"`
	WriterOutput     string    `json:"writer_output"`
	ReviewerFeedback string    `json:"reviewer_feedback"`
	FinalOutput      string    `json:"final_output"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultName derives a project name from the topic when none is given.
// Truncation counts characters, not bytes, so a multibyte topic never
// yields a mangled name.
func DefaultName(topic string) string {
	if topic == "" {
		return "Untitled Project"
	}
	if runes := []rune(topic); len(runes) > 50 {
		return string(runes[:50])
	}
	return topic
}
