package crew

import (
	"errors"
	"strings"
)

// Field names a logical piece of a run's output.
type Field string

const (
	FieldDraft   Field = "draft"
	FieldReview  Field = "review"
	FieldVerdict Field = "verdict"
)

// ReviewPlaceholder is assigned to the review field when the combined blob
// carries no marker to split on.
const ReviewPlaceholder = "Review completed. See final output."

// reviewMarker separates draft text from review text in a combined blob.
// The split happens at the first occurrence; when the marker appears more
// than once the earlier split is kept, a known fragility of this fallback.
const reviewMarker = "Review"

// ErrNoOutput is returned when there is nothing to decompose: the run
// failed before any stage completed and no combined text exists either.
var ErrNoOutput = errors.New("no stage output to decompose")

// Outcome is the decomposed, read-only result of a completed run.
type Outcome struct {
	Fields    map[Field]string `json:"fields"`
	FinalText string           `json:"final_text"`
	// Note carries a warning when a lossy fallback degraded the split.
	// It is a quality flag, never an error.
	Note string `json:"note,omitempty"`
}

// fieldForRole maps a stage role to its logical field.
func fieldForRole(r Role) Field {
	switch r {
	case RoleWriter:
		return FieldDraft
	case RoleReviewer:
		return FieldReview
	case RoleCompliance:
		return FieldVerdict
	}
	return Field(r)
}

// Decompose resolves a run's raw outputs into named fields. It is a pure
// function: the same inputs always produce the same Outcome.
//
// Extraction strategies, first success wins:
//  1. Per-stage attribution: each StageResult maps directly to its field
//     with no text manipulation. Preferred, information-preserving.
//  2. Label search: split the combined blob at the first occurrence of the
//     review marker. The verdict is not separately recoverable here.
//  3. No marker: the whole blob becomes the draft and the review gets a
//     fixed placeholder.
func Decompose(stages []StageResult, blob string) (*Outcome, error) {
	if len(stages) > 0 {
		out := &Outcome{Fields: make(map[Field]string, len(stages))}
		for _, res := range stages {
			out.Fields[fieldForRole(res.Role)] = res.RawText
		}
		out.FinalText = stages[len(stages)-1].RawText
		return out, nil
	}

	if blob == "" {
		return nil, ErrNoOutput
	}

	out := &Outcome{Fields: make(map[Field]string, 2), FinalText: blob}
	if idx := strings.Index(blob, reviewMarker); idx >= 0 {
		out.Fields[FieldDraft] = strings.TrimSpace(blob[:idx])
		out.Fields[FieldReview] = strings.TrimSpace(blob[idx:])
		out.Note = "draft/review split on text marker; verdict not separable"
		return out, nil
	}

	out.Fields[FieldDraft] = blob
	out.Fields[FieldReview] = ReviewPlaceholder
	out.Note = "no marker found in combined output; review detail unavailable"
	return out, nil
}
