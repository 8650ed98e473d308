package models

import (
	"strings"
	"time"

	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

// FlagThreshold is the realism score below which an image is flagged.
const FlagThreshold = 0.5

// ScoreState tracks the asynchronous authenticity check so pollers can tell
// "still running" from "gave up".
type ScoreState string

const (
	ScorePending       ScoreState = "pending"
	ScoreScored        ScoreState = "scored"
	ScoreFailed        ScoreState = "failed"
	ScoreNotApplicable ScoreState = "not_applicable"
)

func (s ScoreState) IsTerminal() bool {
	return s == ScoreScored || s == ScoreFailed || s == ScoreNotApplicable
}

// Verdict is what the classifier reported. Score is nil when the service
// omitted it.
type Verdict struct {
	IsSynthetic bool
	Score       *float64
	Details     map[string]any
}

// Flagged applies the suspect-content rule.
func (v Verdict) Flagged() bool {
	return v.IsSynthetic || (v.Score != nil && *v.Score < FlagThreshold)
}

// Assessment is written at most once per evidence record.
type Assessment struct {
	IsAuthentic bool           `json:"isAuthentic"`
	Score       *float64       `json:"score,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	AssessedAt  time.Time      `json:"assessedAt"`
}

// Evidence is one uploaded file attached to a case.
//
// Invariants:
//   - StorageKey is generated, never derived from FileName
//   - Assessment is nil until ScoreState is scored, then never changes
type Evidence struct {
	ID          id.EvidenceID  `json:"id"`
	ComplaintID id.ComplaintID `json:"complaintId"`
	StorageKey  string         `json:"-"`
	FileURL     string         `json:"fileUrl"`
	FileName    string         `json:"fileName"`
	MediaType   string         `json:"fileType"`
	Size        int64          `json:"fileSize"`
	Checksum    string         `json:"checksum"`
	ScoreState  ScoreState     `json:"scoreState"`
	Assessment  *Assessment    `json:"assessment,omitempty"`
	UploadedAt  time.Time      `json:"uploadedAt"`
}

func NewEvidence(
	evidenceID id.EvidenceID,
	complaintID id.ComplaintID,
	storageKey, fileURL, fileName, mediaType, checksum string,
	size int64,
	now time.Time,
) (*Evidence, error) {
	if evidenceID.IsNil() || complaintID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence and complaint ids are required")
	}
	if storageKey == "" || mediaType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "storage key and media type are required")
	}
	state := ScoreNotApplicable
	if isImage(mediaType) {
		state = ScorePending
	}
	return &Evidence{
		ID:          evidenceID,
		ComplaintID: complaintID,
		StorageKey:  storageKey,
		FileURL:     fileURL,
		FileName:    fileName,
		MediaType:   mediaType,
		Size:        size,
		Checksum:    checksum,
		ScoreState:  state,
		UploadedAt:  now,
	}, nil
}

// IsImage reports whether the evidence goes through authenticity scoring.
func (e *Evidence) IsImage() bool {
	return isImage(e.MediaType)
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

// CanResolve checks that the score state may still move to a terminal value.
func (e *Evidence) CanResolve() error {
	if e.ScoreState != ScorePending {
		return dErrors.New(dErrors.CodeInvariantViolation, "evidence is not awaiting assessment")
	}
	return nil
}

// ApplyVerdict records the classifier's verdict. Call CanResolve first.
func (e *Evidence) ApplyVerdict(v Verdict, now time.Time) {
	e.ScoreState = ScoreScored
	e.Assessment = &Assessment{
		IsAuthentic: !v.Flagged(),
		Score:       v.Score,
		Details:     v.Details,
		AssessedAt:  now,
	}
}

// MarkFailed ends scoring without an assessment. Call CanResolve first.
func (e *Evidence) MarkFailed() {
	e.ScoreState = ScoreFailed
}
