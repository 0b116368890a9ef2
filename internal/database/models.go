package database

import "time"

// Outcome values of an ArtifactAuditLog.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ArtifactAuditLog is one repository operation. Error never holds a
// password; repository errors are built from redacted URIs.
type ArtifactAuditLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OpID         string    `gorm:"uniqueIndex;not null;size:36" json:"op_id"`
	RunID        string    `gorm:"index" json:"run_id"`
	Operation    string    `gorm:"index;not null" json:"operation"`
	ArtifactPath string    `json:"artifact_path"`
	Host         string    `gorm:"not null" json:"host"`
	Files        int       `gorm:"not null;default:0" json:"files"`
	Bytes        int64     `gorm:"not null;default:0" json:"bytes"`
	Digest       string    `json:"digest,omitempty"`
	Outcome      string    `gorm:"index;not null" json:"outcome"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
