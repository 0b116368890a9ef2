package audit

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gluk-w/claworc/artifacts/internal/artifact"
	"github.com/gluk-w/claworc/artifacts/internal/database"
	"github.com/gluk-w/claworc/artifacts/internal/logutil"
)

// DefaultRetentionDays is the default number of days to keep audit logs.
const DefaultRetentionDays = 90

var _ artifact.Recorder = (*Auditor)(nil)

// Entry contains the fields needed to create an audit log row.
type Entry struct {
	OpID         string
	RunID        string
	Operation    string
	ArtifactPath string
	Host         string
	Files        int
	Bytes        int64
	Digest       string
	Error        string
	DurationMs   int64
}

// Auditor records and queries artifact audit logs.
type Auditor struct {
	mu            sync.RWMutex
	db            *gorm.DB
	retentionDays int
	nowFn         func() time.Time
	log           *logger.Entry
}

// NewAuditor creates an Auditor writing to db. If retentionDays is 0,
// DefaultRetentionDays is used.
func NewAuditor(db *gorm.DB, retentionDays int) *Auditor {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Auditor{
		db:            db,
		retentionDays: retentionDays,
		nowFn:         time.Now,
		log:           logger.WithField("component", "audit"),
	}
}

// Record stores a finished repository operation. Write failures are logged
// and never reach the caller of the operation.
func (a *Auditor) Record(ev artifact.Event) {
	entry := Entry{
		OpID:         ev.OpID,
		RunID:        ev.RunID,
		Operation:    ev.Operation,
		ArtifactPath: ev.ArtifactPath,
		Host:         ev.Host,
		Files:        ev.Files,
		Bytes:        ev.Bytes,
		Digest:       ev.Digest,
		DurationMs:   ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		entry.Error = ev.Err.Error()
	}
	_ = a.Log(entry)
}

// Log writes one audit row.
func (a *Auditor) Log(entry Entry) error {
	record := database.ArtifactAuditLog{
		OpID:         entry.OpID,
		RunID:        entry.RunID,
		Operation:    entry.Operation,
		ArtifactPath: entry.ArtifactPath,
		Host:         entry.Host,
		Files:        entry.Files,
		Bytes:        entry.Bytes,
		Digest:       entry.Digest,
		Outcome:      database.OutcomeSuccess,
		Error:        entry.Error,
		DurationMs:   entry.DurationMs,
	}
	if entry.Error != "" {
		record.Outcome = database.OutcomeFailure
	}

	a.mu.Lock()
	err := a.db.Create(&record).Error
	a.mu.Unlock()
	if err != nil {
		a.log.WithError(err).Error("failed to write audit log")
		return err
	}

	a.log.WithFields(logger.Fields{
		"op_id":   entry.OpID,
		"run_id":  logutil.SanitizeForLog(entry.RunID),
		"outcome": record.Outcome,
	}).Debugf("%s %s on %s", entry.Operation, logutil.SanitizeForLog(entry.ArtifactPath), entry.Host)
	return nil
}

// QueryOptions specifies filters for retrieving audit logs.
type QueryOptions struct {
	RunID     string
	Operation string
	Outcome   string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// QueryResult contains audit log entries and pagination metadata.
type QueryResult struct {
	Entries []database.ArtifactAuditLog `json:"entries" yaml:"entries"`
	Total   int64                       `json:"total" yaml:"total"`
	Limit   int                         `json:"limit" yaml:"limit"`
	Offset  int                         `json:"offset" yaml:"offset"`
}

// Query retrieves audit log entries matching opts, newest first.
func (a *Auditor) Query(opts QueryOptions) (*QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	tx := a.db.Model(&database.ArtifactAuditLog{})

	if opts.RunID != "" {
		tx = tx.Where("run_id = ?", opts.RunID)
	}
	if opts.Operation != "" {
		tx = tx.Where("operation = ?", opts.Operation)
	}
	if opts.Outcome != "" {
		tx = tx.Where("outcome = ?", opts.Outcome)
	}
	if opts.Since != nil {
		tx = tx.Where("created_at >= ?", *opts.Since)
	}
	if opts.Until != nil {
		tx = tx.Where("created_at <= ?", *opts.Until)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}

	entries := []database.ArtifactAuditLog{}
	if err := tx.Order("created_at DESC, id DESC").Offset(opts.Offset).Limit(opts.Limit).Find(&entries).Error; err != nil {
		return nil, err
	}

	return &QueryResult{
		Entries: entries,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}, nil
}

// PurgeOlderThan removes entries older than days, or than the configured
// retention period when days is 0. Returns the number of rows deleted.
func (a *Auditor) PurgeOlderThan(days int) (int64, error) {
	if days <= 0 {
		days = a.retentionDays
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.nowFn().AddDate(0, 0, -days)
	result := a.db.Where("created_at < ?", cutoff).Delete(&database.ArtifactAuditLog{})
	if result.Error != nil {
		a.log.WithError(result.Error).Error("purge failed")
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		a.log.Infof("purged %d audit log entries older than %d days", result.RowsAffected, days)
	}
	return result.RowsAffected, nil
}

// RetentionDays returns the configured retention period.
func (a *Auditor) RetentionDays() int {
	return a.retentionDays
}

// SetNowFunc sets the clock used by PurgeOlderThan.
func (a *Auditor) SetNowFunc(fn func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nowFn = fn
}
