package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gluk-w/claworc/artifacts/internal/audit"
)

// GetAuditLog returns paginated artifact audit log entries.
//
// Query parameters:
//
//	run_id    - filter by run ID
//	operation - filter by operation (log_artifact, list_artifacts, ...)
//	outcome   - success or failure
//	since     - RFC3339 timestamp, only entries after this time
//	until     - RFC3339 timestamp, only entries before this time
//	limit     - max entries to return (default 50, max 1000)
//	offset    - pagination offset
func GetAuditLog(w http.ResponseWriter, r *http.Request) {
	auditor := audit.GetAuditor()
	if auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit system not initialized")
		return
	}

	q := r.URL.Query()
	opts := audit.QueryOptions{
		RunID:     q.Get("run_id"),
		Operation: q.Get("operation"),
		Outcome:   q.Get("outcome"),
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid since timestamp (use RFC3339)")
			return
		}
		opts.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid until timestamp (use RFC3339)")
			return
		}
		opts.Until = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		opts.Offset = n
	}

	result, err := auditor.Query(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PurgeAuditLog deletes old audit entries.
//
// Query parameters:
//
//	days - number of days to retain (uses configured default if omitted)
func PurgeAuditLog(w http.ResponseWriter, r *http.Request) {
	auditor := audit.GetAuditor()
	if auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit system not initialized")
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = n
	}

	deleted, err := auditor.PurgeOlderThan(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to purge audit logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":        deleted,
		"retention_days": auditor.RetentionDays(),
	})
}
