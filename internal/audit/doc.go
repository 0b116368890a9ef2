// Package audit keeps a durable record of artifact repository operations.
//
// [Auditor] implements artifact.Recorder: every upload, listing and download
// a Repository performs becomes one row in the artifact_audit_logs table,
// with its op ID, run ID, remote host, file and byte counts, the SHA-256
// digest of single-file uploads, and the outcome.
//
// # Retention
//
// [Auditor.PurgeOlderThan] deletes rows beyond the retention period.
// [StartPurgeSchedule] runs it on a cron schedule (for example "@daily")
// while the HTTP API is serving.
//
// # Usage
//
//	db, _ := database.Open("/var/lib/artifacts/audit.db")
//	auditor := audit.NewAuditor(db, 90)
//	repo, _ := artifact.New(uri, artifact.Options{Recorder: auditor})
//
//	res, _ := auditor.Query(audit.QueryOptions{RunID: "run-1"})
package audit
