package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusTextOK  JobStatus = "TEXT_OK" // text extracted
	JobStatusParsed  JobStatus = "PARSED"  // candidate stored
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
