package enums

// JobStatus mirrors the installation job pipeline owned by the job subsystem.
// Only the values this service reads or writes are listed.
type JobStatus string

const (
	JobStatusPendingSchedule  JobStatus = "PENDING_SCHEDULE"
	JobStatusReadyToSchedule  JobStatus = "READY_TO_SCHEDULE"
	JobStatusMaterialsOrdered JobStatus = "MATERIALS_ORDERED"
	JobStatusMaterialsReady   JobStatus = "MATERIALS_READY"
	JobStatusScheduled        JobStatus = "SCHEDULED"
	JobStatusCompleted        JobStatus = "COMPLETED"
	JobStatusCancelled        JobStatus = "CANCELLED"
)

var validJobStatuses = []JobStatus{
	JobStatusPendingSchedule,
	JobStatusReadyToSchedule,
	JobStatusMaterialsOrdered,
	JobStatusMaterialsReady,
	JobStatusScheduled,
	JobStatusCompleted,
	JobStatusCancelled,
}

// String implements fmt.Stringer.
func (s JobStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known JobStatus.
func (s JobStatus) IsValid() bool {
	return oneOf(s, validJobStatuses)
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	return parse("job status", value, validJobStatuses)
}
