package scheduler

const (
	EventTypeJobScheduled = "com.folio.scheduler.job.scheduled"
	EventTypeJobRemoved   = "com.folio.scheduler.job.removed"
	EventTypeJobStarted   = "com.folio.scheduler.job.started"
	EventTypeJobCompleted = "com.folio.scheduler.job.completed"
	EventTypeJobFailed    = "com.folio.scheduler.job.failed"

	EventTypeSchedulerStarted = "com.folio.scheduler.started"
	EventTypeSchedulerStopped = "com.folio.scheduler.stopped"
)
