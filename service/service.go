// Package service defines storage of jobs spooled to the farm.
package service

// Services are services a farm server needs.
type Services interface {
	JobService() JobService
}

// JobService is an interface which let us use sqlite.JobService.
type JobService interface {
	AddJob(*Job) (int, error)
	FindJobs(JobFilter) ([]*Job, error)
	UpdateJob(JobUpdater) error
}

// Job is a spooled job information for database service.
type Job struct {
	// Order is the job's order in the database. It is set when the job is added.
	Order int

	// ID is the job's id, given when it was initialized.
	ID       string
	Title    string
	Owner    string
	Service  string
	Priority int
	Paused   bool

	// Data is the job serialized as json.
	Data string

	Tasks []*Task
}

// Task is a task information for database service.
type Task struct {
	Order int

	// Num is the task's walk order in its job.
	Num int

	// ParentNum is Num of the parent the task reached first.
	// It is -1 for the job's own task.
	ParentNum int

	ID             string
	Title          string
	Service        string
	SerialSubtasks bool

	// Commands are the task's commands serialized as json.
	Commands string

	// Expand indicates the task declares subtasks at runtime.
	Expand bool
}

// JobFilter is a job filter for searching jobs.
type JobFilter struct {
	Order int
	ID    string
	Owner string

	// After makes the filter match jobs spooled after the job with the order.
	After int

	// Paused matches jobs with the paused state, when not nil.
	Paused *bool
}

// JobUpdater has information for updating a job.
type JobUpdater struct {
	Order          int
	UpdatePaused   bool
	Paused         bool
	UpdatePriority bool
	Priority       int
}
