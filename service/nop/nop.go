package nop

import "github.com/imagvfx/cook/service"

// Services are Services which do nothing.
type Services struct {
	js *JobService
}

// NewServices creates a new Services.
func NewServices() *Services {
	return &Services{js: &JobService{}}
}

func (s *Services) JobService() service.JobService {
	return s.js
}

// JobService is a JobService which does nothing.
// We need this for testing, and dry runs.
type JobService struct{}

// AddJob returns (0, nil) always.
func (s *JobService) AddJob(j *service.Job) (int, error) {
	return 0, nil
}

// UpdateJob returns nil.
func (s *JobService) UpdateJob(service.JobUpdater) error {
	return nil
}

// FindJobs returns (nil, nil).
func (s *JobService) FindJobs(f service.JobFilter) ([]*service.Job, error) {
	return nil, nil
}
