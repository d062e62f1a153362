package sqlite

import (
	"database/sql"

	"github.com/imagvfx/cook/service"
)

type Services struct {
	js *JobService
}

func NewServices(db *sql.DB) *Services {
	return &Services{
		js: NewJobService(db),
	}
}

func (s *Services) JobService() service.JobService {
	return s.js
}
