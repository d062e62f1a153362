package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/imagvfx/cook/service"
)

// CreateJobsTable creates jobs table to a database if not exists.
// It is ok to call it multiple times.
func CreateJobsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			ord INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			owner TEXT NOT NULL,
			service TEXT NOT NULL,
			priority INTEGER NOT NULL,
			paused BOOL NOT NULL,
			data TEXT NOT NULL
		);
	`)
	return err
}

// CreateTasksTable creates tasks table to a database if not exists.
// It is ok to call it multiple times.
func CreateTasksTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			ord INTEGER NOT NULL REFERENCES jobs (ord),
			num INTEGER NOT NULL,
			parent_num INTEGER NOT NULL,
			id TEXT NOT NULL,
			title TEXT,
			service TEXT NOT NULL,
			serial_subtasks BOOL NOT NULL,
			commands TEXT NOT NULL,
			expand BOOL NOT NULL,
			PRIMARY KEY (ord, num)
		);
	`)
	return err
}

// JobService interacts with a database for spooled jobs.
type JobService struct {
	db *sql.DB
}

// NewJobService creates a new JobService.
func NewJobService(db *sql.DB) *JobService {
	return &JobService{db: db}
}

// AddJob adds a job and it's tasks into a database.
func (s *JobService) AddJob(j *service.Job) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return -1, err
	}
	defer tx.Rollback()
	ord, err := addJob(tx, j)
	if err != nil {
		return -1, err
	}
	for _, t := range j.Tasks {
		err := addTask(tx, ord, t)
		if err != nil {
			return -1, err
		}
	}
	err = tx.Commit()
	if err != nil {
		return -1, err
	}
	return ord, nil
}

// addJob adds a job into a database.
func addJob(tx *sql.Tx, j *service.Job) (int, error) {
	// Don't insert the job's order number, it will be generated from db.
	result, err := tx.Exec(`
		INSERT INTO jobs (
			id,
			title,
			owner,
			service,
			priority,
			paused,
			data
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID,
		j.Title,
		j.Owner,
		j.Service,
		j.Priority,
		j.Paused,
		j.Data,
	)
	if err != nil {
		return -1, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return -1, err
	}
	ord := int(id)
	return ord, nil
}

// addTask adds a task into a database.
// It takes an order number of its job, because the task doesn't know it yet.
func addTask(tx *sql.Tx, ord int, t *service.Task) error {
	_, err := tx.Exec(`
		INSERT INTO tasks (
			ord,
			num,
			parent_num,
			id,
			title,
			service,
			serial_subtasks,
			commands,
			expand
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ord,
		t.Num,
		t.ParentNum,
		t.ID,
		t.Title,
		t.Service,
		t.SerialSubtasks,
		t.Commands,
		t.Expand,
	)
	if err != nil {
		return err
	}
	return nil
}

// FindJobs finds jobs those matched with given filter.
func (s *JobService) FindJobs(f service.JobFilter) ([]*service.Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	jobs, err := findJobs(tx, f)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		err := attachTasks(tx, j)
		if err != nil {
			return nil, err
		}
	}
	err = tx.Commit()
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// findJobs finds jobs those matched with given filter.
func findJobs(tx *sql.Tx, f service.JobFilter) ([]*service.Job, error) {
	w := NewWhere()
	if f.Order != 0 {
		w.Add("ord", f.Order)
	}
	if f.ID != "" {
		w.Add("id", f.ID)
	}
	if f.Owner != "" {
		w.Add("owner", f.Owner)
	}
	if f.After != 0 {
		w.Cmp("ord", ">", f.After)
	}
	if f.Paused != nil {
		w.Add("paused", *f.Paused)
	}
	rows, err := tx.Query(`
		SELECT
			ord,
			id,
			title,
			owner,
			service,
			priority,
			paused,
			data
		FROM jobs
		`+w.Stmt()+`
		ORDER BY ord ASC
	`,
		w.Vals()...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*service.Job, 0)
	for rows.Next() {
		j := &service.Job{}
		err := rows.Scan(
			&j.Order,
			&j.ID,
			&j.Title,
			&j.Owner,
			&j.Service,
			&j.Priority,
			&j.Paused,
			&j.Data,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// attachTasks attach all tasks to it's job.
func attachTasks(tx *sql.Tx, j *service.Job) error {
	rows, err := tx.Query(`
		SELECT
			num,
			parent_num,
			id,
			title,
			service,
			serial_subtasks,
			commands,
			expand
		FROM tasks
		WHERE
			ord = ?
		ORDER BY num ASC
	`,
		j.Order,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	tasks := make([]*service.Task, 0)
	for rows.Next() {
		t := &service.Task{
			Order: j.Order,
		}
		err := rows.Scan(
			&t.Num,
			&t.ParentNum,
			&t.ID,
			&t.Title,
			&t.Service,
			&t.SerialSubtasks,
			&t.Commands,
			&t.Expand,
		)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}
	j.Tasks = tasks
	return rows.Err()
}

// UpdateJob updates a job's pause state or priority.
func (s *JobService) UpdateJob(j service.JobUpdater) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	err = updateJob(tx, j)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}
	return nil
}

func updateJob(tx *sql.Tx, j service.JobUpdater) error {
	keys := []string{}
	vals := []interface{}{}
	if j.UpdatePaused {
		keys = append(keys, "paused = ?")
		vals = append(vals, j.Paused)
	}
	if j.UpdatePriority {
		keys = append(keys, "priority = ?")
		vals = append(vals, j.Priority)
	}
	if len(keys) == 0 {
		return fmt.Errorf("need at least one parameter to update")
	}
	vals = append(vals, j.Order)
	result, err := tx.Exec(`
		UPDATE jobs
		SET `+strings.Join(keys, ", ")+`
		WHERE
			ord = ?
	`,
		vals...,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job not found: %v", j.Order)
	}
	return nil
}
