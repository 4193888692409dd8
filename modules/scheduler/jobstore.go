package scheduler

import (
	"slices"
	"strings"
	"sync"
	"time"
)

type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job describes a registered recurring job.
type Job struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Status    JobStatus  `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	Runs      int        `json:"runs"`
	LastError string     `json:"lastError,omitempty"`
}

// JobExecution records one run of a job.
type JobExecution struct {
	JobName   string    `json:"jobName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
}

func (e JobExecution) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// JobStore keeps job records and their recent executions.
type JobStore interface {
	AddJob(job Job) error
	UpdateJob(job Job) error
	GetJob(name string) (Job, error)
	GetJobs() ([]Job, error)
	DeleteJob(name string) error
	AddJobExecution(execution JobExecution) error
	GetJobExecutions(name string) ([]JobExecution, error)
}

// MemoryJobStore is a JobStore that keeps the newest limit executions per job.
type MemoryJobStore struct {
	mu         sync.RWMutex
	jobs       map[string]Job
	executions map[string][]JobExecution
	limit      int
}

func NewMemoryJobStore(limit int) *MemoryJobStore {
	if limit < 1 {
		limit = 1
	}
	return &MemoryJobStore{
		jobs:       make(map[string]Job),
		executions: make(map[string][]JobExecution),
		limit:      limit,
	}
}

func (s *MemoryJobStore) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return ErrJobExists
	}
	s.jobs[job.Name] = job
	return nil
}

func (s *MemoryJobStore) UpdateJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; !ok {
		return ErrJobNotFound
	}
	s.jobs[job.Name] = job
	return nil
}

func (s *MemoryJobStore) GetJob(name string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[name]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

// GetJobs returns every job sorted by name.
func (s *MemoryJobStore) GetJobs() ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	slices.SortFunc(jobs, func(a, b Job) int { return strings.Compare(a.Name, b.Name) })
	return jobs, nil
}

func (s *MemoryJobStore) DeleteJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, name)
	delete(s.executions, name)
	return nil
}

func (s *MemoryJobStore) AddJobExecution(execution JobExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[execution.JobName]; !ok {
		return ErrJobNotFound
	}
	history := append(s.executions[execution.JobName], execution)
	if over := len(history) - s.limit; over > 0 {
		history = slices.Delete(history, 0, over)
	}
	s.executions[execution.JobName] = history
	return nil
}

// GetJobExecutions returns the retained executions, oldest first.
func (s *MemoryJobStore) GetJobExecutions(name string) ([]JobExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.jobs[name]; !ok {
		return nil, ErrJobNotFound
	}
	return slices.Clone(s.executions[name]), nil
}
