package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a manuscript import.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusConverting JobStatus = "converting"
	StatusValidating JobStatus = "validating"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Request describes a manuscript to import. Zero-valued metadata falls back
// to what the manuscript itself declares.
type Request struct {
	Slug        string
	Number      *int
	Title       string
	Description string
	Force       bool
	Filename    string
	Data        []byte
}

// Job tracks one manuscript import.
type Job struct {
	mu sync.Mutex

	ID       string
	Slug     string
	Filename string
	Force    bool

	Status JobStatus
	Phase  string

	Title       string
	Number      int
	Sections    int
	Found       []string
	Warnings    []string
	ContentHash string

	CreatedAt time.Time
	UpdatedAt time.Time

	req    Request
	errors []string
}

// NewJob creates a queued job for req.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Slug:      req.Slug,
		Filename:  req.Filename,
		Force:     req.Force,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs untouched for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		stale := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if stale {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

func (j *Job) AddWarning(w string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Warnings = append(j.Warnings, w)
	j.UpdatedAt = time.Now()
}

// SetChapter records the resolved chapter metadata.
func (j *Job) SetChapter(title string, number int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.Number = number
	j.UpdatedAt = time.Now()
}

// SetStructure records what the chapter processor detected.
func (j *Job) SetStructure(found []string, sections int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Found = found
	j.Sections = sections
	j.UpdatedAt = time.Now()
}

func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// request returns the submitted manuscript and drops the job's reference to
// the file bytes, which are not needed once parsing starts.
func (j *Job) request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	req := j.req
	j.req.Data = nil
	return req
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Slug        string    `json:"slug"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title,omitempty"`
	Number      int       `json:"number"`
	Sections    int       `json:"sections"`
	Found       []string  `json:"found"`
	Warnings    []string  `json:"warnings"`
	Errors      []string  `json:"errors"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state. Slices are never nil.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		Slug:        j.Slug,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Number:      j.Number,
		Sections:    j.Sections,
		Found:       append([]string{}, j.Found...),
		Warnings:    append([]string{}, j.Warnings...),
		Errors:      append([]string{}, j.errors...),
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
