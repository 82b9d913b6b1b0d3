package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a fill job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusGenerating JobStatus = "generating"
	StatusInserting  JobStatus = "inserting"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether s is a terminal status.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks the state of a single template fill.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	Topic    string `json:"topic,omitempty"`
	Strategy string `json:"requested_strategy,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`

	TemplateHash string    `json:"template_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Internal: not serialized.
	template    []byte
	contentData []byte
	contentName string
	output      []byte
	outputName  string
	outputType  string
}

// Progress tracks what the fill has done so far.
type Progress struct {
	Zones          int      `json:"zones"`
	Items          int      `json:"items"`
	ItemsDropped   int      `json:"items_dropped"`
	ItemsInserted  int      `json:"items_inserted"`
	ZonesProcessed int      `json:"zones_processed"`
	Strategy       string   `json:"strategy,omitempty"`
	Confidence     float64  `json:"structure_confidence"`
	PlanConfidence float64  `json:"plan_confidence"`
	Warnings       []string `json:"warnings"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for a template upload.
func NewJob(filename string, template []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		template:  template,
		CreatedAt: now,
		UpdatedAt: now,
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// SetContent attaches a content document to insert instead of generating one.
func (j *Job) SetContent(name string, data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.contentName = name
	j.contentData = data
}

// Template returns the raw template bytes.
func (j *Job) Template() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.template
}

// Output returns the filled document, its file name and content type once
// the job is done.
func (j *Job) Output() (data []byte, name, contentType string, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output, j.outputName, j.outputType, j.output != nil
}

func (j *Job) request() FillRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	return FillRequest{
		Filename:    j.Filename,
		Template:    j.template,
		Content:     j.contentData,
		ContentName: j.contentName,
		Topic:       j.Topic,
		Strategy:    j.Strategy,
	}
}

// record copies a fill outcome into the job.
func (j *Job) record(out *FillOutcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.TemplateHash = out.Hash
	if out.Structure != nil {
		j.Progress.Zones = len(out.Structure.Zones)
		j.Progress.Confidence = out.Structure.Confidence
	}
	j.Progress.Items = len(out.Items)
	j.Progress.ItemsDropped = len(out.Dropped)
	if r := out.Result; r != nil {
		j.Progress.ItemsInserted = r.ItemsInserted
		j.Progress.ZonesProcessed = r.ZonesProcessed
		j.Progress.Strategy = string(r.Strategy)
		j.Progress.PlanConfidence = r.PlanConfidence
		j.Progress.Warnings = append(j.Progress.Warnings, r.Warnings...)
		j.Progress.Errors = append(j.Progress.Errors, r.Errors...)
	}
	if out.Output != nil {
		j.output = out.Output
		j.outputName = out.OutputName
		j.outputType = out.ContentType
	}
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string    `json:"job_id"`
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`
	Filename     string    `json:"filename"`
	Topic        string    `json:"topic,omitempty"`
	TemplateHash string    `json:"template_hash,omitempty"`
	Progress     Progress  `json:"progress"`
	HasOutput    bool      `json:"has_output"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Warnings = append([]string{}, j.Progress.Warnings...)
	p.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:           j.ID,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		Topic:        j.Topic,
		TemplateHash: j.TemplateHash,
		Progress:     p,
		HasOutput:    j.output != nil,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}
