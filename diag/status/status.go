package status

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type HealthStatus string

const (
	Healthy      HealthStatus = "healthy"
	Degraded     HealthStatus = "degraded"
	Initializing HealthStatus = "initializing"
	Down         HealthStatus = "down"
)

// Remote systems a command talks to.
const (
	Management = "management"
	Portal     = "portal"
	BaaS       = "baas"
)

const maxRecordCount = 5
const maxLastErrorsMeaningDegraded = 2

type Reporter interface {
	ReportOk(target string, message string)
	ReportError(target string, message string)
	SetCommand(name string)
	GetStatus() Status

	HttpHandler() http.HandlerFunc
}

type Status struct {
	Status  HealthStatus             `json:"status"`
	Command string                   `json:"command,omitempty"`
	Started string                   `json:"started,omitempty"`
	Targets map[string]*TargetStatus `json:"targets"`
}

type TargetStatus struct {
	Status  HealthStatus `json:"status"`
	Records []string     `json:"records"`
}

type record struct {
	time    time.Time
	isError bool
	message string
}

type reporter struct {
	records map[string][]record
	mu      sync.RWMutex
	status  Status
	now     func() time.Time
}

func NewReporter() Reporter {
	return newReporter(time.Now)
}

func newReporter(now func() time.Time) *reporter {
	return &reporter{
		records: make(map[string][]record),
		status: Status{
			Status:  Initializing,
			Started: now().UTC().Format(time.RFC1123),
			Targets: make(map[string]*TargetStatus),
		},
		now: now,
	}
}

func (r *reporter) ReportOk(target string, message string) {
	r.appendRecord(target, "[ok] "+message, false)
}

func (r *reporter) ReportError(target string, message string) {
	r.appendRecord(target, "[error] "+message, true)
}

func (r *reporter) SetCommand(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Command = name
}

func (r *reporter) HttpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status, err := json.Marshal(r.GetStatus())
		if err != nil {
			http.Error(w, "Error producing status", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(status)
	}
}

// GetStatus returns a snapshot, safe to use while requests keep reporting.
func (r *reporter) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := r.status
	snapshot.Targets = make(map[string]*TargetStatus, len(r.status.Targets))
	for name, target := range r.status.Targets {
		snapshot.Targets[name] = &TargetStatus{
			Status:  target.Status,
			Records: append([]string(nil), target.Records...),
		}
	}
	return snapshot
}

func checkStatus(records []record) ([]string, HealthStatus) {
	length := len(records)
	targetRecords := make([]string, length)
	var errorCount = 0
	for i, msg := range records {
		targetRecords[i] = msg.time.UTC().Format(time.RFC1123) + ": " + msg.message
		if i >= length-maxLastErrorsMeaningDegraded {
			if msg.isError {
				errorCount++
			} else {
				errorCount--
			}
		}
	}
	if errorCount > 0 && errorCount >= min(maxLastErrorsMeaningDegraded, length) {
		return targetRecords, Degraded
	}
	return targetRecords, Healthy
}

func (r *reporter) appendRecord(target string, message string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, ok := r.records[target]
	if !ok {
		recs = make([]record, 0, maxRecordCount)
	}
	recs = append(recs, record{time: r.now(), isError: isError, message: message})
	if len(recs) > maxRecordCount {
		recs = recs[1:]
	}
	r.records[target] = recs

	current, ok := r.status.Targets[target]
	if !ok {
		current = &TargetStatus{Status: Initializing}
		r.status.Targets[target] = current
	}
	rec, stat := checkStatus(recs)
	// A target that never answered properly is down rather than degraded.
	if stat == Degraded && (current.Status == Initializing || current.Status == Down) {
		stat = Down
	}
	current.Records = rec
	current.Status = stat

	allDown := true
	hasDegraded := false
	for _, t := range r.status.Targets {
		if t.Status != Down {
			allDown = false
		}
		if t.Status != Healthy {
			hasDegraded = true
		}
	}
	switch {
	case allDown:
		r.status.Status = Down
	case hasDegraded:
		r.status.Status = Degraded
	default:
		r.status.Status = Healthy
	}
}
