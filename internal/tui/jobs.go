package tui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

type jobKind string

type jobStatus string

const (
	jobKindRefresh  jobKind = "refresh"
	jobKindGenerate jobKind = "generate"
	jobKindSubmit   jobKind = "submit"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus runs service calls off the update loop. Every job derives from one root context so
// quitting the program stops whatever is still in flight, and the latest job of each kind can
// be cancelled on its own.
type jobBus struct {
	counter int64
	root    context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger

	mu      sync.Mutex
	running map[jobKind]runningJob
}

type runningJob struct {
	id     string
	cancel context.CancelFunc
}

func newJobBus(log zerolog.Logger) *jobBus {
	root, cancel := context.WithCancel(context.Background())
	return &jobBus{root: root, cancel: cancel, log: log, running: map[jobKind]runningJob{}}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

// Shutdown cancels every running job.
func (b *jobBus) Shutdown() {
	b.cancel()
}

// Cancel stops the most recent job of kind. It reports whether one was still running.
func (b *jobBus) Cancel(kind jobKind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.running[kind]
	if !ok {
		return false
	}
	job.cancel()
	delete(b.running, kind)
	return true
}

func (b *jobBus) track(kind jobKind, id string, cancel context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.running[kind]; ok {
		prev.cancel()
	}
	b.running[kind] = runningJob{id: id, cancel: cancel}
}

func (b *jobBus) finish(kind jobKind, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job, ok := b.running[kind]; ok && job.id == id {
		delete(b.running, kind)
	}
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	ctx, cancel := context.WithCancel(b.root)
	b.track(kind, id, cancel)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(ctx)
		cancel()
		b.finish(kind, id)
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		} else {
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		event := b.log.Info()
		if err != nil {
			event = b.log.Warn().Err(err)
		}
		event.Str("job", id).Str("kind", string(kind)).Str("status", string(snapshot.Status)).Dur("duration", snapshot.Duration).Msg("job finished")
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return tea.Sequence(startCmd, runCmd)
}
