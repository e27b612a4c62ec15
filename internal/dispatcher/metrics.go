package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/ecscli/internal/dispatcher/handler"
)

// Metrics collects command execution statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics
	commandMetrics map[string]*CommandMetrics

	// Global counters
	totalExecutions uint64
	totalErrors     uint64
	totalPanics     uint64
	totalNotFound   uint64
	totalEmpty      uint64

	totalDuration time.Duration
}

// CommandMetrics holds metrics for a specific command.
type CommandMetrics struct {
	Name          string
	InvokeCount   uint64
	ErrorCount    uint64
	PanicCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastStatus    handler.ResultStatus
	LastInvoke    time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
	}
}

// RecordResult records the outcome of one Execute call.
func (m *Metrics) RecordResult(result handler.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalExecutions++

	switch result.Status {
	case handler.StatusEmptyInput:
		m.totalEmpty++
		return
	case handler.StatusNotFound:
		m.totalNotFound++
		return
	case handler.StatusError:
		m.totalErrors++
	}

	if !result.Invoked {
		return
	}

	d := result.Duration
	m.totalDuration += d

	cm := m.command(result.Command)
	if cm.InvokeCount == 0 || d < cm.MinDuration {
		cm.MinDuration = d
	}
	if d > cm.MaxDuration {
		cm.MaxDuration = d
	}

	cm.InvokeCount++
	cm.TotalDuration += d
	cm.LastStatus = result.Status
	cm.LastInvoke = time.Now()

	if result.Status == handler.StatusError {
		cm.ErrorCount++
	}
}

// RecordPanic records a recovered panic in a command's handler or its
// deferred work.
func (m *Metrics) RecordPanic(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
	m.command(command).PanicCount++
}

// command returns the entry for name, creating it. Callers hold mu.
func (m *Metrics) command(name string) *CommandMetrics {
	cm := m.commandMetrics[name]
	if cm == nil {
		cm = &CommandMetrics{Name: name}
		m.commandMetrics[name] = cm
	}
	return cm
}

// TotalExecutions returns the total number of Execute calls.
func (m *Metrics) TotalExecutions() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalExecutions
}

// TotalErrors returns the number of handler failures.
func (m *Metrics) TotalErrors() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalErrors
}

// TotalPanics returns the number of recovered panics.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// TotalNotFound returns the number of lines naming an unknown command.
func (m *Metrics) TotalNotFound() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalNotFound
}

// CommandStats returns metrics for a specific command.
func (m *Metrics) CommandStats(name string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandMetrics[name]
	if cm == nil {
		return nil
	}

	copy := *cm
	return &copy
}

// TopCommands returns the n most invoked commands.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmds := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		copy := *cm
		cmds = append(cmds, &copy)
	}

	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].InvokeCount != cmds[j].InvokeCount {
			return cmds[i].InvokeCount > cmds[j].InvokeCount
		}
		return cmds[i].Name < cmds[j].Name
	})

	if n > len(cmds) {
		n = len(cmds)
	}
	return cmds[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commandMetrics = make(map[string]*CommandMetrics)
	m.totalExecutions = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalNotFound = 0
	m.totalEmpty = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time view of the global counters.
type MetricsSnapshot struct {
	TotalExecutions uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalNotFound   uint64
	TotalEmpty      uint64
	TotalDuration   time.Duration
	CommandCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		TotalExecutions: m.totalExecutions,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalNotFound:   m.totalNotFound,
		TotalEmpty:      m.totalEmpty,
		TotalDuration:   m.totalDuration,
		CommandCount:    len(m.commandMetrics),
		Timestamp:       time.Now(),
	}
}

// AverageDuration returns the average duration for the command.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.InvokeCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.InvokeCount)
}

// ErrorRate returns the error rate as a percentage.
func (cm *CommandMetrics) ErrorRate() float64 {
	if cm.InvokeCount == 0 {
		return 0
	}
	return float64(cm.ErrorCount) / float64(cm.InvokeCount) * 100
}
