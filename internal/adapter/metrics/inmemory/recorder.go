package inmemory

import (
	"sync"

	"chaserbot/internal/app/ports"
)

type Snapshot struct {
	CommandTotal   uint64            `json:"command_total"`
	ByCommand      map[string]uint64 `json:"by_command"`
	ModeChanges    uint64            `json:"mode_changes"`
	ByMode         map[string]uint64 `json:"by_mode"`
	PlanFailures   uint64            `json:"plan_failures"`
	DeadlockEscape uint64            `json:"deadlock_escapes"`
}

type Recorder struct {
	mu        sync.Mutex
	byCommand map[string]uint64
	byMode    map[string]uint64
	failures  uint64
	escapes   uint64
}

var _ ports.DecisionMetrics = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		byCommand: map[string]uint64{},
		byMode:    map[string]uint64{},
	}
}

func (r *Recorder) RecordCommand(packet string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCommand[packet]++
}

func (r *Recorder) RecordModeChange(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMode[mode]++
}

func (r *Recorder) RecordPlanFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *Recorder) RecordEscape() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escapes++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ByCommand:      make(map[string]uint64, len(r.byCommand)),
		ByMode:         make(map[string]uint64, len(r.byMode)),
		PlanFailures:   r.failures,
		DeadlockEscape: r.escapes,
	}
	for k, v := range r.byCommand {
		out.ByCommand[k] = v
		out.CommandTotal += v
	}
	for k, v := range r.byMode {
		out.ByMode[k] = v
		out.ModeChanges += v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
