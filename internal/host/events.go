package host

import (
	"sync"

	"github.com/nmxmxh/fot_agents/internal/utils"
)

const defaultEventCapacity = 256

// Event is one resonance event emitted by an agent.
type Event struct {
	AgentID   string
	Frequency float64
	Amplitude float64
	Context   string
}

// EventLog writes events through the logger and keeps the most recent
// ones for inspection.
type EventLog struct {
	logger *utils.Logger

	mu       sync.Mutex
	recent   []Event
	capacity int
}

func NewEventLog(logger *utils.Logger, capacity int) *EventLog {
	if logger == nil {
		logger = utils.NopLogger()
	}
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &EventLog{logger: logger, capacity: capacity}
}

func (e *EventLog) Emit(ev Event) error {
	e.logger.Info("Resonance event",
		utils.String("agent_id", ev.AgentID),
		utils.Float64("frequency", ev.Frequency),
		utils.Float64("amplitude", ev.Amplitude),
		utils.String("context", ev.Context))

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.recent) == e.capacity {
		copy(e.recent, e.recent[1:])
		e.recent = e.recent[:len(e.recent)-1]
	}
	e.recent = append(e.recent, ev)
	return nil
}

// Recent returns the retained events, oldest first.
func (e *EventLog) Recent() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.recent...)
}
