package scheduler

import "sync"

// MockRegistrar is an in-memory Registrar for tests. It records every
// registration and cancellation instead of arming timers.
type MockRegistrar struct {
	mu        sync.Mutex
	alarms    map[AlarmKey]Alarm
	Cancelled map[string]int
}

// Ensure MockRegistrar implements Registrar interface
var _ Registrar = (*MockRegistrar)(nil)

// NewMockRegistrar creates an empty mock registrar
func NewMockRegistrar() *MockRegistrar {
	return &MockRegistrar{
		alarms:    make(map[AlarmKey]Alarm),
		Cancelled: make(map[string]int),
	}
}

func (m *MockRegistrar) Register(alarm Alarm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alarms[alarm.Key] = alarm
}

func (m *MockRegistrar) CancelAll(reminderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancelled := 0
	for key := range m.alarms {
		if key.ReminderID == reminderID {
			delete(m.alarms, key)
			cancelled++
		}
	}
	m.Cancelled[reminderID] += cancelled
	return cancelled
}

// AlarmsFor returns the currently registered alarms for a reminder
func (m *MockRegistrar) AlarmsFor(reminderID string) []Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alarm
	for key, a := range m.alarms {
		if key.ReminderID == reminderID {
			out = append(out, a)
		}
	}
	return out
}

// Count returns the total number of registered alarms
func (m *MockRegistrar) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alarms)
}
