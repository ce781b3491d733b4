package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// AlarmKey identifies one platform alarm. Fixed-times reminders register
// one alarm per time entry, so each can fire and be cancelled on its own.
type AlarmKey struct {
	ReminderID string
	Slot       int
}

// Notification is the payload delivered when an alarm fires
type Notification struct {
	ReminderID     string
	MedicationID   string
	MedicationName string
	Dose           float64
	Unit           string
	Time           string
}

// Alarm is one registered wake-up point. A zero Repeat means one-shot
// (fixed-times alarms re-arm for the next day when they fire); a positive
// Repeat fires every Repeat from FireAt.
type Alarm struct {
	Key     AlarmKey
	FireAt  time.Time
	Repeat  time.Duration
	Payload Notification
}

// Registrar abstracts the platform alarm facility
type Registrar interface {
	Register(alarm Alarm)
	CancelAll(reminderID string) int
}

// Notifier receives fired alarms. Delivering a notification never writes
// a reminder log; logging happens only when the user acts on it.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier is the default Notifier: it emits fired reminders to the
// structured log, where a delivery integration can pick them up.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l *LogNotifier) Notify(n Notification) {
	l.Logger.Info("reminder fired",
		zap.String("reminder_id", n.ReminderID),
		zap.String("medication", n.MedicationName),
		zap.Float64("dose", n.Dose),
		zap.String("unit", n.Unit),
		zap.String("time", n.Time),
	)
}

// armedTimer is one live map entry. The generation ties a pending fire
// to the registration that armed it, so a fire racing a cancel-and-
// re-register cannot mistake the replacement entry for its own.
type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

// TimerRegistrar is the production Registrar, backed by in-process timers.
// Timers do not survive a restart, which is why the bridge re-registers
// everything at start.
type TimerRegistrar struct {
	mu       sync.Mutex
	nextGen  uint64
	timers   map[AlarmKey]*armedTimer
	notifier Notifier
	logger   *zap.Logger
}

// Ensure TimerRegistrar implements Registrar interface
var _ Registrar = (*TimerRegistrar)(nil)

// NewTimerRegistrar creates a timer-backed registrar delivering to notifier
func NewTimerRegistrar(notifier Notifier, logger *zap.Logger) *TimerRegistrar {
	return &TimerRegistrar{
		timers:   make(map[AlarmKey]*armedTimer),
		notifier: notifier,
		logger:   logger,
	}
}

// Register arms a timer for the alarm, replacing any timer already held
// under the same key
func (r *TimerRegistrar) Register(alarm Alarm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.timers[alarm.Key]; ok {
		old.timer.Stop()
	}

	r.nextGen++
	gen := r.nextGen

	delay := time.Until(alarm.FireAt)
	if delay < 0 {
		delay = 0
	}

	r.timers[alarm.Key] = &armedTimer{
		timer: time.AfterFunc(delay, func() { r.fire(alarm, gen) }),
		gen:   gen,
	}

	r.logger.Debug("alarm registered",
		zap.String("reminder_id", alarm.Key.ReminderID),
		zap.Int("slot", alarm.Key.Slot),
		zap.Time("fire_at", alarm.FireAt),
		zap.Duration("repeat", alarm.Repeat),
	)
}

// CancelAll stops and removes every alarm keyed by the reminder id,
// returning how many were cancelled
func (r *TimerRegistrar) CancelAll(reminderID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	for key, t := range r.timers {
		if key.ReminderID == reminderID {
			t.timer.Stop()
			delete(r.timers, key)
			cancelled++
		}
	}

	if cancelled > 0 {
		r.logger.Debug("alarms cancelled",
			zap.String("reminder_id", reminderID),
			zap.Int("count", cancelled),
		)
	}

	return cancelled
}

// ActiveCount returns the number of currently armed alarms
func (r *TimerRegistrar) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// fire delivers the notification and re-arms the alarm for its next
// occurrence: Repeat later for interval alarms, next day for fixed times.
func (r *TimerRegistrar) fire(alarm Alarm, gen uint64) {
	r.notifier.Notify(alarm.Payload)

	r.mu.Lock()
	defer r.mu.Unlock()

	// The alarm may have been cancelled, or cancelled and replaced under
	// the same key, while the notification was being delivered. Re-arm
	// only if the map still holds the entry this fire was armed by.
	cur, ok := r.timers[alarm.Key]
	if !ok || cur.gen != gen {
		return
	}

	next := alarm
	if alarm.Repeat > 0 {
		next.FireAt = alarm.FireAt.Add(alarm.Repeat)
	} else {
		next.FireAt = alarm.FireAt.AddDate(0, 0, 1)
	}

	delay := time.Until(next.FireAt)
	if delay < 0 {
		delay = 0
	}
	r.timers[alarm.Key] = &armedTimer{
		timer: time.AfterFunc(delay, func() { r.fire(next, gen) }),
		gen:   gen,
	}
}
