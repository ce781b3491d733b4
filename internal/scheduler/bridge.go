// Package scheduler translates reminder records into keyed alarm
// registrations and reconstructs them after a restart.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// Bridge keeps the alarm registrar in sync with the reminder store.
// Call Sync after every reminder create/update/toggle, Remove after a
// delete, and Restore once at process start.
type Bridge struct {
	store     *store.ReminderStore
	registrar Registrar
	now       func() time.Time
	logger    *zap.Logger
}

// NewBridge creates a scheduling bridge over the given store and registrar
func NewBridge(st *store.ReminderStore, registrar Registrar, logger *zap.Logger) *Bridge {
	return &Bridge{
		store:     st,
		registrar: registrar,
		now:       time.Now,
		logger:    logger,
	}
}

// Sync recomputes the alarms for one reminder from scratch: all prior
// alarms for its id are cancelled, then, if the reminder is enabled, its
// schedule is registered anew. There is no incremental diffing.
func (b *Bridge) Sync(r model.Reminder) int {
	b.registrar.CancelAll(r.ID)

	if !r.Enabled {
		return 0
	}

	med, ok := b.store.Medication(r.MedicationID)
	if !ok {
		b.logger.Warn("reminder references missing medication, not scheduling",
			zap.String("reminder_id", r.ID),
			zap.String("medication_id", r.MedicationID),
		)
		return 0
	}

	switch r.ScheduleType {
	case model.ScheduleFixedTimes:
		return b.registerFixedTimes(r, med)
	case model.ScheduleInterval:
		return b.registerInterval(r, med)
	case model.SchedulePRN:
		// as-needed reminders never register alarms
		return 0
	default:
		b.logger.Warn("unknown schedule type, not scheduling",
			zap.String("reminder_id", r.ID),
			zap.String("schedule_type", string(r.ScheduleType)),
		)
		return 0
	}
}

// Remove cancels every alarm held for a deleted reminder and returns how
// many were cancelled
func (b *Bridge) Remove(reminderID string) int {
	return b.registrar.CancelAll(reminderID)
}

// Restore re-enumerates all enabled reminders and re-registers their
// alarms. Platform alarms do not survive a restart, so this must run once
// at process start.
func (b *Bridge) Restore() int {
	registered := 0
	for _, r := range b.store.EnabledReminders() {
		registered += b.Sync(r)
	}

	b.logger.Info("reminder alarms restored",
		zap.Int("alarms", registered),
	)

	return registered
}

func (b *Bridge) registerFixedTimes(r model.Reminder, med model.Medication) int {
	loc := b.location(r.Timezone)
	now := b.now().In(loc)

	registered := 0
	for slot, hhmm := range r.Times {
		fireAt, err := nextOccurrence(now, hhmm)
		if err != nil {
			b.logger.Warn("skipping invalid reminder time",
				zap.String("reminder_id", r.ID),
				zap.String("time", hhmm),
				zap.Error(err),
			)
			continue
		}

		b.registrar.Register(Alarm{
			Key:     AlarmKey{ReminderID: r.ID, Slot: slot},
			FireAt:  fireAt,
			Payload: b.payload(r, med, hhmm),
		})
		registered++
	}
	return registered
}

func (b *Bridge) registerInterval(r model.Reminder, med model.Medication) int {
	interval := time.Duration(r.IntervalHours) * time.Hour

	b.registrar.Register(Alarm{
		Key:     AlarmKey{ReminderID: r.ID, Slot: 0},
		FireAt:  b.now().Add(interval),
		Repeat:  interval,
		Payload: b.payload(r, med, fmt.Sprintf("every %dh", r.IntervalHours)),
	})
	return 1
}

func (b *Bridge) payload(r model.Reminder, med model.Medication, at string) Notification {
	return Notification{
		ReminderID:     r.ID,
		MedicationID:   med.ID,
		MedicationName: med.Name,
		Dose:           med.Dose,
		Unit:           med.Unit,
		Time:           at,
	}
}

// location resolves the reminder's IANA zone, falling back to the process
// zone when the name is unknown
func (b *Bridge) location(tz string) *time.Location {
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		b.logger.Warn("unknown timezone, using local", zap.String("timezone", tz))
		return time.Local
	}
	return loc
}

// nextOccurrence returns the next wall-clock occurrence of hhmm relative
// to now: today if the time is still ahead, otherwise tomorrow.
func nextOccurrence(now time.Time, hhmm string) (time.Time, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time %q: must be HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", hhmm)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
