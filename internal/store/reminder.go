package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medicai-app/backend/internal/validate"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

const reminderDocument = "reminders"

// reminderState is the persisted shape of the reminder store
type reminderState struct {
	Medications map[string]model.Medication `json:"medications"`
	Reminders   map[string]model.Reminder   `json:"reminders"`
	Logs        []model.ReminderLog         `json:"logs"`
}

// ReminderStore owns the on-device medication/reminder document.
// Operations are synchronous in-memory edits followed by one whole-document
// write; a cascade is two phases of the same mutation, not two documents.
type ReminderStore struct {
	mu      sync.Mutex
	state   reminderState
	persist Persister
	logger  *zap.Logger
}

// NewReminderStore loads the reminder document (if any) and returns the store
func NewReminderStore(persist Persister, logger *zap.Logger) (*ReminderStore, error) {
	s := &ReminderStore{
		state: reminderState{
			Medications: make(map[string]model.Medication),
			Reminders:   make(map[string]model.Reminder),
		},
		persist: persist,
		logger:  logger,
	}

	found, err := persist.Load(reminderDocument, &s.state)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder store: %w", err)
	}
	if s.state.Medications == nil {
		s.state.Medications = make(map[string]model.Medication)
	}
	if s.state.Reminders == nil {
		s.state.Reminders = make(map[string]model.Reminder)
	}
	if found {
		logger.Info("reminder store loaded",
			zap.Int("medications", len(s.state.Medications)),
			zap.Int("reminders", len(s.state.Reminders)),
			zap.Int("logs", len(s.state.Logs)),
		)
	}

	return s, nil
}

// AddMedicationInput describes a medication create
type AddMedicationInput struct {
	UserID       string
	Name         string
	Dose         float64
	Unit         string
	Instructions *string
}

// AddMedication validates and stores a new medication
func (s *ReminderStore) AddMedication(in AddMedicationInput) (model.Medication, error) {
	if in.UserID == "" {
		return model.Medication{}, fmt.Errorf("user ID is required")
	}
	if in.Name == "" {
		return model.Medication{}, fmt.Errorf("medication name is required")
	}
	if in.Dose <= 0 {
		return model.Medication{}, fmt.Errorf("medication dose must be positive")
	}
	if in.Unit == "" {
		return model.Medication{}, fmt.Errorf("medication unit is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	med := model.Medication{
		ID:           uuid.New().String(),
		UserID:       in.UserID,
		Name:         in.Name,
		Dose:         in.Dose,
		Unit:         in.Unit,
		Instructions: in.Instructions,
		CreatedAt:    time.Now(),
	}

	s.state.Medications[med.ID] = med
	s.save()

	s.logger.Info("medication added",
		zap.String("medication_id", med.ID),
		zap.String("user_id", med.UserID),
		zap.String("name", med.Name),
	)

	return med, nil
}

// Medication returns a medication by id
func (s *ReminderStore) Medication(id string) (model.Medication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.state.Medications[id]
	return med, ok
}

// Medications returns all medications for a user, newest first
func (s *ReminderStore) Medications(userID string) []model.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Medication
	for _, med := range s.state.Medications {
		if med.UserID == userID {
			out = append(out, med)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdateMedication merges patch fields into an existing medication
func (s *ReminderStore) UpdateMedication(id string, patch model.MedicationPatch) (model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, ok := s.state.Medications[id]
	if !ok {
		return model.Medication{}, fmt.Errorf("medication not found: %s", id)
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return model.Medication{}, fmt.Errorf("medication name is required")
		}
		med.Name = *patch.Name
	}
	if patch.Dose != nil {
		if *patch.Dose <= 0 {
			return model.Medication{}, fmt.Errorf("medication dose must be positive")
		}
		med.Dose = *patch.Dose
	}
	if patch.Unit != nil {
		if *patch.Unit == "" {
			return model.Medication{}, fmt.Errorf("medication unit is required")
		}
		med.Unit = *patch.Unit
	}
	if patch.Instructions != nil {
		med.Instructions = patch.Instructions
	}

	s.state.Medications[id] = med
	s.save()

	return med, nil
}

// DeleteMedication removes the medication and cascades to every reminder
// referencing it, pruning the logs of each deleted reminder. Both phases
// land in the same persisted write. It returns the ids of the reminders
// that were removed so the scheduling bridge can cancel their alarms.
func (s *ReminderStore) DeleteMedication(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Medications[id]; !ok {
		return nil, fmt.Errorf("medication not found: %s", id)
	}
	delete(s.state.Medications, id)

	var removed []string
	for rid, r := range s.state.Reminders {
		if r.MedicationID == id {
			delete(s.state.Reminders, rid)
			removed = append(removed, rid)
		}
	}
	for _, rid := range removed {
		s.pruneLogs(rid)
	}
	s.save()

	s.logger.Info("medication deleted",
		zap.String("medication_id", id),
		zap.Int("reminders_removed", len(removed)),
	)

	return removed, nil
}

// AddReminderInput describes a reminder create
type AddReminderInput struct {
	UserID        string
	MedicationID  string
	ScheduleType  model.ScheduleType
	Times         []string
	IntervalHours int
	Timezone      string
}

// AddReminder validates and stores a new reminder. New reminders start
// enabled.
func (s *ReminderStore) AddReminder(in AddReminderInput) (model.Reminder, error) {
	if in.UserID == "" {
		return model.Reminder{}, fmt.Errorf("user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Medications[in.MedicationID]; !ok {
		return model.Reminder{}, fmt.Errorf("medication not found: %s", in.MedicationID)
	}
	if err := validateSchedule(in.ScheduleType, in.Times, in.IntervalHours); err != nil {
		return model.Reminder{}, err
	}

	reminder := model.Reminder{
		ID:            uuid.New().String(),
		UserID:        in.UserID,
		MedicationID:  in.MedicationID,
		ScheduleType:  in.ScheduleType,
		Times:         append([]string(nil), in.Times...),
		IntervalHours: in.IntervalHours,
		Timezone:      in.Timezone,
		Enabled:       true,
		CreatedAt:     time.Now(),
	}

	s.state.Reminders[reminder.ID] = reminder
	s.save()

	s.logger.Info("reminder added",
		zap.String("reminder_id", reminder.ID),
		zap.String("medication_id", reminder.MedicationID),
		zap.String("schedule_type", string(reminder.ScheduleType)),
	)

	return reminder, nil
}

// Reminder returns a reminder by id
func (s *ReminderStore) Reminder(id string) (model.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Reminders[id]
	return r, ok
}

// Reminders returns all reminders for a user, newest first
func (s *ReminderStore) Reminders(userID string) []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Reminder
	for _, r := range s.state.Reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RemindersForMedication returns all reminders referencing a medication
func (s *ReminderStore) RemindersForMedication(medicationID string) []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Reminder
	for _, r := range s.state.Reminders {
		if r.MedicationID == medicationID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// EnabledReminders returns every enabled reminder across all users.
// The scheduling bridge uses this to re-arm alarms after a restart.
func (s *ReminderStore) EnabledReminders() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Reminder
	for _, r := range s.state.Reminders {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UpdateReminder merges patch fields into an existing reminder and
// revalidates the resulting schedule
func (s *ReminderStore) UpdateReminder(id string, patch model.ReminderPatch) (model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Reminders[id]
	if !ok {
		return model.Reminder{}, fmt.Errorf("reminder not found: %s", id)
	}

	if patch.ScheduleType != nil {
		r.ScheduleType = *patch.ScheduleType
	}
	if patch.Times != nil {
		r.Times = append([]string(nil), (*patch.Times)...)
	}
	if patch.IntervalHours != nil {
		r.IntervalHours = *patch.IntervalHours
	}
	if patch.Timezone != nil {
		r.Timezone = *patch.Timezone
	}

	if err := validateSchedule(r.ScheduleType, r.Times, r.IntervalHours); err != nil {
		return model.Reminder{}, err
	}

	s.state.Reminders[id] = r
	s.save()

	return r, nil
}

// ToggleReminder flips only the enabled flag, leaving the record intact
func (s *ReminderStore) ToggleReminder(id string, enabled bool) (model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Reminders[id]
	if !ok {
		return model.Reminder{}, fmt.Errorf("reminder not found: %s", id)
	}

	r.Enabled = enabled
	s.state.Reminders[id] = r
	s.save()

	s.logger.Info("reminder toggled",
		zap.String("reminder_id", id),
		zap.Bool("enabled", enabled),
	)

	return r, nil
}

// DeleteReminder removes a reminder and prunes its logs
func (s *ReminderStore) DeleteReminder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Reminders[id]; !ok {
		return fmt.Errorf("reminder not found: %s", id)
	}
	delete(s.state.Reminders, id)
	s.pruneLogs(id)
	s.save()

	s.logger.Info("reminder deleted", zap.String("reminder_id", id))

	return nil
}

// AddLogInput describes a reminder log append
type AddLogInput struct {
	UserID     string
	ReminderID string
	Status     model.ReminderLogStatus
	TakenAt    time.Time
	Note       *string
}

// AddLog appends an entry to the append-only reminder audit trail.
// Entries are never mutated after creation.
func (s *ReminderStore) AddLog(in AddLogInput) (model.ReminderLog, error) {
	switch in.Status {
	case model.ReminderTaken, model.ReminderSkipped, model.ReminderMissed:
	default:
		return model.ReminderLog{}, fmt.Errorf("invalid reminder log status: %s", in.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Reminders[in.ReminderID]; !ok {
		return model.ReminderLog{}, fmt.Errorf("reminder not found: %s", in.ReminderID)
	}

	takenAt := in.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	entry := model.ReminderLog{
		ID:         uuid.New().String(),
		UserID:     in.UserID,
		ReminderID: in.ReminderID,
		Status:     in.Status,
		TakenAt:    takenAt,
		Note:       in.Note,
	}

	s.state.Logs = append(s.state.Logs, entry)
	s.save()

	return entry, nil
}

// Logs returns the log entries for a reminder, most recent first
func (s *ReminderStore) Logs(reminderID string) []model.ReminderLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ReminderLog
	for _, l := range s.state.Logs {
		if l.ReminderID == reminderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt)
	})
	return out
}

// pruneLogs drops all logs belonging to a removed reminder. Callers hold
// the lock.
func (s *ReminderStore) pruneLogs(reminderID string) {
	kept := s.state.Logs[:0]
	for _, l := range s.state.Logs {
		if l.ReminderID != reminderID {
			kept = append(kept, l)
		}
	}
	s.state.Logs = kept
}

// validateSchedule enforces the per-type schedule invariants: FIXED_TIMES
// needs a non-empty list of valid HH:MM entries, INTERVAL needs positive
// hours, PRN needs nothing.
func validateSchedule(st model.ScheduleType, times []string, intervalHours int) error {
	switch st {
	case model.ScheduleFixedTimes:
		if len(times) == 0 {
			return fmt.Errorf("fixed-times reminder requires at least one time")
		}
		for _, t := range times {
			if !validate.ClockTime(t) {
				return fmt.Errorf("invalid reminder time %q: must be HH:MM", t)
			}
		}
	case model.ScheduleInterval:
		if intervalHours <= 0 {
			return fmt.Errorf("interval reminder requires positive interval hours")
		}
	case model.SchedulePRN:
		// as-needed: no schedule to validate
	default:
		return fmt.Errorf("invalid schedule type: %s", st)
	}
	return nil
}

func (s *ReminderStore) save() {
	if err := s.persist.Save(reminderDocument, &s.state); err != nil {
		s.logger.Error("failed to persist reminder store", zap.Error(err))
	}
}
