package scheduler

import (
	"testing"
	"time"

	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bridgeFixture struct {
	store     *store.ReminderStore
	registrar *MockRegistrar
	bridge    *Bridge
	med       model.Medication
}

func newBridgeFixture(t *testing.T) *bridgeFixture {
	t.Helper()

	persister, err := store.NewFilePersister(t.TempDir())
	require.NoError(t, err)

	st, err := store.NewReminderStore(persister, zap.NewNop())
	require.NoError(t, err)

	med, err := st.AddMedication(store.AddMedicationInput{
		UserID: "user-1",
		Name:   "Paracetamol",
		Dose:   500,
		Unit:   "mg",
	})
	require.NoError(t, err)

	registrar := NewMockRegistrar()
	return &bridgeFixture{
		store:     st,
		registrar: registrar,
		bridge:    NewBridge(st, registrar, zap.NewNop()),
		med:       med,
	}
}

func (f *bridgeFixture) addReminder(t *testing.T, in store.AddReminderInput) model.Reminder {
	t.Helper()

	in.UserID = "user-1"
	in.MedicationID = f.med.ID
	r, err := f.store.AddReminder(in)
	require.NoError(t, err)
	return r
}

func TestSync_FixedTimes_OneAlarmPerSlot(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"08:00", "20:00"},
	})

	registered := f.bridge.Sync(r)
	assert.Equal(t, 2, registered)
	assert.Equal(t, 2, f.registrar.Count())

	alarms := f.registrar.AlarmsFor(r.ID)
	require.Len(t, alarms, 2)
	for _, a := range alarms {
		assert.Zero(t, a.Repeat, "fixed-times alarms are re-armed on fire, not repeating")
		assert.Equal(t, "Paracetamol", a.Payload.MedicationName)
		assert.Equal(t, 500.0, a.Payload.Dose)
	}
}

func TestSync_DisabledCancelsAllAlarms(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"08:00", "20:00"},
	})

	f.bridge.Sync(r)
	require.Equal(t, 2, f.registrar.Count())

	disabled, err := f.store.ToggleReminder(r.ID, false)
	require.NoError(t, err)

	registered := f.bridge.Sync(disabled)
	assert.Zero(t, registered)
	assert.Zero(t, f.registrar.Count())
	assert.Equal(t, 2, f.registrar.Cancelled[r.ID], "both platform alarms cancelled")
}

func TestSync_Interval_SingleRepeatingAlarm(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{
		ScheduleType:  model.ScheduleInterval,
		IntervalHours: 8,
	})

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.bridge.now = func() time.Time { return now }

	registered := f.bridge.Sync(r)
	assert.Equal(t, 1, registered)

	alarms := f.registrar.AlarmsFor(r.ID)
	require.Len(t, alarms, 1)
	assert.Equal(t, 8*time.Hour, alarms[0].Repeat)
	assert.Equal(t, now.Add(8*time.Hour), alarms[0].FireAt)
}

func TestSync_PRN_RegistersNothing(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{ScheduleType: model.SchedulePRN})

	assert.Zero(t, f.bridge.Sync(r))
	assert.Zero(t, f.registrar.Count())
}

func TestSync_ResyncReplacesInsteadOfAccumulating(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"08:00", "14:00", "20:00"},
	})

	f.bridge.Sync(r)
	require.Equal(t, 3, f.registrar.Count())

	times := []string{"09:30"}
	updated, err := f.store.UpdateReminder(r.ID, model.ReminderPatch{Times: &times})
	require.NoError(t, err)

	f.bridge.Sync(updated)
	assert.Equal(t, 1, f.registrar.Count())
}

func TestRemove_CancelsEveryAlarm(t *testing.T) {
	f := newBridgeFixture(t)
	r := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"08:00", "20:00"},
	})

	f.bridge.Sync(r)
	assert.Equal(t, 2, f.bridge.Remove(r.ID))
	assert.Zero(t, f.registrar.Count())
}

func TestRestore_ReArmsOnlyEnabledReminders(t *testing.T) {
	f := newBridgeFixture(t)

	enabled := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"08:00", "20:00"},
	})
	disabled := f.addReminder(t, store.AddReminderInput{
		ScheduleType: model.ScheduleFixedTimes,
		Times:        []string{"12:00"},
	})
	_, err := f.store.ToggleReminder(disabled.ID, false)
	require.NoError(t, err)

	registered := f.bridge.Restore()
	assert.Equal(t, 2, registered)
	assert.Len(t, f.registrar.AlarmsFor(enabled.ID), 2)
	assert.Empty(t, f.registrar.AlarmsFor(disabled.ID))
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("time still ahead fires today", func(t *testing.T) {
		got, err := nextOccurrence(now, "20:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), got)
	})

	t.Run("time already passed fires tomorrow", func(t *testing.T) {
		got, err := nextOccurrence(now, "08:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), got)
	})

	t.Run("exact current minute fires tomorrow", func(t *testing.T) {
		got, err := nextOccurrence(now, "12:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC), got)
	})

	t.Run("invalid format errors", func(t *testing.T) {
		for _, raw := range []string{"", "8am", "25:00", "12:60", "1200"} {
			_, err := nextOccurrence(now, raw)
			assert.Error(t, err, raw)
		}
	})
}

func TestLocation_UnknownZoneFallsBackToLocal(t *testing.T) {
	f := newBridgeFixture(t)

	assert.Equal(t, time.Local, f.bridge.location(""))
	assert.Equal(t, time.Local, f.bridge.location("Mars/Olympus"))

	loc := f.bridge.location("UTC")
	assert.Equal(t, "UTC", loc.String())
}
