package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// channelNotifier forwards every delivery to a channel so tests can wait
// on firings without polling.
type channelNotifier struct {
	fired chan Notification
}

func (c *channelNotifier) Notify(n Notification) { c.fired <- n }

// gatedNotifier blocks inside Notify until released, letting a test hold
// a fire in flight while it mutates the registrar from another goroutine.
type gatedNotifier struct {
	entered chan Notification
	release chan struct{}
}

func (g *gatedNotifier) Notify(n Notification) {
	g.entered <- n
	<-g.release
}

func waitNotification(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for alarm to fire")
		return Notification{}
	}
}

func assertNoNotification(t *testing.T, ch <-chan Notification, within time.Duration) {
	t.Helper()
	select {
	case n := <-ch:
		t.Fatalf("unexpected delivery: %+v", n)
	case <-time.After(within):
	}
}

func TestTimerRegistrar_IntervalRepeatReArms(t *testing.T) {
	n := &channelNotifier{fired: make(chan Notification, 16)}
	r := NewTimerRegistrar(n, zap.NewNop())

	r.Register(Alarm{
		Key:     AlarmKey{ReminderID: "rem-1", Slot: 0},
		FireAt:  time.Now(),
		Repeat:  20 * time.Millisecond,
		Payload: Notification{ReminderID: "rem-1", MedicationName: "Ibuprofeno"},
	})

	for i := 0; i < 3; i++ {
		got := waitNotification(t, n.fired)
		assert.Equal(t, "Ibuprofeno", got.MedicationName)
	}
	assert.Equal(t, 1, r.ActiveCount())

	assert.Equal(t, 1, r.CancelAll("rem-1"))

	// a fire already past its cancellation check may still deliver once
	time.Sleep(50 * time.Millisecond)
	for len(n.fired) > 0 {
		<-n.fired
	}
	assertNoNotification(t, n.fired, 60*time.Millisecond)
	assert.Equal(t, 0, r.ActiveCount())
}

func TestTimerRegistrar_FixedTimesReArmsForNextDay(t *testing.T) {
	n := &channelNotifier{fired: make(chan Notification, 1)}
	r := NewTimerRegistrar(n, zap.NewNop())

	r.Register(Alarm{
		Key:     AlarmKey{ReminderID: "rem-1", Slot: 0},
		FireAt:  time.Now(),
		Payload: Notification{ReminderID: "rem-1", Time: "08:00"},
	})

	got := waitNotification(t, n.fired)
	assert.Equal(t, "08:00", got.Time)

	// the next occurrence is a day out, so the key stays armed but quiet
	assert.Equal(t, 1, r.ActiveCount())
	assertNoNotification(t, n.fired, 50*time.Millisecond)
}

func TestTimerRegistrar_RegisterReplacesSameKey(t *testing.T) {
	n := &channelNotifier{fired: make(chan Notification, 2)}
	r := NewTimerRegistrar(n, zap.NewNop())
	key := AlarmKey{ReminderID: "rem-1", Slot: 0}

	r.Register(Alarm{Key: key, FireAt: time.Now().Add(time.Hour), Payload: Notification{Time: "08:00"}})
	r.Register(Alarm{Key: key, FireAt: time.Now(), Payload: Notification{Time: "20:00"}})

	assert.Equal(t, 1, r.ActiveCount())
	got := waitNotification(t, n.fired)
	assert.Equal(t, "20:00", got.Time)
}

func TestTimerRegistrar_CancelAllStopsPendingAlarms(t *testing.T) {
	n := &channelNotifier{fired: make(chan Notification, 2)}
	r := NewTimerRegistrar(n, zap.NewNop())

	r.Register(Alarm{Key: AlarmKey{ReminderID: "rem-1", Slot: 0}, FireAt: time.Now().Add(40 * time.Millisecond)})
	r.Register(Alarm{Key: AlarmKey{ReminderID: "rem-1", Slot: 1}, FireAt: time.Now().Add(40 * time.Millisecond)})
	r.Register(Alarm{Key: AlarmKey{ReminderID: "rem-2", Slot: 0}, FireAt: time.Now().Add(time.Hour)})

	assert.Equal(t, 2, r.CancelAll("rem-1"))
	assert.Equal(t, 1, r.ActiveCount())
	assertNoNotification(t, n.fired, 80*time.Millisecond)
}

func TestTimerRegistrar_CancelDuringDeliveryStopsRepeat(t *testing.T) {
	n := &gatedNotifier{entered: make(chan Notification), release: make(chan struct{})}
	r := NewTimerRegistrar(n, zap.NewNop())

	r.Register(Alarm{
		Key:    AlarmKey{ReminderID: "rem-1", Slot: 0},
		FireAt: time.Now(),
		Repeat: 10 * time.Millisecond,
	})

	<-n.entered // delivery in progress, re-arm not yet reached
	assert.Equal(t, 1, r.CancelAll("rem-1"))
	close(n.release)

	assertNoNotification(t, n.entered, 60*time.Millisecond)
	assert.Equal(t, 0, r.ActiveCount())
}

func TestTimerRegistrar_StaleFireDoesNotClobberReplacement(t *testing.T) {
	n := &gatedNotifier{entered: make(chan Notification), release: make(chan struct{})}
	r := NewTimerRegistrar(n, zap.NewNop())
	key := AlarmKey{ReminderID: "rem-1", Slot: 0}

	r.Register(Alarm{
		Key:     key,
		FireAt:  time.Now(),
		Repeat:  10 * time.Millisecond,
		Payload: Notification{Time: "07:00"},
	})
	<-n.entered // first delivery in progress, re-arm not yet reached

	require.Equal(t, 1, r.CancelAll("rem-1"))
	r.Register(Alarm{
		Key:     key,
		FireAt:  time.Now().Add(time.Hour),
		Payload: Notification{Time: "09:00"},
	})

	close(n.release)

	// the in-flight fire belongs to the cancelled registration; it must
	// not resurrect its repeat chain over the replacement alarm
	assertNoNotification(t, n.entered, 80*time.Millisecond)
	assert.Equal(t, 1, r.ActiveCount())
}
