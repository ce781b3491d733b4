package model

import "time"

// MessageRole represents the role of a chat message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// ChatThread represents an ordered conversation between a user and the assistant
type ChatThread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage represents one message within a thread
type ChatMessage struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"thread_id"`
	UserID    string            `json:"user_id,omitempty"`
	Role      MessageRole       `json:"role"`
	Content   string            `json:"content"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ThreadPatch carries optional thread updates; a nil field means no change
type ThreadPatch struct {
	Title *string `json:"title,omitempty"`
}

// Medication represents a medication record owned by a user
type Medication struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Dose         float64   `json:"dose"`
	Unit         string    `json:"unit"`
	Instructions *string   `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MedicationPatch carries optional medication updates; a nil field means no change
type MedicationPatch struct {
	Name         *string  `json:"name,omitempty"`
	Dose         *float64 `json:"dose,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Instructions *string  `json:"instructions,omitempty"`
}

// ScheduleType represents how a reminder computes its firing times
type ScheduleType string

const (
	ScheduleFixedTimes ScheduleType = "FIXED_TIMES"
	ScheduleInterval   ScheduleType = "INTERVAL"
	SchedulePRN        ScheduleType = "PRN"
)

// Reminder represents a medication reminder schedule
type Reminder struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	MedicationID  string       `json:"medication_id"`
	ScheduleType  ScheduleType `json:"schedule_type"`
	Times         []string     `json:"times,omitempty"`
	IntervalHours int          `json:"interval_hours,omitempty"`
	Timezone      string       `json:"timezone,omitempty"`
	Enabled       bool         `json:"enabled"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ReminderPatch carries optional reminder updates; a nil field means no change
type ReminderPatch struct {
	ScheduleType  *ScheduleType `json:"schedule_type,omitempty"`
	Times         *[]string     `json:"times,omitempty"`
	IntervalHours *int          `json:"interval_hours,omitempty"`
	Timezone      *string       `json:"timezone,omitempty"`
}

// ReminderLogStatus represents the user's response to a fired reminder
type ReminderLogStatus string

const (
	ReminderTaken   ReminderLogStatus = "taken"
	ReminderSkipped ReminderLogStatus = "skipped"
	ReminderMissed  ReminderLogStatus = "missed"
)

// ReminderLog is an append-only record of how the user acted on a reminder
type ReminderLog struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	ReminderID string            `json:"reminder_id"`
	Status     ReminderLogStatus `json:"status"`
	TakenAt    time.Time         `json:"taken_at"`
	Note       *string           `json:"note,omitempty"`
}

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a backend-resident appointment row.
// The backend owns these rows; local copies are read-through projections.
type Appointment struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	DoctorName   string            `json:"doctor_name"`
	Specialty    string            `json:"specialty"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Location     string            `json:"location"`
	Notes        *string           `json:"notes,omitempty"`
	Status       AppointmentStatus `json:"status"`
	ReminderSent bool              `json:"reminder_sent"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// AppointmentPatch carries optional appointment updates; a nil field means no change
type AppointmentPatch struct {
	DoctorName *string            `json:"doctor_name,omitempty"`
	Specialty  *string            `json:"specialty,omitempty"`
	Date       *string            `json:"date,omitempty"`
	Time       *string            `json:"time,omitempty"`
	Location   *string            `json:"location,omitempty"`
	Notes      *string            `json:"notes,omitempty"`
	Status     *AppointmentStatus `json:"status,omitempty"`
}

// UserProfile represents a backend-resident user profile row
type UserProfile struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name"`
	Phone                *string   `json:"phone,omitempty"`
	AvatarURL            *string   `json:"avatar_url,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	ReminderMinutes      int       `json:"reminder_minutes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ProfilePatch carries optional profile updates; a nil field means no change
type ProfilePatch struct {
	FullName             *string `json:"full_name,omitempty"`
	Phone                *string `json:"phone,omitempty"`
	AvatarURL            *string `json:"avatar_url,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	ReminderMinutes      *int    `json:"reminder_minutes,omitempty"`
}

// Settings holds on-device application settings
type Settings struct {
	Theme                string `json:"theme"`
	DailyMessageLimit    int    `json:"daily_message_limit"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	Locale               string `json:"locale"`
	LargeText            bool   `json:"large_text"`
	ReduceMotion         bool   `json:"reduce_motion"`
}

// SettingsPatch carries optional settings updates; a nil field means no change
type SettingsPatch struct {
	Theme                *string `json:"theme,omitempty"`
	DailyMessageLimit    *int    `json:"daily_message_limit,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	Locale               *string `json:"locale,omitempty"`
	LargeText            *bool   `json:"large_text,omitempty"`
	ReduceMotion         *bool   `json:"reduce_motion,omitempty"`
}
