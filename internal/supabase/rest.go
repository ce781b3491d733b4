package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/medicai-app/backend/pkg/model"
)

// Table-style resource access. Rows are filtered by user_id; updates
// target a single row via an id equality filter. The backend owns these
// rows; callers cache them as read-through projections only.

// ListMedicines retrieves the user's remote medicine rows
func (c *Client) ListMedicines(ctx context.Context, session *Session, userID string) ([]model.Medication, error) {
	var out []model.Medication
	path := "/rest/v1/medicines?select=*&user_id=eq." + url.QueryEscape(userID) + "&order=created_at.desc"
	if err := c.do(ctx, "list medicines", http.MethodGet, path, token(session), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMedicine inserts a medicine row and returns the stored row
func (c *Client) CreateMedicine(ctx context.Context, session *Session, med model.Medication) (*model.Medication, error) {
	var rows []model.Medication
	if err := c.do(ctx, "create medicine", http.MethodPost, "/rest/v1/medicines", token(session), med, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Op: "create medicine", Message: "backend returned no row"}
	}
	return &rows[0], nil
}

// DeleteMedicine removes a medicine row by id
func (c *Client) DeleteMedicine(ctx context.Context, session *Session, id string) error {
	path := "/rest/v1/medicines?id=eq." + url.QueryEscape(id)
	return c.do(ctx, "delete medicine", http.MethodDelete, path, token(session), nil, nil)
}

// ListAppointments retrieves the user's appointments ordered by date
func (c *Client) ListAppointments(ctx context.Context, session *Session, userID string) ([]model.Appointment, error) {
	var out []model.Appointment
	path := "/rest/v1/appointments?select=*&user_id=eq." + url.QueryEscape(userID) + "&order=date.asc,time.asc"
	if err := c.do(ctx, "list appointments", http.MethodGet, path, token(session), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAppointment inserts an appointment row and returns the stored row
func (c *Client) CreateAppointment(ctx context.Context, session *Session, appt model.Appointment) (*model.Appointment, error) {
	var rows []model.Appointment
	if err := c.do(ctx, "create appointment", http.MethodPost, "/rest/v1/appointments", token(session), appt, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Op: "create appointment", Message: "backend returned no row"}
	}
	return &rows[0], nil
}

// UpdateAppointment patches a single appointment row by id
func (c *Client) UpdateAppointment(ctx context.Context, session *Session, id string, patch model.AppointmentPatch) (*model.Appointment, error) {
	var rows []model.Appointment
	path := "/rest/v1/appointments?id=eq." + url.QueryEscape(id)
	if err := c.do(ctx, "update appointment", http.MethodPatch, path, token(session), patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Op: "update appointment", Status: http.StatusNotFound, Message: "appointment not found"}
	}
	return &rows[0], nil
}

// CancelAppointment marks an appointment cancelled without deleting it
func (c *Client) CancelAppointment(ctx context.Context, session *Session, id string) (*model.Appointment, error) {
	cancelled := model.AppointmentCancelled
	return c.UpdateAppointment(ctx, session, id, model.AppointmentPatch{Status: &cancelled})
}

// GetProfile retrieves the user's profile row
func (c *Client) GetProfile(ctx context.Context, session *Session, userID string) (*model.UserProfile, error) {
	var rows []model.UserProfile
	path := "/rest/v1/profiles?select=*&id=eq." + url.QueryEscape(userID)
	if err := c.do(ctx, "get profile", http.MethodGet, path, token(session), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Op: "get profile", Status: http.StatusNotFound, Message: "profile not found"}
	}
	return &rows[0], nil
}

// UpdateProfile patches the user's profile row. Unset patch fields leave
// the row untouched; the backend applies last-write-wins, no merging.
func (c *Client) UpdateProfile(ctx context.Context, session *Session, userID string, patch model.ProfilePatch) (*model.UserProfile, error) {
	var rows []model.UserProfile
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(userID)
	if err := c.do(ctx, "update profile", http.MethodPatch, path, token(session), patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Op: "update profile", Status: http.StatusNotFound, Message: "profile not found"}
	}
	return &rows[0], nil
}

func token(session *Session) string {
	if session == nil {
		return ""
	}
	return session.AccessToken
}
