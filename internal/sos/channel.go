// Package sos implements the emergency-alert handshake between the elder and
// family dashboards: a shared keyed alert record, a daily history log, and the
// state machines each role runs on top of them.
//
// The shared record is last-write-wins. The elder and family clients never
// race on the same key from within one client, but cross-client writes can
// interleave; every mutation here is therefore written to be idempotent, and
// the record store remains the single source of truth both the push and the
// polling paths converge on.
package sos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KrPrince19/CareNest/internal/kv"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/schedule"
)

// Record keys are scoped per elder email. An un-scoped key would leak one
// elder's alerts into another family's view.
const (
	alertKeyPrefix   = "careNest:emergencyAlert:"
	historyKeyPrefix = "careNest:sosHistory:"

	// dateStampLayout formats the day stamp the history log is keyed by.
	dateStampLayout = "2006-01-02"
)

// ErrNoAlert is returned when no alert record exists for an elder.
var ErrNoAlert = errors.New("sos: no alert record")

func alertKey(email string) string   { return alertKeyPrefix + email }
func historyKey(email string) string { return historyKeyPrefix + email }

// Channel gives both roles typed access to the shared alert record and the
// daily history log.
type Channel struct {
	store  kv.Store
	clock  schedule.Clock
	logger *slog.Logger
}

func NewChannel(store kv.Store, clock schedule.Clock, logger *slog.Logger) *Channel {
	return &Channel{store: store, clock: clock, logger: logger}
}

// Raise writes a fresh pending alert for the elder, superseding any previous
// record under the same key, and appends it to today's history log.
func (c *Channel) Raise(ctx context.Context, user model.User) (model.EmergencyAlert, error) {
	now := c.clock.Now()
	name := user.Name
	if name == "" {
		name = "Elder"
	}
	alert := model.EmergencyAlert{
		ID:         now.UnixMilli(),
		OwnerEmail: user.Email,
		Active:     true,
		Status:     model.AlertPending,
		Message:    fmt.Sprintf("Emergency Alert from %s!", name),
		Timestamp:  now,
	}

	if err := c.putAlert(ctx, alert); err != nil {
		return model.EmergencyAlert{}, err
	}
	if err := c.appendHistory(ctx, alert); err != nil {
		// The alert record is the authoritative path; a history write failure
		// must not fail the raise.
		c.logger.Error("appending alert to history failed", "email", user.Email, "error", err)
	}
	return alert, nil
}

// Current reads the elder's alert record. Returns ErrNoAlert when none exists.
func (c *Channel) Current(ctx context.Context, email string) (model.EmergencyAlert, error) {
	raw, err := c.store.Get(ctx, alertKey(email))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return model.EmergencyAlert{}, ErrNoAlert
		}
		return model.EmergencyAlert{}, fmt.Errorf("read alert record: %w", err)
	}
	var alert model.EmergencyAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		return model.EmergencyAlert{}, fmt.Errorf("decode alert record: %w", err)
	}
	return alert, nil
}

// Resolve marks the elder's alert resolved and patches the matching history
// entry. Resolving an already-resolved or missing alert is a no-op.
func (c *Channel) Resolve(ctx context.Context, email string) error {
	alert, err := c.Current(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNoAlert) {
			return nil
		}
		return err
	}
	if alert.Status == model.AlertResolved {
		return nil
	}

	alert.Status = model.AlertResolved
	if err := c.putAlert(ctx, alert); err != nil {
		return err
	}
	if err := c.patchHistory(ctx, email, alert.ID, model.AlertResolved); err != nil {
		c.logger.Error("patching alert history failed", "email", email, "error", err)
	}
	return nil
}

// Deactivate clears the record's active flag once the elder has seen the
// resolution, so a stale resolved record doesn't re-trigger the modal.
// Deactivating a missing or already-inactive record is a no-op.
func (c *Channel) Deactivate(ctx context.Context, email string) error {
	alert, err := c.Current(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNoAlert) {
			return nil
		}
		return err
	}
	if !alert.Active {
		return nil
	}
	alert.Active = false
	return c.putAlert(ctx, alert)
}

// History returns today's alerts, newest first. A log stamped with a prior day
// reads as empty; the next Raise starts a fresh log.
func (c *Channel) History(ctx context.Context, email string) ([]model.EmergencyAlert, error) {
	hist, err := c.readHistory(ctx, email)
	if err != nil {
		return nil, err
	}
	if hist.Date != c.todayStamp() {
		return nil, nil
	}
	out := make([]model.EmergencyAlert, len(hist.Logs))
	for i, entry := range hist.Logs {
		out[len(hist.Logs)-1-i] = entry
	}
	return out, nil
}

func (c *Channel) todayStamp() string {
	return c.clock.Now().Format(dateStampLayout)
}

func (c *Channel) putAlert(ctx context.Context, alert model.EmergencyAlert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert record: %w", err)
	}
	if err := c.store.Set(ctx, alertKey(alert.OwnerEmail), raw); err != nil {
		return fmt.Errorf("write alert record: %w", err)
	}
	return nil
}

func (c *Channel) readHistory(ctx context.Context, email string) (model.AlertHistory, error) {
	raw, err := c.store.Get(ctx, historyKey(email))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return model.AlertHistory{}, nil
		}
		return model.AlertHistory{}, fmt.Errorf("read alert history: %w", err)
	}
	var hist model.AlertHistory
	if err := json.Unmarshal(raw, &hist); err != nil {
		return model.AlertHistory{}, fmt.Errorf("decode alert history: %w", err)
	}
	return hist, nil
}

func (c *Channel) writeHistory(ctx context.Context, email string, hist model.AlertHistory) error {
	raw, err := json.Marshal(hist)
	if err != nil {
		return fmt.Errorf("encode alert history: %w", err)
	}
	if err := c.store.Set(ctx, historyKey(email), raw); err != nil {
		return fmt.Errorf("write alert history: %w", err)
	}
	return nil
}

func (c *Channel) appendHistory(ctx context.Context, alert model.EmergencyAlert) error {
	hist, err := c.readHistory(ctx, alert.OwnerEmail)
	if err != nil {
		return err
	}
	if today := c.todayStamp(); hist.Date != today {
		hist = model.AlertHistory{Date: today}
	}
	hist.Logs = append(hist.Logs, alert)
	return c.writeHistory(ctx, alert.OwnerEmail, hist)
}

func (c *Channel) patchHistory(ctx context.Context, email string, id int64, status model.AlertStatus) error {
	hist, err := c.readHistory(ctx, email)
	if err != nil {
		return err
	}
	changed := false
	for i := range hist.Logs {
		if hist.Logs[i].ID == id && hist.Logs[i].Status != status {
			hist.Logs[i].Status = status
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.writeHistory(ctx, email, hist)
}
