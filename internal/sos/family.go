package sos

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
)

// FamilyWatch is the family-side state machine: either no modal is shown, or
// the modal for one pending alert is. Push events and the periodic poll feed
// the same reconciliation, so either path alone reaches the same end state.
type FamilyWatch struct {
	channel    *Channel
	logger     *slog.Logger
	elderEmail string

	mu      sync.Mutex
	current *model.EmergencyAlert
}

func NewFamilyWatch(channel *Channel, elderEmail string, logger *slog.Logger) *FamilyWatch {
	return &FamilyWatch{channel: channel, elderEmail: elderEmail, logger: logger}
}

// ElderEmail is the elder this watch is scoped to.
func (w *FamilyWatch) ElderEmail() string { return w.elderEmail }

// Active returns the alert whose modal should be showing, if any.
func (w *FamilyWatch) Active() (model.EmergencyAlert, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return model.EmergencyAlert{}, false
	}
	return *w.current, true
}

// HandlePush reacts to a NEW_SOS_ALERT push event. Alerts for other elders
// are ignored; re-delivery of the same alert is a no-op.
func (w *FamilyWatch) HandlePush(evt push.Event) {
	if evt.Type != push.EventNewSOSAlert || evt.Alert == nil {
		return
	}
	if evt.Alert.OwnerEmail != w.elderEmail {
		return
	}
	w.show(*evt.Alert)
}

// Poll reconciles against the shared record: an active pending alert shows
// the modal, anything else clears it. This is the correctness fallback the
// push path merely accelerates.
func (w *FamilyWatch) Poll(ctx context.Context) error {
	alert, err := w.channel.Current(ctx, w.elderEmail)
	if err != nil {
		if errors.Is(err, ErrNoAlert) {
			w.clear()
			return nil
		}
		return err
	}
	if alert.Active && alert.Status == model.AlertPending {
		w.show(alert)
	} else {
		w.clear()
	}
	return nil
}

// Respond acknowledges the alert: the modal closes and the shared record and
// history entry flip to resolved. Responding twice is safe.
func (w *FamilyWatch) Respond(ctx context.Context) error {
	w.clear()
	return w.channel.Resolve(ctx, w.elderEmail)
}

func (w *FamilyWatch) show(alert model.EmergencyAlert) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil && w.current.ID == alert.ID {
		return
	}
	w.logger.Info("sos alert received", "elder", alert.OwnerEmail, "alert_id", alert.ID)
	w.current = &alert
}

func (w *FamilyWatch) clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = nil
}
