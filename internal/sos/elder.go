package sos

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/schedule"
)

// Phase is the elder-side SOS lifecycle state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseConfirm      Phase = "confirm"
	PhaseSending      Phase = "sending"
	PhaseWaiting      Phase = "waiting"
	PhaseAcknowledged Phase = "acknowledged"
)

const (
	// DefaultPollInterval is how often the waiting elder re-reads the shared
	// record looking for the family's resolution.
	DefaultPollInterval = time.Second
	// DefaultAckGrace is how long the acknowledgment banner stays up before
	// the flow returns to idle and deactivates the record.
	DefaultAckGrace = 8 * time.Second
)

// elderTransitions is the explicit transition table. Idle admits jumps to
// waiting and acknowledged so a reload can resume an in-flight handshake;
// sending falls back to confirm when the alert record cannot be written.
var elderTransitions = map[Phase][]Phase{
	PhaseIdle:         {PhaseConfirm, PhaseWaiting, PhaseAcknowledged},
	PhaseConfirm:      {PhaseIdle, PhaseSending},
	PhaseSending:      {PhaseWaiting, PhaseConfirm},
	PhaseWaiting:      {PhaseAcknowledged},
	PhaseAcknowledged: {PhaseIdle},
}

// Notifier is the best-effort out-of-band notification path. Failures are
// logged only; the shared record remains the authoritative channel.
type Notifier interface {
	SendSOS(ctx context.Context, senderName string) error
}

// ElderFlow drives the elder's side of the handshake:
// idle → confirm → sending → waiting → acknowledged → idle.
type ElderFlow struct {
	channel  *Channel
	notifier Notifier
	clock    schedule.Clock
	logger   *slog.Logger
	user     model.User

	pollInterval time.Duration
	ackGrace     time.Duration

	mu          sync.Mutex
	phase       Phase
	ackDeadline time.Time
}

func NewElderFlow(channel *Channel, notifier Notifier, user model.User, clock schedule.Clock, logger *slog.Logger) *ElderFlow {
	return &ElderFlow{
		channel:      channel,
		notifier:     notifier,
		clock:        clock,
		logger:       logger,
		user:         user,
		pollInterval: DefaultPollInterval,
		ackGrace:     DefaultAckGrace,
		phase:        PhaseIdle,
	}
}

// SetAckGrace overrides the acknowledgment display delay. Used by tests and
// by config wiring.
func (f *ElderFlow) SetAckGrace(d time.Duration) { f.ackGrace = d }

// SetPollInterval overrides how often the owning sync loop polls.
func (f *ElderFlow) SetPollInterval(d time.Duration) { f.pollInterval = d }

// PollInterval is how often the owning sync loop should call Poll.
func (f *ElderFlow) PollInterval() time.Duration { return f.pollInterval }

// Phase returns the current lifecycle state.
func (f *ElderFlow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Resume inspects the shared record on load and re-enters the matching phase:
// an active pending alert puts the flow back into waiting, an active resolved
// one into acknowledged (restarting the grace timer). Anything else is idle.
func (f *ElderFlow) Resume(ctx context.Context) error {
	alert, err := f.channel.Current(ctx, f.user.Email)
	if err != nil {
		if err == ErrNoAlert {
			return nil
		}
		return err
	}
	if !alert.Active {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch alert.Status {
	case model.AlertPending:
		f.transition(PhaseWaiting)
	case model.AlertResolved:
		if f.transition(PhaseAcknowledged) {
			f.ackDeadline = f.clock.Now().Add(f.ackGrace)
		}
	}
	return nil
}

// Request moves idle → confirm. The user still has to confirm or cancel.
func (f *ElderFlow) Request() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transition(PhaseConfirm)
}

// Cancel backs out of the confirmation prompt.
func (f *ElderFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == PhaseConfirm {
		f.transition(PhaseIdle)
	}
}

// Confirm raises the alert: persists the shared record, appends history, and
// fires the best-effort notification. On success the flow sits in waiting
// until Poll observes the family's resolution.
func (f *ElderFlow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if !f.transition(PhaseSending) {
		f.mu.Unlock()
		return fmt.Errorf("sos: confirm is invalid in phase %q", f.phase)
	}
	f.mu.Unlock()

	alert, err := f.channel.Raise(ctx, f.user)
	if err != nil {
		// The record write is the authoritative path; without it there is no
		// alert, so fall back to the prompt.
		f.mu.Lock()
		f.transition(PhaseConfirm)
		f.mu.Unlock()
		return fmt.Errorf("raise alert: %w", err)
	}

	name := f.user.Name
	if name == "" {
		name = "Elder User"
	}
	if err := f.notifier.SendSOS(ctx, name); err != nil {
		f.logger.Error("best-effort sos notification failed", "email", f.user.Email, "error", err)
	}

	f.logger.Info("sos alert raised", "email", f.user.Email, "alert_id", alert.ID)
	f.mu.Lock()
	f.transition(PhaseWaiting)
	f.mu.Unlock()
	return nil
}

// Poll advances the flow from what the shared record says. It is safe to call
// in any phase and safe to call repeatedly; observing the same resolution
// twice changes nothing.
func (f *ElderFlow) Poll(ctx context.Context) error {
	switch f.Phase() {
	case PhaseWaiting:
		alert, err := f.channel.Current(ctx, f.user.Email)
		if err != nil {
			if err == ErrNoAlert {
				return nil
			}
			return err
		}
		if alert.Status == model.AlertResolved {
			f.mu.Lock()
			if f.transition(PhaseAcknowledged) {
				f.ackDeadline = f.clock.Now().Add(f.ackGrace)
			}
			f.mu.Unlock()
		}
	case PhaseAcknowledged:
		f.mu.Lock()
		due := !f.clock.Now().Before(f.ackDeadline)
		f.mu.Unlock()
		if !due {
			return nil
		}
		if err := f.channel.Deactivate(ctx, f.user.Email); err != nil {
			return err
		}
		f.mu.Lock()
		f.transition(PhaseIdle)
		f.mu.Unlock()
	}
	return nil
}

// transition applies the table; callers hold f.mu. Invalid transitions are
// rejected and logged at debug, which keeps re-delivered observations inert.
func (f *ElderFlow) transition(to Phase) bool {
	if f.phase == to {
		return false
	}
	for _, allowed := range elderTransitions[f.phase] {
		if allowed == to {
			f.logger.Debug("sos phase transition", "from", f.phase, "to", to)
			f.phase = to
			return true
		}
	}
	f.logger.Debug("rejected sos phase transition", "from", f.phase, "to", to)
	return false
}
