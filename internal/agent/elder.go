// Package agent runs the per-role sync loops: the initial snapshot load, the
// push subscription, and the periodic ticks that keep derived state honest.
// Each agent owns its timers and subscription and tears them all down together
// when its context ends.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/KrPrince19/CareNest/internal/medstore"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/sos"
)

const (
	// DefaultElderStatusTick re-derives missed/upcoming without network I/O.
	DefaultElderStatusTick = 5 * time.Second
	// DefaultFamilyStatusTick is the slower family-side equivalent.
	DefaultFamilyStatusTick = 30 * time.Second
	// DefaultFamilySOSPoll is the family's shared-record polling interval.
	DefaultFamilySOSPoll = 2 * time.Second
	// DefaultDateTick refreshes the family dashboard's display date.
	DefaultDateTick = time.Second
)

// ElderAgent is the elder dashboard's sync loop: snapshot load on start and on
// REFRESH_DATA pushes, a status tick, and the SOS flow poll.
type ElderAgent struct {
	store  *medstore.Store
	flow   *sos.ElderFlow
	bus    push.Subscriber
	logger *slog.Logger

	statusTick time.Duration
}

func NewElderAgent(store *medstore.Store, flow *sos.ElderFlow, bus push.Subscriber, logger *slog.Logger) *ElderAgent {
	return &ElderAgent{
		store:      store,
		flow:       flow,
		bus:        bus,
		logger:     logger,
		statusTick: DefaultElderStatusTick,
	}
}

// SetStatusTick overrides the status re-derivation interval.
func (a *ElderAgent) SetStatusTick(d time.Duration) { a.statusTick = d }

// Run drives the loop until ctx is cancelled. All timers and the push
// subscription stop together on return.
func (a *ElderAgent) Run(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		a.logger.Warn("initial snapshot load failed", "error", err)
	}
	if err := a.flow.Resume(ctx); err != nil {
		a.logger.Warn("resuming sos flow failed", "error", err)
	}

	events := a.bus.Subscribe(ctx)

	statusTicker := time.NewTicker(a.statusTick)
	defer statusTicker.Stop()
	sosTicker := time.NewTicker(a.flow.PollInterval())
	defer sosTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				events = nil // subscription closed; polling carries on
				continue
			}
			if evt.Type == push.EventRefreshData {
				if err := a.store.Load(ctx); err != nil {
					a.logger.Warn("push-triggered reload failed", "error", err)
				}
			}
		case <-statusTicker.C:
			a.store.RefreshStatuses()
		case <-sosTicker.C:
			if err := a.flow.Poll(ctx); err != nil {
				a.logger.Warn("sos poll failed", "error", err)
			}
		}
	}
}

// Snapshot exposes the current medication list for rendering.
func (a *ElderAgent) Snapshot() []model.Medication { return a.store.Snapshot() }

// Summary exposes the aggregate stats for rendering.
func (a *ElderAgent) Summary() medstore.Summary { return a.store.Summarize() }

// TakeMedicine applies the elder's "take" action to the snapshot.
func (a *ElderAgent) TakeMedicine(ctx context.Context, id string) { a.store.Take(ctx, id) }

// SOSPhase reports where the emergency flow currently is.
func (a *ElderAgent) SOSPhase() sos.Phase { return a.flow.Phase() }

// RequestSOS, CancelSOS and ConfirmSOS forward the user's emergency actions.
func (a *ElderAgent) RequestSOS() { a.flow.Request() }
func (a *ElderAgent) CancelSOS()  { a.flow.Cancel() }
func (a *ElderAgent) ConfirmSOS(ctx context.Context) error { return a.flow.Confirm(ctx) }
