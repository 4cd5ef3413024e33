package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KrPrince19/CareNest/internal/medstore"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/schedule"
	"github.com/KrPrince19/CareNest/internal/sos"
)

// displayDateLayout matches the long date the family dashboard header shows.
const displayDateLayout = "Monday, 2 January"

// FamilyAgent is the family dashboard's sync loop. On top of the shared
// load/push/status-tick behavior it watches for SOS alerts over both the push
// channel and the polling fallback, keeps today's alert history fresh, and
// refreshes the display date.
type FamilyAgent struct {
	store   *medstore.Store
	watch   *sos.FamilyWatch
	channel *sos.Channel
	bus     push.Subscriber
	clock   schedule.Clock
	logger  *slog.Logger

	statusTick time.Duration
	sosPoll    time.Duration
	dateTick   time.Duration

	mu          sync.RWMutex
	history     []model.EmergencyAlert
	displayDate string
}

func NewFamilyAgent(store *medstore.Store, watch *sos.FamilyWatch, channel *sos.Channel, bus push.Subscriber, clock schedule.Clock, logger *slog.Logger) *FamilyAgent {
	return &FamilyAgent{
		store:      store,
		watch:      watch,
		channel:    channel,
		bus:        bus,
		clock:      clock,
		logger:     logger,
		statusTick: DefaultFamilyStatusTick,
		sosPoll:    DefaultFamilySOSPoll,
		dateTick:   DefaultDateTick,
	}
}

// SetIntervals overrides the loop timings. Zero values keep the defaults.
func (a *FamilyAgent) SetIntervals(statusTick, sosPoll, dateTick time.Duration) {
	if statusTick > 0 {
		a.statusTick = statusTick
	}
	if sosPoll > 0 {
		a.sosPoll = sosPoll
	}
	if dateTick > 0 {
		a.dateTick = dateTick
	}
}

// Run drives the loop until ctx is cancelled.
func (a *FamilyAgent) Run(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		a.logger.Warn("initial snapshot load failed", "error", err)
	}
	a.refreshDate()
	a.pollSOS(ctx)

	events := a.bus.Subscribe(ctx)

	statusTicker := time.NewTicker(a.statusTick)
	defer statusTicker.Stop()
	sosTicker := time.NewTicker(a.sosPoll)
	defer sosTicker.Stop()
	dateTicker := time.NewTicker(a.dateTick)
	defer dateTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch evt.Type {
			case push.EventRefreshData:
				if err := a.store.Load(ctx); err != nil {
					a.logger.Warn("push-triggered reload failed", "error", err)
				}
			case push.EventNewSOSAlert:
				a.watch.HandlePush(evt)
			}
		case <-statusTicker.C:
			a.store.RefreshStatuses()
		case <-sosTicker.C:
			a.pollSOS(ctx)
		case <-dateTicker.C:
			a.refreshDate()
		}
	}
}

// pollSOS is the polling fallback: it reconciles the modal against the shared
// record and refreshes today's history view.
func (a *FamilyAgent) pollSOS(ctx context.Context) {
	if err := a.watch.Poll(ctx); err != nil {
		a.logger.Warn("sos poll failed", "error", err)
	}
	history, err := a.channel.History(ctx, a.watch.ElderEmail())
	if err != nil {
		a.logger.Warn("reading sos history failed", "error", err)
		return
	}
	a.mu.Lock()
	a.history = history
	a.mu.Unlock()
}

func (a *FamilyAgent) refreshDate() {
	formatted := a.clock.Now().Format(displayDateLayout)
	a.mu.Lock()
	a.displayDate = formatted
	a.mu.Unlock()
}

// Snapshot exposes the current medication list for rendering.
func (a *FamilyAgent) Snapshot() []model.Medication { return a.store.Snapshot() }

// Summary exposes the aggregate stats for rendering.
func (a *FamilyAgent) Summary() medstore.Summary { return a.store.Summarize() }

// ActiveAlert reports the alert whose modal should be showing, if any.
func (a *FamilyAgent) ActiveAlert() (model.EmergencyAlert, bool) { return a.watch.Active() }

// Respond acknowledges the showing alert.
func (a *FamilyAgent) Respond(ctx context.Context) error { return a.watch.Respond(ctx) }

// History returns today's alerts, newest first.
func (a *FamilyAgent) History() []model.EmergencyAlert {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.EmergencyAlert, len(a.history))
	copy(out, a.history)
	return out
}

// DisplayDate returns the formatted date for the dashboard header.
func (a *FamilyAgent) DisplayDate() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.displayDate
}
