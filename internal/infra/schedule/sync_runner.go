package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"staybook/internal/app/commands"
	calendarhandlers "staybook/internal/app/handlers/calendar"
	domaincalendar "staybook/internal/domain/calendar"
)

// SyncRunner periodically re-imports every sync-enabled calendar. A failed
// sync for one calendar is logged and never blocks the rest of the batch.
type SyncRunner struct {
	Bus       commands.Bus
	Calendars domaincalendar.Repository
	Logger    *slog.Logger
	Interval  time.Duration

	cron *cron.Cron
}

func (r *SyncRunner) Start() error {
	if r.Bus == nil || r.Calendars == nil {
		return fmt.Errorf("schedule: sync runner missing dependencies")
	}
	interval := r.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	r.cron = cron.New()
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		r.syncAll(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule: register sync job: %w", err)
	}
	r.cron.Start()
	if r.Logger != nil {
		r.Logger.Info("calendar sync runner started", slog.Duration("interval", interval))
	}
	return nil
}

func (r *SyncRunner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *SyncRunner) syncAll(ctx context.Context) {
	cals, err := r.Calendars.ListSyncEnabled(ctx)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("listing sync-enabled calendars failed", slog.Any("error", err))
		}
		return
	}
	for _, cal := range cals {
		cmd := calendarhandlers.SyncCalendarCommand{CalendarID: string(cal.ID)}
		if _, err := commands.Dispatch[calendarhandlers.SyncCalendarCommand, *calendarhandlers.SyncCalendarResult](ctx, r.Bus, cmd); err != nil {
			if r.Logger != nil {
				r.Logger.Warn("calendar sync failed",
					slog.String("calendar_id", string(cal.ID)),
					slog.Any("error", err))
			}
			continue
		}
	}
}
