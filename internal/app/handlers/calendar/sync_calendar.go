package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domaincalendar "staybook/internal/domain/calendar"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/fault"
)

const syncCalendarKey = "calendar.sync"

type SyncCalendarCommand struct {
	CalendarID string
}

func (c SyncCalendarCommand) Key() string { return syncCalendarKey }

type SyncCalendarResult struct {
	CalendarID string `json:"calendar_id"`
	Blocks     int    `json:"blocks"`
}

// SyncCalendarHandler imports a remote feed. The remote fetch happens before
// any write; only a successful fetch and parse replaces the calendar's block
// set, so a flaky remote can never wipe existing availability data.
type SyncCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Feed       policies.CalendarFeedPort
	Logger     *slog.Logger
}

func (h *SyncCalendarHandler) Handle(ctx context.Context, cmd SyncCalendarCommand) (*SyncCalendarResult, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	cal, err := unit.Calendars().ByID(execCtx, domaincalendar.CalendarID(cmd.CalendarID))
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		return nil, err
	}
	if cal.Source != domaincalendar.SourceICal || cal.ICalURL == "" {
		return nil, fault.New(fault.KindValidation, "calendar %s is not an imported calendar", cmd.CalendarID)
	}

	events, err := h.Feed.Fetch(ctx, cal.ICalURL)
	if err != nil {
		return nil, fault.Wrap(fault.KindExternal, err, "remote calendar fetch failed; existing blocks kept")
	}

	now := time.Now().UTC()
	blocks, err := h.buildBlocks(cal, events, now)
	if err != nil {
		return nil, err
	}

	unit, execCtx, commit, cleanupW, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanupW != nil {
		defer cleanupW()
	}

	if err := unit.Availability().ReplaceSourceBlocks(execCtx, cal.ListingID, domainavailability.SourceICal, string(cal.ID), blocks); err != nil {
		return nil, err
	}
	cal.MarkSynced(now)
	if err := unit.Calendars().Save(execCtx, cal); err != nil {
		return nil, err
	}
	if err := commit(execCtx); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("calendar synced", "calendar_id", cal.ID, "listing_id", cal.ListingID, "blocks", len(blocks))
	}
	return &SyncCalendarResult{CalendarID: string(cal.ID), Blocks: len(blocks)}, nil
}

// buildBlocks normalizes VEVENTs to whole-day half-open ranges. Events that
// collapse to zero nights after normalization cover a single day.
func (h *SyncCalendarHandler) buildBlocks(cal *domaincalendar.Calendar, events []policies.FeedEvent, now time.Time) ([]domainavailability.Block, error) {
	blocks := make([]domainavailability.Block, 0, len(events))
	for _, ev := range events {
		start := domainrange.Day(ev.Start)
		end := domainrange.Day(ev.End)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		dr, err := domainrange.New(start, end)
		if err != nil {
			continue
		}
		block, err := domainavailability.NewBlock(
			domainavailability.BlockID(uuid.NewString()),
			cal.ListingID,
			dr,
			domainavailability.ReasonICalBlocked,
			domainavailability.SourceICal,
			string(cal.ID),
			now,
		)
		if err != nil {
			return nil, fault.Wrap(fault.KindExternal, err, "remote calendar produced an invalid event")
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

var _ commands.Handler[SyncCalendarCommand, *SyncCalendarResult] = (*SyncCalendarHandler)(nil)
