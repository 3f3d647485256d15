package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/fault"
)

const prodID = "-//staybook//calendar//EN"

// ParseFeed decodes an iCal document into feed events. Events without a
// DTSTART are skipped rather than failing the whole feed; a missing DTEND
// falls back to the start, which downstream widens to one blocked day.
func ParseFeed(raw []byte) ([]policies.FeedEvent, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fault.Wrap(fault.KindExternal, err, "calendar feed is not valid ical")
	}
	events := make([]policies.FeedEvent, 0, len(cal.Events()))
	for _, ev := range cal.Events() {
		start, err := eventStart(ev)
		if err != nil {
			continue
		}
		end, err := eventEnd(ev)
		if err != nil {
			end = start
		}
		fe := policies.FeedEvent{
			UID:   ev.Id(),
			Start: start,
			End:   end,
		}
		if prop := ev.GetProperty(ics.ComponentPropertySummary); prop != nil {
			fe.Summary = prop.Value
		}
		events = append(events, fe)
	}
	return events, nil
}

// EncodeFeed renders an export feed as an iCal document with one VEVENT per
// unavailable interval.
func EncodeFeed(feed dto.CalendarFeed) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName(feed.ListingTitle)
	for _, blk := range feed.Blocks {
		ev := cal.AddEvent(blk.UID)
		ev.SetProperty(ics.ComponentPropertyDtStart, blk.Start.Format(icalDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
		ev.SetProperty(ics.ComponentPropertyDtEnd, blk.End.Format(icalDateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
		ev.SetSummary(summaryFor(blk.Reason))
		ev.SetDescription(descriptionFor(feed.ListingTitle, blk.Reason))
		ev.SetDtStampTime(time.Now().UTC())
	}
	return cal.Serialize()
}

const icalDateLayout = "20060102"

func summaryFor(reason string) string {
	switch reason {
	case "booking":
		return "Reserved"
	default:
		return "Not available"
	}
}

func descriptionFor(title, reason string) string {
	switch reason {
	case "booking":
		return fmt.Sprintf("%s is reserved for a confirmed stay", title)
	default:
		return fmt.Sprintf("%s is not available for these dates", title)
	}
}

func eventStart(ev *ics.VEvent) (time.Time, error) {
	if t, err := ev.GetAllDayStartAt(); err == nil {
		return t, nil
	}
	return ev.GetStartAt()
}

func eventEnd(ev *ics.VEvent) (time.Time, error) {
	if t, err := ev.GetAllDayEndAt(); err == nil {
		return t, nil
	}
	if t, err := ev.GetEndAt(); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("event %s has no end", ev.Id())
}
