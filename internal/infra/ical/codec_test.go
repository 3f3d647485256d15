package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/dto"
	"staybook/internal/domain/shared/fault"
)

func icsDocument(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParseFeed_ReadsAllDayEvents(t *testing.T) {
	raw := icsDocument(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//remote//EN",
		"BEGIN:VEVENT",
		"UID:ev-1@remote.example",
		"DTSTAMP:20260801T000000Z",
		"DTSTART;VALUE=DATE:20260910",
		"DTEND;VALUE=DATE:20260913",
		"SUMMARY:Reserved",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-2@remote.example",
		"DTSTAMP:20260801T000000Z",
		"SUMMARY:No dates at all",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := ParseFeed(raw)
	require.NoError(t, err)
	require.Len(t, events, 1, "events without dates are skipped")

	ev := events[0]
	assert.Equal(t, "ev-1@remote.example", ev.UID)
	assert.Equal(t, "Reserved", ev.Summary)
	y, m, d := ev.Start.Date()
	assert.Equal(t, [3]int{2026, 9, 10}, [3]int{y, int(m), d})
	y, m, d = ev.End.Date()
	assert.Equal(t, [3]int{2026, 9, 13}, [3]int{y, int(m), d})
}

func TestParseFeed_MissingEndFallsBackToStart(t *testing.T) {
	raw := icsDocument(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//remote//EN",
		"BEGIN:VEVENT",
		"UID:ev-1@remote.example",
		"DTSTAMP:20260801T000000Z",
		"DTSTART;VALUE=DATE:20260910",
		"SUMMARY:Single day",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	events, err := ParseFeed(raw)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, events[0].Start, events[0].End, "no DTEND collapses to the start day")
}

func TestParseFeed_RejectsGarbage(t *testing.T) {
	_, err := ParseFeed([]byte("<html>not a calendar</html>"))
	assert.True(t, fault.IsKind(err, fault.KindExternal))
}

func TestEncodeFeed(t *testing.T) {
	feed := dto.CalendarFeed{
		ListingID:    "lst-1",
		ListingTitle: "Cabin by the lake",
		Blocks: []dto.FeedBlock{
			{
				UID:    "blk-1",
				Start:  time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
				End:    time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
				Reason: "booking",
			},
			{
				UID:    "blk-2",
				Start:  time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
				End:    time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC),
				Reason: "host_blocked",
			},
		},
	}

	out := EncodeFeed(feed)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:-//staybook//calendar//EN")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20260910")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20260913")
	assert.Contains(t, out, "SUMMARY:Reserved")
	assert.Contains(t, out, "SUMMARY:Not available")
	assert.Contains(t, out, "DESCRIPTION:Cabin by the lake is reserved for a confirmed stay")
	assert.Contains(t, out, "DESCRIPTION:Cabin by the lake is not available for these dates")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))

	// The export must round-trip through our own parser.
	events, err := ParseFeed([]byte(out))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
