package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const icsFixture = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Test//Test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-1\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"LOCATION:Room 1\r\n" +
	"DTSTART:20260302T090000Z\r\n" +
	"DTEND:20260302T091500Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-2\r\n" +
	"DTSTAMP:20260301T000000Z\r\n" +
	"SUMMARY:Offsite\r\n" +
	"DTSTART;VALUE=DATE:20260310\r\n" +
	"DTEND;VALUE=DATE:20260312\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestHTTPSourceEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(icsFixture))
	}))
	t.Cleanup(server.Close)

	source := NewHTTPSource(server.URL)
	events, err := source.Events(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)

	standup := events[0]
	assert.Equal(t, "ev-1", standup.UID)
	assert.Equal(t, "Standup", standup.Summary)
	assert.Equal(t, "Room 1", standup.Location)
	assert.False(t, standup.AllDay)
	assert.True(t, standup.Start.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.True(t, standup.End.Equal(time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)))

	offsite := events[1]
	assert.Equal(t, "ev-2", offsite.UID)
	assert.True(t, offsite.AllDay)
	assert.Empty(t, offsite.Location)
	assert.True(t, offsite.Start.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, offsite.End.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))
}

func TestHTTPSourceEvents_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	source := NewHTTPSource(server.URL)
	_, err := source.Events(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestDecodeICS_MalformedPayload(t *testing.T) {
	_, err := decodeICS(strings.NewReader("this is not a calendar"))
	assert.Error(t, err)
}

func TestDecodeICS_EventWithoutUID(t *testing.T) {
	payload := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//Test//Test//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"DTSTAMP:20260301T000000Z\r\n" +
		"SUMMARY:Nameless\r\n" +
		"DTSTART:20260302T090000Z\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	events, err := decodeICS(strings.NewReader(payload))

	// The feed layer passes it through as-is; dropping it is the
	// engine's decision
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].UID)
	assert.Equal(t, "Nameless", events[0].Summary)
}
