package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emersion/go-webdav/caldav"
)

// CalDAVSource reads events from a CalDAV calendar collection instead of a
// public ICS URL. The query window is deliberately wider than the sync
// window; the engine filters again on its own bounds.
type CalDAVSource struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	dayPast      int
	dayFuture    int
	client       *caldav.Client
}

// NewCalDAVSource creates a CalDAV source for one calendar collection
func NewCalDAVSource(baseURL, username, password, calendarPath string, dayPast, dayFuture int) *CalDAVSource {
	return &CalDAVSource{
		baseURL:      baseURL,
		username:     username,
		password:     password,
		calendarPath: calendarPath,
		dayPast:      dayPast,
		dayFuture:    dayFuture,
	}
}

// connect establishes connection to the CalDAV server
func (s *CalDAVSource) connect() (*caldav.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: s.username,
			password: s.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	s.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// Events queries the calendar collection and returns its events
func (s *CalDAVSource) Events(ctx context.Context) ([]Event, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	if s.calendarPath == "" {
		return nil, fmt.Errorf("calendar path not specified")
	}

	now := time.Now()
	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: now.AddDate(0, 0, -s.dayPast-1),
					End:   now.AddDate(0, 0, s.dayFuture+1),
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, s.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			event, ok := parseComponent(comp)
			if !ok {
				continue
			}
			events = append(events, event)
			break // Only the first VEVENT per object
		}
	}

	return events, nil
}
