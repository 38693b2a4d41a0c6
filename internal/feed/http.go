package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
)

// HTTPSource fetches and parses a public ICS feed
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates a source for the given ICS URL
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Events fetches the feed and returns its events
func (s *HTTPSource) Events(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar: status %d", resp.StatusCode)
	}

	events, err := decodeICS(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	return events, nil
}

// decodeICS parses every VEVENT out of an ICS stream. Feeds normally hold a
// single VCALENDAR, but the decoder loop tolerates concatenated ones.
func decodeICS(r io.Reader) ([]Event, error) {
	var events []Event

	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		for _, comp := range cal.Children {
			event, ok := parseComponent(comp)
			if !ok {
				continue
			}
			events = append(events, event)
		}
	}

	return events, nil
}
