// Package gcal mirrors executed schedule blocks to Google Calendar via OAuth2
// user credentials.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/VitthalGund/freelancer/pkg/event"
)

// Client pushes events to one calendar. It implements the productivity
// agent's mirror interface.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

// New builds a calendar client from an OAuth2 client-credentials file and a
// previously obtained user token file.
func New(ctx context.Context, credentialsFile, tokenFile, calendarID string) (*Client, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(raw, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{srv: srv, calendarID: calendarID}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	return tok, json.NewDecoder(f).Decode(tok)
}

// Mirror inserts the event into the configured calendar. The internal event
// id rides along as a private extended property so reruns can be traced back.
func (c *Client) Mirror(ctx context.Context, ev *event.Event) error {
	gev := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: ev.EndTime.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{"freelancer_event_id": ev.EventID},
		},
	}
	if _, err := c.srv.Events.Insert(c.calendarID, gev).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}
