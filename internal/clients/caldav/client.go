// Package caldav publishes the resolved shift calendar to a CalDAV
// collection so the schedule shows up in the user's calendar apps.
package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-webdav/caldav"
	"go.uber.org/zap"

	"github.com/shiftwell/shiftwell/internal/calendar"
	"github.com/shiftwell/shiftwell/internal/service"
)

// Client is a thin CalDAV publisher. Zero-value credentials leave it
// unconfigured and publishing becomes a no-op.
type Client struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	logger       *zap.Logger
	client       *caldav.Client
}

func NewClient(baseURL, username, password, calendarPath string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		username:     username,
		password:     password,
		calendarPath: calendarPath,
		logger:       logger,
	}
}

// IsConfigured returns true if the client has a server and credentials.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.username != "" && c.password != "" && c.calendarPath != ""
}

func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// PublishSchedule puts one all-day event per working day of the next
// days onto the collection. Event UIDs are stable per date, so a
// changed pattern overwrites the old entries in place.
func (c *Client) PublishSchedule(ctx context.Context, planner *service.Planner, days int) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	published := 0
	for _, d := range planner.SchedulePreview(days) {
		if !d.Kind.IsWorking() {
			continue
		}

		path := c.objectPath(calendar.DayUID(d.Date))
		if _, err := client.PutCalendarObject(ctx, path, calendar.DayCalendar(d)); err != nil {
			// Keep going; the nightly job retries the rest tomorrow.
			c.logger.Warn("put calendar object failed",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		published++
	}

	c.logger.Info("published shift calendar",
		zap.Int("days", days),
		zap.Int("events", published),
	)
	return nil
}

func (c *Client) objectPath(uid string) string {
	path := c.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + uid + ".ics"
}
