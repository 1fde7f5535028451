package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
)

// Meta is the remote version document
type Meta struct {
	Version int    `json:"version"`
	Message string `json:"message"`
}

// remoteItem mirrors the document field names used by the remote store.
// Missing fields decode to their zero values and are tolerated.
type remoteItem struct {
	RouteNo        string   `json:"routeNo"`
	RouteName      string   `json:"routeName"`
	RouteDetails   string   `json:"routeDetails"`
	StartTimes     []string `json:"startTimes"`
	DepartureTimes []string `json:"departureTimes"`
}

type itemsDoc struct {
	Items []remoteItem `json:"items"`
}

// RemoteSource is the fetch side of the sync collaborator
type RemoteSource interface {
	FetchMeta(ctx context.Context) (Meta, error)
	FetchItems(ctx context.Context) ([]models.ScheduleEntry, error)
}

// Client fetches schedule documents from the remote document store over HTTP
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a remote client for the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchMeta retrieves the remote version document
func (c *Client) FetchMeta(ctx context.Context) (Meta, error) {
	var meta Meta
	if err := c.getJSON(ctx, "/meta/app", &meta); err != nil {
		return Meta{}, fmt.Errorf("failed to fetch meta document: %w", err)
	}
	return meta, nil
}

// FetchItems retrieves the current schedule document and converts it into
// schedule entries
func (c *Client) FetchItems(ctx context.Context) ([]models.ScheduleEntry, error) {
	var doc itemsDoc
	if err := c.getJSON(ctx, "/schedules/current/items", &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch items document: %w", err)
	}

	entries := make([]models.ScheduleEntry, 0, len(doc.Items))
	for _, it := range doc.Items {
		entries = append(entries, models.ScheduleEntry{
			ID:             strings.TrimSpace(models.EntryID(it.RouteNo, it.RouteName)),
			RouteNo:        it.RouteNo,
			RouteName:      it.RouteName,
			RouteDetails:   it.RouteDetails,
			StartTimes:     it.StartTimes,
			DepartureTimes: it.DepartureTimes,
		})
	}
	return entries, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
