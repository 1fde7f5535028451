package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notifier is the notification facility: an idempotent channel registration
// plus a fire-and-forget post.
type Notifier interface {
	EnsureChannel(ctx context.Context, id, name, description string) error
	Post(ctx context.Context, channelID, title, body string) error
}

// Webhook delivers notifications to an HTTP endpoint as JSON documents
type Webhook struct {
	baseURL string
	http    *http.Client

	mu       sync.Mutex
	channels map[string]bool
}

// NewWebhook creates a webhook notifier for the given base URL
func NewWebhook(baseURL string, timeout time.Duration) *Webhook {
	return &Webhook{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		channels: make(map[string]bool),
	}
}

type channelDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type notificationDoc struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// EnsureChannel registers the channel once per process; repeat calls are
// cheap no-ops. The endpoint itself treats registration as idempotent.
func (w *Webhook) EnsureChannel(ctx context.Context, id, name, description string) error {
	w.mu.Lock()
	if w.channels[id] {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	doc := channelDoc{ID: id, Name: name, Description: description}
	if err := w.post(ctx, "/channels", doc); err != nil {
		return fmt.Errorf("failed to ensure channel %s: %w", id, err)
	}

	w.mu.Lock()
	w.channels[id] = true
	w.mu.Unlock()
	return nil
}

// Post delivers one notification
func (w *Webhook) Post(ctx context.Context, channelID, title, body string) error {
	doc := notificationDoc{
		ID:      uuid.NewString(),
		Channel: channelID,
		Title:   title,
		Body:    body,
	}
	if err := w.post(ctx, "/notifications", doc); err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, path string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return nil
}

// LogNotifier writes notifications to the process log. Used when no webhook
// endpoint is configured.
type LogNotifier struct{}

func (LogNotifier) EnsureChannel(ctx context.Context, id, name, description string) error {
	return nil
}

func (LogNotifier) Post(ctx context.Context, channelID, title, body string) error {
	log.Printf("Notification [%s] %s — %s", channelID, title, body)
	return nil
}
