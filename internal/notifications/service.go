package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/config"
)

const userAgent = "Loom/0.1.0"

// Service defines the notification surface exposed to the runner and sweeper.
type Service interface {
	NotifyCompositionCompleted(ctx context.Context, jobID, outputPath string) error
	NotifyCompositionFailed(ctx context.Context, jobID, reason string) error
	NotifyArtifactsReclaimed(ctx context.Context, reclaimed, failures int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyCompositionCompleted(ctx context.Context, jobID, outputPath string) error {
	jobID = strings.TrimSpace(jobID)
	message := fmt.Sprintf("Composition complete: %s", jobID)
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputPath)
	}
	data := payload{
		title:   "Loom - Composition Complete",
		message: message,
		tags:    []string{"loom", "compose", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCompositionFailed(ctx context.Context, jobID, reason string) error {
	jobID = strings.TrimSpace(jobID)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Loom - Composition Failed",
		message:  fmt.Sprintf("Composition %s failed: %s", jobID, reason),
		tags:     []string{"loom", "compose", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyArtifactsReclaimed(ctx context.Context, reclaimed, failures int) error {
	var message string
	if failures == 0 {
		message = fmt.Sprintf("Reclaimed %d expired artifacts", reclaimed)
	} else {
		message = fmt.Sprintf("Reclaimed %d expired artifacts, %d failed", reclaimed, failures)
	}
	data := payload{
		title:   "Loom - Artifacts Reclaimed",
		message: message,
		tags:    []string{"loom", "cleanup", "reclaimed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Loom - Test",
		message:  "Notification system test",
		tags:     []string{"loom", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCompositionCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyCompositionFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyArtifactsReclaimed(context.Context, int, int) error         { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
