package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"loom/internal/config"
	"loom/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyCompositionCompleted(context.Background(), "job", "/out/job.mp4"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "composition completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyCompositionCompleted(context.Background(), "a1b2", "/out/a1b2.mp4")
			},
			expectTitle:   "Loom - Composition Complete",
			expectMessage: "Composition complete: a1b2\nFile: /out/a1b2.mp4",
			expectTags:    "loom,compose,completed",
		},
		{
			name: "composition completed without path",
			notify: func(svc notifications.Service) error {
				return svc.NotifyCompositionCompleted(context.Background(), "a1b2", "")
			},
			expectTitle:   "Loom - Composition Complete",
			expectMessage: "Composition complete: a1b2",
			expectTags:    "loom,compose,completed",
		},
		{
			name: "composition failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyCompositionFailed(context.Background(), "a1b2", "overlay timed out")
			},
			expectTitle:    "Loom - Composition Failed",
			expectMessage:  "Composition a1b2 failed: overlay timed out",
			expectTags:     "loom,compose,failed",
			expectPriority: "high",
		},
		{
			name: "artifacts reclaimed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyArtifactsReclaimed(context.Background(), 3, 1)
			},
			expectTitle:   "Loom - Artifacts Reclaimed",
			expectMessage: "Reclaimed 3 expired artifacts, 1 failed",
			expectTags:    "loom,cleanup,reclaimed",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Loom - Test",
			expectMessage:  "Notification system test",
			expectTags:     "loom,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from failing ntfy endpoint")
	}
}
