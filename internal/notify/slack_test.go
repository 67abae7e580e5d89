package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNotifyPostsPayload(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, zerolog.Nop())
	n.Notify(context.Background(), "Upload failed", "row 42: read local file: no such file")

	if received == nil {
		t.Fatal("webhook received no payload")
	}
	text := received["text"]
	if !strings.Contains(text, "*Upload failed*") {
		t.Errorf("payload text %q should contain the bolded title", text)
	}
	if !strings.Contains(text, "row 42") {
		t.Errorf("payload text %q should contain the message", text)
	}
}

func TestNotifyWithoutWebhookIsNoop(t *testing.T) {
	n := NewSlackNotifier("", zerolog.Nop())
	// Must not panic or block.
	n.Notify(context.Background(), "title", "message")
}

func TestNotifySwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, zerolog.Nop())
	// A rejecting webhook must never propagate a failure.
	n.Notify(context.Background(), "title", "message")
}
