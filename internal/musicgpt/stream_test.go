package musicgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeBackend upgrades incoming connections and replays scripted messages,
// capturing whatever the client sends.
func fakeBackend(t *testing.T, script []string, requests chan<- clientMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, msg := range script {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		if requests == nil {
			return
		}
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			requests <- msg
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStreamHandshakeAndEvents(t *testing.T) {
	script := []string{
		`{"Info":"MusicGPT 1.2"}`,
		`{"Info":"model loaded"}`,
		`{"Generation":{"Start":null}}`,
		`{"Generation":{"Progress":{"progress":0.5}}}`,
	}
	server := fakeBackend(t, script, nil)
	defer server.Close()

	stream, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer stream.Close()

	infos, err := stream.Handshake(2, time.Second)
	if err != nil {
		t.Fatalf("Handshake returned error: %v", err)
	}
	if len(infos) != 2 || infos[0] != "MusicGPT 1.2" {
		t.Fatalf("unexpected handshake infos %v", infos)
	}

	event, err := stream.Next(time.Second)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if event.Type != EventStarted {
		t.Fatalf("expected start event, got %+v", event)
	}
	event, err = stream.Next(time.Second)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if event.Type != EventProgress || event.Progress != 0.5 {
		t.Fatalf("expected progress event, got %+v", event)
	}
}

func TestStreamNextTimesOutWithoutPoisoningConnection(t *testing.T) {
	requests := make(chan clientMessage, 1)
	server := fakeBackend(t, nil, requests)
	defer server.Close()

	stream, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(20 * time.Millisecond); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}

	// The stream must remain usable after a poll timeout.
	req := NewGenerationRequest("ambient pad", 30)
	if err := stream.Send(req); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	select {
	case got := <-requests:
		if got.GenerateAudioNewChat == nil || got.GenerateAudioNewChat.Prompt != "ambient pad" {
			t.Fatalf("unexpected request %+v", got)
		}
		if got.GenerateAudioNewChat.Secs != 30 {
			t.Fatalf("unexpected duration %d", got.GenerateAudioNewChat.Secs)
		}
	case <-time.After(time.Second):
		t.Fatal("backend never received the request")
	}
}

func TestStreamCloseReleasesBlockedReader(t *testing.T) {
	// Flood the client with more messages than its buffer holds so the
	// reader ends up blocked on a channel send nobody is draining.
	script := make([]string, 64)
	for i := range script {
		script[i] = `{"Generation":{"Progress":{"progress":0.1}}}`
	}
	server := fakeBackend(t, script, nil)
	defer server.Close()

	stream, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}

	// Let the reader fill its buffer and park on the next send.
	time.Sleep(50 * time.Millisecond)

	if err := stream.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	select {
	case <-stream.readerDone:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after close")
	}
}

func TestStreamDialFailure(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/ws"); err == nil {
		t.Fatal("expected dial failure")
	}
}

func TestFileClientDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/out/clip_01.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("wav-bytes"))
	}))
	defer server.Close()

	client := NewFileClient(server.URL+"/files/", time.Second)
	data, err := client.Download(context.Background(), "out/clip_01.wav")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if string(data) != "wav-bytes" {
		t.Fatalf("unexpected payload %q", data)
	}

	if _, err := client.Download(context.Background(), "missing.wav"); err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if _, err := client.Download(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFileClientDownloadStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer server.Close()

	client := NewFileClient(server.URL, time.Second)
	if _, err := client.Download(context.Background(), "clip.wav"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
