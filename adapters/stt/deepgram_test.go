package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/hireloop/interview-relay/domain/repositories"
)

// fakeDeepgram upgrades inbound connections and hands them to the test.
type fakeDeepgram struct {
	t        *testing.T
	upgrader websocket.Upgrader

	conns   chan *websocket.Conn
	queries chan map[string]string
	protos  chan string
}

func newFakeDeepgram(t *testing.T) (*fakeDeepgram, *httptest.Server) {
	f := &fakeDeepgram{
		t:       t,
		conns:   make(chan *websocket.Conn, 1),
		queries: make(chan map[string]string, 1),
		protos:  make(chan string, 1),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := map[string]string{}
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		f.queries <- query
		f.protos <- r.Header.Get("Sec-WebSocket-Protocol")

		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		f.conns <- conn
	}))
	t.Cleanup(server.Close)
	return f, server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func newTestRecognizer(t *testing.T, endpoint string) *DeepgramRecognizer {
	recognizer, err := NewDeepgramRecognizer(DeepgramConfig{
		APIKey:         "test-api-key",
		Endpoint:       endpoint,
		ConnectTimeout: 2 * time.Second,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create recognizer: %v", err)
	}
	return recognizer
}

func TestNewDeepgramRecognizer_RequiresAPIKey(t *testing.T) {
	_, err := NewDeepgramRecognizer(DeepgramConfig{}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("expected error when API key is not set")
	}
}

func TestDeepgramRecognizer_ConnectHandshake(t *testing.T) {
	fake, server := newFakeDeepgram(t)
	recognizer := newTestRecognizer(t, wsURL(server))

	stream, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{
		Language:       "en",
		SampleRate:     16000,
		Channels:       1,
		InterimResults: true,
		Punctuate:      true,
	})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer stream.Close()

	query := <-fake.queries
	expected := map[string]string{
		"model":           "nova-2",
		"sample_rate":     "16000",
		"channels":        "1",
		"language":        "en",
		"interim_results": "true",
		"punctuate":       "true",
	}
	for key, want := range expected {
		if got := query[key]; got != want {
			t.Errorf("query param %s = %q, want %q", key, got, want)
		}
	}

	proto := <-fake.protos
	if !strings.Contains(proto, "token") || !strings.Contains(proto, "test-api-key") {
		t.Errorf("expected token subprotocol carrying the API key, got %q", proto)
	}
}

func TestDeepgramStream_ForwardsFramesInOrder(t *testing.T) {
	fake, server := newFakeDeepgram(t)
	recognizer := newTestRecognizer(t, wsURL(server))

	stream, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{Language: "en"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer stream.Close()
	<-fake.queries
	<-fake.protos
	upstream := <-fake.conns

	sizes := []int{100, 200, 50}
	for _, size := range sizes {
		stream.SendAudio(make([]byte, size))
	}

	for i, want := range sizes {
		messageType, payload, err := upstream.ReadMessage()
		if err != nil {
			t.Fatalf("upstream read %d failed: %v", i, err)
		}
		if messageType != websocket.BinaryMessage {
			t.Errorf("frame %d: message type %d, want binary", i, messageType)
		}
		if len(payload) != want {
			t.Errorf("frame %d: size %d, want %d", i, len(payload), want)
		}
	}
}

func TestDeepgramStream_DeliversTranscripts(t *testing.T) {
	fake, server := newFakeDeepgram(t)
	recognizer := newTestRecognizer(t, wsURL(server))

	stream, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{Language: "en"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer stream.Close()
	<-fake.queries
	<-fake.protos
	upstream := <-fake.conns

	message := `{"is_final":true,"channel":{"alternatives":[{"transcript":"hello world","confidence":0.97}]}}`
	if err := upstream.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		t.Fatalf("upstream write failed: %v", err)
	}

	select {
	case event := <-stream.Transcripts():
		if event.Text != "hello world" {
			t.Errorf("transcript = %q, want %q", event.Text, "hello world")
		}
		if !event.IsFinal {
			t.Error("expected final transcript")
		}
		if event.Confidence != 0.97 {
			t.Errorf("confidence = %v, want 0.97", event.Confidence)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript")
	}
}

func TestDeepgramStream_MalformedMessageDoesNotKillStream(t *testing.T) {
	fake, server := newFakeDeepgram(t)
	recognizer := newTestRecognizer(t, wsURL(server))

	stream, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{Language: "en"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer stream.Close()
	<-fake.queries
	<-fake.protos
	upstream := <-fake.conns

	if err := upstream.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("upstream write failed: %v", err)
	}

	select {
	case err := <-stream.Errors():
		if err == nil {
			t.Error("expected a parse error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for parse error")
	}

	// The stream must keep delivering after a malformed frame.
	good := `{"is_final":false,"channel":{"alternatives":[{"transcript":"still alive"}]}}`
	if err := upstream.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
		t.Fatalf("upstream write failed: %v", err)
	}

	select {
	case event := <-stream.Transcripts():
		if event.Text != "still alive" {
			t.Errorf("transcript = %q, want %q", event.Text, "still alive")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream stopped delivering after malformed frame")
	}
}

func TestDeepgramStream_CloseIsIdempotent(t *testing.T) {
	fake, server := newFakeDeepgram(t)
	recognizer := newTestRecognizer(t, wsURL(server))

	stream, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{Language: "en"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	<-fake.queries
	<-fake.protos

	for i := 0; i < 3; i++ {
		if err := stream.Close(); err != nil {
			t.Errorf("close %d returned error: %v", i, err)
		}
	}

	// Sends after close are silent no-ops.
	stream.SendAudio([]byte{1, 2, 3})
}

func TestDeepgramRecognizer_ConnectFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	recognizer := newTestRecognizer(t, wsURL(server))
	_, err := recognizer.Connect(context.Background(), repositories.RecognitionConfig{Language: "en"})
	if err == nil {
		t.Fatal("expected connect error from rejecting upstream")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestParseTranscriptEvent(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantOK   bool
		wantErr  bool
		wantText string
	}{
		{
			name:     "final transcript",
			message:  `{"is_final":true,"channel":{"alternatives":[{"transcript":"hello","confidence":0.9}]}}`,
			wantOK:   true,
			wantText: "hello",
		},
		{
			name:    "empty transcript suppressed",
			message: `{"channel":{"alternatives":[{"transcript":""}]}}`,
			wantOK:  false,
		},
		{
			name:    "whitespace transcript suppressed",
			message: `{"channel":{"alternatives":[{"transcript":"   "}]}}`,
			wantOK:  false,
		},
		{
			name:    "no alternatives",
			message: `{"channel":{}}`,
			wantOK:  false,
		},
		{
			name:    "metadata message",
			message: `{"type":"Metadata","duration":1.2}`,
			wantOK:  false,
		},
		{
			name:    "malformed json",
			message: `{oops`,
			wantErr: true,
		},
		{
			name:     "transcript trimmed",
			message:  `{"channel":{"alternatives":[{"transcript":"  padded  "}]}}`,
			wantOK:   true,
			wantText: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok, err := ParseTranscriptEvent([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTranscriptEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ParseTranscriptEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && event.Text != tt.wantText {
				t.Errorf("text = %q, want %q", event.Text, tt.wantText)
			}
		})
	}
}
