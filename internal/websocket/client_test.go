package websocket

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"
)

func TestClient_DrainsQueueOnClose(t *testing.T) {
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		client := newClient(conn, zaptest.NewLogger(t))
		go client.writePump()
		client.enqueueJSON(TranscribeErrorMessage{Type: "error", Error: "upstream gone"})
		client.close()
		return nil
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	// close follows enqueue immediately; the queued message must still be
	// delivered before the close frame, every time.
	for i := 0; i < 25; i++ {
		conn := dialWS(t, server, "/ws")
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("attempt %d: read: %v", i, err)
		}
		if messageType != websocket.TextMessage || string(payload) != `{"type":"error","error":"upstream gone"}` {
			t.Fatalf("attempt %d: got type %d payload %q", i, messageType, payload)
		}
		conn.Close()
	}
}

func TestClient_EnqueueAfterCloseReturnsFalse(t *testing.T) {
	received := make(chan struct{}, 1)
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		client := newClient(conn, zaptest.NewLogger(t))
		go client.writePump()
		client.close()

		// Give the pump a moment to exit, then saturate the buffer: once
		// it fills, enqueue must report failure instead of blocking.
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if !client.enqueue(WriteData{Type: websocket.TextMessage, Payload: []byte(fmt.Sprintf("%d", time.Now().UnixNano()))}) {
				received <- struct{}{}
				return nil
			}
		}
		return nil
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	dialWS(t, server, "/ws")
	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("enqueue never reported a closed client")
	}
}
