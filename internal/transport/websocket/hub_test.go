package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/merge-tycoon/internal/session"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("slot"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, slot string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?slot=" + slot
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// publishUntilRead keeps publishing until conn receives a frame, since registration
// completes asynchronously after the handshake.
func publishUntilRead(t *testing.T, hub *Hub, conn *websocket.Conn, msg func() *Message) Message {
	t.Helper()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			hub.Publish(msg())
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal(%s) failed: %v", data, err)
	}
	return got
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	if hub.slots == nil || hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Fatalf("NewHub() left channels or maps nil: %+v", hub)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(log.New(io.Discard))
	c := &Client{hub: hub, slot: "alice", send: make(chan []byte, 1)}

	hub.registerClient(c)
	if !hub.slots["alice"][c] {
		t.Fatal("client not registered")
	}

	hub.unregisterClient(c)
	if _, ok := hub.slots["alice"]; ok {
		t.Error("empty slot was not removed")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
	// Second unregister is a no-op
	hub.unregisterClient(c)
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(log.New(io.Discard))
	slow := &Client{hub: hub, slot: "s", send: make(chan []byte)}
	fast := &Client{hub: hub, slot: "s", send: make(chan []byte, 1)}
	other := &Client{hub: hub, slot: "t", send: make(chan []byte, 1)}
	hub.registerClient(slow)
	hub.registerClient(fast)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{Slot: "s", Event: "state_update"})

	if hub.slots["s"][slow] {
		t.Error("slow client still registered")
	}
	if len(fast.send) != 1 {
		t.Errorf("fast client queued %d messages, want 1", len(fast.send))
	}
	if len(other.send) != 0 {
		t.Errorf("client of another slot received %d messages", len(other.send))
	}
}

func TestHubStreamsSessionEvents(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "bob")

	s := session.Open("bob", nil, session.Options{Seed: 1, Logger: log.New(io.Discard)})
	s.Spawn()

	got := publishUntilRead(t, hub, conn, func() *Message {
		view := s.View()
		return &Message{Slot: view.Slot, Event: string(session.EventState), State: &view}
	})
	if got.Event != "state_update" || got.Slot != "bob" {
		t.Errorf("message = %+v, want a state_update for bob", got)
	}
	if got.State == nil || len(got.State.Tokens) != 1 || got.State.Tokens[0].Name != "10 Won" {
		t.Errorf("message state = %+v, want one 10 Won token", got.State)
	}

	// Once registered, session events flow through Attach
	detach := hub.Attach(s)
	defer detach()
	s.AddMoney(1_000)
	s.CheckAchievements()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() failed: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if msg.Event == string(session.EventAchievement) {
			if len(msg.Achievements) == 0 {
				t.Error("achievement event without ids")
			}
			return
		}
	}
}

func TestHubPublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Publish(&Message{Slot: "x", Event: "state_update"})
	}
}
