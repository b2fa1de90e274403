package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/config"
	"github.com/fieldmesh/fieldmesh-core/internal/infrastructure/logging"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func testClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: subs,
	}
	hub.Register(client)
	return client
}

func TestHub_BroadcastMatching(t *testing.T) {
	tests := []struct {
		name      string
		subscribe string
		channel   string
		want      bool
	}{
		{"exact", "device.created", "device.created", true},
		{"entity wildcard", "device.*", "device.deleted", true},
		{"global wildcard", "*", "reading.created", true},
		{"other action", "device.created", "device.updated", false},
		{"other entity wildcard", "zone.*", "device.created", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := testHub(t)
			client := testClient(hub, tt.subscribe)

			hub.Broadcast(tt.channel, Event{Entity: "x", Action: "y", ID: "id-1"})

			select {
			case msg := <-client.send:
				if !tt.want {
					t.Fatalf("unexpected message for %s on %s", tt.subscribe, tt.channel)
				}
				var wsMsg WSMessage
				if err := json.Unmarshal(msg, &wsMsg); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if wsMsg.Type != WSTypeEvent || wsMsg.EventType != tt.channel {
					t.Errorf("message = %+v", wsMsg)
				}
			case <-time.After(100 * time.Millisecond):
				if tt.want {
					t.Errorf("timed out waiting for %s on %s", tt.channel, tt.subscribe)
				}
			}
		})
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := testHub(t)

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := testClient(hub)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client) // second call must not double-close
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestWSClient_SubscribeUnsubscribe(t *testing.T) {
	hub := testHub(t)
	client := testClient(hub)

	client.handleMessage([]byte(`{"type":"subscribe","id":"1","payload":{"channels":["zone.created","zone.deleted"]}}`))
	if !client.isSubscribed("zone.created") || !client.isSubscribed("zone.deleted") {
		t.Fatal("subscribe did not register channels")
	}
	<-client.send

	client.handleMessage([]byte(`{"type":"unsubscribe","id":"2","payload":{"channels":["zone.created"]}}`))
	if client.isSubscribed("zone.created") {
		t.Error("zone.created still subscribed")
	}
	<-client.send

	client.handleMessage([]byte(`{"type":"ping","id":"3"}`))
	var pong WSMessage
	if err := json.Unmarshal(<-client.send, &pong); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pong.Type != WSTypePong || pong.ID != "3" {
		t.Errorf("pong = %+v", pong)
	}

	client.handleMessage([]byte(`not json`))
	var errMsg WSMessage
	if err := json.Unmarshal(<-client.send, &errMsg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if errMsg.Type != WSTypeError {
		t.Errorf("type = %q, want error", errMsg.Type)
	}
}
