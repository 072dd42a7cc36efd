package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"econ_go/internal/domain"
	"econ_go/pkg/quant"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// first frame is the hello envelope
	var hello map[string]any
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello["type"] != "hello" {
		t.Fatalf("first frame type = %v, want hello", hello["type"])
	}

	// the hub may not have registered the client yet when Broadcast runs,
	// so keep publishing until a frame arrives
	snap := Snapshot{
		Type: "market",
		Stats: []domain.MarketStats{
			{Ware: "iron", CurrentPriceMicros: 8 * quant.PriceScale},
		},
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				hub.Broadcast(snap)
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()

	var got Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	cancel()
	<-done

	if got.Type != "market" {
		t.Errorf("type = %q, want market", got.Type)
	}
	if len(got.Stats) != 1 || got.Stats[0].Ware != "iron" {
		t.Errorf("stats = %+v, want iron entry", got.Stats)
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	snap := Snapshot{Type: "market", SimDay: 3}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "market" {
		t.Errorf("type = %v", m["type"])
	}
	if _, ok := m["stats"]; ok {
		t.Error("empty stats should be omitted")
	}
}
