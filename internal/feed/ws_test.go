package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"adbrain/internal/storage/memory"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func validMessage(date string) []byte {
	msg := metricMessage{
		OrgID:       "org_demo",
		Date:        date,
		ChannelID:   "ch_meta",
		CampaignID:  "cmp_meta",
		CreativeID:  "cr_meta_1",
		Impressions: 40000,
		Clicks:      1000,
		Spend:       3333.33,
		Conversions: 50,
		Revenue:     12000,
		Frequency:   2.1,
		CVR:         0.05,
		CPA:         48,
	}
	b, _ := json.Marshal(msg)
	return b
}

func TestSubscriber_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Keep connection open
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	sub, err := NewSubscriber(context.Background(), wsURL, memory.NewDailyMetricStore(), nil)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	defer sub.Close()

	if sub.closed.Load() {
		t.Error("subscriber should not be closed")
	}
}

func TestSubscriber_PersistsPushedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, date := range []string{"2025-05-01", "2025-05-02", "2025-05-03"} {
			if err := conn.WriteMessage(websocket.TextMessage, validMessage(date)); err != nil {
				return
			}
		}

		// Hold the connection open until the client closes it
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	store := memory.NewDailyMetricStore()

	sub, err := NewSubscriber(context.Background(), wsURL, store, nil)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	defer sub.Close()

	// Wait for the rows to land in the store.
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := store.GetByRange(context.Background(), "org_demo", start, end)
		if err != nil {
			t.Fatalf("GetByRange: %v", err)
		}
		if len(rows) == 3 {
			if rows[0].Spend != 3333.33 {
				t.Errorf("Spend = %f, want 3333.33", rows[0].Spend)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubscriber_SkipsBadRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Malformed JSON, invalid row, then a valid one.
		conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

		bad := metricMessage{OrgID: "org_demo", Date: "2025-05-01", ChannelID: "ch_meta", Spend: -50}
		b, _ := json.Marshal(bad)
		conn.WriteMessage(websocket.TextMessage, b)

		conn.WriteMessage(websocket.TextMessage, validMessage("2025-05-01"))

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	store := memory.NewDailyMetricStore()

	sub, err := NewSubscriber(context.Background(), wsURL, store, nil)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	defer sub.Close()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := store.GetByRange(context.Background(), "org_demo", day, day)
		if err != nil {
			t.Fatalf("GetByRange: %v", err)
		}
		if len(rows) == 1 {
			return // only the valid row survived
		}
		if len(rows) > 1 {
			t.Fatalf("expected at most 1 row, got %d", len(rows))
		}
		if time.Now().After(deadline) {
			t.Fatalf("valid row never stored")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubscriber_DuplicateRowsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, validMessage("2025-05-01"))
		conn.WriteMessage(websocket.TextMessage, validMessage("2025-05-01"))

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	store := memory.NewDailyMetricStore()

	sub, err := NewSubscriber(context.Background(), wsURL, store, nil)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	defer sub.Close()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := store.GetByRange(context.Background(), "org_demo", day, day)
		if err != nil {
			t.Fatalf("GetByRange: %v", err)
		}
		if len(rows) >= 1 {
			// Give the duplicate a moment to arrive, then confirm it was dropped.
			time.Sleep(100 * time.Millisecond)
			rows, _ = store.GetByRange(context.Background(), "org_demo", day, day)
			if len(rows) != 1 {
				t.Fatalf("expected 1 row after duplicate, got %d", len(rows))
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("row never stored")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSubscriber_CloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	sub, err := NewSubscriber(context.Background(), wsURL, memory.NewDailyMetricStore(), nil)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
