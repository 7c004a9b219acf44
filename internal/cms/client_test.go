package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/identity"
)

func TestRegisterStoresCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/players/register" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["name"] != "Display-1" {
			t.Errorf("unexpected name %v", body["name"])
		}
		if _, ok := body["deviceInfo"]; !ok {
			t.Errorf("register payload missing deviceInfo: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"playerId": "p-1", "token": "tok-1"})
	}))
	defer server.Close()

	record := &identity.Record{Name: "Display-1", Location: "Lobby"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Register(context.Background(), &identity.Device{Hostname: "kiosk-1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if record.PlayerID != "p-1" || record.Token != "tok-1" {
		t.Fatalf("credentials not stored: %+v", record)
	}
}

func TestAuthenticateValidatesStoredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/players/auth" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body authRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.PlayerID != "p-1" || body.Token != "tok-1" {
			t.Errorf("unexpected auth payload: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	record := &identity.Record{Name: "Display-1", PlayerID: "p-1", Token: "tok-1"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if record.Token != "tok-1" {
		t.Fatalf("stored token changed: %q", record.Token)
	}
}

func TestAuthenticateRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	record := &identity.Record{Name: "Display-1", PlayerID: "p-1", Token: "stale"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Authenticate(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchScheduleDecodesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player-schedule/p-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Write([]byte(`{
			"currentSchedule": {"id": "s-1", "name": "Morning"},
			"media": [{"id": "m-1", "name": "promo", "type": "video", "url": "http://cdn/promo.mp4", "playlistDuration": 30}],
			"tickerText": "hello",
			"tickerSpeed": 3
		}`))
	}))
	defer server.Close()

	record := &identity.Record{Name: "Display-1", PlayerID: "p-1", Token: "tok-1"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	snapshot, err := client.FetchSchedule(context.Background())
	if err != nil {
		t.Fatalf("FetchSchedule failed: %v", err)
	}
	if snapshot.ScheduleID() != "s-1" {
		t.Fatalf("unexpected schedule id %q", snapshot.ScheduleID())
	}
	if len(snapshot.Media) != 1 || snapshot.Media[0].ID != "m-1" {
		t.Fatalf("unexpected media: %+v", snapshot.Media)
	}
	if snapshot.TickerText != "hello" || snapshot.TickerSpeed != 3 {
		t.Fatalf("unexpected ticker fields: %q %v", snapshot.TickerText, snapshot.TickerSpeed)
	}
	if snapshot.PlayerID != "p-1" {
		t.Fatalf("player id not stamped: %q", snapshot.PlayerID)
	}
}

func TestFetchScheduleUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	record := &identity.Record{Name: "n", PlayerID: "p-1", Token: "bad"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = client.FetchSchedule(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchScheduleRequiresRegistration(t *testing.T) {
	record := &identity.Record{Name: "n"}
	client, err := New("http://localhost:9", record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.FetchSchedule(context.Background()); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestReportStatePostsPayload(t *testing.T) {
	var got StateReport
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/players/p-1/state" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode report: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	record := &identity.Record{Name: "n", PlayerID: "p-1", Token: "tok"}
	client, err := New(server.URL, record)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	report := StateReport{
		Status:      "playing",
		MediaID:     "m-1",
		MediaType:   "video",
		MediaURL:    "http://cdn/promo.mp4",
		CurrentTime: 12.5,
	}
	if err := client.ReportState(context.Background(), report); err != nil {
		t.Fatalf("ReportState failed: %v", err)
	}
	if got.Status != "playing" || got.MediaID != "m-1" {
		t.Fatalf("unexpected report received: %+v", got)
	}
	if got.MediaType != "video" || got.MediaURL != "http://cdn/promo.mp4" || got.CurrentTime != 12.5 {
		t.Fatalf("media fields not carried: %+v", got)
	}
}
