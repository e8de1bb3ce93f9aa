package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(zerolog.Nop())
	c.BaseURL = srv.URL
	return c
}

func TestActivities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("per_page") != "30" {
			t.Errorf("pagination = %s/%s", q.Get("page"), q.Get("per_page"))
		}
		_ = json.NewEncoder(w).Encode([]Activity{{ID: 5, Name: "Ride", SportType: "Ride"}})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Activities(context.Background(), "tok", 2, 30)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("activities = %+v", got)
	}
}

func TestActivitiesAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("after"); got != "1700000000" {
			t.Errorf("after = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).ActivitiesAfter(context.Background(), "tok", 1700000000, 1, 50)
	if err != nil {
		t.Fatalf("ActivitiesAfter: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("activities = %+v", got)
	}
}

func TestActivitiesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Activities(context.Background(), "bad", 1, 50)
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status: %v", err)
	}
}
