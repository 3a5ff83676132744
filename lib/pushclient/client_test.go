package pushclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendPush(t *testing.T) {
	var got Push
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/push/dispatch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get(ServiceKeyHeader) != "svc" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"error":"invalid service credential"}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"notification_id":"n1","sent":2,"failed":1}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/ignored", "svc")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := c.SendPush(context.Background(), Push{UserID: "u1", Title: "t", Body: "b", Category: "vaccine"})
	if err != nil {
		t.Fatalf("SendPush: %v", err)
	}
	if res.NotificationID != "n1" || res.Sent != 2 || res.Failed != 1 || !res.Success {
		t.Errorf("result = %+v", res)
	}
	if got.UserID != "u1" || got.Category != "vaccine" || got.ContentID != "" {
		t.Errorf("server received %+v", got)
	}

	bad, _ := New(srv.URL, "wrong")
	res, err = bad.SendPush(context.Background(), Push{UserID: "u1", Title: "t", Body: "b"})
	if err == nil || !strings.Contains(err.Error(), "403") || res.Error != "invalid service credential" {
		t.Errorf("err = %v, result = %+v", err, res)
	}
}

func TestSendPushNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "svc")
	if _, err := c.SendPush(context.Background(), Push{}); err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want status in error", err)
	}
}

func TestNewDefaultsToHTTPS(t *testing.T) {
	c, err := New("//push.example.com", "svc")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.endpoint.String(); got != "https://push.example.com/push/dispatch" {
		t.Errorf("endpoint = %q", got)
	}
}
