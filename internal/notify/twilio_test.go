package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTwilioSMS_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("unexpected basic auth: %s/%s", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		if r.PostForm.Get("To") != "+15551234567" {
			t.Errorf("unexpected To: %s", r.PostForm.Get("To"))
		}
		if r.PostForm.Get("From") != "+15550000000" {
			t.Errorf("unexpected From: %s", r.PostForm.Get("From"))
		}
		if r.PostForm.Get("Body") == "" {
			t.Error("expected a message body")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sms := NewTwilioSMS("AC123", "secret", "+15550000000", 5*time.Second)
	sms.baseURL = srv.URL

	if err := sms.Send(context.Background(), "+15551234567", "test alert"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestTwilioSMS_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid 'To' number"}`))
	}))
	defer srv.Close()

	sms := NewTwilioSMS("AC123", "secret", "+15550000000", 5*time.Second)
	sms.baseURL = srv.URL

	err := sms.Send(context.Background(), "not-a-number", "test")
	if err == nil {
		t.Fatal("expected error for rejected message")
	}
	if !containsAll(err.Error(), "invalid 'To' number") {
		t.Errorf("expected provider message in error, got: %v", err)
	}
}
