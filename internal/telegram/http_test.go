package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeadlineClientPicksBudgetByMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)

	client := &deadlineClient{client: srv.Client(), request: 20 * time.Millisecond, upload: 5 * time.Second}
	do := func(method string) error {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/bot123:test/"+method, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, err = io.ReadAll(resp.Body)
		return err
	}

	if err := do("sendAnimation"); err != nil {
		t.Fatalf("upload should get the delivery budget: %v", err)
	}
	if err := do("editMessageCaption"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected request budget to expire, got %v", err)
	}
}
