package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/api/", opts...)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultAPIBase {
		t.Fatalf("default base = %q, want %q", u.String(), DefaultAPIBase)
	}

	u, err = parseBaseURL("example.com:3000/api///?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatal("parseBaseURL(http://) expected error")
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("probe path = %q, want /api/health", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"ok":true,"db":"sqlite"}`)
	})
	if !c.Probe(testContext(t)) {
		t.Fatal("Probe() = false, want true")
	}

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if down.Probe(testContext(t)) {
		t.Fatal("Probe() = true on 503, want false")
	}
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.Probe(testContext(t)) {
		t.Fatal("Probe() = true for closed server, want false")
	}

	res := c.List(testContext(t), 10, 0)
	if res.Status != StatusUnreachable {
		t.Fatalf("List status = %v, want unreachable", res.Status)
	}
	if !errors.Is(res.Err, errors.ErrRemoteUnreachable) {
		t.Fatalf("List err = %v, want REMOTE_UNREACHABLE", res.Err)
	}
}

func TestList_UnpacksShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "envelope", body: `{"items":[{"id":1,"fecha":"2024-05-01"},{"id":2}],"total":2}`, want: 2},
		{name: "bare array", body: `[{"id":1}]`, want: 1},
		{name: "other object", body: `{"data":[{"id":1}]}`, want: 0},
		{name: "not json", body: `hello`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = io.WriteString(w, tt.body)
			})

			res := c.List(testContext(t), 100, 0)
			if !res.OK() {
				t.Fatalf("List status = %v err = %v", res.Status, res.Err)
			}
			if res.Value == nil || len(res.Value) != tt.want {
				t.Fatalf("List len = %d, want %d", len(res.Value), tt.want)
			}
			if gotQuery != "limit=100" {
				t.Errorf("query = %q, want limit=100", gotQuery)
			}
		})
	}
}

func TestCreate_SendsJSONAndDecodesRow(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/entrenamientos" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"fecha":"2024-05-01","tipo":"Running","distancia_km":"5.00"}`)
	})

	res := c.Create(testContext(t), entry.ToAPI(entry.Entry{Date: "2024-05-01", Type: "Running", Distance: 5}))
	if !res.OK() {
		t.Fatalf("Create status = %v err = %v", res.Status, res.Err)
	}
	if res.Value.ID != "7" || res.Value.DistanceKm != 5 {
		t.Errorf("Create value = %+v", res.Value)
	}
	if got["fecha"] != "2024-05-01" || got["distancia_km"] != float64(5) {
		t.Errorf("request body = %v", got)
	}
	if v, present := got["clima"]; !present || v != nil {
		t.Errorf("clima = %v (present %v), want null", v, present)
	}
}

func TestCreate_RejectedCarriesServerMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "error string", status: 400, body: `{"error":"fecha y tipo son obligatorios"}`, wantMsg: "fecha y tipo son obligatorios"},
		{name: "error object", status: 404, body: `{"error":{"code":"NOT_FOUND","message":"no encontrado"}}`, wantMsg: "no encontrado"},
		{name: "message field", status: 422, body: `{"message":"bad"}`, wantMsg: "bad"},
		{name: "no body", status: 500, body: ``, wantMsg: "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			res := c.Create(testContext(t), entry.Row{})
			if res.Status != StatusRejected {
				t.Fatalf("status = %v, want rejected", res.Status)
			}
			e := errors.As(res.Err)
			if e.Code != errors.ErrRemoteRejected || e.Message != tt.wantMsg || e.Status != tt.status {
				t.Errorf("err = %+v, want message %q", e, tt.wantMsg)
			}
		})
	}
}

func TestCreate_UndecodableBodyIsUnreachable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})

	res := c.Create(testContext(t), entry.Row{})
	if res.Status != StatusUnreachable {
		t.Fatalf("status = %v, want unreachable", res.Status)
	}
}

func TestUpdateAndDelete_Paths(t *testing.T) {
	t.Parallel()

	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			_, _ = io.WriteString(w, `{"id":3,"fecha":"2024-05-03"}`)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"ok":false}`)
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"id":3}`)
		}
	})

	ctx := testContext(t)
	if res := c.Update(ctx, "3", entry.Row{Date: "2024-05-03"}); !res.OK() || res.Value.Date != "2024-05-03" {
		t.Errorf("Update = %+v", res)
	}
	if res := c.Delete(ctx, "3"); !res.OK() || res.Value {
		t.Errorf("Delete = %+v, want ok=false", res)
	}
	if res := c.Get(ctx, "3"); !res.OK() || res.Value.ID != "3" {
		t.Errorf("Get = %+v", res)
	}

	want := []string{"PUT /api/entrenamientos/3", "DELETE /api/entrenamientos/3", "GET /api/entrenamientos/3"}
	for i, w := range want {
		if i >= len(paths) || paths[i] != w {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
	}
}

func TestRowURL_EscapesID(t *testing.T) {
	t.Parallel()

	var uris []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		uris = append(uris, r.RequestURI)
		_, _ = io.WriteString(w, `{"id":1}`)
	})

	ctx := testContext(t)
	for _, id := range []entry.ID{"../health", "..", "a b", "7"} {
		c.Get(ctx, id)
	}

	want := []string{
		"/api/entrenamientos/..%2Fhealth",
		"/api/entrenamientos/%2E%2E",
		"/api/entrenamientos/a%20b",
		"/api/entrenamientos/7",
	}
	if len(uris) != len(want) {
		t.Fatalf("uris = %v, want %v", uris, want)
	}
	for i, w := range want {
		if uris[i] != w {
			t.Errorf("request %d uri = %q, want %q", i, uris[i], w)
		}
	}
}

func TestDelete_EmptyBodyCountsAsOK(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if res := c.Delete(testContext(t), "1"); !res.OK() || !res.Value {
		t.Errorf("Delete = %+v, want ok=true", res)
	}
}

func TestForceLocal_NoRequests(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, WithForceLocal(true))

	ctx := testContext(t)
	if c.Probe(ctx) {
		t.Error("Probe() = true in local mode")
	}
	if res := c.List(ctx, 100, 0); !res.OK() || len(res.Value) != 0 {
		t.Errorf("List = %+v, want empty OK", res)
	}
	if res := c.Create(ctx, entry.Row{}); res.Status != StatusDisabled || !errors.Is(res.Err, errors.ErrLocalMode) {
		t.Errorf("Create = %+v, want disabled LOCAL_MODE", res)
	}
	if res := c.Update(ctx, "1", entry.Row{}); res.Status != StatusDisabled {
		t.Errorf("Update status = %v, want disabled", res.Status)
	}
	if res := c.Delete(ctx, "1"); res.Status != StatusDisabled {
		t.Errorf("Delete status = %v, want disabled", res.Status)
	}

	if n := calls.Load(); n != 0 {
		t.Fatalf("server saw %d requests in local mode, want 0", n)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, WithTimeout(20*time.Millisecond))

	if c.Probe(testContext(t)) {
		t.Fatal("Probe() = true after timeout, want false")
	}
}
