package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "thefix/internal/adapters/http_server"
	"thefix/internal/adapters/ratelimit"
	"thefix/internal/app"
	"thefix/internal/domain"
)

const allowedOrigin = "https://the-fix-website.vercel.app"

// ---- fakes ----

type fakeGeocoder struct {
	c   domain.Coordinate
	err error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	if f.err != nil {
		return domain.Coordinate{}, f.err
	}
	return f.c, nil
}

type fakeCompleter struct {
	reply string
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, turns []domain.ChatMessage) (string, error) {
	f.calls++
	return f.reply, nil
}

type fakeTicketLog struct {
	rows [][]string
	err  error
}

func (f *fakeTicketLog) Append(ctx context.Context, row []string) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func stores() []domain.StoreLocation {
	return []domain.StoreLocation{
		{ID: "midtown", Name: "The Fix Midtown", Address: "350 5th Ave, New York, NY",
			Coordinate: domain.Coordinate{Lat: 40.754343, Lng: -73.98}},
		{ID: "uptown", Name: "The Fix Harlem", Address: "125th St, New York, NY",
			Coordinate: domain.Coordinate{Lat: 40.809345, Lng: -73.98}},
	}
}

type fixture struct {
	srv       *httptest.Server
	completer *fakeCompleter
	tickets   *fakeTicketLog
}

func newFixture(t *testing.T, mut func(*httpserver.Handlers)) *fixture {
	t.Helper()

	completer := &fakeCompleter{reply: "Problem: ok.\nUrgency: low.\nNext steps: visit us."}
	tickets := &fakeTicketLog{}

	h := &httpserver.Handlers{
		Locator:       app.NewLocatorService(&fakeGeocoder{c: domain.Coordinate{Lat: 40.75, Lng: -73.98}}, stores()),
		Support:       app.NewSupportService(completer, stores()),
		Stores:        stores(),
		Catalog: []domain.ServiceEntry{{
			Category: "Screens", Name: "Screen Swap", Description: "d", DurationMin: 60,
			Slug: "screen-swap", Variants: []domain.ServiceVariant{{Option: "OEM", Price: 199}},
		}},
		Tickets:       tickets,
		Limiter:       ratelimit.New(ratelimit.NewMemoryStore(), 10, time.Minute),
		TicketsOrigin: allowedOrigin,
	}
	if mut != nil {
		mut(h)
	}

	s := httpserver.New()
	s.MountHandlers(h)
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)

	return &fixture{srv: ts, completer: completer, tickets: tickets}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	return readBody(t, resp)
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) (*http.Response, string) {
	t.Helper()
	defer resp.Body.Close()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return resp, sb.String()
}

// ---- geocode ----

func TestGeocode_RequiresQuery(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.get(t, "/api/geocode")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Supply a query")
}

func TestGeocode_Success(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.get(t, "/api/geocode?q=Midtown")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"source":"geocoding"`)
	assert.Contains(t, body, `"lat":40.75`)
}

func TestGeocode_FallbackTagged(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) {
		h.Locator = app.NewLocatorService(&fakeGeocoder{err: domain.ErrNotFound}, stores())
	})
	resp, body := f.get(t, "/api/geocode?q=harlem")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"source":"fallback"`)
	assert.Contains(t, body, "approximate match")
}

func TestGeocode_NotFound(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) {
		h.Locator = app.NewLocatorService(&fakeGeocoder{err: domain.ErrNotFound}, stores())
	})
	resp, body := f.get(t, "/api/geocode?q=atlantis")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "No coordinates found")
}

func TestGeocode_RateLimited(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) {
		h.Limiter = ratelimit.New(ratelimit.NewMemoryStore(), 1, time.Minute)
	})
	resp, _ := f.get(t, "/api/geocode?q=Midtown")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.get(t, "/api/geocode?q=Midtown")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many requests")
}

// ---- locations ----

func TestNearby_RanksStores(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.get(t, "/api/locations/nearby?lat=40.75&lng=-73.98&limit=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"id":"midtown"`)
	assert.NotContains(t, body, `"id":"uptown"`)
	assert.Contains(t, body, `"distanceMiles"`)
}

func TestNearby_ValidatesInput(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{
		"/api/locations/nearby?lat=abc&lng=-73.98",
		"/api/locations/nearby?lat=40.75&lng=",
		"/api/locations/nearby?lat=95&lng=-73.98",
		"/api/locations/nearby?lat=40.75&lng=-73.98&limit=50",
	} {
		resp, _ := f.get(t, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestListLocationsAndServices(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.get(t, "/api/locations")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "The Fix Midtown")

	resp, body = f.get(t, "/api/services")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "screen-swap")
}

// ---- support ----

func TestSupport_ChatMode(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) {
		h.Support = app.NewSupportService(nil, stores())
	})
	resp, body := f.post(t, "/api/support", `{"mode":"chat","messages":[{"role":"user","content":"how much does it cost?"}]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "$99")
}

func TestSupport_ChatValidation(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.post(t, "/api/support", `{"mode":"chat","messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Invalid chat request")
}

func TestSupport_TicketWrappedAndBareForms(t *testing.T) {
	payload := `{"name":"Ana Reyes","email":"ana@example.com","device":"iPhone 14","category":"Screen","description":"Dropped it, glass cracked badly.","locationId":"midtown"}`
	f := newFixture(t, nil)

	resp, body := f.post(t, "/api/support", `{"payload":`+payload+`}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ticketId":"FIX-`)
	assert.Contains(t, body, "Urgency")

	resp, body = f.post(t, "/api/support", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ticketId":"FIX-`)
}

func TestSupport_ShortDescriptionMakesNoDownstreamCalls(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.post(t, "/api/support",
		`{"payload":{"name":"Ana Reyes","email":"ana@example.com","device":"iPhone 14","category":"Screen","description":"123456789","locationId":"midtown"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Invalid ticket payload")
	assert.Zero(t, f.completer.calls)
}

func TestSupport_InvalidJSON(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.post(t, "/api/support", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Invalid JSON")
}

// ---- tickets ----

const ticketBody = `{"ticketId":"FIX-ABC12345","name":"Ana Reyes","email":"ana@example.com","device":"iPhone 14","category":"Screen","location":"The Fix Midtown"}`

func TestTickets_AppendsRow(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.post(t, "/api/tickets", ticketBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"success":true`)

	require.Len(t, f.tickets.rows, 1)
	row := f.tickets.rows[0]
	require.Len(t, row, 7)
	assert.Equal(t, "FIX-ABC12345", row[1])
	assert.Equal(t, "The Fix Midtown", row[6])
	_, err := time.Parse(time.RFC3339, row[0])
	assert.NoError(t, err)
}

func TestTickets_MisconfiguredLogIs500(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) { h.Tickets = nil })
	resp, body := f.post(t, "/api/tickets", ticketBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Failed to log ticket")
}

func TestTickets_DownstreamFailureIs500(t *testing.T) {
	f := newFixture(t, func(h *httpserver.Handlers) {
		h.Tickets = &fakeTicketLog{err: errors.New("append denied")}
	})
	resp, body := f.post(t, "/api/tickets", ticketBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Failed to log ticket")
	assert.NotContains(t, body, "append denied", "downstream detail must not leak")
}

func TestTickets_BadPayload(t *testing.T) {
	f := newFixture(t, nil)
	resp, _ := f.post(t, "/api/tickets", `{"ticketId":"FIX-1","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTickets_CORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/tickets", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", allowedOrigin)
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
