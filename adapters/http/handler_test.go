package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/modgate/app"
	"github.com/artpar/modgate/core/events"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/route"
	"github.com/artpar/modgate/core/schema"
)

// echoModule returns its sanitized argument bag as JSON so tests can
// see exactly what reached the module.
type echoModule struct {
	module.CommandSet
}

func newEchoModule() *echoModule {
	params := schema.NewParameterList()
	params.Add(schema.Parameter{Name: "text", Type: schema.TypeString})
	params.Add(schema.Parameter{Name: "count", Type: schema.TypeInt, Optional: true})
	return &echoModule{
		CommandSet: module.NewCommandSet(
			module.Command{Name: "say", Parameters: params},
		),
	}
}

func (m *echoModule) Name() string        { return "echo" }
func (m *echoModule) Description() string { return "test echo" }
func (m *echoModule) Execute(ctx context.Context, command string, args map[string]any) (*module.Response, error) {
	return module.JSON(http.StatusOK, args), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := module.NewRegistry()
	if err := reg.Register(newEchoModule()); err != nil {
		t.Fatalf("register: %v", err)
	}

	bus := events.NewBus(zerolog.Nop())
	dispatcher := route.NewDispatcher(true, zerolog.Nop(), bus)
	service := app.NewRouteService(reg, dispatcher, bus, nil, zerolog.Nop())

	specs := []route.Spec{
		{Name: "greet", Description: "say hello", Paths: []string{"echo say"}},
	}
	if err := service.Reload(specs); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	h := NewHandler(service, zerolog.Nop(), "test")
	srv := httptest.NewServer(h.Router(false, "/metrics"))
	t.Cleanup(srv.Close)
	t.Cleanup(service.Stop)
	return srv
}

func TestDispatchQueryParams(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/routes/greet?text=hi&bogus=dropped")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var args map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&args); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if args["text"] != "hi" {
		t.Errorf("text = %v, want hi", args["text"])
	}
	if _, ok := args["bogus"]; ok {
		t.Error("undeclared parameter must not reach the module")
	}
}

func TestDispatchBodyOverridesQuery(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(`{"text": "from-body"}`)
	resp, err := http.Post(srv.URL+"/v1/routes/greet?text=from-query", "application/json", body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var args map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&args); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if args["text"] != "from-body" {
		t.Errorf("text = %v, body should win over query", args["text"])
	}
}

func TestDispatchBadJSONBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/routes/greet", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDispatchUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/routes/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	// Verbose dispatcher surfaces the rejection.
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestListRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/routes")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var routes []route.Description
	if err := json.NewDecoder(resp.Body).Decode(&routes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(routes) != 1 || routes[0].Name != "greet" {
		t.Errorf("routes = %+v, want one route named greet", routes)
	}
}

func TestListModules(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/modules")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var mods []module.Info
	if err := json.NewDecoder(resp.Body).Decode(&mods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "echo" {
		t.Fatalf("modules = %+v, want echo", mods)
	}
	if len(mods[0].Commands) != 1 || mods[0].Commands[0].Name != "say" {
		t.Errorf("commands = %+v, want say", mods[0].Commands)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
}

func TestVersion(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var v VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Version != "test" || v.Service != "modgate" {
		t.Errorf("version = %+v", v)
	}
}
