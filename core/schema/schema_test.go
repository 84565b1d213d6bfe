package schema

import (
	"errors"
	"testing"
)

func TestParameterListOrderAndUniqueness(t *testing.T) {
	l := NewParameterList(
		Parameter{Name: "host", Type: TypeString},
		Parameter{Name: "port", Type: TypeInt},
		Parameter{Name: "Host", Type: TypeString}, // duplicate, case-insensitive
	)

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}

	all := l.All()
	if all[0].Name != "host" || all[1].Name != "port" {
		t.Errorf("order = %q, %q; want host, port", all[0].Name, all[1].Name)
	}

	if !l.Has("HOST") {
		t.Error("Has should be case-insensitive")
	}
}

func TestParameterListRemove(t *testing.T) {
	l := NewParameterList(
		Parameter{Name: "a"},
		Parameter{Name: "b"},
		Parameter{Name: "c"},
	)

	if !l.Remove("B") {
		t.Fatal("Remove(B) = false, want true")
	}
	if l.Remove("b") {
		t.Error("second Remove(b) = true, want false")
	}

	all := l.All()
	if len(all) != 2 || all[0].Name != "a" || all[1].Name != "c" {
		t.Errorf("after remove: %+v", all)
	}

	// Index must stay consistent after removal.
	if got, ok := l.Get("c"); !ok || got.Name != "c" {
		t.Errorf("Get(c) = %+v, %v", got, ok)
	}
}

func TestFilterDropsUnknownKeys(t *testing.T) {
	l := NewParameterList(Parameter{Name: "name", Type: TypeString})

	safe, err := l.Filter(map[string]any{
		"name":    "alice",
		"injected": "rm -rf /",
		"extra":   42,
	}, false)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	if len(safe) != 1 {
		t.Fatalf("safe args = %v, want only name", safe)
	}
	if safe["name"] != "alice" {
		t.Errorf("name = %v", safe["name"])
	}
}

func TestFilterCoercion(t *testing.T) {
	l := NewParameterList(
		Parameter{Name: "count", Type: TypeInt},
		Parameter{Name: "ratio", Type: TypeFloat},
		Parameter{Name: "force", Type: TypeBool},
	)

	safe, err := l.Filter(map[string]any{
		"count": "12",
		"ratio": "0.5",
		"force": "true",
	}, false)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	if safe["count"] != 12 {
		t.Errorf("count = %v (%T)", safe["count"], safe["count"])
	}
	if safe["ratio"] != 0.5 {
		t.Errorf("ratio = %v", safe["ratio"])
	}
	if safe["force"] != true {
		t.Errorf("force = %v", safe["force"])
	}
}

func TestFilterCoercionFailure(t *testing.T) {
	l := NewParameterList(Parameter{Name: "count", Type: TypeInt})

	_, err := l.Filter(map[string]any{"count": "twelve"}, false)
	var cerr *CoerceError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CoerceError", err)
	}
	if cerr.Name != "count" {
		t.Errorf("CoerceError.Name = %q", cerr.Name)
	}
}

func TestFilterStrictMissingRequired(t *testing.T) {
	l := NewParameterList(Parameter{Name: "token", Type: TypeString})

	_, err := l.Filter(map[string]any{}, true)
	var merr *MissingParameterError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want MissingParameterError", err)
	}
	if merr.Name != "token" {
		t.Errorf("MissingParameterError.Name = %q", merr.Name)
	}
}

func TestFilterLenientAppliesDefault(t *testing.T) {
	l := NewParameterList(
		Parameter{Name: "level", Type: TypeString, Default: "info"},
		Parameter{Name: "token", Type: TypeString}, // required, no default
		Parameter{Name: "note", Type: TypeString, Optional: true},
	)

	safe, err := l.Filter(map[string]any{}, false)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}

	if safe["level"] != "info" {
		t.Errorf("level = %v, want default", safe["level"])
	}
	if _, ok := safe["token"]; ok {
		t.Error("token without default should be absent in lenient mode")
	}
	if _, ok := safe["note"]; ok {
		t.Error("absent optional should stay absent")
	}
}

func TestFilterCaseInsensitiveLookup(t *testing.T) {
	l := NewParameterList(Parameter{Name: "Message", Type: TypeString})

	safe, err := l.Filter(map[string]any{"MESSAGE": "hi"}, false)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if safe["Message"] != "hi" {
		t.Errorf("safe = %v", safe)
	}
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name string
		p    Parameter
		want bool
	}{
		{"plain", Parameter{Name: "a"}, true},
		{"optional", Parameter{Name: "a", Optional: true}, false},
		{"default", Parameter{Name: "a", Default: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Required(); got != tt.want {
				t.Errorf("Required() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceIntFromFloat(t *testing.T) {
	if v, err := Coerce("n", float64(7), TypeInt); err != nil || v != 7 {
		t.Errorf("Coerce(7.0) = %v, %v", v, err)
	}
	if _, err := Coerce("n", 7.5, TypeInt); err == nil {
		t.Error("Coerce(7.5) should fail for int")
	}
}
