// Package kv provides a SQLite-backed key/value store exposed as route
// commands.
package kv

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/modgate/adapters/sqlite"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// Entry is one stored key/value pair.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Module implements the kv commands over a SQLite store.
type Module struct {
	module.CommandSet
	store *Store
}

// New creates the kv module and its table.
func New(db *sqlite.DB) (*Module, error) {
	store, err := NewStore(db)
	if err != nil {
		return nil, err
	}

	keyParam := schema.Parameter{Name: "key", Type: schema.TypeString, Description: "entry key"}
	setParams := schema.NewParameterList(
		keyParam,
		schema.Parameter{Name: "value", Type: schema.TypeString, Description: "entry value"},
	)
	keyOnly := schema.NewParameterList(keyParam)
	listParams := schema.NewParameterList(
		schema.Parameter{Name: "prefix", Type: schema.TypeString, Description: "key prefix filter", Optional: true},
	)

	return &Module{
		CommandSet: module.NewCommandSet(
			module.Command{Name: "set", Description: "store a value under a key", Parameters: setParams},
			module.Command{Name: "get", Description: "fetch a value by key", Parameters: keyOnly},
			module.Command{Name: "del", Description: "delete a key", Parameters: keyOnly},
			module.Command{Name: "list", Description: "list entries, optionally by prefix", Parameters: listParams},
		),
		store: store,
	}, nil
}

func (m *Module) Name() string        { return "kv" }
func (m *Module) Description() string { return "persistent key/value store" }

// Execute runs a kv command.
func (m *Module) Execute(ctx context.Context, command string, args map[string]any) (*module.Response, error) {
	switch command {
	case "set":
		key, _ := args["key"].(string)
		value, _ := args["value"].(string)
		if key == "" {
			return nil, module.Domainf("kv: key is required")
		}
		if err := m.store.Set(ctx, key, value); err != nil {
			return nil, err
		}
		return module.NoContent(), nil

	case "get":
		key, _ := args["key"].(string)
		entry, err := m.store.Get(ctx, key)
		if errors.Is(err, sqlite.ErrNotFound) {
			return module.Text(http.StatusNotFound, "key not found"), nil
		}
		if err != nil {
			return nil, err
		}
		return module.JSON(http.StatusOK, entry), nil

	case "del":
		key, _ := args["key"].(string)
		err := m.store.Delete(ctx, key)
		if errors.Is(err, sqlite.ErrNotFound) {
			return module.Text(http.StatusNotFound, "key not found"), nil
		}
		if err != nil {
			return nil, err
		}
		return module.NoContent(), nil

	case "list":
		prefix, _ := args["prefix"].(string)
		entries, err := m.store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		return module.JSON(http.StatusOK, entries), nil
	}

	return nil, module.Domainf("kv: unknown command %q", command)
}
