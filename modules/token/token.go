// Package token issues and verifies opaque access tokens. The check
// command is built to sit as the first step of a route: it returns no
// response on success so the chain continues, and rejects the whole
// route otherwise.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/modgate/adapters/sqlite"
	"github.com/artpar/modgate/core/module"
	"github.com/artpar/modgate/core/schema"
)

// Token is the public view of an issued token. The secret appears only
// in the issue response; the store keeps a bcrypt hash.
type Token struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Secret    string    `json:"secret,omitempty"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Module implements the token commands over a SQLite store.
type Module struct {
	module.CommandSet
	store *Store
}

// New creates the token module and its table.
func New(db *sqlite.DB) (*Module, error) {
	store, err := NewStore(db)
	if err != nil {
		return nil, err
	}

	issueParams := schema.NewParameterList(
		schema.Parameter{Name: "label", Type: schema.TypeString, Description: "human-readable token label", Optional: true},
	)
	tokenParam := schema.NewParameterList(
		schema.Parameter{Name: "token", Type: schema.TypeString, Description: "token as id.secret"},
	)
	idParam := schema.NewParameterList(
		schema.Parameter{Name: "id", Type: schema.TypeString, Description: "token id"},
	)

	return &Module{
		CommandSet: module.NewCommandSet(
			module.Command{Name: "issue", Description: "issue a new token", Parameters: issueParams},
			module.Command{Name: "check", Description: "verify a token, rejecting the route on failure", Parameters: tokenParam},
			module.Command{Name: "revoke", Description: "revoke a token by id", Parameters: idParam},
			module.Command{Name: "list", Description: "list issued tokens"},
		),
		store: store,
	}, nil
}

func (m *Module) Name() string        { return "token" }
func (m *Module) Description() string { return "opaque access tokens" }

// Execute runs a token command.
func (m *Module) Execute(ctx context.Context, command string, args map[string]any) (*module.Response, error) {
	switch command {
	case "issue":
		label, _ := args["label"].(string)
		tok, err := m.issue(ctx, label)
		if err != nil {
			return nil, err
		}
		return module.JSON(http.StatusOK, tok), nil

	case "check":
		raw, _ := args["token"].(string)
		if err := m.check(ctx, raw); err != nil {
			return nil, err
		}
		// Guard passed: stay silent so the chain continues.
		return nil, nil

	case "revoke":
		id, _ := args["id"].(string)
		err := m.store.Revoke(ctx, id)
		if errors.Is(err, sqlite.ErrNotFound) {
			return module.Text(http.StatusNotFound, "token not found"), nil
		}
		if err != nil {
			return nil, err
		}
		return module.NoContent(), nil

	case "list":
		tokens, err := m.store.List(ctx)
		if err != nil {
			return nil, err
		}
		return module.JSON(http.StatusOK, tokens), nil
	}

	return nil, module.Domainf("token: unknown command %q", command)
}

func (m *Module) issue(ctx context.Context, label string) (Token, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Token{}, fmt.Errorf("hash secret: %w", err)
	}

	tok := Token{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Create(ctx, tok, hash); err != nil {
		return Token{}, err
	}

	// Callers present the token as "id.secret".
	tok.Secret = tok.ID + "." + secret
	return tok, nil
}

func (m *Module) check(ctx context.Context, raw string) error {
	id, secret, ok := splitToken(raw)
	if !ok {
		return module.Domainf("invalid token")
	}

	hash, revoked, err := m.store.GetHash(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		return module.Domainf("invalid token")
	}
	if err != nil {
		return err
	}
	if revoked {
		return module.Domainf("token revoked")
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(secret)) != nil {
		return module.Domainf("invalid token")
	}
	return nil
}

func splitToken(raw string) (id, secret string, ok bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			if i == 0 || i == len(raw)-1 {
				return "", "", false
			}
			return raw[:i], raw[i+1:], true
		}
	}
	return "", "", false
}
