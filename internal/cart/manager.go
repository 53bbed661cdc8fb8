package cart

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
)

// IdentifierFunc derives the cart owner from a request context.
type IdentifierFunc func(ctx context.Context) (string, error)

// ManagerParams wire a Manager.
type ManagerParams struct {
	Storage    Storage
	Settings   Settings
	Identifier IdentifierFunc
	Logger     *logger.Logger
}

// Manager opens carts against one storage backend with shared settings.
type Manager struct {
	storage    Storage
	settings   Settings
	identifier IdentifierFunc
	logg       *logger.Logger
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	return &Manager{
		storage:    params.Storage,
		settings:   params.Settings,
		identifier: params.Identifier,
		logg:       params.Logger,
	}, nil
}

func (m *Manager) Storage() Storage { return m.storage }

// Open resolves the owner from ctx and loads the named instance.
func (m *Manager) Open(ctx context.Context, instance string) (*Cart, error) {
	if m.identifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart identifier resolver not configured")
	}
	identifier, err := m.identifier(ctx)
	if err != nil {
		return nil, err
	}
	return m.For(ctx, identifier, instance)
}

// For loads the cart of an explicit owner.
func (m *Manager) For(ctx context.Context, identifier, instance string) (*Cart, error) {
	return New(ctx, Params{
		Storage:    m.storage,
		Identifier: identifier,
		Instance:   instance,
		Settings:   m.settings,
		Logger:     m.logg,
	})
}

// UserPrefix marks identifiers owned by authenticated users.
const UserPrefix = "user_"

// IsUserIdentifier reports whether id lies in the authenticated namespace.
// The prefix match ignores case.
func IsUserIdentifier(id string) bool {
	id = strings.TrimSpace(id)
	return len(id) >= len(UserPrefix) && strings.EqualFold(id[:len(UserPrefix)], UserPrefix)
}

// UserOrSession returns "user_<id>" for an authenticated user, else the
// session id. A session id may not claim the user namespace.
func UserOrSession(userID, sessionID string) (string, error) {
	if id := strings.TrimSpace(userID); id != "" {
		return UserPrefix + id, nil
	}
	if id := strings.TrimSpace(sessionID); id != "" {
		if IsUserIdentifier(id) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "session id may not use the user namespace")
		}
		return id, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "cart identifier is required")
}
