// Package matrix imports MSC2545 sticker packs from Matrix rooms.
// It wraps mautrix-go with application-specific operations.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// ErrNotLoggedIn is returned when no access token is configured
var ErrNotLoggedIn = errors.New("not logged in to Matrix - run 'stickerbook login' first")

// Client reads sticker packs as one logged-in user
type Client struct {
	*mautrix.Client
	UserID id.UserID
}

// NewClient creates a client from stored login credentials
func NewClient(homeserver string, userID string, accessToken string) (*Client, error) {
	if accessToken == "" {
		return nil, ErrNotLoggedIn
	}
	if homeserver == "" {
		return nil, fmt.Errorf("matrix homeserver is empty")
	}
	uid := id.UserID(userID)
	if _, _, err := uid.Parse(); err != nil {
		return nil, fmt.Errorf("invalid Matrix user ID %q: %w", userID, err)
	}

	client, err := mautrix.NewClient(homeserver, uid, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}
	return &Client{Client: client, UserID: uid}, nil
}

type whoamier interface {
	Whoami(ctx context.Context) (*mautrix.RespWhoami, error)
}

// Connect verifies the access token belongs to the configured user
func (c *Client) Connect(ctx context.Context) error {
	return verifyUser(ctx, c.Client, c.UserID)
}

func verifyUser(ctx context.Context, w whoamier, want id.UserID) error {
	resp, err := w.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}
	if resp.UserID != want {
		return fmt.Errorf("user ID mismatch: expected %s, got %s", want, resp.UserID)
	}
	return nil
}

type aliasResolver interface {
	ResolveAlias(ctx context.Context, alias id.RoomAlias) (*mautrix.RespAliasResolve, error)
}

// ResolveRoom accepts a room ID (!room:server) or alias (#room:server) and
// returns the room ID
func (c *Client) ResolveRoom(ctx context.Context, room string) (id.RoomID, error) {
	return resolveRoom(ctx, c.Client, room)
}

func resolveRoom(ctx context.Context, r aliasResolver, room string) (id.RoomID, error) {
	switch {
	case strings.HasPrefix(room, "!"):
		return id.RoomID(room), nil
	case strings.HasPrefix(room, "#"):
		resp, err := r.ResolveAlias(ctx, id.RoomAlias(room))
		if err != nil {
			return "", fmt.Errorf("failed to resolve room alias %s: %w", room, err)
		}
		return resp.RoomID, nil
	default:
		return "", fmt.Errorf("%q is not a room ID (!...) or alias (#...)", room)
	}
}
