// Package auth provides Matrix authentication functionality.
package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// LoginCredentials holds the result of a successful login
type LoginCredentials struct {
	Homeserver  string
	UserID      string
	DeviceID    string
	AccessToken string
}

// Prompt holds what the user typed at the login prompt
type Prompt struct {
	Homeserver string
	UserID     string
	Password   string
}

// PasswordReader reads a password without echoing it
type PasswordReader func() ([]byte, error)

// TerminalPassword reads the password from the controlling terminal
func TerminalPassword() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

// InteractiveLogin prompts the user for credentials and performs Matrix login
func InteractiveLogin(ctx context.Context) (*LoginCredentials, error) {
	p, err := PromptCredentials(os.Stdin, os.Stdout, TerminalPassword)
	if err != nil {
		return nil, err
	}
	return Login(ctx, p)
}

// PromptCredentials asks for homeserver, user ID and password
func PromptCredentials(in io.Reader, out io.Writer, readPassword PasswordReader) (*Prompt, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Homeserver URL (e.g., https://matrix.org): ")
	homeserver, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read homeserver: %w", err)
	}
	if !strings.HasPrefix(homeserver, "http://") && !strings.HasPrefix(homeserver, "https://") {
		homeserver = "https://" + homeserver
	}

	fmt.Fprint(out, "User ID (e.g., @morgan:matrix.org): ")
	userID, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read user ID: %w", err)
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	// Hidden input
	fmt.Fprint(out, "Password: ")
	passwordBytes, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return &Prompt{
		Homeserver: homeserver,
		UserID:     userID,
		Password:   string(passwordBytes),
	}, nil
}

// Login performs a password login against the homeserver
func Login(ctx context.Context, p *Prompt) (*LoginCredentials, error) {
	client, err := mautrix.NewClient(p.Homeserver, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}

	resp, err := client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: p.UserID,
		},
		Password:                 p.Password,
		DeviceID:                 id.DeviceID("STICKERBOOK"),
		InitialDeviceDisplayName: "WhatsApp Stickerbook",
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return &LoginCredentials{
		Homeserver:  p.Homeserver,
		UserID:      resp.UserID.String(),
		DeviceID:    resp.DeviceID.String(),
		AccessToken: resp.AccessToken,
	}, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
