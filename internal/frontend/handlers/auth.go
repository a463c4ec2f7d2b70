// Package handlers provides Telnet session handling and command processing.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/storage/postgres"
)

// MaxLoginAttempts is the number of failed logins after which the
// connection is closed.
const MaxLoginAttempts = 3

// MinPasswordLength is the shortest password register accepts.
const MinPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ErrTooManyAttempts ends a session that failed to log in MaxLoginAttempts times.
var ErrTooManyAttempts = errors.New("too many failed login attempts")

// UserStore defines the login persistence operations required by AuthHandler.
type UserStore interface {
	Create(ctx context.Context, username, password string) (postgres.User, error)
	Authenticate(ctx context.Context, username, password string) (postgres.User, error)
}

// TableServer runs the table console for an authenticated user.
type TableServer interface {
	Serve(ctx context.Context, conn *telnet.Conn, user campaign.User) error
}

const welcomeBanner = `
` + telnet.Bold + telnet.BrightCyan + `
 ████████╗██████╗  █████╗ ██╗   ██╗███████╗██╗     ██╗     ███████╗██████╗
 ╚══██╔══╝██╔══██╗██╔══██╗██║   ██║██╔════╝██║     ██║     ██╔════╝██╔══██╗
    ██║   ██████╔╝███████║██║   ██║█████╗  ██║     ██║     █████╗  ██████╔╝
    ██║   ██╔══██╗██╔══██║╚██╗ ██╔╝██╔══╝  ██║     ██║     ██╔══╝  ██╔══██╗
    ██║   ██║  ██║██║  ██║ ╚████╔╝ ███████╗███████╗███████╗███████╗██║  ██║
    ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚══════╝╚══════╝╚══════╝╚═╝  ╚═╝` + telnet.Reset + `

` + telnet.BrightYellow + `  Campaign Table for the Third Imperium` + telnet.Reset + `

  Type ` + telnet.Green + `login <username>` + telnet.Reset + ` to connect.
  Type ` + telnet.Green + `register <username>` + telnet.Reset + ` to create an account.
  Type ` + telnet.Green + `quit` + telnet.Reset + ` to disconnect.
`

// authCommand is one entry of the pre-login command set.
type authCommand struct {
	usage string
	help  string
}

var authCommands = []authCommand{
	{"login <username> [password]", "Log in; omit the password to type it hidden"},
	{"register <username> [password]", "Create an account"},
	{"help", "Show this help"},
	{"quit", "Disconnect"},
}

// AuthHandler implements telnet.SessionHandler. It runs the pre-login loop
// and hands an authenticated user to the table.
type AuthHandler struct {
	users  UserStore
	table  TableServer
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler that hands authenticated users to table.
//
// Precondition: users, table, and logger must be non-nil.
func NewAuthHandler(users UserStore, table TableServer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, table: table, logger: logger}
}

// HandleSession shows the banner and processes login, register, help and
// quit until the user logs in or leaves.
//
// Postcondition: Returns nil on quit, ErrTooManyAttempts after
// MaxLoginAttempts failures, the table's result after a login, or the I/O error
// that ended the session.
func (h *AuthHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	log := h.logger.With(zap.String("remote_addr", conn.RemoteAddr().String()))

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	failures := 0
	for {
		if ctx.Err() != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		}
		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "quit", "exit":
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			return nil

		case "login":
			user, ok, err := h.login(ctx, conn, args)
			if err != nil {
				return err
			}
			if !ok {
				if failures++; failures >= MaxLoginAttempts {
					log.Warn("closing connection after failed logins", zap.Int("attempts", failures))
					_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Too many failed attempts. Goodbye."))
					return ErrTooManyAttempts
				}
				continue
			}
			log.Info("user logged in", zap.String("username", user.Username))
			return h.table.Serve(ctx, conn, campaign.User{ID: user.ID, Username: user.Username})

		case "register":
			if err := h.register(ctx, conn, args); err != nil {
				return err
			}

		case "help":
			_ = conn.WriteBlock(authHelp())

		default:
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", cmd))
		}
	}
}

// password returns args[1] when given, otherwise asks for it with echo off.
func password(conn *telnet.Conn, args []string, prompt string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}
	if err := conn.WritePrompt(prompt); err != nil {
		return "", err
	}
	return conn.ReadPassword()
}

// login authenticates args[0]. ok is false when the attempt failed and the
// reason was shown; err is set only when the connection broke.
func (h *AuthHandler) login(ctx context.Context, conn *telnet.Conn, args []string) (postgres.User, bool, error) {
	if len(args) == 0 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: login <username> [password]"))
		return postgres.User{}, false, nil
	}
	pw, err := password(conn, args, "Password: ")
	if err != nil {
		return postgres.User{}, false, fmt.Errorf("reading password: %w", err)
	}

	start := time.Now()
	user, err := h.users.Authenticate(ctx, args[0], pw)
	switch {
	case err == nil:
		_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Welcome back, %s!", user.Username))
		return user, true, nil
	case errors.Is(err, postgres.ErrUserNotFound), errors.Is(err, postgres.ErrInvalidCredentials):
		h.logger.Info("login rejected", zap.String("username", args[0]), zap.Duration("elapsed", time.Since(start)))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Invalid username or password."))
	default:
		h.logger.Error("authentication error", zap.String("username", args[0]), zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
	}
	return postgres.User{}, false, nil
}

// register creates an account. A password typed at the prompt must be
// confirmed; one given inline is taken as is.
func (h *AuthHandler) register(ctx context.Context, conn *telnet.Conn, args []string) error {
	if len(args) == 0 {
		return conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: register <username> [password]"))
	}
	username := args[0]
	if !usernamePattern.MatchString(username) {
		return conn.WriteLine(telnet.Colorize(telnet.Red, "Username must be 3-32 characters of letters, digits, _ or -."))
	}

	pw, err := password(conn, args, "Choose a password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if len(pw) < MinPasswordLength {
		return conn.WriteLine(telnet.Colorf(telnet.Red, "Password must be at least %d characters.", MinPasswordLength))
	}
	if len(args) == 1 {
		confirm, err := password(conn, nil, "Confirm password: ")
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		if confirm != pw {
			return conn.WriteLine(telnet.Colorize(telnet.Red, "Passwords do not match."))
		}
	}

	user, err := h.users.Create(ctx, username, pw)
	switch {
	case errors.Is(err, postgres.ErrUserExists):
		return conn.WriteLine(telnet.Colorize(telnet.Red, "That username is already taken."))
	case errors.Is(err, postgres.ErrPasswordTooLong):
		return conn.WriteLine(telnet.Colorf(telnet.Red, "Password must be at most %d bytes.", postgres.MaxPasswordBytes))
	case err != nil:
		h.logger.Error("registration error", zap.String("username", username), zap.Error(err))
		return conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
	}
	h.logger.Info("account registered", zap.String("username", user.Username))
	return conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Account created: %s. You may now 'login'.", user.Username))
}

func authHelp() string {
	width := 0
	for _, c := range authCommands {
		width = max(width, len(c.usage))
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Available commands:"))
	for _, c := range authCommands {
		fmt.Fprintf(&b, "\n  %s  %s", telnet.Colorize(telnet.Green, fmt.Sprintf("%-*s", width, c.usage)), c.help)
	}
	return b.String()
}
