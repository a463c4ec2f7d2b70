package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/storage/postgres"
	"github.com/cory-johannsen/traveller/internal/testutil"
)

// mockUserStore implements UserStore with plain-text passwords.
type mockUserStore struct {
	mu        sync.Mutex
	users     map[string]postgres.User
	passwords map[string]string
	failWith  error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:     make(map[string]postgres.User),
		passwords: make(map[string]string),
	}
}

func (m *mockUserStore) add(username, password string) postgres.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := postgres.User{ID: uuid.NewString(), Username: username, CreatedAt: time.Now()}
	m.users[username] = u
	m.passwords[username] = password
	return u
}

func (m *mockUserStore) user(username string) postgres.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[username]
}

func (m *mockUserStore) Create(_ context.Context, username, password string) (postgres.User, error) {
	m.mu.Lock()
	_, exists := m.users[username]
	m.mu.Unlock()
	if exists {
		return postgres.User{}, postgres.ErrUserExists
	}
	return m.add(username, password), nil
}

func (m *mockUserStore) Authenticate(_ context.Context, username, password string) (postgres.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return postgres.User{}, m.failWith
	}
	u, exists := m.users[username]
	if !exists {
		return postgres.User{}, postgres.ErrUserNotFound
	}
	if m.passwords[username] != password {
		return postgres.User{}, postgres.ErrInvalidCredentials
	}
	return u, nil
}

// stubTable records the user handed over after login and says goodbye.
type stubTable struct {
	mu     sync.Mutex
	served []campaign.User
}

func (s *stubTable) Serve(_ context.Context, conn *telnet.Conn, user campaign.User) error {
	s.mu.Lock()
	s.served = append(s.served, user)
	s.mu.Unlock()
	return conn.WriteLine("table for " + user.Username + ". Goodbye.")
}

func (s *stubTable) users() []campaign.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]campaign.User(nil), s.served...)
}

// testServer runs handler behind a Telnet acceptor on a random port and
// returns its address. The acceptor is stopped on test cleanup.
func testServer(t *testing.T, handler telnet.SessionHandler) string {
	t.Helper()
	cfg := config.TelnetConfig{
		Host:         "127.0.0.1",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	acc := telnet.NewAcceptor(cfg, handler, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.IsRunning() && acc.Addr() != "" },
		2*time.Second, 5*time.Millisecond, "acceptor did not start")
	t.Cleanup(acc.Stop)
	return acc.Addr()
}

// authClient starts an AuthHandler over store and returns a client at the
// first prompt together with the table stub it hands off to.
func authClient(t *testing.T, store *mockUserStore) (*testutil.TelnetClient, *stubTable) {
	t.Helper()
	table := &stubTable{}
	addr := testServer(t, NewAuthHandler(store, table, zaptest.NewLogger(t)))
	c := testutil.NewTelnetClient(t, addr)
	c.ReadUntil("to disconnect.", testutil.DefaultWait)
	return c, table
}

func TestWelcomeBannerContainsKeyElements(t *testing.T) {
	stripped := telnet.StripANSI(welcomeBanner)
	for _, want := range []string{"Third Imperium", "login", "register", "quit"} {
		assert.Contains(t, stripped, want)
	}
}

func TestAuthHelp_ListsEveryCommand(t *testing.T) {
	help := telnet.StripANSI(authHelp())
	for _, c := range authCommands {
		assert.Contains(t, help, c.usage)
		assert.Contains(t, help, c.help)
	}
}

func TestHandleSession_QuitAndExit(t *testing.T) {
	for _, cmd := range []string{"quit", "EXIT"} {
		t.Run(cmd, func(t *testing.T) {
			c, _ := authClient(t, newMockUserStore())
			c.Expect(cmd, "Goodbye!")
		})
	}
}

func TestHandleSession_Help(t *testing.T) {
	c, _ := authClient(t, newMockUserStore())
	out := c.Expect("help", "Disconnect")
	assert.Contains(t, out, "login <username> [password]")
	assert.Contains(t, out, "register <username> [password]")
}

func TestHandleSession_UnknownCommand(t *testing.T) {
	c, _ := authClient(t, newMockUserStore())
	out := c.Expect("jump 2", "available commands")
	assert.Contains(t, out, "Unknown command: jump")
}

func TestHandleSession_RegisterInline(t *testing.T) {
	store := newMockUserStore()
	c, _ := authClient(t, store)
	c.Expect("register jamison password123", "Account created: jamison")
	assert.NotEmpty(t, store.user("jamison").ID)
}

func TestHandleSession_RegisterPromptsAndConfirms(t *testing.T) {
	store := newMockUserStore()
	c, _ := authClient(t, store)

	c.Send("register kiran")
	c.ReadUntil("Choose a password: ", testutil.DefaultWait)
	c.Send("hunter22")
	c.ReadUntil("Confirm password: ", testutil.DefaultWait)
	c.Send("hunter22")
	c.ReadUntil("Account created: kiran", testutil.DefaultWait)
	assert.NotEmpty(t, store.user("kiran").ID)
}

func TestHandleSession_RegisterConfirmMismatch(t *testing.T) {
	store := newMockUserStore()
	c, _ := authClient(t, store)

	c.Send("register kiran")
	c.ReadUntil("Choose a password: ", testutil.DefaultWait)
	c.Send("hunter22")
	c.ReadUntil("Confirm password: ", testutil.DefaultWait)
	c.Send("hunter23")
	c.ReadUntil("Passwords do not match.", testutil.DefaultWait)
	assert.Empty(t, store.user("kiran").ID)
}

func TestHandleSession_RegisterRejections(t *testing.T) {
	store := newMockUserStore()
	store.add("taken", "password123")
	cases := map[string]struct {
		line string
		want string
	}{
		"missing args":   {"register", "Usage: register"},
		"short username": {"register ab password123", "3-32 characters"},
		"bad characters": {"register jam!son password123", "3-32 characters"},
		"short password": {"register jamison abc", "at least 6"},
		"duplicate":      {"register taken password123", "already taken"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := authClient(t, store)
			c.Expect(tc.line, tc.want)
		})
	}
}

func TestHandleSession_LoginHidesWhichPartWasWrong(t *testing.T) {
	store := newMockUserStore()
	store.add("jamison", "correctpass")
	for _, line := range []string{"login nobody secret123", "login jamison wrongpass"} {
		t.Run(line, func(t *testing.T) {
			c, table := authClient(t, store)
			c.Expect(line, "Invalid username or password.")
			assert.Empty(t, table.users())
		})
	}
}

func TestHandleSession_LoginMissingArgs(t *testing.T) {
	c, _ := authClient(t, newMockUserStore())
	c.Expect("login", "Usage: login")
}

func TestHandleSession_LoginStoreError(t *testing.T) {
	store := newMockUserStore()
	store.failWith = errors.New("connection refused")
	c, _ := authClient(t, store)
	c.Expect("login jamison secret123", "internal error")
	c.Expect("quit", "Goodbye!")
}

func TestHandleSession_LoginHandsOffToTable(t *testing.T) {
	store := newMockUserStore()
	jamison := store.add("jamison", "secret123")
	c, table := authClient(t, store)

	c.Expect("login jamison secret123", "Welcome back, jamison!")
	c.ReadUntil("table for jamison. Goodbye.", testutil.DefaultWait)

	require.Eventually(t, func() bool { return len(table.users()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, campaign.User{ID: jamison.ID, Username: "jamison"}, table.users()[0])
}

func TestHandleSession_LoginWithHiddenPassword(t *testing.T) {
	store := newMockUserStore()
	store.add("jamison", "secret123")
	c, table := authClient(t, store)

	c.Send("login jamison")
	out := c.ReadUntil("Password: ", testutil.DefaultWait)
	assert.NotContains(t, out, "Invalid")
	c.Send("secret123")
	c.ReadUntil("table for jamison", testutil.DefaultWait)
	require.Eventually(t, func() bool { return len(table.users()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSession_RegisterThenLogin(t *testing.T) {
	store := newMockUserStore()
	c, table := authClient(t, store)

	c.Expect("register newbie password123", "You may now")
	c.Expect("login newbie password123", "table for newbie")

	require.Eventually(t, func() bool { return len(table.users()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, store.user("newbie").ID, table.users()[0].ID)
}

func TestHandleSession_DisconnectsAfterFailedLogins(t *testing.T) {
	store := newMockUserStore()
	store.add("jamison", "secret123")
	c, table := authClient(t, store)

	for i := 1; i < MaxLoginAttempts; i++ {
		c.Expect("login jamison guess", "Invalid username or password.")
	}
	c.Expect("login jamison guess", "Too many failed attempts. Goodbye.")
	assert.Empty(t, table.users())
}
