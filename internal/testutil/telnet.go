package testutil

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
)

// DefaultWait bounds every ReadUntil issued by the console helpers.
const DefaultWait = 3 * time.Second

// TelnetClient is a table console test client for integration testing.
//
// Output is kept in a buffer across reads with ANSI colour stripped, so a
// match consumes only the text up to and including it.
type TelnetClient struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
	buffer string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	client := &TelnetClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return client
}

// ReadUntil reads until substr appears in the colour-stripped output and
// returns everything up to and including it.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the consumed output containing substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	if out, ok := c.consume(substr); ok {
		return out
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 1024)
	for {
		n, err := c.reader.Read(tmp)
		if n > 0 {
			c.buffer = telnet.StripANSI(c.buffer + string(tmp[:n]))
			if out, ok := c.consume(substr); ok {
				return out
			}
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.buffer, err)
		}
	}
}

func (c *TelnetClient) consume(substr string) (string, bool) {
	idx := strings.Index(c.buffer, substr)
	if idx < 0 {
		return "", false
	}
	end := idx + len(substr)
	out := c.buffer[:end]
	c.buffer = c.buffer[end:]
	return out, true
}

// Send writes a line of text to the server, appending \r\n.
//
// Precondition: text should not contain trailing newline characters.
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := fmt.Fprintf(c.conn, "%s\r\n", text)
	if err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Expect sends line and waits for want in the reply.
func (c *TelnetClient) Expect(line, want string) string {
	c.t.Helper()
	c.Send(line)
	return c.ReadUntil(want, DefaultWait)
}

// Login waits for the login banner, logs in, and waits for the table's
// first prompt.
//
// Postcondition: The client sits at the table console as username, not yet
// seated at a campaign.
func (c *TelnetClient) Login(username, password string) {
	c.t.Helper()
	c.ReadUntil("to disconnect.", DefaultWait)
	c.Expect(fmt.Sprintf("login %s %s", username, password), "Welcome back")
	c.ReadUntil(fmt.Sprintf("[%s]> ", username), DefaultWait)
}

// Sit joins the named campaign table and waits for the seated prompt.
func (c *TelnetClient) Sit(username, campaignName string) {
	c.t.Helper()
	c.Expect("use "+campaignName, "You sit down at the "+campaignName+" table")
	c.ReadUntil(fmt.Sprintf("[%s@%s]> ", username, campaignName), DefaultWait)
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
