package telnet

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Telnet command and option bytes (RFC 854, 857, 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
)

// MaxLineLength caps a console input line; further bytes up to the line end
// are discarded.
const MaxLineLength = 512

const (
	backspace = 0x08
	del       = 0x7f
)

// Conn is one console connection. Reads strip Telnet commands and apply
// backspace edits; writes are serialized so table broadcasts never split a
// line or block.
type Conn struct {
	id     string
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. A zero timeout disables that deadline.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn with a fresh unique ID.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Negotiate offers to suppress go-ahead so prompts render without a GA.
func (c *Conn) Negotiate() error {
	return c.write(func(w io.Writer) error {
		_, err := w.Write([]byte{IAC, WILL, OptSuppressGoAhead})
		return err
	})
}

// ReadLine reads one line of input without its terminator (\n, \r\n or a
// bare \r).
//
// Telnet commands are dropped, a backspace or DEL erases the previous byte,
// and other control characters except tab are ignored.
// Postcondition: len(line) <= MaxLineLength. On error the partial line is returned.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}

		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.reader.ReadByte()
			}
			return line.String(), nil
		case b == backspace || b == del:
			if line.Len() > 0 {
				line.Truncate(line.Len() - 1)
			}
		case b < 32 && b != '\t':
		case line.Len() >= MaxLineLength:
		default:
			line.WriteByte(b)
		}
	}
}

// skipCommand consumes the rest of a command whose IAC has been read.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = c.reader.ReadByte()
		return err
	case SB:
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if b != IAC {
				continue
			}
			next, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if next == SE {
				return nil
			}
		}
	}
	return nil
}

// ReadPassword reads a line while the client's local echo is off.
//
// Postcondition: Echo is restored and the cursor moved to a new line, even on error.
func (c *Conn) ReadPassword() (string, error) {
	if err := c.echo(WILL); err != nil {
		return "", err
	}
	line, err := c.ReadLine()
	_ = c.echo(WONT)
	_ = c.Write([]byte("\r\n"))
	return line, err
}

// echo sends IAC cmd ECHO. WILL means the server echoes, so the client stops.
func (c *Conn) echo(cmd byte) error {
	return c.write(func(w io.Writer) error {
		_, err := w.Write([]byte{IAC, cmd, OptEcho})
		return err
	})
}

// write runs fn under the write lock with the write deadline armed.
func (c *Conn) write(fn func(w io.Writer) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return fn(c.raw)
}

// WriteLine sends text followed by \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *Conn) WriteLine(text string) error {
	return c.write(func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\r\n", text)
		return err
	})
}

// WriteBlock sends multi-line text as one write so concurrent writers cannot
// interleave with it. Lines may end in \n or \r\n.
//
// Postcondition: Every line of text is written followed by \r\n.
func (c *Conn) WriteBlock(text string) error {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return c.WriteLine(strings.ReplaceAll(text, "\n", "\r\n"))
}

// WritePrompt sends prompt without a line ending.
func (c *Conn) WritePrompt(prompt string) error {
	return c.write(func(w io.Writer) error {
		_, err := io.WriteString(w, prompt)
		return err
	})
}

// Write sends raw bytes to the client.
func (c *Conn) Write(data []byte) error {
	return c.write(func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Close closes the underlying TCP connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}
