// Package remote implements the remote-mount wire protocol from §6: a
// line-oriented TCP protocol where the client sends "EXEC <command>\n"
// and the server replies with an "OK "/"ERR " line carrying the
// command's combined stdout/stderr.
package remote

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// Client owns a single blocking socket to a remote host and serializes
// every request/response pair through connMu, matching §5's "one blocking
// socket per node plus a mutex" design note.
type Client struct {
	Host string
	Port int

	connMu sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

func NewClient(host string, port int) *Client {
	return &Client{Host: host, Port: port}
}

func (c *Client) ensureConnected() error {
	if c.conn != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w: %v", addr, vfserr.ErrRemote, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

func (c *Client) disconnect() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Exec sends "EXEC <command>\n" and returns the server's combined
// stdout/stderr, or an error wrapping vfserr.ErrRemote. A send/recv
// failure disconnects; the next call reconnects.
func (c *Client) Exec(command string) (string, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if err := c.ensureConnected(); err != nil {
		return "", err
	}

	if _, err := fmt.Fprintf(c.conn, "EXEC %s\n", command); err != nil {
		c.disconnect()
		return "", fmt.Errorf("send: %w: %v", vfserr.ErrRemote, err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.disconnect()
		return "", fmt.Errorf("recv: %w: %v", vfserr.ErrRemote, err)
	}
	line = strings.TrimRight(line, "\n")

	switch {
	case strings.HasPrefix(line, "OK "):
		return line[len("OK "):], nil
	case strings.HasPrefix(line, "ERR "):
		return "", fmt.Errorf("%s: %w", line[len("ERR "):], vfserr.ErrRemote)
	default:
		c.disconnect()
		return "", fmt.Errorf("malformed response %q: %w", line, vfserr.ErrRemote)
	}
}

// Disconnect closes the connection, if any; the next Exec reconnects.
func (c *Client) Disconnect() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.disconnect()
}
