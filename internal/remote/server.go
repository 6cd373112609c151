package remote

import (
	"bufio"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/codex-vfs/vfsh/internal/logger"
)

// Server is a reference implementation of the §6 remote-mount protocol's
// listening side: it binds an IPv4 address and accepts connections
// indefinitely, running each on its own goroutine. It exists to make
// RemoteMount testable end-to-end; production deployments of the remote
// host are an external collaborator per §1.
type Server struct {
	listener net.Listener
}

// Listen binds addr (host:port) and returns a Server ready for Serve.
func Listen(addr string) (*Server, error) {
	l, err := net.Listen("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{listener: l}, nil
}

// Addr returns the bound address, useful when addr was ":0".
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) Close() error { return s.listener.Close() }

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, "EXEC ") {
			fmt.Fprintf(conn, "ERR unknown request\n")
			continue
		}
		command := line[len("EXEC "):]
		out, err := exec.Command("sh", "-c", command).CombinedOutput()
		if err != nil {
			logger.Warn("remote exec failed", "command", command, "err", err)
			fmt.Fprintf(conn, "ERR %s\n", sanitizeLine(err.Error()))
			continue
		}
		fmt.Fprintf(conn, "OK %s\n", sanitizeLine(string(out)))
	}
}

// sanitizeLine collapses embedded newlines so the single-line response
// framing the protocol relies on stays intact.
func sanitizeLine(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\\n")
}
