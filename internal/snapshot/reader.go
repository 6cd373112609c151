package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codex-vfs/vfsh/internal/ast"
	"github.com/codex-vfs/vfsh/internal/hashutil"
	"github.com/codex-vfs/vfsh/internal/logger"
	"github.com/codex-vfs/vfsh/internal/vfserr"
	"github.com/codex-vfs/vfsh/internal/vfsnode"
	"github.com/codex-vfs/vfsh/internal/vpath"
)

// Header carries the parsed first two lines of a snapshot.
type Header struct {
	Version    int
	SourceFile string
	SourceHash string
	HasSource  bool
}

// Result is a fully loaded, fixup-resolved snapshot.
type Result struct {
	Header Header
	Root   *vfsnode.Dir
}

// reader reads the record stream byte-exactly: record lines via
// ReadString('\n'), and F/A payloads via a counted io.ReadFull so binary
// payload bytes (which may legitimately contain 0x0A) survive intact.
type reader struct {
	br *bufio.Reader
}

func (r *reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPayload reads exactly size bytes, then an optional '\r' and a
// mandatory '\n' trailer (§4.F).
func (r *reader) readPayload(size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, fmt.Errorf("snapshot: reading %d-byte payload: %w", size, vfserr.ErrUnexpectedEOF)
	}
	b, err := r.br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("snapshot: missing payload trailer: %w", vfserr.ErrUnexpectedEOF)
	}
	if b == '\r' {
		b, err = r.br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("snapshot: missing payload trailer: %w", vfserr.ErrUnexpectedEOF)
		}
	}
	if b != '\n' {
		return nil, fmt.Errorf("snapshot: payload %d not followed by newline: %w", size, vfserr.ErrParse)
	}
	return buf, nil
}

// Load parses r per §4.F: header, optional H-line, then D/F/A body
// records, running every registered fixup once the whole stream is
// consumed. A recorded H-line hash that can be recomputed and disagrees
// is logged as a warning, never an error (§4.F, §9 Design Notes).
func Load(src io.Reader) (*Result, error) {
	r := &reader{br: bufio.NewReaderSize(src, 64*1024)}

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	root := vfsnode.NewDir("/")
	byPath := map[string]vfsnode.Node{"/": root}
	var fixups []ast.Fixup

	for {
		line, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		if err := readRecord(r, line, header.Version, byPath, &fixups); err != nil {
			return nil, err
		}
	}

	for _, fixup := range fixups {
		if err := fixup(byPath); err != nil {
			return nil, err
		}
	}

	if header.HasSource && header.SourceFile != "" {
		if recomputed, err := hashutil.File(header.SourceFile); err == nil && recomputed != header.SourceHash {
			logger.Warn("snapshot: source hash mismatch", "file", header.SourceFile, "recorded", header.SourceHash, "recomputed", recomputed)
		}
	}

	return &Result{Header: header, Root: root}, nil
}

func readHeader(r *reader) (Header, error) {
	first, err := r.readLine()
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: empty stream: %w", vfserr.ErrParse)
	}
	const magic = "# codex-vfs-overlay "
	if !strings.HasPrefix(first, magic) {
		return Header{}, fmt.Errorf("snapshot: bad magic %q: %w", first, vfserr.ErrParse)
	}
	version, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(first, magic)))
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: bad version in %q: %w", first, vfserr.ErrParse)
	}
	if version < 1 || version > CurrentVersion {
		return Header{}, fmt.Errorf("snapshot: unsupported version %d: %w", version, vfserr.ErrParse)
	}

	header := Header{Version: version}

	peeked, err := r.br.Peek(2)
	if err != nil || string(peeked) != "H " {
		return header, nil
	}
	line, err := r.readLine()
	if err != nil {
		return Header{}, err
	}
	fields := strings.SplitN(line[2:], " ", 2)
	if len(fields) == 2 {
		header.SourceFile = fields[0]
		header.SourceHash = fields[1]
		header.HasSource = true
	}
	return header, nil
}

func readRecord(r *reader, line string, version int, byPath map[string]vfsnode.Node, fixups *[]ast.Fixup) error {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) < 2 {
		return fmt.Errorf("snapshot: malformed record %q: %w", line, vfserr.ErrParse)
	}
	switch fields[0] {
	case "D":
		mkdirAll(byPath, fields[1])
		return nil
	case "F":
		return readFile(r, fields[1], byPath)
	case "A":
		if version < 2 {
			return fmt.Errorf("snapshot: version %d rejects AST records: %w", version, vfserr.ErrParse)
		}
		return readAST(r, fields[1], byPath, fixups)
	default:
		return fmt.Errorf("snapshot: unknown record kind %q: %w", fields[0], vfserr.ErrParse)
	}
}

func readFile(r *reader, rest string, byPath map[string]vfsnode.Node) error {
	path, sizeStr, err := splitPathAndSize(rest)
	if err != nil {
		return err
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return fmt.Errorf("snapshot: bad size in %q: %w", rest, vfserr.ErrParse)
	}
	data, err := r.readPayload(size)
	if err != nil {
		return err
	}
	node := vfsnode.NewFile(vpath.Basename(path), data)
	link(byPath, path, node)
	return nil
}

func readAST(r *reader, rest string, byPath map[string]vfsnode.Node, fixups *[]ast.Fixup) error {
	parts := strings.SplitN(rest, " ", 3)
	if len(parts) != 3 {
		return fmt.Errorf("snapshot: malformed A record %q: %w", rest, vfserr.ErrParse)
	}
	path, typeName, sizeStr := parts[0], parts[1], parts[2]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return fmt.Errorf("snapshot: bad size in %q: %w", rest, vfserr.ErrParse)
	}
	decode, ok := ast.Lookup(typeName)
	if !ok {
		return fmt.Errorf("snapshot: unknown AST type %q at %q: %w", typeName, path, vfserr.ErrDecode)
	}
	payload, err := r.readPayload(size)
	if err != nil {
		return err
	}
	node, err := decode(path, payload, func(f ast.Fixup) { *fixups = append(*fixups, f) })
	if err != nil {
		return fmt.Errorf("snapshot: decoding %q at %q: %w", typeName, path, err)
	}
	link(byPath, path, node)
	return nil
}

func splitPathAndSize(rest string) (string, string, error) {
	idx := strings.LastIndex(rest, " ")
	if idx < 0 {
		return "", "", fmt.Errorf("snapshot: malformed F record %q: %w", rest, vfserr.ErrParse)
	}
	return rest[:idx], rest[idx+1:], nil
}

func mkdirAll(byPath map[string]vfsnode.Node, path string) *vfsnode.Dir {
	if existing, ok := byPath[path]; ok {
		if dir, ok := existing.(*vfsnode.Dir); ok {
			return dir
		}
	}
	parentPath, name := vpath.Dirname(path), vpath.Basename(path)
	parent := mkdirAll(byPath, parentPath)
	dir := vfsnode.NewDir(name)
	parent.Put(name, dir)
	byPath[path] = dir
	return dir
}

func link(byPath map[string]vfsnode.Node, path string, node vfsnode.Node) {
	parentPath, name := vpath.Dirname(path), vpath.Basename(path)
	byPath[path] = node
	if existing, ok := byPath[parentPath]; ok {
		if _, isDir := existing.(*vfsnode.Dir); !isDir {
			// Children of an AST container are attached by its fixups.
			return
		}
	}
	parent := mkdirAll(byPath, parentPath)
	parent.Put(name, node)
}
