// Package vpath implements component A: splitting, joining, and
// normalizing the VFS's absolute, '/'-separated path strings.
package vpath

import (
	"fmt"
	"strings"

	"github.com/codex-vfs/vfsh/internal/vfserr"
)

// Split breaks an absolute path into its ordered, non-empty components.
// "/" yields an empty slice. Split fails with vfserr.ErrBadPath when p is
// empty or does not begin with '/'.
func Split(p string) ([]string, error) {
	if p == "" || p[0] != '/' {
		return nil, fmt.Errorf("%q: %w", p, vfserr.ErrBadPath)
	}
	if p == "/" {
		return nil, nil
	}
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if part == ".." {
			return nil, fmt.Errorf("%q escapes root: %w", p, vfserr.ErrBadPath)
		}
		out = append(out, part)
	}
	return out, nil
}

// Join appends name as a new component under dir, collapsing any
// duplicate separators that result.
func Join(dir, name string) string {
	if dir == "" {
		dir = "/"
	}
	joined := dir
	if !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	joined += name
	return collapse(joined)
}

func collapse(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Basename returns the final path component, "/" for the root itself.
func Basename(p string) string {
	parts, err := Split(p)
	if err != nil || len(parts) == 0 {
		return "/"
	}
	return parts[len(parts)-1]
}

// Dirname returns the path with its final component removed.
func Dirname(p string) string {
	parts, err := Split(p)
	if err != nil || len(parts) <= 1 {
		return "/"
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/")
}

// SanitizeComponent maps any byte outside [A-Za-z0-9_-] to '_' and
// guarantees a non-empty result.
func SanitizeComponent(s string) string {
	if s == "" {
		return "_"
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
			b[i] = c
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
