// Package workspace parses workspace:// URIs and provides a content-addressed
// storage abstraction over them.
package workspace

import (
	"strconv"
	"strings"
)

const (
	// URIPrefix is the required scheme prefix of every workspace URI.
	URIPrefix = "workspace://"

	// MaxNamespaceLength is the maximum byte length of a URI's namespace
	// segment.
	MaxNamespaceLength = 64

	// MaxPathLength is the maximum byte length of a URI's path segment.
	MaxPathLength = 1024
)

// ReservedNamespaces are recognizable but not rejected: callers may choose
// to treat them specially (e.g. shorter retention) but Parse accepts them.
var ReservedNamespaces = map[string]bool{
	"system": true,
	"tmp":    true,
	"cache":  true,
}

// URI is a parsed workspace://<namespace>/<path> reference. Path is kept in
// its wire form, slash-separated, regardless of host filesystem convention.
type URI struct {
	Namespace string
	Path      string
}

// New validates namespace and path and constructs a URI.
func New(namespace, path string) (URI, error) {
	if err := validateNamespace(namespace); err != nil {
		return URI{}, err
	}
	if err := validatePath(path); err != nil {
		return URI{}, err
	}
	return URI{Namespace: namespace, Path: path}, nil
}

// Parse parses a workspace:// URI string into its namespace and path.
//
// Parse and Format are inverse: Parse(Format(u)) == u, and
// Format(Parse(s)) == s whenever Parse(s) succeeds.
func Parse(s string) (URI, error) {
	if !strings.HasPrefix(s, URIPrefix) {
		return URI{}, newError(CodeInvalidURI, "URI must start with \""+URIPrefix+"\"")
	}

	rest := s[len(URIPrefix):]
	if rest == "" {
		return URI{}, newError(CodeInvalidURI, "URI must contain namespace and path")
	}

	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return URI{}, newError(CodeInvalidURI, "URI must contain both namespace and path")
	}

	namespace := rest[:idx]
	path := rest[idx+1:]
	if path == "" {
		return URI{}, newError(CodeInvalidPath, "path cannot be empty")
	}

	return New(namespace, path)
}

// Format renders u back to its workspace:// string form, using forward
// slashes regardless of host filesystem convention.
func (u URI) Format() string {
	return URIPrefix + u.Namespace + "/" + u.Path
}

// String implements fmt.Stringer.
func (u URI) String() string {
	return u.Format()
}

// IsReservedNamespace reports whether u's namespace is one of the
// recognized-but-not-rejected reserved names.
func (u URI) IsReservedNamespace() bool {
	return ReservedNamespaces[u.Namespace]
}

// Segments splits Path on "/" into its component segments.
func (u URI) Segments() []string {
	return strings.Split(u.Path, "/")
}

func validateNamespace(namespace string) error {
	if namespace == "" {
		return newError(CodeInvalidNamespace, "namespace cannot be empty")
	}
	if len(namespace) > MaxNamespaceLength {
		return newError(CodeNamespaceTooLong, "namespace exceeds "+strconv.Itoa(MaxNamespaceLength)+" bytes")
	}
	for _, c := range namespace {
		if !isNamespaceChar(c) {
			return newError(CodeInvalidNamespace, "invalid character in namespace: allowed a-z, A-Z, 0-9, ., _, -")
		}
	}
	return nil
}

func isNamespaceChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	default:
		return false
	}
}

func validatePath(path string) error {
	if path == "" {
		return newError(CodeInvalidPath, "path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return newError(CodePathTooLong, "path exceeds "+strconv.Itoa(MaxPathLength)+" bytes")
	}
	if strings.ContainsRune(path, 0) {
		return newError(CodeInvalidPath, "path cannot contain a null byte")
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return newError(CodeInvalidPath, "path must be relative: no leading / or \\")
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return newError(CodePathTraversal, "path contains a \"..\" segment")
		}
	}
	return nil
}

