package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// FilesystemProvider implements Provider over a local directory tree, laid
// out as <base>/<namespace>/<path>. Writes are atomic: a sibling temp file
// is written, fsynced, and renamed into place, with the containing
// directory fsynced afterward so a crash cannot leave a reader observing a
// partially-written object.
type FilesystemProvider struct {
	base string

	// mu serializes StoreAt's existence-check-then-write sequence per
	// provider instance. Resolve/Store/Retrieve/etc. don't need it: the
	// OS gives atomic rename and O_EXCL for free.
	mu sync.Mutex
}

// NewFilesystemProvider constructs a FilesystemProvider rooted at base. The
// directory is created if it does not already exist.
func NewFilesystemProvider(base string) (*FilesystemProvider, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, &Error{Code: CodeIOError, Message: fmt.Sprintf("create workspace base %q: %v", base, err)}
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, &Error{Code: CodeIOError, Message: fmt.Sprintf("resolve absolute path for %q: %v", base, err)}
	}
	return &FilesystemProvider{base: abs}, nil
}

// Resolve converts uri into an absolute filesystem path under the
// provider's base directory. Namespace and path are both validated by the
// time a URI exists, so the mapping cannot escape the base: no segment is
// "..", and joining can only descend.
func (p *FilesystemProvider) Resolve(uri URI) (string, error) {
	segments := append([]string{p.base, uri.Namespace}, uri.Segments()...)
	return filepath.Join(segments...), nil
}

// Store writes data under namespace using a content-addressed filename:
// the first 16 hex characters of the SHA-256 digest, suffixed ".bin".
// Storing the same bytes in the same namespace again returns the same URI
// without rewriting the file.
func (p *FilesystemProvider) Store(namespace string, data []byte) (URI, error) {
	digest := hashBytes(data)
	name := digest[:16] + ".bin"

	uri, err := New(namespace, name)
	if err != nil {
		return URI{}, err
	}

	path, err := p.Resolve(uri)
	if err != nil {
		return URI{}, err
	}

	if _, err := os.Stat(path); err == nil {
		slog.Debug("workspace store deduplicated", "uri", uri.String())
		return uri, nil
	}

	if err := atomicWrite(path, data); err != nil {
		return URI{}, err
	}
	slog.Debug("workspace store wrote object", "uri", uri.String(), "bytes", len(data))
	return uri, nil
}

// StoreAt writes data to the exact URI given. It refuses to overwrite an
// object that already exists there, per the protocol's write-once
// publication rule for artifacts.
func (p *FilesystemProvider) StoreAt(uri URI, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, err := p.Resolve(uri)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf("object already exists at %s", uri)}
	} else if !os.IsNotExist(err) {
		return &Error{Code: CodeIOError, Message: err.Error()}
	}

	if err := atomicWrite(path, data); err != nil {
		return err
	}
	slog.Debug("workspace store_at wrote object", "uri", uri.String(), "bytes", len(data))
	return nil
}

// Retrieve reads the bytes stored at uri.
func (p *FilesystemProvider) Retrieve(uri URI) ([]byte, error) {
	path, err := p.Resolve(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("no object at %s", uri)}
		}
		return nil, &Error{Code: CodeIOError, Message: err.Error()}
	}
	return data, nil
}

// Exists reports whether an object exists at uri.
func (p *FilesystemProvider) Exists(uri URI) (bool, error) {
	path, err := p.Resolve(uri)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &Error{Code: CodeIOError, Message: err.Error()}
	}
	return true, nil
}

// Size returns the byte length of the object at uri.
func (p *FilesystemProvider) Size(uri URI) (uint64, error) {
	path, err := p.Resolve(uri)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &Error{Code: CodeNotFound, Message: fmt.Sprintf("no object at %s", uri)}
		}
		return 0, &Error{Code: CodeIOError, Message: err.Error()}
	}
	return uint64(info.Size()), nil
}

// Hash returns the lowercase hex SHA-256 digest of the object at uri,
// computed by streaming the file rather than loading it fully into memory.
func (p *FilesystemProvider) Hash(uri URI) (string, error) {
	path, err := p.Resolve(uri)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &Error{Code: CodeNotFound, Message: fmt.Sprintf("no object at %s", uri)}
		}
		return "", &Error{Code: CodeIOError, Message: err.Error()}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &Error{Code: CodeIOError, Message: err.Error()}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether the object at uri hashes to expectedHex.
func (p *FilesystemProvider) Verify(uri URI, expectedHex string) (bool, error) {
	actual, err := p.Hash(uri)
	if err != nil {
		return false, err
	}
	return equalFoldHex(actual, expectedHex), nil
}

// Delete removes the object at uri. A missing object is not an error.
func (p *FilesystemProvider) Delete(uri URI) error {
	path, err := p.Resolve(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &Error{Code: CodeIOError, Message: err.Error()}
	}
	slog.Debug("workspace delete", "uri", uri.String())
	return nil
}

// atomicWrite writes data to path via a sibling temp file, fsync, and
// rename, then fsyncs the containing directory so a concurrent reader
// never observes a partially-written object.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("create directory %q: %v", dir, err)}
	}

	tmp, err := os.CreateTemp(dir, tmpPattern(filepath.Base(path)))
	if err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("create temp file: %v", err)}
	}
	tmpName := tmp.Name()
	cleanupTmp := true
	defer func() {
		_ = tmp.Close()
		if cleanupTmp {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("write temp file: %v", err)}
	}
	if err := tmp.Sync(); err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("fsync temp file: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("close temp file: %v", err)}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &Error{Code: CodeIOError, Message: fmt.Sprintf("rename temp file into place: %v", err)}
	}
	cleanupTmp = false

	if runtime.GOOS != "windows" {
		if err := fsyncDir(dir); err != nil {
			return &Error{Code: CodeIOError, Message: fmt.Sprintf("fsync directory: %v", err)}
		}
	}
	return nil
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func tmpPattern(base string) string {
	return "." + base + ".*"
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func equalFoldHex(a, b string) bool {
	return strings.EqualFold(a, b)
}
