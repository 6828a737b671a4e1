package workspace

// Provider abstracts the storage backend a Workspace URI resolves to. A
// filesystem implementation is provided by NewFilesystemProvider; other
// backends (object storage, in-memory) implement the same interface.
//
// Implementations MUST be safe for concurrent use across goroutines: Store
// and StoreAt must be linearizable on a per-URI basis, and a concurrent
// Retrieve must observe either the prior state or the fully-written new
// state, never a partial write.
type Provider interface {
	// Resolve returns an opaque backend handle for uri (e.g. an absolute
	// filesystem path). It does not require the object to exist.
	Resolve(uri URI) (string, error)

	// Store writes data under namespace, returning a fresh URI whose path
	// is derived from the content hash. Storing identical bytes in the
	// same namespace repeatedly yields the same URI.
	Store(namespace string, data []byte) (URI, error)

	// StoreAt writes data to the exact URI given, for initial publication.
	// Implementations should refuse to overwrite an existing object.
	StoreAt(uri URI, data []byte) error

	// Retrieve returns the bytes stored at uri, or a *Error with
	// CodeNotFound if no object exists there.
	Retrieve(uri URI) ([]byte, error)

	// Exists reports whether an object exists at uri.
	Exists(uri URI) (bool, error)

	// Size returns the byte length of the object at uri.
	Size(uri URI) (uint64, error)

	// Hash returns the lowercase hex SHA-256 digest of the object at uri.
	Hash(uri URI) (string, error)

	// Verify reports whether the object at uri hashes to expectedHex,
	// comparing case-insensitively.
	Verify(uri URI, expectedHex string) (bool, error)

	// Delete removes the object at uri. Deleting an absent object is not
	// an error.
	Delete(uri URI) error
}

// StoredArtifact bundles the outcome of StoreWithMetadata: the URI the
// bytes were published under, plus the metadata an Artifact record needs.
type StoredArtifact struct {
	URI       URI
	SHA256    string
	SizeBytes uint64
}

// StoreWithMetadata stores data under namespace and returns the URI
// together with its SHA-256 and size, ready to populate a protocol
// Artifact record.
func StoreWithMetadata(p Provider, namespace string, data []byte) (StoredArtifact, error) {
	uri, err := p.Store(namespace, data)
	if err != nil {
		return StoredArtifact{}, err
	}
	return StoredArtifact{
		URI:       uri,
		SHA256:    hashBytes(data),
		SizeBytes: uint64(len(data)),
	}, nil
}

// RetrieveVerified retrieves the object at uri and checks that its content
// hashes to expectedHex, returning a *Error with CodeHashMismatch if not.
func RetrieveVerified(p Provider, uri URI, expectedHex string) ([]byte, error) {
	data, err := p.Retrieve(uri)
	if err != nil {
		return nil, err
	}
	actual := hashBytes(data)
	if !equalFoldHex(actual, expectedHex) {
		return nil, &Error{Code: CodeHashMismatch, Expected: expectedHex, Actual: actual}
	}
	return data, nil
}
