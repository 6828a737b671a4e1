package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current ESRP protocol version numbers. Minor version bumps are backward
// compatible additions; a major version bump signals a breaking change.
const (
	MajorVersion = 1
	MinorVersion = 0

	// VersionString is the canonical "major.minor" form of the current
	// version, as carried in every Request/Response's esrp_version field.
	VersionString = "1.0"
)

// VersionErrorCode enumerates the closed set of version-parsing and
// compatibility failures.
type VersionErrorCode string

const (
	VersionErrInvalidFormat    VersionErrorCode = "INVALID_FORMAT"
	VersionErrInvalidMajor     VersionErrorCode = "INVALID_MAJOR"
	VersionErrInvalidMinor     VersionErrorCode = "INVALID_MINOR"
	VersionErrEmpty            VersionErrorCode = "EMPTY"
	VersionErrIncompatible     VersionErrorCode = "INCOMPATIBLE"
	VersionErrUnsupported      VersionErrorCode = "UNSUPPORTED_VERSION"
)

// VersionError reports a version parse or compatibility failure.
type VersionError struct {
	Code     VersionErrorCode
	Got      string
	Expected string
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	switch e.Code {
	case VersionErrEmpty:
		return "empty version string"
	case VersionErrIncompatible:
		return fmt.Sprintf("version %s is incompatible with %s: major versions must match", e.Got, e.Expected)
	case VersionErrUnsupported:
		return fmt.Sprintf("unsupported version: %s", e.Got)
	default:
		return fmt.Sprintf("%s: %q", e.Code, e.Got)
	}
}

// IsVersionError reports whether err is a *VersionError with the given code.
func IsVersionError(err error, code VersionErrorCode) bool {
	var ve *VersionError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// Version is an ESRP "major.minor" protocol version.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion returns the protocol version this package implements.
func CurrentVersion() Version {
	return Version{Major: MajorVersion, Minor: MinorVersion}
}

// DefaultVersion returns CurrentVersion; it exists so callers constructing a
// Request/Response can use a named zero-value-like default.
func DefaultVersion() Version {
	return CurrentVersion()
}

// ParseVersion parses a "major.minor" string, e.g. "1.0".
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, &VersionError{Code: VersionErrEmpty}
	}

	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, &VersionError{Code: VersionErrInvalidFormat, Got: s}
	}

	major, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Version{}, &VersionError{Code: VersionErrInvalidMajor, Got: parts[0]}
	}

	minor, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Version{}, &VersionError{Code: VersionErrInvalidMinor, Got: parts[1]}
	}

	return Version{Major: uint8(major), Minor: uint8(minor)}, nil
}

// String renders the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsCompatibleWith reports whether v and other share a major version.
func (v Version) IsCompatibleWith(other Version) bool {
	return v.Major == other.Major
}

// RequireCompatible returns a *VersionError if v is not compatible with other.
func (v Version) RequireCompatible(other Version) error {
	if v.IsCompatibleWith(other) {
		return nil
	}
	return &VersionError{Code: VersionErrIncompatible, Got: v.String(), Expected: other.String()}
}

// IsCurrent reports whether v equals CurrentVersion().
func (v Version) IsCurrent() bool {
	return v == CurrentVersion()
}

// IsCompatibleVersionString parses s and reports whether it is compatible
// with the current protocol version.
func IsCompatibleVersionString(s string) (bool, error) {
	v, err := ParseVersion(s)
	if err != nil {
		return false, err
	}
	return v.IsCompatibleWith(CurrentVersion()), nil
}
