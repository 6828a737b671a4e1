package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Request is an ESRP request envelope: a caller asking a target
// service/operation to act on one or more inputs, with optional
// idempotency and tracing metadata.
type Request struct {
	ESRPVersion string `json:"esrp_version"`
	RequestID   uuid.UUID `json:"request_id"`

	IdempotencyKey *string `json:"idempotency_key,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	ScopeID     *uuid.UUID `json:"scope_id,omitempty"`
	CausationID *uuid.UUID `json:"causation_id,omitempty"`
	PayloadHash *string    `json:"payload_hash,omitempty"`

	Caller Caller `json:"caller"`
	Target Target `json:"target"`

	Mode Mode `json:"mode"`

	Context *Context `json:"context,omitempty"`

	Inputs []Input `json:"inputs"`

	Params Value `json:"params,omitempty"`

	ParamsSchemaRef *string `json:"params_schema_ref,omitempty"`
}

// Response is an ESRP response envelope: the outcome of a Request, either
// a synchronous result, a pointer to an async Job, or an Error.
type Response struct {
	ESRPVersion string    `json:"esrp_version"`
	RequestID   uuid.UUID `json:"request_id"`
	Status      Status    `json:"status"`

	Timing *Timing `json:"timing,omitempty"`

	Outputs   []Output   `json:"outputs,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`

	Job   *Job   `json:"job,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Caller identifies the system (and optionally agent/run) that issued a
// Request.
type Caller struct {
	System  string  `json:"system"`
	AgentID *string `json:"agent_id,omitempty"`
	RunID   *string `json:"run_id,omitempty"`
}

// Target names the service, operation, and optional variant a Request is
// addressed to.
type Target struct {
	Service   string  `json:"service"`
	Operation string  `json:"operation"`
	Variant   *string `json:"variant,omitempty"`
}

// ModeType selects synchronous or asynchronous request handling.
type ModeType string

const (
	ModeSync  ModeType = "sync"
	ModeAsync ModeType = "async"
)

// DefaultTimeoutMS is the default request timeout, in milliseconds (10
// minutes), applied when a Mode omits timeout_ms.
const DefaultTimeoutMS uint64 = 600_000

// Mode describes how a Request should be executed.
type Mode struct {
	Type      ModeType `json:"type"`
	TimeoutMS uint64   `json:"timeout_ms"`
}

// DefaultMode returns the zero-value default Mode: synchronous with the
// standard timeout.
func DefaultMode() Mode {
	return Mode{Type: ModeSync, TimeoutMS: DefaultTimeoutMS}
}

// Context carries distributed tracing identifiers alongside a Request.
type Context struct {
	TraceID      uuid.UUID  `json:"trace_id"`
	SpanID       uuid.UUID  `json:"span_id"`
	ParentSpanID *uuid.UUID `json:"parent_span_id,omitempty"`
	Tags         Value      `json:"tags,omitempty"`
}

// Encoding names how Input/Output.Data is encoded.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingBase64 Encoding = "base64"
	EncodingPath   Encoding = "path"
)

// Input is one named unit of data passed into an operation.
type Input struct {
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Data        string   `json:"data"`
	Encoding    Encoding `json:"encoding"`
	Metadata    Value    `json:"metadata,omitempty"`
}

// Output is one named unit of data returned by an operation.
type Output struct {
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Data        string   `json:"data"`
	Encoding    Encoding `json:"encoding"`
	Metadata    Value    `json:"metadata,omitempty"`
}

// ArtifactKind distinguishes workspace-resident files from inline blobs.
type ArtifactKind string

const (
	ArtifactFile ArtifactKind = "file"
	ArtifactBlob ArtifactKind = "blob"
)

// RetentionPolicy governs how long a stored Artifact is kept.
type RetentionPolicy string

const (
	RetentionEphemeral RetentionPolicy = "ephemeral"
	RetentionRun       RetentionPolicy = "run"
	RetentionPinned    RetentionPolicy = "pinned"
)

// Artifact references a piece of content-addressed output, identified by
// its workspace URI and SHA-256 hash.
type Artifact struct {
	ArtifactID uuid.UUID       `json:"artifact_id"`
	Kind       ArtifactKind    `json:"kind"`
	URI        string          `json:"uri"`
	SHA256     string          `json:"sha256"`
	SizeBytes  uint64          `json:"size_bytes"`
	Retention  RetentionPolicy `json:"retention"`
}

// Timing records the lifecycle timestamps of a completed or in-flight
// request.
type Timing struct {
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMS *float64   `json:"duration_ms,omitempty"`
}

// Status is the outcome of a Response.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAccepted  Status = "accepted"
)

// Job references an asynchronously running operation.
type Job struct {
	JobID uuid.UUID `json:"job_id"`
	State JobState  `json:"state"`
}

// JobState is one of the five states in the job lifecycle state machine.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobStarted   JobState = "started"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// JobEventType enumerates the events a job emits over its lifetime.
type JobEventType string

const (
	EventJobQueued       JobEventType = "job_queued"
	EventJobStarted      JobEventType = "job_started"
	EventJobProgress     JobEventType = "job_progress"
	EventArtifactCreated JobEventType = "artifact_created"
	EventJobCompleted    JobEventType = "job_completed"
	EventJobFailed       JobEventType = "job_failed"
	EventJobCancelled    JobEventType = "job_cancelled"
)

// JobEvent is one entry in a job's event log.
type JobEvent struct {
	EventType JobEventType `json:"event_type"`
	JobID     uuid.UUID    `json:"job_id"`
	Timestamp time.Time    `json:"timestamp"`
	Data      Value        `json:"data,omitempty"`
}

// ErrorCode is the closed taxonomy of protocol-carried failure reasons.
type ErrorCode string

const (
	CodeBackendUnavailable  ErrorCode = "BACKEND_UNAVAILABLE"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodeOOM                 ErrorCode = "OOM"
	CodeInvalidInputSchema  ErrorCode = "INVALID_INPUT_SCHEMA"
	CodeInvalidInputSemantic ErrorCode = "INVALID_INPUT_SEMANTIC"
	CodeInvalidInputSize    ErrorCode = "INVALID_INPUT_SIZE"
	CodeUnknown             ErrorCode = "UNKNOWN"
)

// RetryStrategy suggests how a caller should space retries.
type RetryStrategy string

const (
	RetryExponential RetryStrategy = "exponential"
	RetryLinear      RetryStrategy = "linear"
	RetryImmediate   RetryStrategy = "immediate"
)

// Error is the protocol-carried failure payload of a Response with
// Status == StatusFailed.
type Error struct {
	Code         ErrorCode      `json:"code"`
	Message      string         `json:"message"`
	Retryable    bool           `json:"retryable"`
	RetryAfterMS *uint64        `json:"retry_after_ms,omitempty"`
	RetryStrategy *RetryStrategy `json:"retry_strategy,omitempty"`
	MaxRetries   *uint32        `json:"max_retries,omitempty"`
	Details      Value          `json:"details,omitempty"`
}
