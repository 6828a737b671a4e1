package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Value fields (Params, Tags, Metadata, Details, job event Data) are
// decoded through json.RawMessage shadow structs because encoding/json
// cannot unmarshal directly into a sealed interface: it has no way to pick
// a concrete type on its own. Marshaling needs no such shadow — Value's
// concrete types (String, Int, Bool, Array, Object, Null) already produce
// the right JSON via Go's default encoding (map[string]Value even sorts
// keys by UTF-8 byte order, same as the standard library's map-key sort),
// except Null, which carries its own MarshalJSON.
//
// uuid.UUID and time.Time decode themselves (they implement
// encoding.TextUnmarshaler / json.Unmarshaler respectively), so shadow
// structs use those types directly rather than re-deriving parsing.

func decodeValue(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return Null{}, nil
	}
	return ParseValue(raw)
}

// UnmarshalJSON decodes a Request, resolving the dynamic Params tree.
func (r *Request) UnmarshalJSON(data []byte) error {
	type shadow struct {
		ESRPVersion     string          `json:"esrp_version"`
		RequestID       uuid.UUID       `json:"request_id"`
		IdempotencyKey  *string         `json:"idempotency_key,omitempty"`
		Timestamp       time.Time       `json:"timestamp"`
		ScopeID         *uuid.UUID      `json:"scope_id,omitempty"`
		CausationID     *uuid.UUID      `json:"causation_id,omitempty"`
		PayloadHash     *string         `json:"payload_hash,omitempty"`
		Caller          Caller          `json:"caller"`
		Target          Target          `json:"target"`
		Mode            *Mode           `json:"mode"`
		Context         *Context        `json:"context,omitempty"`
		Inputs          []Input         `json:"inputs"`
		Params          json.RawMessage `json:"params,omitempty"`
		ParamsSchemaRef *string         `json:"params_schema_ref,omitempty"`
	}

	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	params, err := decodeValue(s.Params)
	if err != nil {
		return fmt.Errorf("decode params: %w", err)
	}

	mode := DefaultMode()
	if s.Mode != nil {
		mode = *s.Mode
	}

	r.ESRPVersion = s.ESRPVersion
	r.RequestID = s.RequestID
	r.IdempotencyKey = s.IdempotencyKey
	r.Timestamp = s.Timestamp
	r.ScopeID = s.ScopeID
	r.CausationID = s.CausationID
	r.PayloadHash = s.PayloadHash
	r.Caller = s.Caller
	r.Target = s.Target
	r.Mode = mode
	r.Context = s.Context
	r.Inputs = s.Inputs
	r.Params = params
	r.ParamsSchemaRef = s.ParamsSchemaRef
	return nil
}

// UnmarshalJSON decodes a Context, resolving the dynamic Tags tree.
func (c *Context) UnmarshalJSON(data []byte) error {
	type shadow struct {
		TraceID      uuid.UUID       `json:"trace_id"`
		SpanID       uuid.UUID       `json:"span_id"`
		ParentSpanID *uuid.UUID      `json:"parent_span_id,omitempty"`
		Tags         json.RawMessage `json:"tags,omitempty"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode context: %w", err)
	}
	tags, err := decodeValue(s.Tags)
	if err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	c.TraceID = s.TraceID
	c.SpanID = s.SpanID
	c.ParentSpanID = s.ParentSpanID
	c.Tags = tags
	return nil
}

// UnmarshalJSON decodes an Input, resolving the dynamic Metadata tree.
func (in *Input) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name        string          `json:"name"`
		ContentType string          `json:"content_type"`
		Data        string          `json:"data"`
		Encoding    Encoding        `json:"encoding"`
		Metadata    json.RawMessage `json:"metadata,omitempty"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	metadata, err := decodeValue(s.Metadata)
	if err != nil {
		return fmt.Errorf("decode input metadata: %w", err)
	}
	in.Name = s.Name
	in.ContentType = s.ContentType
	in.Data = s.Data
	in.Encoding = s.Encoding
	in.Metadata = metadata
	return nil
}

// UnmarshalJSON decodes an Output, resolving the dynamic Metadata tree.
func (out *Output) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name        string          `json:"name"`
		ContentType string          `json:"content_type"`
		Data        string          `json:"data"`
		Encoding    Encoding        `json:"encoding"`
		Metadata    json.RawMessage `json:"metadata,omitempty"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	metadata, err := decodeValue(s.Metadata)
	if err != nil {
		return fmt.Errorf("decode output metadata: %w", err)
	}
	out.Name = s.Name
	out.ContentType = s.ContentType
	out.Data = s.Data
	out.Encoding = s.Encoding
	out.Metadata = metadata
	return nil
}

// UnmarshalJSON decodes an Error, resolving the dynamic Details tree.
func (e *Error) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Code          ErrorCode       `json:"code"`
		Message       string          `json:"message"`
		Retryable     bool            `json:"retryable"`
		RetryAfterMS  *uint64         `json:"retry_after_ms,omitempty"`
		RetryStrategy *RetryStrategy  `json:"retry_strategy,omitempty"`
		MaxRetries    *uint32         `json:"max_retries,omitempty"`
		Details       json.RawMessage `json:"details,omitempty"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	details, err := decodeValue(s.Details)
	if err != nil {
		return fmt.Errorf("decode error details: %w", err)
	}
	e.Code = s.Code
	e.Message = s.Message
	e.Retryable = s.Retryable
	e.RetryAfterMS = s.RetryAfterMS
	e.RetryStrategy = s.RetryStrategy
	e.MaxRetries = s.MaxRetries
	e.Details = details
	return nil
}

// UnmarshalJSON decodes a JobEvent, resolving the dynamic Data tree.
func (ev *JobEvent) UnmarshalJSON(data []byte) error {
	type shadow struct {
		EventType JobEventType    `json:"event_type"`
		JobID     uuid.UUID       `json:"job_id"`
		Timestamp time.Time       `json:"timestamp"`
		Data      json.RawMessage `json:"data,omitempty"`
	}
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode job event: %w", err)
	}
	payload, err := decodeValue(s.Data)
	if err != nil {
		return fmt.Errorf("decode job event data: %w", err)
	}
	ev.EventType = s.EventType
	ev.JobID = s.JobID
	ev.Timestamp = s.Timestamp
	ev.Data = payload
	return nil
}
