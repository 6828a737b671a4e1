package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esrp/kernel/internal/job"
	"github.com/esrp/kernel/internal/protocol"
)

// CreateJob inserts a new job row in the queued state, linked to the
// request that produced it. Duplicate job IDs are silently ignored so the
// call is safe to retry.
func (s *Store) CreateJob(ctx context.Context, jobID, requestID uuid.UUID, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_id, state, request_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING
	`,
		jobID.String(), string(job.Queued), requestID.String(),
		now.UTC().Format(time.RFC3339Nano), now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("jobstore: create job: %w", err)
	}
	return nil
}

// GetJobState returns the current state of jobID.
func (s *Store) GetJobState(ctx context.Context, jobID uuid.UUID) (job.State, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM jobs WHERE job_id = ?`, jobID.String()).Scan(&state)
	if err == sql.ErrNoRows {
		return "", &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return "", fmt.Errorf("jobstore: get job state: %w", err)
	}
	return job.State(state), nil
}

// TransitionJob validates the requested transition against the job FSM and,
// if legal, updates the stored state. The check (a SELECT) and the write (an
// UPDATE) are separate queries, not wrapped in a SQL transaction: callers that
// need strict linearizability across concurrent transition attempts should
// serialize at a higher level (e.g. one dispatcher per job).
func (s *Store) TransitionJob(ctx context.Context, jobID uuid.UUID, to job.State, now time.Time) error {
	current, err := s.GetJobState(ctx, jobID)
	if err != nil {
		return err
	}
	if err := job.Transition(current, to); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, updated_at = ? WHERE job_id = ?
	`, string(to), now.UTC().Format(time.RFC3339Nano), jobID.String())
	if err != nil {
		return fmt.Errorf("jobstore: transition job: %w", err)
	}
	return nil
}

// NotFoundError reports that no job exists with the given ID.
type NotFoundError struct {
	JobID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("jobstore: no job found with id %s", e.JobID)
}

// AppendEvent records a job event, assigning it the next sequence number
// for that job. Callers are responsible for ensuring timestamps arrive
// monotonically non-decreasing per job.ValidateEvents.
func (s *Store) AppendEvent(ctx context.Context, event protocol.JobEvent) error {
	data, err := protocol.MarshalValue(event.Data)
	if err != nil {
		return fmt.Errorf("jobstore: marshal event data: %w", err)
	}

	var nextSeq int
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), -1) + 1 FROM job_events WHERE job_id = ?
	`, event.JobID.String()).Scan(&nextSeq)
	if err != nil {
		return fmt.Errorf("jobstore: compute next seq: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_events (job_id, event_type, timestamp, data, seq)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.JobID.String(), string(event.EventType),
		event.Timestamp.UTC().Format(time.RFC3339Nano), string(data), nextSeq,
	)
	if err != nil {
		return fmt.Errorf("jobstore: append event: %w", err)
	}
	return nil
}

// Events returns all recorded events for jobID in emission order.
func (s *Store) Events(ctx context.Context, jobID uuid.UUID) ([]protocol.JobEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, timestamp, data FROM job_events
		WHERE job_id = ? ORDER BY seq ASC
	`, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("jobstore: query events: %w", err)
	}
	defer rows.Close()

	var events []protocol.JobEvent
	for rows.Next() {
		var eventType, timestamp, data string
		if err := rows.Scan(&eventType, &timestamp, &data); err != nil {
			return nil, fmt.Errorf("jobstore: scan event: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("jobstore: parse event timestamp: %w", err)
		}
		value, err := protocol.ParseValue([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("jobstore: parse event data: %w", err)
		}
		events = append(events, protocol.JobEvent{
			EventType: protocol.JobEventType(eventType),
			JobID:     jobID,
			Timestamp: ts,
			Data:      value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobstore: iterate events: %w", err)
	}
	return events, nil
}
