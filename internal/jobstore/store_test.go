package jobstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esrp/kernel/internal/job"
	"github.com/esrp/kernel/internal/protocol"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	s, err := Open(path, Config{IdempotencyRetention: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	s1, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestCreateJobAndGetState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jobID := uuid.New()
	requestID := uuid.New()
	now := time.Now()

	require.NoError(t, s.CreateJob(ctx, jobID, requestID, now))

	state, err := s.GetJobState(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.Queued, state)
}

func TestGetJobStateNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJobState(context.Background(), uuid.New())
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestTransitionJobLegal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobID := uuid.New()
	now := time.Now()

	require.NoError(t, s.CreateJob(ctx, jobID, uuid.New(), now))
	require.NoError(t, s.TransitionJob(ctx, jobID, job.Started, now.Add(time.Second)))

	state, err := s.GetJobState(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.Started, state)
}

func TestTransitionJobIllegal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobID := uuid.New()
	now := time.Now()

	require.NoError(t, s.CreateJob(ctx, jobID, uuid.New(), now))
	err := s.TransitionJob(ctx, jobID, job.Succeeded, now)
	require.Error(t, err)
	assert.True(t, job.IsError(err, job.CodeInvalidTransition))

	state, err := s.GetJobState(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.Queued, state, "illegal transition must not mutate stored state")
}

func TestCreateJobDuplicateIsIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobID := uuid.New()
	now := time.Now()

	require.NoError(t, s.CreateJob(ctx, jobID, uuid.New(), now))
	require.NoError(t, s.CreateJob(ctx, jobID, uuid.New(), now))

	state, err := s.GetJobState(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, job.Queued, state)
}

func TestAppendEventAndReadBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateJob(ctx, jobID, uuid.New(), now))

	events := []protocol.JobEvent{
		{EventType: job.EventQueued, JobID: jobID, Timestamp: now, Data: protocol.Null{}},
		{EventType: job.EventStarted, JobID: jobID, Timestamp: now.Add(time.Second), Data: protocol.Object{"worker": protocol.String("w1")}},
		{EventType: job.EventCompleted, JobID: jobID, Timestamp: now.Add(2 * time.Second), Data: protocol.Null{}},
	}
	for _, ev := range events {
		require.NoError(t, s.AppendEvent(ctx, ev))
	}

	got, err := s.Events(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, job.EventQueued, got[0].EventType)
	assert.Equal(t, job.EventStarted, got[1].EventType)
	assert.Equal(t, job.EventCompleted, got[2].EventType)
	assert.NoError(t, job.ValidateEvents(got))
}

func TestIdempotencyCachePutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	requestID := uuid.New()
	resp := &protocol.Response{
		ESRPVersion: "1.0",
		RequestID:   requestID,
		Status:      protocol.StatusSucceeded,
	}

	key := "abc123"
	require.NoError(t, s.PutResponse(ctx, key, requestID.String(), resp, now))

	got, ok, err := s.GetResponse(ctx, key, now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resp.RequestID, got.RequestID)
	assert.Equal(t, resp.Status, got.Status)
}

func TestIdempotencyCacheMiss(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetResponse(context.Background(), "missing-key", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotencyCacheExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	requestID := uuid.New()
	resp := &protocol.Response{ESRPVersion: "1.0", RequestID: requestID, Status: protocol.StatusSucceeded}

	key := "expiring-key"
	require.NoError(t, s.PutResponse(ctx, key, requestID.String(), resp, now))

	_, ok, err := s.GetResponse(ctx, key, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "entry should be treated as expired after the retention window")
}

func TestIdempotencyCachePutDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	requestID1 := uuid.New()
	resp1 := &protocol.Response{ESRPVersion: "1.0", RequestID: requestID1, Status: protocol.StatusSucceeded}
	key := "stable-key"
	require.NoError(t, s.PutResponse(ctx, key, requestID1.String(), resp1, now))

	requestID2 := uuid.New()
	resp2 := &protocol.Response{ESRPVersion: "1.0", RequestID: requestID2, Status: protocol.StatusFailed}
	require.NoError(t, s.PutResponse(ctx, key, requestID2.String(), resp2, now))

	got, ok, err := s.GetResponse(ctx, key, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, requestID1, got.RequestID, "first cached response for a key wins")
}

func TestPruneExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	requestID := uuid.New()
	resp := &protocol.Response{ESRPVersion: "1.0", RequestID: requestID, Status: protocol.StatusSucceeded}
	require.NoError(t, s.PutResponse(ctx, "prune-me", requestID.String(), resp, now))

	n, err := s.PruneExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err := s.GetResponse(ctx, "prune-me", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}
