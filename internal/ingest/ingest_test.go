package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedFetcher struct {
	status int
	body   []byte
	err    error
}

func (f fixedFetcher) Fetch(ctx context.Context, requestURL string, timeout time.Duration) (int, []byte, error) {
	return f.status, f.body, f.err
}

type recordingRawSink struct {
	inserted []domain.NormalizedEvent
	err      error
}

func (s *recordingRawSink) InsertRawEvents(ctx context.Context, events []domain.NormalizedEvent) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.inserted = append(s.inserted, events...)
	return len(events), nil
}

type recordingDeadSink struct {
	rows []DeadLetterRow
}

func (s *recordingDeadSink) InsertDeadLetter(ctx context.Context, rows []DeadLetterRow) error {
	s.rows = append(s.rows, rows...)
	return nil
}

type recordingAuditSink struct {
	audits []PipelineRunAudit
}

func (s *recordingAuditSink) LogPipelineRun(ctx context.Context, audit PipelineRunAudit) error {
	s.audits = append(s.audits, audit)
	return nil
}

func testDeps(fetcher Fetcher, raw *recordingRawSink, dead *recordingDeadSink, audit *recordingAuditSink) Dependencies {
	return Dependencies{
		Fetcher:   fetcher,
		RawSink:   raw,
		DeadSink:  dead,
		AuditSink: audit,
		Cache:     NewFetchCache(8),
		Metrics:   observability.NewMetricsForTesting(),
		Logger:    discardLogger(),
	}
}

func TestRunSourcePipeline_AcceptsValidEvent(t *testing.T) {
	body := []byte(`{"features":[{"id":"ev1","properties":{"mag":4.5,"magType":"mb","place":"test","time":1700000000000,"status":"automatic"},"geometry":{"coordinates":[10.0,20.0,5.0]}}]}`)
	fetcher := fixedFetcher{status: http.StatusOK, body: body}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	report, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.NoError(t, err)
	assert.Equal(t, 1, report.RawEvents)
	assert.Equal(t, 0, report.DeadLetters)
	assert.Len(t, raw.inserted, 1)
	assert.Empty(t, dead.rows)
	require.Len(t, audit.audits, 1)
	assert.Equal(t, "ok", audit.audits[0].Status)
}

func TestRunSourcePipeline_InvalidEventGoesToDeadLetter(t *testing.T) {
	// latitude 200 is out of range, so domain.Validate rejects it.
	body := []byte(`{"features":[{"id":"ev1","properties":{"mag":4.5,"magType":"mb","place":"test","time":1700000000000,"status":"automatic"},"geometry":{"coordinates":[10.0,200.0,5.0]}}]}`)
	fetcher := fixedFetcher{status: http.StatusOK, body: body}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	report, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.NoError(t, err)
	assert.Equal(t, 0, report.RawEvents)
	assert.Equal(t, 1, report.DeadLetters)
	assert.Empty(t, raw.inserted)
	require.Len(t, dead.rows, 1)
}

func TestRunSourcePipeline_UnparsableTopLevelPayloadGoesToDeadLetter(t *testing.T) {
	fetcher := fixedFetcher{status: http.StatusOK, body: []byte("not json at all")}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	report, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.NoError(t, err)
	assert.Equal(t, 1, report.DeadLetters)
	require.Len(t, dead.rows, 1)
	assert.Contains(t, dead.rows[0].Errors, "payload failed to parse")
}

func TestRunSourcePipeline_EmptyBodyIsNoOp(t *testing.T) {
	fetcher := fixedFetcher{status: http.StatusNoContent, body: nil}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	report, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.NoError(t, err)
	assert.Equal(t, 0, report.RawEvents)
	assert.Equal(t, 0, report.DeadLetters)
	assert.Empty(t, raw.inserted)
	assert.Empty(t, dead.rows)
}

func TestRunSourcePipeline_WhitespaceOnlyBodyIsNoOp(t *testing.T) {
	fetcher := fixedFetcher{status: http.StatusOK, body: []byte("   \n\t  ")}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	report, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.NoError(t, err)
	assert.Equal(t, 0, report.RawEvents)
	assert.Equal(t, 0, report.DeadLetters)
}

func TestRunSourcePipeline_FetchFailureReturnsErrorAndLogsFatalAudit(t *testing.T) {
	fetcher := fixedFetcher{err: errors.New("network unreachable")}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	cfg.MaxRetries = 0
	_, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))

	require.Error(t, err)
	require.Len(t, audit.audits, 1)
	assert.Equal(t, "fatal", audit.audits[0].Status)
}

func TestRunSourcePipeline_DuplicateFetchIsDetectedButStillProcessed(t *testing.T) {
	body := []byte(`{"features":[{"id":"ev1","properties":{"mag":4.5,"magType":"mb","place":"test","time":1700000000000,"status":"automatic"},"geometry":{"coordinates":[10.0,20.0,5.0]}}]}`)
	fetcher := fixedFetcher{status: http.StatusOK, body: body}
	raw := &recordingRawSink{}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	deps := testDeps(fetcher, raw, dead, audit)

	_, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, deps)
	require.NoError(t, err)

	report2, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, report2.RawEvents) // duplicate detection doesn't block processing
}

func TestRunSourcePipeline_RawSinkErrorPropagates(t *testing.T) {
	body := []byte(`{"features":[{"id":"ev1","properties":{"mag":4.5,"magType":"mb","place":"test","time":1700000000000,"status":"automatic"},"geometry":{"coordinates":[10.0,20.0,5.0]}}]}`)
	fetcher := fixedFetcher{status: http.StatusOK, body: body}
	raw := &recordingRawSink{err: errors.New("db down")}
	dead := &recordingDeadSink{}
	audit := &recordingAuditSink{}

	cfg := testSourceConfig()
	_, err := RunSourcePipeline(context.Background(), domain.SourceUSGS, cfg, testDeps(fetcher, raw, dead, audit))
	require.Error(t, err)
}
