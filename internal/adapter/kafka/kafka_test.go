package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

type mockWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

var (
	testNow    = time.Date(2025, 3, 16, 13, 0, 0, 0, time.UTC)
	testReport = domain.ScanReport{ScanID: "scan-1", Provider: "ghrsst"}
)

func newTestNotifier(w messageWriter) *Notifier {
	return &Notifier{writer: w, clock: clockwork.NewFakeClockAt(testNow), logger: observability.Discard()}
}

func TestSerializeToMessage(t *testing.T) {
	received := time.Date(2025, 3, 16, 12, 45, 0, 0, time.UTC)
	rec := domain.Record{
		Filename:    "/dcom/20250316/sst/a.nc",
		ObsTime:     time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC),
		ReceiptTime: &received,
		Satellite:   "MB",
	}

	msg, err := serializeToMessage(rec, testReport, testNow)
	require.NoError(t, err)

	assert.Equal(t, []byte("/dcom/20250316/sst/a.nc"), msg.Key)
	assert.JSONEq(t, `{
		"filename": "/dcom/20250316/sst/a.nc",
		"obs_time": "2025-03-16T12:00:00Z",
		"receipt_time": "2025-03-16T12:45:00Z",
		"satellite": "MB"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "provider", msg.Headers[0].Key)
	assert.Equal(t, []byte("ghrsst"), msg.Headers[0].Value)
	assert.Equal(t, "scan_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("scan-1"), msg.Headers[1].Value)
	assert.Equal(t, "cataloged_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(testNow.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestNotifier_Notify(t *testing.T) {
	w := &mockWriter{}
	n := newTestNotifier(w)

	err := n.Notify(context.Background(), testReport, []domain.Record{
		{Filename: "/a.nc", ObsTime: testNow},
		{Filename: "/b.nc", ObsTime: testNow},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("/b.nc"), w.msgs[1].Key)
}

func TestNotifier_CatalogedAtFollowsClock(t *testing.T) {
	w := &mockWriter{}
	fc := clockwork.NewFakeClockAt(testNow)
	n := &Notifier{writer: w, clock: fc, logger: observability.Discard()}
	recs := []domain.Record{{Filename: "/a.nc", ObsTime: testNow}}

	require.NoError(t, n.Notify(context.Background(), testReport, recs))
	fc.Advance(90 * time.Minute)
	require.NoError(t, n.Notify(context.Background(), testReport, recs))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("2025-03-16T13:00:00Z"), w.msgs[0].Headers[2].Value)
	assert.Equal(t, []byte("2025-03-16T14:30:00Z"), w.msgs[1].Headers[2].Value)
}

func TestNotifier_NotifyNothing(t *testing.T) {
	w := &mockWriter{err: errors.New("must not be called")}
	require.NoError(t, newTestNotifier(w).Notify(context.Background(), testReport, nil))
}

func TestNotifier_NotifyError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	err := newTestNotifier(w).Notify(context.Background(), testReport, []domain.Record{{Filename: "/a.nc", ObsTime: testNow}})
	assert.ErrorContains(t, err, "leader not available")
}

func TestNewNotifier(t *testing.T) {
	n := NewNotifier(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "files"}, observability.Discard(), clockwork.NewRealClock())
	w, ok := n.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "files", w.Topic)
	require.NoError(t, n.Close())
}
