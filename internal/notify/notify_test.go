package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(3)

	_, ok := r.Last()
	assert.False(t, ok)

	for _, title := range []string{"one", "two", "three", "four"} {
		r.Notify(ctx, Info(title, ""))
	}

	recent := r.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "four", recent[0].Title)
	assert.Equal(t, "two", recent[2].Title)
	assert.Equal(t, DefaultDuration, recent[0].Duration)
	assert.False(t, recent[0].At.IsZero())

	assert.Len(t, r.Recent(2), 2)
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, "four", last.Title)
}

func TestLoggerCountsByKind(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)), reg)

	l.Notify(context.Background(), Warning("No Data to Export", "There are no submissions to export"))
	l.Notify(context.Background(), Success("Status Updated", "ABS-1 is now Accepted"))

	assert.Equal(t, 1.0, testutil.ToFloat64(l.sent.WithLabelValues("warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.sent.WithLabelValues("success")))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "No Data to Export")
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(2), NewRecorder(2)
	Multi{a, b, Nop{}}.Notify(context.Background(), Error("Submission Failed", "try again"))

	assert.Len(t, a.Recent(0), 1)
	assert.Len(t, b.Recent(0), 1)
}

func TestNotificationJSON(t *testing.T) {
	n := Notification{Kind: KindInfo, Title: "No Change", Duration: 4 * time.Second}
	raw, err := json.Marshal(n)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "info", got["kind"])
	assert.EqualValues(t, 4000, got["duration_ms"])
}
