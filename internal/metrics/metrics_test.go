package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSaved(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SnapshotSaved(nil)
	m.SnapshotSaved(nil)
	m.SnapshotSaved(errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("error")))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Transitions.WithLabelValues("IDLE", "AWAITING_SEX").Inc()
	m.Rejections.WithLabelValues("too_young").Inc()
	m.HandleSeconds.Observe(0.01)

	n, err := testutil.GatherAndCount(reg,
		"nutrition_bot_transitions_total",
		"nutrition_bot_rejections_total",
		"nutrition_bot_handle_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Panics(t, func() { New(reg) })
}
