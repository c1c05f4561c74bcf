package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTokenMinted("access")
	m.IncTokenMinted("access")
	m.IncRotation("inactive")
	m.IncRevocation("user")
	m.IncCodeIssued()
	m.ObserveCodeExchange(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensMinted.WithLabelValues("access")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rotations.WithLabelValues("inactive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Revocations.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CodesIssued))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTokenMinted("access")
		m.IncRotation("success")
		m.IncRevocation("token")
		m.IncCodeIssued()
		m.ObserveCodeExchange(time.Now())
		m.ObserveMint(time.Now())
	})
}
