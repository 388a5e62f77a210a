package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveMove(t *testing.T) {
	before := testutil.ToFloat64(axisMovesTotal.WithLabelValues("x"))

	ObserveMove("x", 250*time.Millisecond)
	ObserveMove("x", 10*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(axisMovesTotal.WithLabelValues("x")))
}

func TestScaleCounters(t *testing.T) {
	stable := testutil.ToFloat64(scaleLinesTotal.WithLabelValues(LineStable))
	malformed := testutil.ToFloat64(scaleLinesTotal.WithLabelValues(LineMalformed))
	timeouts := testutil.ToFloat64(scaleTimeoutsTotal)

	CountScaleLine(LineStable)
	CountScaleLine(LineMalformed)
	CountScaleLine(LineMalformed)
	CountScaleTimeout()
	SetWeight(12.5)

	assert.Equal(t, stable+1, testutil.ToFloat64(scaleLinesTotal.WithLabelValues(LineStable)))
	assert.Equal(t, malformed+2, testutil.ToFloat64(scaleLinesTotal.WithLabelValues(LineMalformed)))
	assert.Equal(t, timeouts+1, testutil.ToFloat64(scaleTimeoutsTotal))
	assert.Equal(t, 12.5, testutil.ToFloat64(scaleWeight))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveHoming("z", time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{"pawnshop_homing_seconds", "pawnshop_scale_weight"} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
