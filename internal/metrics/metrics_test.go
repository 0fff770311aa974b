package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAfterInit(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(alertsCreated)
	IncAlertCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(alertsCreated))

	IncLogin(LoginLocked)
	assert.Equal(t, 1.0, testutil.ToFloat64(loginAttempts.WithLabelValues(LoginLocked)))

	ObserveNotification("telegram", false, 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(notifications.WithLabelValues("telegram", ResultError)))

	IncSirenCommand("")
	assert.Equal(t, 1.0, testutil.ToFloat64(sirenCommands.WithLabelValues("unknown")))

	ObserveReport("pdf", "", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(reportsTotal.WithLabelValues("pdf", ResultSuccess)))
}
