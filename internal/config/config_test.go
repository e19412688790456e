package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenwaste/collection-gateway/internal/model"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key := strings.SplitN(kv, "=", 2)[0]
		for _, prefix := range []string{"APP_", "QUEUE_", "REPORT_", "PROM_"} {
			if strings.HasPrefix(key, prefix) {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearConfigEnv(t)

	require.NoError(t, Load(""))
	c := Get()

	assert.Equal(t, "dev", c.AppEnv)
	assert.Equal(t, "collection_gateway", c.AppName)
	assert.Equal(t, "greenwaste", c.PromNamespace)
	assert.Equal(t, "notifications", c.QueueName)
	assert.Equal(t, "dispatcher", c.QueueConsumerGroup)
	assert.Equal(t, 100.0, c.ReportMaxVolume)
	assert.Equal(t, 1000, c.ReportMaxNotes)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REPORT_MAX_VOLUME", "50")
	t.Setenv("REPORT_MAX_NOTES", "200")
	t.Setenv("QUEUE_NAME", "pickups")

	require.NoError(t, Load(""))
	c := Get()

	assert.Equal(t, 50.0, c.ReportMaxVolume)
	assert.Equal(t, 200, c.ReportMaxNotes)
	assert.Equal(t, "pickups", c.QueueName)
}

// A freshly loaded config with nothing in the environment must accept a
// minimal valid report. A zero volume ceiling here would reject every pickup.
func TestDefaultLimitsAcceptValidReport(t *testing.T) {
	clearConfigEnv(t)

	require.NoError(t, Load(""))
	c := Get()

	p := model.ReportCreateRequest{
		SettlementID:    1,
		DriverID:        100,
		ContainerTypeID: 2,
		Volume:          0.01,
	}
	assert.NoError(t, p.Validate(c.ReportMaxVolume, c.ReportMaxNotes))

	p.Volume = c.ReportMaxVolume + 1
	assert.Error(t, p.Validate(c.ReportMaxVolume, c.ReportMaxNotes))
}
