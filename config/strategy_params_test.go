package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadStrategyParamsDefaultsWhenAbsent(t *testing.T) {
	chdir(t, t.TempDir())

	params := LoadStrategyParams()
	assert.Equal(t, 200, params.MinDataDays)
	assert.InDelta(t, 0.45, params.MinScore, 1e-9)
	assert.InDelta(t, 2.0, params.VolumeSpikeThreshold, 1e-9)
	assert.True(t, params.PrioritizeVolumeSpike)
}

func TestSaveAndLoadStrategyParams(t *testing.T) {
	chdir(t, t.TempDir())

	params := DefaultStrategyParams()
	params.MinScore = 0.6
	params.VolumeSpikeThreshold = 2.5
	require.NoError(t, SaveStrategyParams(params))

	loaded := LoadStrategyParams()
	assert.InDelta(t, 0.6, loaded.MinScore, 1e-9)
	assert.InDelta(t, 2.5, loaded.VolumeSpikeThreshold, 1e-9)
	// Untouched fields keep their saved values
	assert.Equal(t, 14, loaded.RSIPeriod)
}

func TestLoadStrategyParamsCorruptFile(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, os.MkdirAll("data", 0755))
	require.NoError(t, os.WriteFile(StrategyParamsFile, []byte("{not json"), 0644))

	params := LoadStrategyParams()
	assert.Equal(t, DefaultStrategyParams().MinDataDays, params.MinDataDays)
	assert.InDelta(t, DefaultStrategyParams().MinScore, params.MinScore, 1e-9)
}

func TestMultipliersFor(t *testing.T) {
	params := DefaultStrategyParams()

	spike := params.MultipliersFor("VOLUME_SPIKE")
	assert.InDelta(t, 1.5, spike.Stop, 1e-9)
	assert.InDelta(t, 3.0, spike.Target, 1e-9)

	fallback := params.MultipliersFor("SOMETHING_ELSE")
	assert.InDelta(t, 2.0, fallback.Stop, 1e-9)
	assert.InDelta(t, 2.5, fallback.Target, 1e-9)
}
