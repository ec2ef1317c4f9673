package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/giftwrap/internal/morph"
)

func TestTunables_SettingsRoundTrip(t *testing.T) {
	want := Tunables{
		Rates:     morph.Rates{Gifts: 0.021, Baubles: 0.07, Topper: 0.035},
		Threshold: 4,
	}

	got, err := Default("/data").Tunables().ApplySettings(want.Settings())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTunables_ApplySettingsPartial(t *testing.T) {
	base := Default("/data").Tunables()

	got, err := base.ApplySettings(map[string]string{KeyThreshold: "5", "legacy.key": "x"})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Threshold)
	assert.Equal(t, base.Rates, got.Rates)
}

func TestTunables_ApplySettingsRejects(t *testing.T) {
	base := Default("/data").Tunables()

	for name, values := range map[string]map[string]string{
		"not a number":    {KeyGiftRate: "fast"},
		"rate too large":  {KeyBaubleRate: "2"},
		"zero threshold":  {KeyThreshold: "0"},
		"float threshold": {KeyThreshold: "2.5"},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := base.ApplySettings(values)
			assert.Error(t, err)
			assert.Equal(t, base, got)
		})
	}
}

func TestConfig_WithTunables(t *testing.T) {
	cfg := Default("/data")
	tun := Tunables{Rates: morph.Rates{Gifts: 0.1, Baubles: 0.2, Topper: 0.3}, Threshold: 6}

	out := cfg.WithTunables(tun)
	assert.Equal(t, tun, out.Tunables())
	assert.Equal(t, cfg.Server, out.Server)
}
