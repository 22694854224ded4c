package diagnostics

import (
	"testing"

	"github.com/gnssrx/gnssrx/internal/channel"
	"github.com/gnssrx/gnssrx/internal/navigation"
	"github.com/gnssrx/gnssrx/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSeriesBuildsOnePointPerSample(t *testing.T) {
	p, err := lineSeries("doppler (Hz)", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "doppler (Hz)", p.Title.Text)
	// One point per sample at x = 0, 1, 2.
	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 2.0, p.X.Max)
}

func TestIQScatterHandlesEmptySeries(t *testing.T) {
	p, err := iqScatter(nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRenderChannelSkipsWithoutHistory(t *testing.T) {
	w := NewWriter(t.TempDir(), 0)
	assert.Equal(t, "%Y%m%d_%H%M%S", w.FilenamePattern)

	c := channel.New(channel.DefaultConfig(), 1, navigation.NewAlmanacTable(), navigation.NewIonoUTCStore(), telemetry.New())
	assert.NoError(t, w.renderChannel(c))
}
