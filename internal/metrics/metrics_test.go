package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/demod"
)

func TestKind(t *testing.T) {
	tests := []struct {
		msg  adsb.Message
		want string
	}{
		{&adsb.Identification{}, KindIdentification},
		{&adsb.Position{}, KindPosition},
		{&adsb.Velocity{}, KindVelocity},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.msg))
		})
	}
}

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveFrame()
	m.ObserveFrame()
	m.ObserveFrame()
	m.ObserveMessage(&adsb.Identification{}, false)
	m.ObserveMessage(&adsb.Position{}, true)
	m.ObserveMessage(&adsb.Position{}, false)
	m.ObserveUndecodable()
	m.ObserveOutputLines(4)
	m.SetAircraft(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decoded.WithLabelValues(KindIdentification)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decoded.WithLabelValues(KindPosition)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.decoded.WithLabelValues(KindVelocity)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.undecodable))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.positions))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.outputLines))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.aircraft))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	stats := demod.Stats{Preambles: 7, RejectedDF: 2, RejectedCRC: 1, ValidFrames: 4, Scanned: 65536}
	m.RegisterDemodulator(func() demod.Stats { return stats })
	m.ObserveFrame()

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "adsbtrack_frames_total 1")
	assert.Contains(t, text, "adsbtrack_demod_preambles_total 7")
	assert.Contains(t, text, "adsbtrack_demod_rejected_df_total 2")
	assert.Contains(t, text, "adsbtrack_demod_rejected_crc_total 1")
	assert.Contains(t, text, "adsbtrack_demod_frames_total 4")
	assert.Contains(t, text, "adsbtrack_demod_samples_scanned_total 65536")
}
