package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/IceyWu/live-photo/internal/handle"
	"github.com/IceyWu/live-photo/internal/livephoto"
)

// registerSplit registers both segments of a 64-byte photo followed by a
// 16-byte video.
func registerSplit(t *testing.T, r *handle.Registry) string {
	t.Helper()
	buf := append(make([]byte, 64), 0, 0, 0, 16, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 'm', 'o', 'o', 'v')
	res, err := livephoto.Split(livephoto.NewSourceAsset(buf))
	require.NoError(t, err)

	group, _ := r.Register(nil, res.Photo, res.Video)
	return group
}

func TestHandleCollector(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	r := handle.NewRegistry(time.Minute, time.Second)
	c := NewHandleCollector(r)

	// no open handles: only the unlabelled series
	require.Equal(4, testutil.CollectAndCount(c))

	group := registerSplit(t, r)
	require.Equal(6, testutil.CollectAndCount(c))
	require.Equal(2, testutil.CollectAndCount(c, "livephoto_handles_open"))

	expected := `
# HELP livephoto_handle_groups_open Extractions with at least one open handle.
# TYPE livephoto_handle_groups_open gauge
livephoto_handle_groups_open 1
# HELP livephoto_handles_open Segment handles currently open, by MIME type.
# TYPE livephoto_handles_open gauge
livephoto_handles_open{mime="image/jpeg"} 1
livephoto_handles_open{mime="video/mp4"} 1
# HELP livephoto_handles_open_bytes Bytes referenced by open segment handles.
# TYPE livephoto_handles_open_bytes gauge
livephoto_handles_open_bytes 80
`
	require.NoError(testutil.CollectAndCompare(c, strings.NewReader(expected),
		"livephoto_handle_groups_open", "livephoto_handles_open", "livephoto_handles_open_bytes"))

	require.Equal(2, r.ReleaseAll(group))
	require.Equal(4, testutil.CollectAndCount(c))

	expected = `
# HELP livephoto_handles_released_total Handles released explicitly.
# TYPE livephoto_handles_released_total counter
livephoto_handles_released_total 2
`
	require.NoError(testutil.CollectAndCompare(c, strings.NewReader(expected), "livephoto_handles_released_total"))
}

func TestHandlerServesRegistry(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m := New(reg)
	r := handle.NewRegistry(time.Minute, time.Second)
	reg.MustRegister(NewHandleCollector(r))

	registerSplit(t, r)
	m.Extractions.WithLabelValues("ok").Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.Contains(string(body), `livephoto_extract_total{outcome="ok"} 1`)
	require.Contains(string(body), "livephoto_extract_in_flight 0")
	require.Contains(string(body), "livephoto_handles_open_bytes 80")
}

func TestNewServerAddr(t *testing.T) {
	t.Parallel()
	s := NewServer(9480, prometheus.NewRegistry())
	require.Equal(t, ":9480", s.Addr())
}
