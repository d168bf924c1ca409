package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func visionServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestVisionClassifier(t *testing.T, srv *httptest.Server) *VisionClassifier {
	t.Helper()
	c, err := NewVisionClassifier(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestVisionClassifier_ParsesSafeSearch(t *testing.T) {
	srv := visionServer(t, `{"responses":[{"safeSearchAnnotation":{"adult":"VERY_LIKELY","violence":"UNLIKELY","racy":"POSSIBLE"}}]}`)
	c := newTestVisionClassifier(t, srv)

	verdict, err := c.Classify(context.Background(), "gs://bucket/a.png")
	require.NoError(t, err)
	assert.Equal(t, VeryLikely, verdict.Adult)
	assert.Equal(t, Unlikely, verdict.Violence)
	assert.Equal(t, Possible, verdict.Racy)
	assert.True(t, verdict.Explicit())
}

func TestVisionClassifier_PerImageError(t *testing.T) {
	srv := visionServer(t, `{"responses":[{"error":{"code":3,"message":"bad image"}}]}`)
	c := newTestVisionClassifier(t, srv)

	_, err := c.Classify(context.Background(), "gs://bucket/a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad image")
}

func TestVisionClassifier_Labels(t *testing.T) {
	srv := visionServer(t, `{"responses":[{"labelAnnotations":[{"description":"Watercolor paint","score":0.93},{"description":"Sky","score":0.81}]}]}`)
	c := newTestVisionClassifier(t, srv)

	labels, err := c.Labels(context.Background(), "gs://bucket/a.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"Watercolor paint", "Sky"}, labels)
}

func TestParseLikelihood(t *testing.T) {
	t.Parallel()
	assert.Equal(t, VeryLikely, parseLikelihood("VERY_LIKELY"))
	assert.Equal(t, Likely, parseLikelihood("LIKELY"))
	assert.Equal(t, LikelihoodUnknown, parseLikelihood("UNKNOWN"))
	assert.Equal(t, LikelihoodUnknown, parseLikelihood(""))
}
