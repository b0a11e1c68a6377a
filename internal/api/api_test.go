package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/schedule"
	"github.com/stwalsh4118/lineup/internal/testutil"
	"github.com/stwalsh4118/lineup/internal/timeline"
)

// setupTestRouter creates a test router with every API route over a fresh database
func setupTestRouter(t *testing.T) (*gin.Engine, *testutil.Fixtures) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := testutil.NewFixtures(t)
	store := catalog.NewStore(f.Repos)
	helpers := materialize.New(store)
	gen := generator.New(f.DB, store, helpers, config.DefaultGeneratorConfig())

	router := gin.New()
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, f.DB, catalog.NewBreaker(3, 0))
	SetupChannelRoutes(apiGroup, channel.NewChannelService(f.Repos, nil), timeline.NewTimelineService(gen, store))
	SetupScheduleRoutes(apiGroup,
		channel.NewScheduleService(f.DB, gen.Locks(), nil),
		schedule.NewMaterializer(store, helpers),
		gen)

	return router, f
}

// doJSON performs a request with an optional JSON body
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
