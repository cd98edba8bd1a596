package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

func TestRecommendHandler_RecommendColdStart(t *testing.T) {
	c := newTestContainer(t)
	h := NewRecommendHandler(c, response.NewHandler(zap.NewNop()))
	seedCompletedResource(t, c, "a candidate resource for recommendation")
	seedCompletedResource(t, c, "another candidate resource")

	req := httptest.NewRequest(http.MethodGet, "/recommendations?limit=5", nil)
	rr := httptest.NewRecorder()
	h.Recommend(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.RecommendationsResponse
	decodeBody(t, rr, &out)
	assert.NotNil(t, out.Recommendations)
}

func TestRecommendHandler_RecommendRespectsMinQuality(t *testing.T) {
	c := newTestContainer(t)
	h := NewRecommendHandler(c, response.NewHandler(zap.NewNop()))
	seedCompletedResource(t, c, "a low effort stub")

	req := httptest.NewRequest(http.MethodGet, "/recommendations?min_quality=0.99", nil)
	rr := httptest.NewRecorder()
	h.Recommend(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out dto.RecommendationsResponse
	decodeBody(t, rr, &out)
	assert.Empty(t, out.Recommendations)
}
