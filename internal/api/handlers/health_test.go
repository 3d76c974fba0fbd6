package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/api/handlers"
	"github.com/lingopal/conversation-service/internal/mocks"
	"github.com/lingopal/conversation-service/internal/services/registry"
	"github.com/lingopal/conversation-service/internal/testutils"
)

func TestHealthHandler_Health_AllHealthy(t *testing.T) {
	// Setup
	mockCache := &mocks.MockCacheClient{}
	mockDocDB := mocks.NewMockDocDBClient()

	mockCache.On("Ping", mock.Anything).Return(nil)
	mockDocDB.On("Ping", mock.Anything).Return(nil)

	handler := handlers.NewHealthHandler(mockCache, mockDocDB, registry.New())

	router := testutils.SetupTestRouter()
	router.GET("/health", handler.Health)

	// Execute
	w := testutils.PerformRequest(router, "GET", "/health", nil, nil)

	// Assert
	testutils.AssertStatusCode(t, http.StatusOK, w)

	var response dto.HealthResponse
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "healthy", response.Components["cache"])
	assert.Equal(t, "healthy", response.Components["docdb"])
	assert.Equal(t, 0, response.LiveConnections)

	mockCache.AssertExpectations(t)
	mockDocDB.AssertExpectations(t)
}

func TestHealthHandler_Health_CacheUnhealthy(t *testing.T) {
	// Setup
	mockCache := &mocks.MockCacheClient{}
	mockDocDB := mocks.NewMockDocDBClient()

	mockCache.On("Ping", mock.Anything).Return(assert.AnError)
	mockDocDB.On("Ping", mock.Anything).Return(nil)

	handler := handlers.NewHealthHandler(mockCache, mockDocDB, nil)

	router := testutils.SetupTestRouter()
	router.GET("/health", handler.Health)

	// Execute
	w := testutils.PerformRequest(router, "GET", "/health", nil, nil)

	// Assert
	testutils.AssertStatusCode(t, http.StatusServiceUnavailable, w)

	var response dto.HealthResponse
	testutils.ParseJSONResponse(t, w, &response)

	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, "unhealthy", response.Components["cache"])
	assert.Equal(t, "healthy", response.Components["docdb"])
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		cacheErr   error
		docdbErr   error
		wantStatus int
		wantReason string
	}{
		{name: "ready", wantStatus: http.StatusOK},
		{name: "cache down", cacheErr: assert.AnError, wantStatus: http.StatusServiceUnavailable, wantReason: "cache unavailable"},
		{name: "docdb down", docdbErr: assert.AnError, wantStatus: http.StatusServiceUnavailable, wantReason: "docdb unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockCache := &mocks.MockCacheClient{}
			mockDocDB := mocks.NewMockDocDBClient()
			mockCache.On("Ping", mock.Anything).Return(tt.cacheErr)
			mockDocDB.On("Ping", mock.Anything).Return(tt.docdbErr)

			handler := handlers.NewHealthHandler(mockCache, mockDocDB, nil)
			router := testutils.SetupTestRouter()
			router.GET("/ready", handler.Ready)

			// Execute
			w := testutils.PerformRequest(router, "GET", "/ready", nil, nil)

			// Assert
			testutils.AssertStatusCode(t, tt.wantStatus, w)

			var response map[string]string
			testutils.ParseJSONResponse(t, w, &response)
			assert.Equal(t, tt.wantReason, response["reason"])
		})
	}
}

func TestHealthHandler_Live(t *testing.T) {
	handler := handlers.NewHealthHandler(&mocks.MockCacheClient{}, mocks.NewMockDocDBClient(), nil)
	router := testutils.SetupTestRouter()
	router.GET("/live", handler.Live)

	w := testutils.PerformRequest(router, "GET", "/live", nil, nil)

	testutils.AssertStatusCode(t, http.StatusOK, w)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
