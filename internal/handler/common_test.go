package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fest-ticketing/internal/handler"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	InvalidJSON = `{"invalid": json}`

	adminIdentity = model.Identity{UserID: uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"), IsAdmin: true}
	userIdentity  = model.Identity{UserID: uuid.MustParse("b1ffcd88-8d1a-4de7-aa5c-5aa8ac270b22")}
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type testServices struct {
	auth         *mocks.AuthServiceMock
	events       *mocks.EventServiceMock
	registration *mocks.RegistrationServiceMock
	stats        *mocks.StatsServiceMock
}

func setupTestRouter(t *testing.T) (*gin.Engine, *testServices) {
	gin.SetMode(gin.TestMode)
	s := &testServices{
		auth:         mocks.NewAuthServiceMock(t),
		events:       mocks.NewEventServiceMock(t),
		registration: mocks.NewRegistrationServiceMock(t),
		stats:        mocks.NewStatsServiceMock(t),
	}
	// 並非每個測試都會驗證 token，因此用 Maybe
	s.auth.On("VerifyToken", mock.Anything, adminToken).Return(adminIdentity, nil).Maybe()
	s.auth.On("VerifyToken", mock.Anything, userToken).Return(userIdentity, nil).Maybe()

	router := handler.NewRouter(handler.Services{
		Auth:         s.auth,
		Events:       s.events,
		Registration: s.registration,
		Stats:        s.stats,
	}, nil)
	return router, s
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if s, ok := data.(string); ok {
		return bytes.NewBufferString(s)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body and an optional bearer token
func createJSONHTTPRequest(method, url string, data interface{}, token string) *http.Request {
	var req *http.Request
	if data == nil {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, createJSONRequest(data))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error, body.Code
}
