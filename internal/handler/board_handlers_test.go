package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/internal/service"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

type styleServiceMock struct {
	color    string
	err      error
	lastName string
}

func (m *styleServiceMock) Catalog() models.StyleCatalog {
	return models.StyleCatalog{Predefined: []string{"Bollywood", models.StyleOther}}
}

func (m *styleServiceMock) AssignCustomColor(ctx context.Context, name string) (string, error) {
	m.lastName = name
	return m.color, m.err
}

type suggestionSenderStub struct {
	sent    bool
	message string
}

func (s *suggestionSenderStub) SendSuggestion(ctx context.Context, message string) bool {
	s.message = message
	return s.sent
}

type exportServiceMock struct {
	file  *service.ExportFile
	err   error
	query dto.ExportQuery
}

func (m *exportServiceMock) Export(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error) {
	m.query = query
	return m.file, m.err
}

type readinessStub struct {
	ready, remote bool
}

func (r readinessStub) Ready() bool         { return r.ready }
func (r readinessStub) RemoteEnabled() bool { return r.remote }

func TestStyleHandlerCatalog(t *testing.T) {
	h := NewStyleHandler(&styleServiceMock{})
	c, w := newTestContext(http.MethodGet, "/api/v1/styles", nil)
	h.Catalog(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"predefined":["Bollywood","Other"]`)
}

func TestStyleHandlerAssignCustom(t *testing.T) {
	styles := &styleServiceMock{color: "#FF6B6B"}
	h := NewStyleHandler(styles)
	c, w := newTestContext(http.MethodPost, "/api/v1/styles/custom", []byte(`{"name":"Kuchipudi"}`))
	h.AssignCustom(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kuchipudi", styles.lastName)
	assert.Contains(t, w.Body.String(), `"color":"#FF6B6B"`)

	c, w = newTestContext(http.MethodPost, "/api/v1/styles/custom", []byte(`{}`))
	h.AssignCustom(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestionHandler(t *testing.T) {
	sender := &suggestionSenderStub{sent: true}
	h := NewSuggestionHandler(sender)

	c, w := newTestContext(http.MethodPost, "/api/v1/suggestions", []byte(`{"message":"  More Garba  "}`))
	h.Send(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "More Garba", sender.message)
	assert.Contains(t, w.Body.String(), suggestionSentNotice)

	sender.sent = false
	c, w = newTestContext(http.MethodPost, "/api/v1/suggestions", []byte(`{"message":"again"}`))
	h.Send(c)
	assert.Contains(t, w.Body.String(), suggestionReceivedNotice)

	c, w = newTestContext(http.MethodPost, "/api/v1/suggestions", []byte(`{"message":"   "}`))
	h.Send(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	exports := &exportServiceMock{file: &service.ExportFile{Filename: "dance-classes-nyc-2024-06.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Date\n")}}
	h := NewExportHandler(exports)

	c, w := newTestContext(http.MethodGet, "/api/v1/export?region=nyc&month=2024-06&format=csv", nil)
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportQuery{Region: "nyc", Month: "2024-06", Format: "csv"}, exports.query)
	assert.Equal(t, `attachment; filename="dance-classes-nyc-2024-06.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date\n", w.Body.String())

	exports.err = appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	c, w = newTestContext(http.MethodGet, "/api/v1/export?format=xlsx", nil)
	h.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, readinessStub{})
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	h = NewMetricsHandler(nil, readinessStub{ready: true, remote: true})
	c, w = newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"shared"`)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordSubmission("addition")
	h := NewMetricsHandler(metrics, nil)

	c, w := newTestContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board_submissions_total")

	c, w = newTestContext(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(nil, nil).Prometheus(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsRouteUnavailableWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", NewMetricsHandler(nil, nil).Prometheus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestEventHandlerStreamsBoardEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broker := service.NewEventBroker(nil)
	router := gin.New()
	router.GET("/api/v1/events", NewEventHandler(broker, nil, nil).Stream)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/events", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	broker.Publish(models.BoardEvent{Type: models.BoardEventClassesChanged, Reason: "remote_change", Count: 3})

	_, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	var event models.BoardEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, models.BoardEventClassesChanged, event.Type)
	assert.Equal(t, 3, event.Count)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))
	require.Eventually(t, func() bool { return broker.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginHosts(t *testing.T) {
	assert.Equal(t, []string{"board.example", "localhost:5173"}, originHosts([]string{"https://board.example", "http://localhost:5173"}))
	assert.Nil(t, originHosts([]string{"*"}))
	assert.Nil(t, originHosts(nil))
}
