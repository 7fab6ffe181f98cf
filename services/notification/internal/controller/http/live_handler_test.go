package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ma-siu/pkg/jwt"
	"ma-siu/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveServer(t *testing.T, source *fakeLiveSource) (*httptest.Server, *jwt.Service) {
	t.Helper()
	jwtService := jwt.NewService("test-secret")
	handler := NewLiveHandler(source, jwtService, logger.New())
	router := setupTestRouter()
	router.GET("/notifications/ws", handler.HandleWebSocket)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, jwtService
}

func wsURL(server *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/notifications/ws?token=" + token
}

func TestHandleWebSocket_ForwardsFeed(t *testing.T) {
	source := newFakeLiveSource()
	server, jwtService := newLiveServer(t, source)

	token, err := jwtService.GenerateToken("user-1", jwt.RoleUser)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case userID := <-source.ready:
		assert.Equal(t, "user-1", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("feed was never subscribed")
	}

	source.feed("user-1") <- []byte(`{"id":"n-1","title":"Hi"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	assert.JSONEq(t, `{"id":"n-1","title":"Hi"}`, string(payload))
}

func TestHandleWebSocket_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing token": "",
		"invalid token": "not-a-jwt",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			server, _ := newLiveServer(t, newFakeLiveSource())

			_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)

			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestHandleWebSocket_FeedUnavailable(t *testing.T) {
	source := newFakeLiveSource()
	source.err = errors.New("redis down")
	server, jwtService := newLiveServer(t, source)

	token, err := jwtService.GenerateToken("user-1", jwt.RoleUser)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
