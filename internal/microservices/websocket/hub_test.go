package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, hub *Hub, userID string) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/notifications/ws", func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}, WSHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_PushesToEveryStreamOfTheUser(t *testing.T) {
	hub := NewHub(nil)
	srv := streamServer(t, hub, "reader-1")

	a, b := dial(t, srv), dial(t, srv)
	defer a.Close()
	defer b.Close()
	require.Eventually(t, func() bool { return hub.Connected("reader-1") == 2 }, time.Second, 10*time.Millisecond)

	loanID := int64(7)
	ok := hub.Deliver(context.Background(), notify.Message{UserID: "reader-1", Type: "loan_overdue", LoanID: &loanID, Subject: "Overdue"})
	assert.True(t, ok)

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var got notify.Message
		require.NoError(t, jsoniter.Unmarshal(data, &got))
		assert.Equal(t, "loan_overdue", got.Type)
		assert.Equal(t, int64(7), *got.LoanID)
	}

	assert.False(t, hub.Deliver(context.Background(), notify.Message{UserID: "reader-2", Type: "loan_overdue"}))
	assert.False(t, hub.Deliver(context.Background(), notify.Message{Type: "loan_overdue"}))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := streamServer(t, hub, "reader-1")

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Connected("reader-1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connected("reader-1") == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, hub.Deliver(context.Background(), notify.Message{UserID: "reader-1", Type: "loan_due_soon"}))
}

func TestHub_SlowClientMissesMessages(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{UserID: "reader-1", send: make(chan []byte, 1), hub: hub}
	hub.Register(c)

	assert.True(t, hub.Deliver(context.Background(), notify.Message{UserID: "reader-1", Type: "a"}))
	assert.False(t, hub.Deliver(context.Background(), notify.Message{UserID: "reader-1", Type: "b"}))

	hub.Unregister(c)
	hub.Unregister(c)
	_, open := <-c.send
	assert.True(t, open, "buffered message is still readable")
	_, open = <-c.send
	assert.False(t, open)
}

func TestWSHandler_RequiresUser(t *testing.T) {
	srv := streamServer(t, NewHub(nil), "")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}
