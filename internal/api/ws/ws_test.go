package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
)

func received(c *client) []Message {
	var out []Message
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Message
	}
	return out
}

func TestWatchPublishesEventLog(t *testing.T) {
	d := dispatch.New()
	f, err := frame.New("main", d, loader.NewStatic(map[string]any{"doc://home": "Home"}))
	require.NoError(t, err)

	hub := NewHub(nil, nil)
	hub.now = func() time.Time { return time.Unix(42, 0) }
	cl := hub.subscribe("")
	hub.Watch(f)

	require.NoError(t, f.Navigate("doc://home#intro"))
	require.NoError(t, d.Drain(context.Background()))
	require.NoError(t, f.Navigate("doc://home#usage"))
	require.NoError(t, f.Navigate("doc://missing"))
	require.NoError(t, d.Drain(context.Background()))

	msgs := received(cl)
	assert.Equal(t, []string{
		"Navigating: [New] doc://home#intro",
		"Navigated: [New] doc://home#intro",
		"FragmentNavigation: intro",
		"FragmentNavigation: usage",
		"Navigating: [New] doc://missing",
		"NavigationFailed: " + loader.ErrNotFound.Error() + ": doc://missing",
	}, texts(msgs))

	require.NotEmpty(t, msgs)
	assert.Equal(t, TypeNavigating, msgs[0].Type)
	assert.Equal(t, f.ID().String(), msgs[0].Frame)
	assert.Equal(t, int64(42), msgs[0].Timestamp)
	assert.Equal(t, TypeNavigationFailed, msgs[len(msgs)-1].Type)
}

func TestUnwatchStopsPublishing(t *testing.T) {
	d := dispatch.New()
	f, err := frame.New("main", d, loader.NewStatic(map[string]any{"doc://home": "Home"}))
	require.NoError(t, err)

	hub := NewHub(nil, nil)
	cl := hub.subscribe("")
	unwatch := hub.Watch(f)
	unwatch()

	require.NoError(t, f.Navigate("doc://home#intro"))
	require.NoError(t, f.Navigate("doc://missing"))
	require.NoError(t, d.Drain(context.Background()))
	assert.Empty(t, received(cl))
}

func TestPublishFiltersByFrame(t *testing.T) {
	hub := NewHub(nil, nil)
	all := hub.subscribe("")
	onlyA := hub.subscribe("a")

	hub.Publish(TypeNavigated, "a", "Navigated: [New] doc://a")
	hub.Publish(TypeNavigated, "b", "Navigated: [New] doc://b")

	assert.Len(t, received(all), 2)
	got := received(onlyA)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Frame)
}

func TestSlowClientLosesMessages(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.buffer = 2
	cl := hub.subscribe("")

	for i := 0; i < 5; i++ {
		hub.Publish(TypeNavigated, "a", "msg")
	}
	assert.Len(t, received(cl), 2)
}

func TestUnsubscribe(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	hub := NewHub(metrics, nil)

	cl := hub.subscribe("")
	assert.Equal(t, 1, hub.Clients())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnections))

	hub.unsubscribe(cl)
	hub.unsubscribe(cl)
	assert.Zero(t, hub.Clients())
	assert.Zero(t, testutil.ToFloat64(metrics.WSConnections))

	_, open := <-cl.send
	assert.False(t, open)
	assert.False(t, hub.deliver(cl, Message{Type: TypePong}))
}

func TestHandleConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil)
	router := gin.New()
	router.GET("/stream", NewHandler(hub).HandleConnection)

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		t.Helper()
		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, TypeSystem, read().Type)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	hub.Publish(TypeNavigating, "frm_1", "Navigating: [New] doc://home")
	msg := read()
	assert.Equal(t, TypeNavigating, msg.Type)
	assert.Equal(t, "Navigating: [New] doc://home", msg.Message)

	require.NoError(t, conn.WriteJSON(inbound{Type: "ping"}))
	assert.Equal(t, TypePong, read().Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, TypeError, read().Type)

	require.NoError(t, conn.WriteJSON(inbound{Type: "generate"}))
	assert.Equal(t, "unknown message type", read().Message)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, time.Millisecond)
}
