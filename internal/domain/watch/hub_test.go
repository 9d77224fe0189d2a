package watch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/domain/files"
	"filevault/internal/pkg/jwt"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	j := jwt.New("watch-test-secret", time.Hour)
	r := gin.New()
	NewHandler(hub, j, nil).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, j
}

func dial(t *testing.T, srv *httptest.Server, j *jwt.Service, tenant string) *websocket.Conn {
	t.Helper()
	token, err := j.GenerateToken(tenant, "watcher")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/files?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_DeliversOnlyToOwnTenant(t *testing.T) {
	srv, hub, j := newTestServer(t)
	a := dial(t, srv, j, "tenant-a")
	b := dial(t, srv, j, "tenant-b")
	require.Eventually(t, func() bool {
		return hub.Watchers("tenant-a") == 1 && hub.Watchers("tenant-b") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.FileChanged(context.Background(), files.Change{
		Tenant: "tenant-a", Action: files.ActionUploaded, Path: "docs/a.txt", Size: 5, At: time.Now().UTC(),
	})

	var ev Event
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, a.ReadJSON(&ev))
	assert.Equal(t, EventFileChanged, ev.Type)
	assert.Equal(t, files.ActionUploaded, ev.Action)
	assert.Equal(t, "docs/a.txt", ev.Path)
	assert.Equal(t, int64(5), ev.Size)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PathFilter(t *testing.T) {
	srv, hub, j := newTestServer(t)
	conn := dial(t, srv, j, "t")
	require.Eventually(t, func() bool { return hub.Watchers("t") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "watch", "path": "photos"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.tenants["t"] {
			return c.prefixes["photos"]
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hub.FileChanged(context.Background(), files.Change{Tenant: "t", Action: files.ActionTrashed, Path: "docs/x"})
	hub.FileChanged(context.Background(), files.Change{Tenant: "t", Action: files.ActionUploaded, Path: "photos/y.jpg"})

	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "photos/y.jpg", ev.Path)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	srv, hub, j := newTestServer(t)
	conn := dial(t, srv, j, "t")
	require.Eventually(t, func() bool { return hub.Watchers("t") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Watchers("t") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/files")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/files?token=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClientWants(t *testing.T) {
	c := &client{prefixes: map[string]bool{}}
	assert.True(t, c.wants("anything"))

	c.prefixes["docs"] = true
	assert.True(t, c.wants("docs"))
	assert.True(t, c.wants("docs/a.txt"))
	assert.False(t, c.wants("docsx/a.txt"))
	assert.False(t, c.wants("other"))
}
