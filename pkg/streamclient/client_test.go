package streamclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialTestServer(t *testing.T, handler func(conn *websocket.Conn)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := NewClient(wsURL)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSendChatDeliversFramedPacket(t *testing.T) {
	received := make(chan []byte, 1)
	c := dialTestServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- data
		}
	})

	require.NoError(t, c.SendChat("hello"))

	select {
	case data := <-received:
		require.Equal(t, PacketIDChatMessage, data[0])
		require.Equal(t, "hello", strings.TrimRight(string(data[1:]), "\x00"))
	case <-time.After(2 * time.Second):
		t.Fatal("server never received chat packet")
	}
}

func TestProcessPacketsDispatchesMonoTypeChunk(t *testing.T) {
	c := dialTestServer(t, func(conn *websocket.Conn) {
		packet := make([]byte, 1+4*3+1)
		packet[0] = PacketIDSendMonoTypeChunk
		packet[1+4*3] = 7
		conn.WriteMessage(websocket.BinaryMessage, packet)
	})

	gotChunk := make(chan VoxelType, 1)
	c.OnMonoChunk = func(x, y, z int32, voxelType VoxelType) {
		gotChunk <- voxelType
	}

	go c.ProcessPackets()

	select {
	case vt := <-gotChunk:
		require.Equal(t, VoxelType(7), vt)
	case <-time.After(2 * time.Second):
		t.Fatal("client never dispatched mono type chunk packet")
	}
}

func TestSendVoxelBulkEditWithNoUpdatesIsANoop(t *testing.T) {
	c := dialTestServer(t, func(conn *websocket.Conn) {})
	require.NoError(t, c.SendVoxelBulkEdit(nil))
}
