package server

import (
	"net"
	"testing"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/cashshop"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/chat"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/party"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/persist"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/session"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/warp"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyResolver struct{}

func (emptyResolver) MapServerPeer(mapName string) (wire.PeerInfo, bool) {
	return wire.PeerInfo{}, false
}

type noopSender struct{}

func (noopSender) SendMessage(connID string, msgType wire.MessageType, payload any) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	store.PutUser(&database.UserData{UserID: "user-1", AccessToken: "secret", Cash: 500})
	require.NoError(t, store.SaveCharacter(&database.CharacterData{
		ID:      "char-1",
		UserID:  "user-1",
		Name:    "Tester",
		MapName: "Town",
	}))

	manager := world.NewManager("Town", store)
	sessions := session.NewRegistry()
	saves := persist.NewCoordinator(store, store, "Town", time.Hour, manager.CharacterSnapshots, manager.BuildingSnapshots)
	chatLink := chat.NewLink()
	parties := party.NewReplicator(store, chatLink, manager, 8)
	warps := warp.NewCoordinator(manager, sessions, saves, emptyResolver{}, noopSender{})
	items, packages := cashshop.DefaultCatalog()
	cashShop := cashshop.NewHandler(store, items, packages)

	return NewServer(store, manager, sessions, saves, parties, warps, cashShop, chatLink), store
}

func writeFrame(t *testing.T, conn net.Conn, msgType wire.MessageType, payload any) {
	t.Helper()
	data, err := wire.EncodeFrame(msgType, payload)
	require.NoError(t, err)
	_, err = conn.Write(data)
	require.NoError(t, err)
}

func readFrame(t *testing.T, conn net.Conn) *wire.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	frame, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	return frame
}

func TestAuthAndDisconnect(t *testing.T) {
	server, store := newTestServer(t)
	client, serverConn := net.Pipe()
	defer client.Close()

	handler := &ConnectionHandler{server: server, conn: serverConn, connID: "conn-test-1"}
	done := make(chan struct{})
	go func() {
		handler.handleConnection()
		close(done)
	}()

	writeFrame(t, client, wire.AUTH, wire.AuthPayload{UserID: "user-1", AccessToken: "secret", CharacterID: "char-1"})

	frame := readFrame(t, client)
	require.Equal(t, wire.AUTHACK, frame.Type)
	ack, err := wire.DecodePayload[wire.AuthAckPayload](frame)
	require.NoError(t, err)
	assert.Equal(t, wire.AckSuccess, ack.ResponseCode)
	assert.Equal(t, "char-1", ack.CharacterID)

	_, ok := server.sessions.Get("conn-test-1")
	assert.True(t, ok)
	character, ok := server.world.GetCharacterByConn("conn-test-1")
	require.True(t, ok)
	character.AddGold(77)

	writeFrame(t, client, wire.DISCONNECT, struct{}{})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after DISCONNECT")
	}

	// 断线时角色落盘，会话与实体被清理
	_, ok = server.sessions.Get("conn-test-1")
	assert.False(t, ok)
	_, ok = server.world.GetCharacterByConn("conn-test-1")
	assert.False(t, ok)
	saved, err := store.GetCharacter("", "char-1")
	require.NoError(t, err)
	assert.Equal(t, 77, saved.Gold)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	server, _ := newTestServer(t)
	client, serverConn := net.Pipe()
	defer client.Close()

	handler := &ConnectionHandler{server: server, conn: serverConn, connID: "conn-test-2"}
	done := make(chan struct{})
	go func() {
		handler.handleConnection()
		close(done)
	}()

	writeFrame(t, client, wire.AUTH, wire.AuthPayload{UserID: "user-1", AccessToken: "wrong", CharacterID: "char-1"})

	frame := readFrame(t, client)
	require.Equal(t, wire.AUTHACK, frame.Type)
	ack, err := wire.DecodePayload[wire.AuthAckPayload](frame)
	require.NoError(t, err)
	assert.Equal(t, wire.AckError, ack.ResponseCode)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after rejected auth")
	}
	assert.Equal(t, 0, server.sessions.Count())
}

func TestAuthRequiredBeforeOtherFrames(t *testing.T) {
	server, _ := newTestServer(t)
	client, serverConn := net.Pipe()
	defer client.Close()

	handler := &ConnectionHandler{server: server, conn: serverConn, connID: "conn-test-3"}
	done := make(chan struct{})
	go func() {
		handler.handleConnection()
		close(done)
	}()

	writeFrame(t, client, wire.CHAT, wire.ChatPayload{Channel: "global", Message: "hi"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit on unauthenticated frame")
	}
	assert.Equal(t, 0, server.sessions.Count())
}

func TestCashShopInfoOverConnection(t *testing.T) {
	server, _ := newTestServer(t)
	client, serverConn := net.Pipe()
	defer client.Close()

	handler := &ConnectionHandler{server: server, conn: serverConn, connID: "conn-test-4"}
	go handler.handleConnection()

	writeFrame(t, client, wire.AUTH, wire.AuthPayload{UserID: "user-1", AccessToken: "secret", CharacterID: "char-1"})
	require.Equal(t, wire.AUTHACK, readFrame(t, client).Type)

	writeFrame(t, client, wire.CASHSHOPINFO, wire.CashShopInfoRequest{AckID: 9})
	frame := readFrame(t, client)
	require.Equal(t, wire.CASHSHOPINFO, frame.Type)
	response, err := wire.DecodePayload[wire.CashShopInfoResponse](frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), response.AckID)
	assert.Equal(t, wire.AckSuccess, response.ResponseCode)
	assert.Equal(t, 500, response.Cash)

	writeFrame(t, client, wire.DISCONNECT, struct{}{})
}
