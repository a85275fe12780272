package warp

import (
	"errors"
	"sync"
	"testing"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/session"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu      sync.Mutex
	saved   []*database.CharacterData
	failErr error
}

func (saver *recordingSaver) SaveCharacter(data *database.CharacterData) error {
	saver.mu.Lock()
	defer saver.mu.Unlock()
	if saver.failErr != nil {
		return saver.failErr
	}
	saver.saved = append(saver.saved, data)
	return nil
}

type staticResolver struct {
	peers map[string]wire.PeerInfo
}

func (resolver *staticResolver) MapServerPeer(mapName string) (wire.PeerInfo, bool) {
	peer, ok := resolver.peers[mapName]
	return peer, ok
}

type recordingSender struct {
	mu       sync.Mutex
	messages []wire.MessageType
	payloads []any
}

func (sender *recordingSender) SendMessage(connID string, msgType wire.MessageType, payload any) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.messages = append(sender.messages, msgType)
	sender.payloads = append(sender.payloads, payload)
	return nil
}

func newTestCoordinator(t *testing.T, saver *recordingSaver, sender *recordingSender) (*Coordinator, *world.Manager, *session.Registry, *world.PlayerCharacter) {
	t.Helper()
	store := database.NewMemoryStore()
	manager := world.NewManager("Town", store)
	sessions := session.NewRegistry()

	resolver := &staticResolver{peers: map[string]wire.PeerInfo{
		"Forest": {
			PeerType:   wire.PeerMapServer,
			Address:    "10.0.0.2",
			Port:       7002,
			ConnectKey: "forest-key",
			Extra:      "Forest",
		},
	}}

	character, err := manager.SpawnCharacter("conn-1", &database.CharacterData{
		ID:      "char-1",
		UserID:  "user-1",
		Name:    "Tester",
		MapName: "Town",
	})
	require.NoError(t, err)
	require.NoError(t, sessions.Register("conn-1", "user-1", "char-1", "Tester"))

	return NewCoordinator(manager, sessions, saver, resolver, sender), manager, sessions, character
}

func TestWarpToKnownMap(t *testing.T) {
	saver := &recordingSaver{}
	sender := &recordingSender{}
	coordinator, manager, sessions, character := newTestCoordinator(t, saver, sender)

	target := database.Vector3{X: 5, Y: 0, Z: -3}
	require.NoError(t, coordinator.Warp(character, "Forest", target))

	// 保存快照携带目标地图与坐标
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "Forest", saver.saved[0].MapName)
	assert.Equal(t, target, saver.saved[0].Position)

	_, ok := sessions.Get("conn-1")
	assert.False(t, ok)
	_, ok = manager.GetCharacterByConn("conn-1")
	assert.False(t, ok)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, wire.WARPNOTIFY, sender.messages[0])
	notify, ok := sender.payloads[0].(wire.WarpNotifyPayload)
	require.True(t, ok)
	assert.Equal(t, "Forest", notify.MapName)
	assert.Equal(t, "10.0.0.2", notify.Address)
	assert.Equal(t, 7002, notify.Port)
	assert.Equal(t, "forest-key", notify.ConnectKey)
}

func TestWarpToUnknownMap(t *testing.T) {
	saver := &recordingSaver{}
	sender := &recordingSender{}
	coordinator, manager, sessions, character := newTestCoordinator(t, saver, sender)

	err := coordinator.Warp(character, "Nowhere", database.Vector3{})
	assert.ErrorIs(t, err, ErrRouteUnresolved)

	assert.Empty(t, saver.saved)
	assert.Empty(t, sender.messages)
	_, ok := sessions.Get("conn-1")
	assert.True(t, ok)
	_, ok = manager.GetCharacterByConn("conn-1")
	assert.True(t, ok)
}

func TestWarpSameMapTeleports(t *testing.T) {
	saver := &recordingSaver{}
	sender := &recordingSender{}
	coordinator, manager, sessions, character := newTestCoordinator(t, saver, sender)

	target := database.Vector3{X: 1, Y: 2, Z: 3}
	require.NoError(t, coordinator.Warp(character, "Town", target))

	assert.Equal(t, target, character.Position())
	assert.Empty(t, saver.saved)
	assert.Empty(t, sender.messages)
	_, ok := sessions.Get("conn-1")
	assert.True(t, ok)
	_, ok = manager.GetCharacterByConn("conn-1")
	assert.True(t, ok)
}

func TestWarpFailedSaveKeepsCharacter(t *testing.T) {
	saveErr := errors.New("storage offline")
	saver := &recordingSaver{failErr: saveErr}
	sender := &recordingSender{}
	coordinator, manager, sessions, character := newTestCoordinator(t, saver, sender)

	err := coordinator.Warp(character, "Forest", database.Vector3{})
	assert.ErrorIs(t, err, saveErr)

	// 落盘失败时角色留在本服
	_, ok := sessions.Get("conn-1")
	assert.True(t, ok)
	_, ok = manager.GetCharacterByConn("conn-1")
	assert.True(t, ok)
	assert.Empty(t, sender.messages)
}
