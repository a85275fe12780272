package session

import (
	"testing"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	payloads []wire.MapUserPayload
}

func (n *recordingNotifier) UpdateMapUser(payload wire.MapUserPayload) error {
	n.payloads = append(n.payloads, payload)
	return nil
}

func TestRegisterDuplicateConnection(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register("conn-1", "u1", "c1", "Alpha"))
	err := registry.Register("conn-1", "u2", "c2", "Beta")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	s, ok := registry.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "c1", s.CharacterID)
}

func TestUnregisterIdempotent(t *testing.T) {
	notifier := &recordingNotifier{}
	registry := NewRegistry(notifier)

	require.NoError(t, registry.Register("conn-1", "u1", "c1", "Alpha"))
	registry.Unregister("conn-1")
	registry.Unregister("conn-1")

	assert.Equal(t, 0, registry.Count())
	// 一次Add一次Remove，重复注销不再通知
	require.Len(t, notifier.payloads, 2)
	assert.Equal(t, wire.UpdateAdd, notifier.payloads[0].Type)
	assert.Equal(t, wire.UpdateRemove, notifier.payloads[1].Type)
}

func TestBroadcastAll(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("conn-1", "u1", "c1", "Alpha"))
	require.NoError(t, registry.Register("conn-2", "u2", "c2", "Beta"))

	notifier := &recordingNotifier{}
	registry.BroadcastAll(notifier)

	assert.Len(t, notifier.payloads, 2)
	for _, payload := range notifier.payloads {
		assert.Equal(t, wire.UpdateAdd, payload.Type)
	}
}
