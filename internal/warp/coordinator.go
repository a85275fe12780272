// Package warp 处理角色跨地图传送的交接流程
package warp

import (
	"errors"
	"fmt"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/connection"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/session"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
)

var ErrRouteUnresolved = errors.New("no map server registered for target map")

// PeerResolver 按地图名查询目标地图服务器
type PeerResolver interface {
	MapServerPeer(mapName string) (wire.PeerInfo, bool)
}

// CharacterSaver 传送前的落盘保障，保存成功后角色才允许离开本服
type CharacterSaver interface {
	SaveCharacter(data *database.CharacterData) error
}

type Coordinator struct {
	world    *world.Manager
	sessions *session.Registry
	saves    CharacterSaver
	peers    PeerResolver
	sender   connection.MessageSender
}

func NewCoordinator(
	worldManager *world.Manager,
	sessions *session.Registry,
	saves CharacterSaver,
	peers PeerResolver,
	sender connection.MessageSender,
) *Coordinator {
	return &Coordinator{
		world:    worldManager,
		sessions: sessions,
		saves:    saves,
		peers:    peers,
		sender:   sender,
	}
}

// Warp 将角色传送到目标地图
// 同地图传送直接改写坐标，跨地图传送先落盘再销毁实体并下发新服地址
// 落盘失败时角色留在本服，实体与会话均不变
func (c *Coordinator) Warp(character *world.PlayerCharacter, mapName string, position database.Vector3) error {
	if mapName == "" || mapName == c.world.MapName() {
		character.Teleport(position)
		logger.DebugF("Character %s teleported inside map %s", character.ID, c.world.MapName())
		return nil
	}

	peer, ok := c.peers.MapServerPeer(mapName)
	if !ok {
		logger.WarnF("Character %s requested warp to unknown map %s", character.ID, mapName)
		return ErrRouteUnresolved
	}

	snapshot := character.Snapshot()
	snapshot.MapName = mapName
	snapshot.Position = position

	if err := c.saves.SaveCharacter(snapshot); err != nil {
		return fmt.Errorf("fail to save character %s before warp: %w", character.ID, err)
	}

	c.sessions.Unregister(character.ConnID)
	c.world.DespawnCharacterByConn(character.ConnID)

	notify := wire.WarpNotifyPayload{
		MapName:    mapName,
		Address:    peer.Address,
		Port:       peer.Port,
		ConnectKey: peer.ConnectKey,
	}
	if err := c.sender.SendMessage(character.ConnID, wire.WARPNOTIFY, notify); err != nil {
		logger.ErrorF("Fail to notify character %s of warp target: %v", character.ID, err)
		return err
	}

	logger.InfoF("Character %s warped to map %s at %s:%d", character.ID, mapName, peer.Address, peer.Port)
	return nil
}
