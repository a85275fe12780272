package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/connection"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/warp"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
)

const readTimeout = 5 * time.Minute

type ConnectionHandler struct {
	server    *Server
	conn      net.Conn
	connID    string
	character *world.PlayerCharacter
}

func (c *ConnectionHandler) respond(msgType wire.MessageType, payload any) error {
	data, err := wire.EncodeFrame(msgType, payload)
	if err != nil {
		return err
	}
	return connection.Send(c.conn, data, c.connID)
}

// handleFirstFrame 处理认证帧
// 首帧必须是AUTH，验证失败直接断开连接
func (c *ConnectionHandler) handleFirstFrame() error {
	_ = c.conn.SetReadDeadline(time.Now().Add(time.Minute))
	frame, err := wire.ReadFrame(c.conn)
	if err != nil {
		logger.WarnF("[%s] Fail to read first frame, details: %v", c.connID, err)
		return err
	}

	if frame.Type != wire.AUTH {
		logger.ErrorF("[%s] Invalid first frame type, expected %s frame, but got %s frame", c.connID, wire.AUTH.String(), frame.Type.String())
		return fmt.Errorf("unexpected first frame %s", frame.Type)
	}

	auth, err := wire.DecodePayload[wire.AuthPayload](frame)
	if err != nil {
		logger.ErrorF("[%s] Fail to parse AUTH frame, details: %v", c.connID, err)
		return err
	}

	valid, err := c.server.repo.ValidateAccessToken(auth.UserID, auth.AccessToken)
	if err != nil {
		logger.ErrorF("[%s] Fail to validate access token for user %s, details: %v", c.connID, auth.UserID, err)
		return err
	}
	if !valid {
		logger.WarnF("[%s] Invalid access token for user %s", c.connID, auth.UserID)
		_ = c.respond(wire.AUTHACK, wire.AuthAckPayload{ResponseCode: wire.AckError})
		return errors.New("invalid access token")
	}

	data, err := c.server.repo.GetCharacter(auth.UserID, auth.CharacterID)
	if err != nil {
		logger.WarnF("[%s] Fail to load character %s for user %s, details: %v", c.connID, auth.CharacterID, auth.UserID, err)
		_ = c.respond(wire.AUTHACK, wire.AuthAckPayload{ResponseCode: wire.AckError})
		return err
	}

	connection.GetConnectionManager().AddConnection(c.connID, &connection.Connection{Conn: c.conn, ConnID: c.connID})

	character, err := c.server.world.SpawnCharacter(c.connID, data)
	if err != nil {
		logger.ErrorF("[%s] Fail to spawn character %s, details: %v", c.connID, data.ID, err)
		_ = c.respond(wire.AUTHACK, wire.AuthAckPayload{ResponseCode: wire.AckError})
		return err
	}

	if err := c.server.sessions.Register(c.connID, auth.UserID, data.ID, data.Name); err != nil {
		logger.ErrorF("[%s] Fail to register session for character %s, details: %v", c.connID, data.ID, err)
		c.server.world.DespawnCharacterByConn(c.connID)
		_ = c.respond(wire.AUTHACK, wire.AuthAckPayload{ResponseCode: wire.AckError})
		return err
	}

	if data.PartyID > 0 {
		if err := c.server.parties.EnsureLoaded(data.PartyID); err != nil {
			logger.WarnF("[%s] Fail to load party %d for character %s, details: %v", c.connID, data.PartyID, data.ID, err)
		}
	}

	c.character = character
	logger.InfoF("[%s] Character %s (%s) entered map %s", c.connID, data.Name, data.ID, c.server.world.MapName())
	return c.respond(wire.AUTHACK, wire.AuthAckPayload{ResponseCode: wire.AckSuccess, CharacterID: data.ID})
}

func (c *ConnectionHandler) handleChat(frame *wire.Frame) {
	payload, err := wire.DecodePayload[wire.ChatPayload](frame)
	if err != nil {
		logger.ErrorF("[%s] Fail to parse CHAT frame, details: %v", c.connID, err)
		return
	}
	if payload.Sender == "" {
		payload.Sender = c.character.Name
	}
	if err := c.server.chat.EnterChat(payload.Channel, payload.Message, payload.Sender, payload.Receiver); err != nil {
		logger.WarnF("[%s] Fail to relay chat message, details: %v", c.connID, err)
	}
}

// handleWarp 返回true表示角色已移交至其他地图服务器，连接应当关闭
func (c *ConnectionHandler) handleWarp(frame *wire.Frame) bool {
	payload, err := wire.DecodePayload[wire.WarpPayload](frame)
	if err != nil {
		logger.ErrorF("[%s] Fail to parse WARP frame, details: %v", c.connID, err)
		return false
	}

	position := database.Vector3{X: payload.Position.X, Y: payload.Position.Y, Z: payload.Position.Z}
	err = c.server.warps.Warp(c.character, payload.MapName, position)
	if errors.Is(err, warp.ErrRouteUnresolved) {
		return false
	}
	if err != nil {
		logger.ErrorF("[%s] Fail to warp character %s, details: %v", c.connID, c.character.ID, err)
		return false
	}

	return payload.MapName != "" && payload.MapName != c.server.world.MapName()
}

func (c *ConnectionHandler) handleFrame() {
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		frame, err := wire.ReadFrame(c.conn)
		if err != nil {
			connection.HandleReadError(c.connID, err)
			return
		}

		logger.DebugF("[%s] Receive %s frame, %d byte(s)", c.connID, frame.Type, len(frame.Payload))

		switch frame.Type {
		case wire.AUTH:
			logger.ErrorF("[%s] Duplicate AUTH frame", c.connID)
			return
		case wire.CHAT:
			c.handleChat(frame)
		case wire.WARP:
			if c.handleWarp(frame) {
				return
			}
		case wire.CASHSHOPINFO:
			request, err := wire.DecodePayload[wire.CashShopInfoRequest](frame)
			if err != nil {
				logger.ErrorF("[%s] Fail to parse CASHSHOPINFO frame, details: %v", c.connID, err)
				return
			}
			if err := c.respond(wire.CASHSHOPINFO, c.server.cashShop.Info(c.character, *request)); err != nil {
				return
			}
		case wire.CASHSHOPBUY:
			request, err := wire.DecodePayload[wire.CashShopBuyRequest](frame)
			if err != nil {
				logger.ErrorF("[%s] Fail to parse CASHSHOPBUY frame, details: %v", c.connID, err)
				return
			}
			if err := c.respond(wire.CASHSHOPBUY, c.server.cashShop.Buy(c.character, *request)); err != nil {
				return
			}
		case wire.CASHPACKAGEINFO:
			request, err := wire.DecodePayload[wire.CashShopInfoRequest](frame)
			if err != nil {
				logger.ErrorF("[%s] Fail to parse CASHPACKAGEINFO frame, details: %v", c.connID, err)
				return
			}
			if err := c.respond(wire.CASHPACKAGEINFO, c.server.cashShop.PackageInfo(c.character, *request)); err != nil {
				return
			}
		case wire.CASHPACKAGEBUY:
			request, err := wire.DecodePayload[wire.CashPackageBuyRequest](frame)
			if err != nil {
				logger.ErrorF("[%s] Fail to parse CASHPACKAGEBUY frame, details: %v", c.connID, err)
				return
			}
			if err := c.respond(wire.CASHPACKAGEBUY, c.server.cashShop.BuyPackage(c.character, *request)); err != nil {
				return
			}
		case wire.DISCONNECT:
			logger.InfoF("[%s] Client disconnect", c.connID)
			return
		default:
			logger.WarnF("[%s] %s frame has not been supported", c.connID, frame.Type.String())
			return
		}
	}
}

// cleanup 连接退出时的收尾
// 角色若仍驻留本服则先落盘再销毁，跨服传送后实体已不存在，直接跳过
func (c *ConnectionHandler) cleanup() {
	if character, ok := c.server.world.GetCharacterByConn(c.connID); ok {
		if err := c.server.saves.SaveCharacter(character.Snapshot()); err != nil {
			logger.ErrorF("[%s] Fail to save character %s on disconnect, details: %v", c.connID, character.ID, err)
		}
		c.server.sessions.Unregister(c.connID)
		c.server.world.DespawnCharacterByConn(c.connID)
	}
	connection.GetConnectionManager().RemoveConnection(c.connID)
}

func (c *ConnectionHandler) handleConnection() {
	defer func() {
		c.cleanup()
		logger.DebugF("[%s] Connection closed", c.connID)
		if err := c.conn.Close(); err != nil && !connection.IsNetClosedError(err) {
			logger.WarnF("[%s] Error occured while closing connection, details: %v", c.connID, err)
		}
	}()

	if err := c.handleFirstFrame(); err != nil {
		return
	}

	c.handleFrame()
}
