// Package chat 维护与聊天服务器的客户端连接
// 未连通时所有广播降级为仅本地生效
package chat

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/connection"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
)

// PartyEventHandler 处理聊天服务器推送的队伍同步事件
type PartyEventHandler interface {
	OnUpdatePartyMember(payload wire.PartyMemberPayload)
	OnUpdateParty(payload wire.PartyPayload)
}

type Link struct {
	mu           sync.Mutex
	conn         net.Conn
	connected    bool
	partyHandler PartyEventHandler
	chatHandler  func(payload wire.ChatPayload)
	onConnected  func()
}

func NewLink() *Link {
	return &Link{}
}

func (l *Link) SetPartyHandler(handler PartyEventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partyHandler = handler
}

func (l *Link) SetChatHandler(handler func(payload wire.ChatPayload)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chatHandler = handler
}

func (l *Link) SetOnConnected(handler func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onConnected = handler
}

func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Connect 连接聊天服务器并上报本服身份
func (l *Link) Connect(peer wire.PeerInfo, self wire.PeerInfo) error {
	l.mu.Lock()
	if l.connected {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	address := net.JoinHostPort(peer.Address, strconv.Itoa(peer.Port))
	conn, err := net.DialTimeout("tcp", address, 15*time.Second)
	if err != nil {
		return fmt.Errorf("fail to connect to chat server %s: %w", address, err)
	}

	data, err := wire.EncodeFrame(wire.REGISTERAPPSERVER, wire.RegisterAppServerPayload{PeerInfo: self})
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := connection.Send(conn, data, "chat"); err != nil {
		_ = conn.Close()
		return err
	}

	l.mu.Lock()
	l.conn = conn
	l.connected = true
	onConnected := l.onConnected
	l.mu.Unlock()

	logger.InfoF("Connected to chat server %s", address)
	go l.readLoop(conn)
	if onConnected != nil {
		onConnected()
	}
	return nil
}

func (l *Link) StopClient() {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.connected = false
	l.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (l *Link) readLoop(conn net.Conn) {
	defer l.StopClient()
	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			connection.HandleReadError("chat", err)
			return
		}

		switch frame.Type {
		case wire.CHAT:
			payload, err := wire.DecodePayload[wire.ChatPayload](frame)
			if err != nil {
				logger.ErrorF("[chat] Fail to decode chat message, details: %v", err)
				continue
			}
			l.mu.Lock()
			handler := l.chatHandler
			l.mu.Unlock()
			if handler != nil {
				handler(*payload)
			}
		case wire.UPDATEPARTYMEMBER:
			payload, err := wire.DecodePayload[wire.PartyMemberPayload](frame)
			if err != nil {
				logger.ErrorF("[chat] Fail to decode party member update, details: %v", err)
				continue
			}
			l.mu.Lock()
			handler := l.partyHandler
			l.mu.Unlock()
			if handler != nil {
				handler.OnUpdatePartyMember(*payload)
			}
		case wire.UPDATEPARTY:
			payload, err := wire.DecodePayload[wire.PartyPayload](frame)
			if err != nil {
				logger.ErrorF("[chat] Fail to decode party update, details: %v", err)
				continue
			}
			l.mu.Lock()
			handler := l.partyHandler
			l.mu.Unlock()
			if handler != nil {
				handler.OnUpdateParty(*payload)
			}
		default:
			logger.WarnF("[chat] %s package has not been supported", frame.Type.String())
		}
	}
}

func (l *Link) send(msgType wire.MessageType, payload any) error {
	l.mu.Lock()
	conn := l.conn
	connected := l.connected
	l.mu.Unlock()
	if !connected || conn == nil {
		return nil
	}
	data, err := wire.EncodeFrame(msgType, payload)
	if err != nil {
		return err
	}
	return connection.Send(conn, data, "chat")
}

// EnterChat 转发玩家聊天消息到聊天服务器
func (l *Link) EnterChat(channel string, message string, sender string, receiver string) error {
	return l.send(wire.CHAT, wire.ChatPayload{
		Channel:  channel,
		Message:  message,
		Sender:   sender,
		Receiver: receiver,
	})
}

func (l *Link) UpdateMapUser(payload wire.MapUserPayload) error {
	return l.send(wire.UPDATEMAPUSER, payload)
}

func (l *Link) UpdatePartyMemberAdd(partyID int, member database.PartyMember) error {
	return l.send(wire.UPDATEPARTYMEMBER, wire.PartyMemberPayload{
		Type:          wire.UpdateAdd,
		PartyID:       partyID,
		CharacterID:   member.CharacterID,
		CharacterName: member.CharacterName,
		DataID:        member.DataID,
		Level:         member.Level,
	})
}

func (l *Link) UpdatePartyMemberRemove(partyID int, characterID string) error {
	return l.send(wire.UPDATEPARTYMEMBER, wire.PartyMemberPayload{
		Type:        wire.UpdateRemove,
		PartyID:     partyID,
		CharacterID: characterID,
	})
}

func (l *Link) UpdatePartyMemberOnline(partyID int, member database.PartyMember) error {
	return l.send(wire.UPDATEPARTYMEMBER, wire.PartyMemberPayload{
		Type:          wire.UpdateOnline,
		PartyID:       partyID,
		CharacterID:   member.CharacterID,
		CharacterName: member.CharacterName,
		DataID:        member.DataID,
		Level:         member.Level,
		CurrentHp:     member.CurrentHp,
		MaxHp:         member.MaxHp,
		CurrentMp:     member.CurrentMp,
		MaxMp:         member.MaxMp,
	})
}

func (l *Link) UpdatePartySetting(partyID int, shareExp bool, shareItem bool) error {
	return l.send(wire.UPDATEPARTY, wire.PartyPayload{
		Type:      wire.UpdateSetting,
		PartyID:   partyID,
		ShareExp:  shareExp,
		ShareItem: shareItem,
	})
}

func (l *Link) UpdatePartyTerminate(partyID int) error {
	return l.send(wire.UPDATEPARTY, wire.PartyPayload{
		Type:    wire.UpdateTerminate,
		PartyID: partyID,
	})
}
