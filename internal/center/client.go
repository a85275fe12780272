// Package center 负责向中心服务器注册本服并接收对端服务器地址推送
package center

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/connection"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
)

type Client struct {
	self wire.PeerInfo

	mu           sync.Mutex
	conn         net.Conn
	connected    bool
	peers        map[string]wire.PeerInfo // 地图名: 对端地图服务器
	onChatPeer   func(peer wire.PeerInfo)
	onRegistered func()
}

func NewClient(self wire.PeerInfo) *Client {
	return &Client{
		self:  self,
		peers: make(map[string]wire.PeerInfo),
	}
}

// SetOnChatPeer 中心服务器推送聊天服务器地址时的回调
func (c *Client) SetOnChatPeer(handler func(peer wire.PeerInfo)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChatPeer = handler
}

// SetOnRegistered 注册成功后的回调（用于重新通告在线玩家）
func (c *Client) SetOnRegistered(handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRegistered = handler
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Register 连接中心服务器并上报本服地址信息
func (c *Client) Register(address string, port int, connectKey string) error {
	target := net.JoinHostPort(address, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", target, 15*time.Second)
	if err != nil {
		return fmt.Errorf("fail to connect to central server %s: %w", target, err)
	}

	self := c.self
	self.ConnectKey = connectKey
	data, err := wire.EncodeFrame(wire.REGISTERAPPSERVER, wire.RegisterAppServerPayload{PeerInfo: self})
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := connection.Send(conn, data, "central"); err != nil {
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	logger.InfoF("Registering to central server %s as map server %s", target, c.self.Extra)
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn net.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()
	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			connection.HandleReadError("central", err)
			return
		}

		switch frame.Type {
		case wire.AUTHACK:
			payload, err := wire.DecodePayload[wire.AuthAckPayload](frame)
			if err != nil {
				logger.ErrorF("[central] Fail to decode register ack, details: %v", err)
				continue
			}
			if payload.ResponseCode != wire.AckSuccess {
				logger.ErrorF("[central] App server registration rejected")
				continue
			}
			logger.Info("App server registered to central server")
			c.mu.Lock()
			handler := c.onRegistered
			c.mu.Unlock()
			if handler != nil {
				handler()
			}
		case wire.RESPONSEAPPSERVERADDRESS:
			payload, err := wire.DecodePayload[wire.ResponseAppServerAddressPayload](frame)
			if err != nil {
				logger.ErrorF("[central] Fail to decode app server address, details: %v", err)
				continue
			}
			if payload.ResponseCode != wire.AckSuccess {
				continue
			}
			c.HandlePeerInfo(payload.PeerInfo)
		default:
			logger.WarnF("[central] %s package has not been supported", frame.Type.String())
		}
	}
}

// HandlePeerInfo 处理中心服务器推送的对端描述，同地图后注册覆盖先注册
func (c *Client) HandlePeerInfo(peer wire.PeerInfo) {
	switch peer.PeerType {
	case wire.PeerMapServer:
		if peer.Extra == "" {
			return
		}
		logger.InfoF("Register map server: %s", peer.Extra)
		c.mu.Lock()
		c.peers[peer.Extra] = peer
		c.mu.Unlock()
	case wire.PeerChatServer:
		c.mu.Lock()
		handler := c.onChatPeer
		c.mu.Unlock()
		if handler != nil {
			handler(peer)
		}
	}
}

// MapServerPeer 按地图名查询对端地图服务器
func (c *Client) MapServerPeer(mapName string) (wire.PeerInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	peer, ok := c.peers[mapName]
	return peer, ok
}

func (c *Client) UpdateMapUser(payload wire.MapUserPayload) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()
	if !connected || conn == nil {
		return nil
	}
	data, err := wire.EncodeFrame(wire.UPDATEMAPUSER, payload)
	if err != nil {
		return err
	}
	return connection.Send(conn, data, "central")
}

// Stop 断开中心服务器并清空对端缓存
func (c *Client) Stop() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.peers = make(map[string]wire.PeerInfo)
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
