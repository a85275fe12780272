// Package connection 实现了地图服务器的消息发送功能
package connection

import (
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"net"
)

// MessageSender 消息发送器接口
type MessageSender interface {
	SendMessage(connID string, msgType wire.MessageType, payload any) error
}

// DefaultMessageSender 默认的消息发送器实现
type DefaultMessageSender struct{}

// NewMessageSender 创建新的消息发送器
func NewMessageSender() MessageSender {
	return &DefaultMessageSender{}
}

// SendMessage 发送消息帧到指定连接
func (s *DefaultMessageSender) SendMessage(connID string, msgType wire.MessageType, payload any) error {
	connManager := GetConnectionManager()
	conn, ok := connManager.GetConnection(connID)
	if !ok {
		return nil
	}
	data, err := wire.EncodeFrame(msgType, payload)
	if err != nil {
		return err
	}
	return Send(conn.Conn, data, conn.ConnID)
}

// Send 发送数据到客户端
func Send(conn net.Conn, data []byte, connID string) error {
	total := 0
	for total < len(data) {
		n, err := conn.Write(data[total:])
		if err != nil {
			logger.ErrorF("[%s] Fail to send data, details: %v", connID, err)
			return err
		}
		total += n
	}
	logger.DebugF("[%s] Send %d bytes to client", connID, total)
	return nil
}
