package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// 单帧负载上限，超过视为协议错误
const MaxPayloadSize = 1 << 20

var ErrPayloadTooLarge = errors.New("payload exceeds max frame size")

type Frame struct {
	Type    MessageType
	Payload []byte
}

// ReadFrame 从连接中读取一个完整的消息帧
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[1:5])
	if length > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("fail to read frame payload: %w", err)
	}

	return &Frame{Type: MessageType(header[0]), Payload: payload}, nil
}

// EncodeFrame 编码消息帧，格式为 [类型 1字节][长度 4字节][负载]
func EncodeFrame(msgType MessageType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fail to encode %s payload: %w", msgType, err)
	}
	if len(body) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	data := make([]byte, 5+len(body))
	data[0] = byte(msgType)
	binary.BigEndian.PutUint32(data[1:5], uint32(len(body)))
	copy(data[5:], body)
	return data, nil
}

// DecodePayload 解码消息帧负载
func DecodePayload[T any](frame *Frame) (*T, error) {
	var payload T
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		return nil, fmt.Errorf("fail to decode %s payload: %w", frame.Type, err)
	}
	return &payload, nil
}
