package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := WarpNotifyPayload{
		MapName:    "Forest",
		Address:    "10.0.0.2",
		Port:       7001,
		ConnectKey: "ForestKey",
	}

	data, err := EncodeFrame(WARPNOTIFY, payload)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	frame, err := ReadFrame(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frame.Type != WARPNOTIFY {
		t.Errorf("expected frame type %s, got %s", WARPNOTIFY, frame.Type)
	}

	decoded, err := DecodePayload[WarpNotifyPayload](frame)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if *decoded != payload {
		t.Errorf("expected payload %+v, got %+v", payload, *decoded)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	payload := ChatPayload{Channel: "global", Message: "hello"}
	data, err := EncodeFrame(CHAT, payload)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	_, err = ReadFrame(bytes.NewReader(data[:len(data)-2]))
	if err == nil {
		t.Fatal("expected error reading truncated frame, got nil")
	}
}
