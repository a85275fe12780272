// Package session 维护连接与已认证角色之间的映射
package session

import (
	"errors"
	"sync"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
)

var ErrAlreadyRegistered = errors.New("connection already has a session")

type Session struct {
	ConnID        string
	UserID        string
	CharacterID   string
	CharacterName string
}

// PresenceNotifier 向中心服务器或聊天服务器同步玩家进出
type PresenceNotifier interface {
	UpdateMapUser(payload wire.MapUserPayload) error
}

type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	notifiers []PresenceNotifier
}

func NewRegistry(notifiers ...PresenceNotifier) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		notifiers: notifiers,
	}
}

func (r *Registry) Register(connID string, userID string, characterID string, characterName string) error {
	r.mu.Lock()
	if _, ok := r.sessions[connID]; ok {
		r.mu.Unlock()
		return ErrAlreadyRegistered
	}
	s := &Session{
		ConnID:        connID,
		UserID:        userID,
		CharacterID:   characterID,
		CharacterName: characterName,
	}
	r.sessions[connID] = s
	r.mu.Unlock()

	logger.InfoF("Session registered: conn=%s, user=%s, character=%s", connID, userID, characterID)
	r.notify(wire.UpdateAdd, s)
	return nil
}

// Unregister 幂等；不负责持久化角色状态，调用方需要先保存
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	s, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	logger.InfoF("Session unregistered: conn=%s, user=%s, character=%s", connID, s.UserID, s.CharacterID)
	r.notify(wire.UpdateRemove, s)
}

func (r *Registry) Get(connID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	return s, ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// BroadcastAll 重新通告所有在线玩家（注册到中心服务器或聊天服务器连通后调用）
func (r *Registry) BroadcastAll(notifier PresenceNotifier) {
	for _, s := range r.Sessions() {
		if err := notifier.UpdateMapUser(mapUserPayload(wire.UpdateAdd, s)); err != nil {
			logger.WarnF("Fail to announce map user %s, details: %v", s.CharacterID, err)
		}
	}
}

func (r *Registry) notify(updateType wire.UpdateType, s *Session) {
	for _, notifier := range r.notifiers {
		if err := notifier.UpdateMapUser(mapUserPayload(updateType, s)); err != nil {
			logger.WarnF("Fail to notify map user update for %s, details: %v", s.CharacterID, err)
		}
	}
}

func mapUserPayload(updateType wire.UpdateType, s *Session) wire.MapUserPayload {
	return wire.MapUserPayload{
		Type:          updateType,
		UserID:        s.UserID,
		CharacterID:   s.CharacterID,
		CharacterName: s.CharacterName,
	}
}
