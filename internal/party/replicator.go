// Package party 维护本服的队伍缓存并通过聊天服务器跨服同步
// 本服缓存是副本，权威数据在聊天/中心服务器侧
package party

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
	"golang.org/x/sync/errgroup"
)

// Store 队伍持久化所需的存储操作
type Store interface {
	database.PartyStore
	SetCharacterParty(characterID string, partyID int) error
}

// ChatNotifier 跨服队伍事件广播，未连通时广播被跳过
type ChatNotifier interface {
	IsConnected() bool
	UpdatePartyMemberAdd(partyID int, member database.PartyMember) error
	UpdatePartyMemberRemove(partyID int, characterID string) error
	UpdatePartyMemberOnline(partyID int, member database.PartyMember) error
	UpdatePartySetting(partyID int, shareExp bool, shareItem bool) error
	UpdatePartyTerminate(partyID int) error
}

type Replicator struct {
	repo      Store
	chat      ChatNotifier
	world     *world.Manager
	maxMember int

	mu      sync.Mutex
	parties map[int]*database.PartyData
	loading map[int]chan struct{} // 进行中的加载，相同队伍的并发请求合并为一次
}

func NewReplicator(repo Store, chat ChatNotifier, worldManager *world.Manager, maxMember int) *Replicator {
	return &Replicator{
		repo:      repo,
		chat:      chat,
		world:     worldManager,
		maxMember: maxMember,
		parties:   make(map[int]*database.PartyData),
		loading:   make(map[int]chan struct{}),
	}
}

func (r *Replicator) chatConnected() bool {
	return r.chat != nil && r.chat.IsConnected()
}

// EnsureLoaded 确保队伍数据已缓存，同一队伍只会发起一次存储查询
func (r *Replicator) EnsureLoaded(partyID int) error {
	if partyID <= 0 {
		return nil
	}

	r.mu.Lock()
	if _, ok := r.parties[partyID]; ok {
		r.mu.Unlock()
		return nil
	}
	if pending, ok := r.loading[partyID]; ok {
		r.mu.Unlock()
		<-pending
		return nil
	}
	pending := make(chan struct{})
	r.loading[partyID] = pending
	r.mu.Unlock()

	party, err := r.repo.GetParty(partyID)

	r.mu.Lock()
	if err == nil && party != nil {
		r.parties[partyID] = party
	} else {
		delete(r.parties, partyID)
	}
	delete(r.loading, partyID)
	r.mu.Unlock()
	close(pending)

	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("fail to load party %d: %w", partyID, err)
	}
	return nil
}

// CachedParty 返回缓存中的队伍副本
func (r *Replicator) CachedParty(partyID int) (database.PartyData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	party, ok := r.parties[partyID]
	if !ok {
		return database.PartyData{}, false
	}
	clone := *party
	clone.Members = append([]database.PartyMember(nil), party.Members...)
	return clone, true
}

// Create 创建队伍，队长为唯一初始成员
func (r *Replicator) Create(leader *world.PlayerCharacter, shareExp bool, shareItem bool) (int, error) {
	partyID, err := r.repo.CreateParty(shareExp, shareItem, leader.ID)
	if err != nil {
		return 0, fmt.Errorf("fail to create party: %w", err)
	}
	if err := r.repo.SetCharacterParty(leader.ID, partyID); err != nil {
		return 0, fmt.Errorf("fail to bind party leader %s: %w", leader.ID, err)
	}

	party := database.NewPartyData(partyID, shareExp, shareItem, leader.PartyMemberSnapshot())
	r.mu.Lock()
	r.parties[partyID] = party
	r.mu.Unlock()

	leader.SetPartyID(partyID)
	logger.InfoF("Party %d created by character %s", partyID, leader.ID)
	return partyID, nil
}

// ChangeSetting 修改队伍经验/物品分配设置，仅限队长
func (r *Replicator) ChangeSetting(actor *world.PlayerCharacter, shareExp bool, shareItem bool) error {
	partyID := actor.PartyID()

	r.mu.Lock()
	party, ok := r.parties[partyID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if !party.IsLeader(actor.ID) {
		r.mu.Unlock()
		logger.WarnF("Character %s is not leader of party %d, setting rejected", actor.ID, partyID)
		return nil
	}
	r.mu.Unlock()

	if err := r.repo.UpdatePartySetting(partyID, shareExp, shareItem); err != nil {
		return fmt.Errorf("fail to update party %d setting: %w", partyID, err)
	}

	r.mu.Lock()
	party.Setting(shareExp, shareItem)
	r.mu.Unlock()

	if r.chatConnected() {
		_ = r.chat.UpdatePartySetting(partyID, shareExp, shareItem)
	}
	return nil
}

// AddMember 邀请入队，仅限队长，超出人数上限时拒绝
func (r *Replicator) AddMember(inviter *world.PlayerCharacter, invitee *world.PlayerCharacter) error {
	partyID := inviter.PartyID()

	r.mu.Lock()
	party, ok := r.parties[partyID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if !party.IsLeader(inviter.ID) {
		r.mu.Unlock()
		logger.WarnF("Character %s is not leader of party %d, invite rejected", inviter.ID, partyID)
		return nil
	}
	if party.CountMember() >= r.maxMember {
		r.mu.Unlock()
		logger.WarnF("Party %d is full (%d member(s)), invite rejected", partyID, r.maxMember)
		return nil
	}
	r.mu.Unlock()

	if err := r.repo.SetCharacterParty(invitee.ID, partyID); err != nil {
		return fmt.Errorf("fail to bind party member %s: %w", invitee.ID, err)
	}

	member := invitee.PartyMemberSnapshot()
	r.mu.Lock()
	party.AddMember(member)
	r.mu.Unlock()
	invitee.SetPartyID(partyID)

	if r.chatConnected() {
		_ = r.chat.UpdatePartyMemberAdd(partyID, member)
	}
	return nil
}

// RemoveMember 队长移除成员；成员自行退出走Leave
func (r *Replicator) RemoveMember(actor *world.PlayerCharacter, targetCharacterID string) error {
	partyID := actor.PartyID()

	r.mu.Lock()
	party, ok := r.parties[partyID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if !party.IsLeader(actor.ID) {
		r.mu.Unlock()
		logger.WarnF("Character %s is not leader of party %d, kick rejected", actor.ID, partyID)
		return nil
	}
	r.mu.Unlock()

	if err := r.repo.SetCharacterParty(targetCharacterID, 0); err != nil {
		return fmt.Errorf("fail to unbind party member %s: %w", targetCharacterID, err)
	}

	r.mu.Lock()
	party.RemoveMember(targetCharacterID)
	if party.CountMember() == 0 {
		delete(r.parties, partyID)
	}
	r.mu.Unlock()

	if live, ok := r.world.GetCharacterByID(targetCharacterID); ok {
		live.SetPartyID(0)
	}
	if r.chatConnected() {
		_ = r.chat.UpdatePartyMemberRemove(partyID, targetCharacterID)
	}
	return nil
}

// Leave 离开队伍
// 队长离开会解散：清除所有成员关联、逐个广播移除、删除队伍记录并广播解散
func (r *Replicator) Leave(character *world.PlayerCharacter) error {
	partyID := character.PartyID()

	r.mu.Lock()
	party, ok := r.parties[partyID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	isLeader := party.IsLeader(character.ID)
	memberIds := party.GetMemberIds()
	r.mu.Unlock()

	if !isLeader {
		if err := r.repo.SetCharacterParty(character.ID, 0); err != nil {
			return fmt.Errorf("fail to unbind party member %s: %w", character.ID, err)
		}
		r.mu.Lock()
		party.RemoveMember(character.ID)
		r.mu.Unlock()
		character.SetPartyID(0)
		if r.chatConnected() {
			_ = r.chat.UpdatePartyMemberRemove(partyID, character.ID)
		}
		return nil
	}

	var g errgroup.Group
	for _, memberID := range memberIds {
		memberID := memberID
		g.Go(func() error {
			return r.repo.SetCharacterParty(memberID, 0)
		})
	}
	g.Go(func() error {
		return r.repo.DeleteParty(partyID)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fail to terminate party %d: %w", partyID, err)
	}

	for _, memberID := range memberIds {
		if live, ok := r.world.GetCharacterByID(memberID); ok {
			live.SetPartyID(0)
		}
		if memberID != character.ID && r.chatConnected() {
			_ = r.chat.UpdatePartyMemberRemove(partyID, memberID)
		}
	}

	r.mu.Lock()
	delete(r.parties, partyID)
	r.mu.Unlock()

	if r.chatConnected() {
		_ = r.chat.UpdatePartyTerminate(partyID)
	}
	logger.InfoF("Party %d terminated by leader %s", partyID, character.ID)
	return nil
}

// OnUpdatePartyMember 应用聊天服务器推送的成员变更，未缓存的队伍忽略
func (r *Replicator) OnUpdatePartyMember(payload wire.PartyMemberPayload) {
	r.mu.Lock()
	party, ok := r.parties[payload.PartyID]
	if !ok {
		r.mu.Unlock()
		return
	}

	switch payload.Type {
	case wire.UpdateAdd:
		party.AddMember(database.PartyMember{
			CharacterID:   payload.CharacterID,
			CharacterName: payload.CharacterName,
			DataID:        payload.DataID,
			Level:         payload.Level,
		})
		r.mu.Unlock()
		if live, ok := r.world.GetCharacterByID(payload.CharacterID); ok {
			live.SetPartyID(payload.PartyID)
		}
	case wire.UpdateRemove:
		party.RemoveMember(payload.CharacterID)
		if party.CountMember() == 0 {
			delete(r.parties, payload.PartyID)
		}
		r.mu.Unlock()
		if live, ok := r.world.GetCharacterByID(payload.CharacterID); ok {
			live.SetPartyID(0)
		}
	case wire.UpdateOnline:
		party.UpdateMember(database.PartyMember{
			CharacterID:   payload.CharacterID,
			CharacterName: payload.CharacterName,
			DataID:        payload.DataID,
			Level:         payload.Level,
			CurrentHp:     payload.CurrentHp,
			MaxHp:         payload.MaxHp,
			CurrentMp:     payload.CurrentMp,
			MaxMp:         payload.MaxMp,
		})
		party.NotifyMemberOnline(payload.CharacterID, time.Now())
		r.mu.Unlock()
	default:
		r.mu.Unlock()
	}
}

// OnUpdateParty 应用聊天服务器推送的队伍级变更
func (r *Replicator) OnUpdateParty(payload wire.PartyPayload) {
	r.mu.Lock()
	party, ok := r.parties[payload.PartyID]
	if !ok {
		r.mu.Unlock()
		return
	}

	switch payload.Type {
	case wire.UpdateSetting:
		party.Setting(payload.ShareExp, payload.ShareItem)
		r.mu.Unlock()
	case wire.UpdateTerminate:
		memberIds := party.GetMemberIds()
		delete(r.parties, payload.PartyID)
		r.mu.Unlock()
		for _, memberID := range memberIds {
			if live, ok := r.world.GetCharacterByID(memberID); ok {
				live.SetPartyID(0)
			}
		}
	default:
		r.mu.Unlock()
	}
}

// UpdateOnlineMembers 定期用在线角色刷新成员快照并推送在线状态
func (r *Replicator) UpdateOnlineMembers() {
	now := time.Now()

	r.mu.Lock()
	parties := make([]*database.PartyData, 0, len(r.parties))
	for _, party := range r.parties {
		parties = append(parties, party)
	}
	r.mu.Unlock()

	var onlineUpdates []struct {
		partyID int
		member  database.PartyMember
	}

	for _, party := range parties {
		r.mu.Lock()
		memberIds := party.GetMemberIds()
		r.mu.Unlock()
		for _, memberID := range memberIds {
			live, ok := r.world.GetCharacterByID(memberID)
			if !ok {
				continue
			}
			member := live.PartyMemberSnapshot()
			r.mu.Lock()
			party.UpdateMember(member)
			party.NotifyMemberOnline(memberID, now)
			r.mu.Unlock()
			onlineUpdates = append(onlineUpdates, struct {
				partyID int
				member  database.PartyMember
			}{party.ID, member})
		}
	}

	if !r.chatConnected() {
		return
	}
	for _, update := range onlineUpdates {
		_ = r.chat.UpdatePartyMemberOnline(update.partyID, update.member)
	}
}
