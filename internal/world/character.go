package world

import (
	"sync"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
)

// PlayerCharacter 地图中的玩家角色实体
// 身份字段创建后不变，可变状态由内部锁保护
type PlayerCharacter struct {
	ID     string
	UserID string
	ConnID string
	Name   string
	DataID int

	mu        sync.Mutex
	level     int
	exp       int
	gold      int
	currentHp int
	maxHp     int
	currentMp int
	maxMp     int
	mapName   string
	position  database.Vector3
	partyID   int
	items     []database.CharacterItem
	quests    []database.QuestProgress
}

func NewPlayerCharacter(connID string, data *database.CharacterData) *PlayerCharacter {
	return &PlayerCharacter{
		ID:        data.ID,
		UserID:    data.UserID,
		ConnID:    connID,
		Name:      data.Name,
		DataID:    data.DataID,
		level:     data.Level,
		exp:       data.Exp,
		gold:      data.Gold,
		currentHp: data.CurrentHp,
		maxHp:     data.MaxHp,
		currentMp: data.CurrentMp,
		maxMp:     data.MaxMp,
		mapName:   data.MapName,
		position:  data.Position,
		partyID:   data.PartyID,
		items:     append([]database.CharacterItem(nil), data.Items...),
		quests:    append([]database.QuestProgress(nil), data.Quests...),
	}
}

// Snapshot 生成当前状态的持久化快照
func (pc *PlayerCharacter) Snapshot() *database.CharacterData {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return &database.CharacterData{
		ID:        pc.ID,
		UserID:    pc.UserID,
		Name:      pc.Name,
		DataID:    pc.DataID,
		Level:     pc.level,
		Exp:       pc.exp,
		Gold:      pc.gold,
		CurrentHp: pc.currentHp,
		MaxHp:     pc.maxHp,
		CurrentMp: pc.currentMp,
		MaxMp:     pc.maxMp,
		MapName:   pc.mapName,
		Position:  pc.position,
		PartyID:   pc.partyID,
		Items:     append([]database.CharacterItem(nil), pc.items...),
		Quests:    append([]database.QuestProgress(nil), pc.quests...),
	}
}

func (pc *PlayerCharacter) PartyMemberSnapshot() database.PartyMember {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return database.PartyMember{
		CharacterID:   pc.ID,
		CharacterName: pc.Name,
		DataID:        pc.DataID,
		Level:         pc.level,
		CurrentHp:     pc.currentHp,
		MaxHp:         pc.maxHp,
		CurrentMp:     pc.currentMp,
		MaxMp:         pc.maxMp,
	}
}

func (pc *PlayerCharacter) MapName() string {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.mapName
}

func (pc *PlayerCharacter) Position() database.Vector3 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.position
}

// Teleport 地图内瞬移，不涉及跨服
func (pc *PlayerCharacter) Teleport(position database.Vector3) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.position = position
}

func (pc *PlayerCharacter) PartyID() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.partyID
}

func (pc *PlayerCharacter) SetPartyID(partyID int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.partyID = partyID
}

func (pc *PlayerCharacter) Level() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.level
}

func (pc *PlayerCharacter) Gold() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.gold
}

func (pc *PlayerCharacter) AddGold(amount int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.gold += amount
}

func (pc *PlayerCharacter) AddItem(dataID int, amount int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.items = append(pc.items, database.CharacterItem{DataID: dataID, Amount: amount})
}

func (pc *PlayerCharacter) Items() []database.CharacterItem {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return append([]database.CharacterItem(nil), pc.items...)
}

func (pc *PlayerCharacter) IsDead() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.currentHp <= 0
}
