package database

import (
	"errors"
	"time"
)

const (
	CharacterCollectionName = "characters"
	PartyCollectionName     = "parties"
	BuildingCollectionName  = "buildings"
	UserCollectionName      = "users"
	CounterCollectionName   = "counters"
)

var collectionsList = []string{
	CharacterCollectionName,
	PartyCollectionName,
	BuildingCollectionName,
	UserCollectionName,
	CounterCollectionName,
}

var (
	ErrNotFound              = errors.New("record not found")
	ErrNotEnoughCash         = errors.New("not enough cash")
	CharacterIdEmptyError    = errors.New("character_id is empty")
	UserIdEmptyError         = errors.New("user_id is empty")
	BuildingIdEmptyError     = errors.New("building_id is empty")
	InvalidPartyIdError      = errors.New("party_id must be greater than zero")
	InvalidCashAmountError   = errors.New("cash amount must be greater than zero")
	InvalidAccessTokenLength = errors.New("access_token is empty")
)

type Vector3 struct {
	X float32 `bson:"x" json:"x"`
	Y float32 `bson:"y" json:"y"`
	Z float32 `bson:"z" json:"z"`
}

// QuestProgress 任务进度（按任务ID记录击杀数与完成状态）
type QuestProgress struct {
	QuestID        string         `bson:"quest_id"`
	IsComplete     bool           `bson:"is_complete"`
	KilledMonsters map[string]int `bson:"killed_monsters"` // 怪物ID: 击杀数
}

type CharacterItem struct {
	DataID int `bson:"data_id"`
	Amount int `bson:"amount"`
}

type CharacterData struct {
	ID        string          `bson:"character_id"`
	UserID    string          `bson:"user_id"`
	Name      string          `bson:"character_name"`
	DataID    int             `bson:"data_id"`
	Level     int             `bson:"level"`
	Exp       int             `bson:"exp"`
	Gold      int             `bson:"gold"`
	CurrentHp int             `bson:"current_hp"`
	MaxHp     int             `bson:"max_hp"`
	CurrentMp int             `bson:"current_mp"`
	MaxMp     int             `bson:"max_mp"`
	MapName   string          `bson:"map_name"`
	Position  Vector3         `bson:"position"`
	PartyID   int             `bson:"party_id"`
	Items     []CharacterItem `bson:"items"`
	Quests    []QuestProgress `bson:"quests"`
}

type PartyMember struct {
	CharacterID   string    `bson:"character_id"`
	CharacterName string    `bson:"character_name"`
	DataID        int       `bson:"data_id"`
	Level         int       `bson:"level"`
	CurrentHp     int       `bson:"current_hp"`
	MaxHp         int       `bson:"max_hp"`
	CurrentMp     int       `bson:"current_mp"`
	MaxMp         int       `bson:"max_mp"`
	LastOnline    time.Time `bson:"last_online"`
}

// PartyData 队伍记录，成员列表保持加入顺序
type PartyData struct {
	ID        int           `bson:"party_id"`
	LeaderID  string        `bson:"leader_id"`
	ShareExp  bool          `bson:"share_exp"`
	ShareItem bool          `bson:"share_item"`
	Members   []PartyMember `bson:"members"`
}

type BuildingData struct {
	ID        string  `bson:"building_id"`
	ParentID  string  `bson:"parent_id"`
	DataID    int     `bson:"data_id"`
	MapName   string  `bson:"map_name"`
	Position  Vector3 `bson:"position"`
	RotationY float32 `bson:"rotation_y"`
	CurrentHp int     `bson:"current_hp"`
}

type UserData struct {
	UserID      string `bson:"user_id"`
	AccessToken string `bson:"access_token"`
	Cash        int    `bson:"cash"`
}

type CharacterStore interface {
	GetCharacter(userID string, characterID string) (*CharacterData, error)
	SaveCharacter(character *CharacterData) error
	DeleteCharacter(characterID string) error
	SetCharacterParty(characterID string, partyID int) error
}

type PartyStore interface {
	CreateParty(shareExp bool, shareItem bool, leaderID string) (int, error)
	GetParty(partyID int) (*PartyData, error)
	UpdatePartySetting(partyID int, shareExp bool, shareItem bool) error
	DeleteParty(partyID int) error
}

type BuildingStore interface {
	GetBuildings(mapName string) ([]*BuildingData, error)
	SaveBuilding(mapName string, building *BuildingData) error
	DeleteBuilding(mapName string, buildingID string) error
}

type UserStore interface {
	ValidateAccessToken(userID string, accessToken string) (bool, error)
	GetCash(userID string) (int, error)
	IncreaseCash(userID string, amount int) (int, error)
	DecreaseCash(userID string, amount int) (int, error)
}

type Repository interface {
	CharacterStore
	PartyStore
	BuildingStore
	UserStore
}
