package database

import (
	"sync"
	"time"
)

// MemoryStore Repository的内存实现，用于测试与单机调试
type MemoryStore struct {
	mu          sync.Mutex
	characters  map[string]*CharacterData
	parties     map[int]*PartyData
	buildings   map[string]*BuildingData
	users       map[string]*UserData
	nextPartyID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		characters:  make(map[string]*CharacterData),
		parties:     make(map[int]*PartyData),
		buildings:   make(map[string]*BuildingData),
		users:       make(map[string]*UserData),
		nextPartyID: 1,
	}
}

func cloneCharacter(character *CharacterData) *CharacterData {
	clone := *character
	clone.Items = append([]CharacterItem(nil), character.Items...)
	clone.Quests = make([]QuestProgress, 0, len(character.Quests))
	for _, quest := range character.Quests {
		killed := make(map[string]int, len(quest.KilledMonsters))
		for monsterID, count := range quest.KilledMonsters {
			killed[monsterID] = count
		}
		quest.KilledMonsters = killed
		clone.Quests = append(clone.Quests, quest)
	}
	return &clone
}

func (ms *MemoryStore) PutUser(user *UserData) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.users[user.UserID] = user
}

func (ms *MemoryStore) PutParty(party *PartyData) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.parties[party.ID] = party
	if party.ID >= ms.nextPartyID {
		ms.nextPartyID = party.ID + 1
	}
}

func (ms *MemoryStore) GetCharacter(userID string, characterID string) (*CharacterData, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if characterID == "" {
		return nil, CharacterIdEmptyError
	}
	character, ok := ms.characters[characterID]
	if !ok || (userID != "" && character.UserID != userID) {
		return nil, ErrNotFound
	}
	return cloneCharacter(character), nil
}

func (ms *MemoryStore) SaveCharacter(character *CharacterData) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if character.ID == "" {
		return CharacterIdEmptyError
	}
	ms.characters[character.ID] = cloneCharacter(character)
	return nil
}

func (ms *MemoryStore) DeleteCharacter(characterID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.characters, characterID)
	return nil
}

func (ms *MemoryStore) SetCharacterParty(characterID string, partyID int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if characterID == "" {
		return CharacterIdEmptyError
	}
	if character, ok := ms.characters[characterID]; ok {
		character.PartyID = partyID
	}
	return nil
}

func (ms *MemoryStore) CreateParty(shareExp bool, shareItem bool, leaderID string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if leaderID == "" {
		return 0, CharacterIdEmptyError
	}
	partyID := ms.nextPartyID
	ms.nextPartyID++
	ms.parties[partyID] = &PartyData{ID: partyID, LeaderID: leaderID, ShareExp: shareExp, ShareItem: shareItem}
	return partyID, nil
}

func (ms *MemoryStore) GetParty(partyID int) (*PartyData, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if partyID <= 0 {
		return nil, InvalidPartyIdError
	}
	party, ok := ms.parties[partyID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *party
	clone.Members = nil
	for _, character := range ms.characters {
		if character.PartyID == partyID {
			clone.Members = append(clone.Members, PartyMember{
				CharacterID:   character.ID,
				CharacterName: character.Name,
				DataID:        character.DataID,
				Level:         character.Level,
				CurrentHp:     character.CurrentHp,
				MaxHp:         character.MaxHp,
				CurrentMp:     character.CurrentMp,
				MaxMp:         character.MaxMp,
				LastOnline:    time.Time{},
			})
		}
	}
	return &clone, nil
}

func (ms *MemoryStore) UpdatePartySetting(partyID int, shareExp bool, shareItem bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	party, ok := ms.parties[partyID]
	if !ok {
		return ErrNotFound
	}
	party.ShareExp = shareExp
	party.ShareItem = shareItem
	return nil
}

func (ms *MemoryStore) DeleteParty(partyID int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.parties, partyID)
	return nil
}

func (ms *MemoryStore) GetBuildings(mapName string) ([]*BuildingData, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var buildings []*BuildingData
	for _, building := range ms.buildings {
		if building.MapName == mapName {
			clone := *building
			buildings = append(buildings, &clone)
		}
	}
	return buildings, nil
}

func (ms *MemoryStore) SaveBuilding(mapName string, building *BuildingData) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if building.ID == "" {
		return BuildingIdEmptyError
	}
	clone := *building
	clone.MapName = mapName
	ms.buildings[building.ID] = &clone
	return nil
}

func (ms *MemoryStore) DeleteBuilding(mapName string, buildingID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if buildingID == "" {
		return BuildingIdEmptyError
	}
	delete(ms.buildings, buildingID)
	return nil
}

func (ms *MemoryStore) ValidateAccessToken(userID string, accessToken string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	user, ok := ms.users[userID]
	if !ok {
		return false, nil
	}
	return user.AccessToken == accessToken, nil
}

func (ms *MemoryStore) GetCash(userID string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	user, ok := ms.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return user.Cash, nil
}

func (ms *MemoryStore) IncreaseCash(userID string, amount int) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if amount <= 0 {
		return 0, InvalidCashAmountError
	}
	user, ok := ms.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	user.Cash += amount
	return user.Cash, nil
}

func (ms *MemoryStore) DecreaseCash(userID string, amount int) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if amount <= 0 {
		return 0, InvalidCashAmountError
	}
	user, ok := ms.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if user.Cash < amount {
		return 0, ErrNotEnoughCash
	}
	user.Cash -= amount
	return user.Cash, nil
}
