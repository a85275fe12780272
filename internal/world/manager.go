package world

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
)

var ErrConnAlreadyBound = errors.New("connection already has a live character")

// Manager 管理本地图所有在线角色与建筑实体
type Manager struct {
	mapName string
	repo    database.BuildingStore

	mu               sync.RWMutex
	charactersByConn map[string]*PlayerCharacter
	charactersByID   map[string]*PlayerCharacter
	buildings        map[string]*BuildingEntity
}

func NewManager(mapName string, repo database.BuildingStore) *Manager {
	return &Manager{
		mapName:          mapName,
		repo:             repo,
		charactersByConn: make(map[string]*PlayerCharacter),
		charactersByID:   make(map[string]*PlayerCharacter),
		buildings:        make(map[string]*BuildingEntity),
	}
}

func (m *Manager) MapName() string {
	return m.mapName
}

func (m *Manager) SpawnCharacter(connID string, data *database.CharacterData) (*PlayerCharacter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charactersByConn[connID]; ok {
		return nil, ErrConnAlreadyBound
	}
	character := NewPlayerCharacter(connID, data)
	m.charactersByConn[connID] = character
	m.charactersByID[character.ID] = character
	logger.DebugF("Character %s spawned for connection %s", character.ID, connID)
	return character, nil
}

// DespawnCharacterByConn 销毁连接对应的角色实体，不负责持久化
func (m *Manager) DespawnCharacterByConn(connID string) (*PlayerCharacter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	character, ok := m.charactersByConn[connID]
	if !ok {
		return nil, false
	}
	delete(m.charactersByConn, connID)
	delete(m.charactersByID, character.ID)
	logger.DebugF("Character %s despawned", character.ID)
	return character, true
}

func (m *Manager) GetCharacterByConn(connID string) (*PlayerCharacter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	character, ok := m.charactersByConn[connID]
	return character, ok
}

func (m *Manager) GetCharacterByID(characterID string) (*PlayerCharacter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	character, ok := m.charactersByID[characterID]
	return character, ok
}

func (m *Manager) Characters() []*PlayerCharacter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	characters := make([]*PlayerCharacter, 0, len(m.charactersByConn))
	for _, character := range m.charactersByConn {
		characters = append(characters, character)
	}
	return characters
}

func (m *Manager) CharacterSnapshots() []*database.CharacterData {
	characters := m.Characters()
	snapshots := make([]*database.CharacterData, 0, len(characters))
	for _, character := range characters {
		snapshots = append(snapshots, character.Snapshot())
	}
	return snapshots
}

// LoadBuildings 启动时从存储中恢复本地图的建筑
func (m *Manager) LoadBuildings() error {
	buildings, err := m.repo.GetBuildings(m.mapName)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, data := range buildings {
		m.buildings[data.ID] = NewBuildingEntity(data)
	}
	logger.InfoF("Loaded %d building(s) for map %s", len(buildings), m.mapName)
	return nil
}

func (m *Manager) CreateBuilding(data *database.BuildingData) (*BuildingEntity, error) {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}
	building := NewBuildingEntity(data)
	m.mu.Lock()
	m.buildings[building.ID] = building
	m.mu.Unlock()
	if err := m.repo.SaveBuilding(m.mapName, data); err != nil {
		return building, err
	}
	return building, nil
}

func (m *Manager) DestroyBuilding(buildingID string) error {
	m.mu.Lock()
	delete(m.buildings, buildingID)
	m.mu.Unlock()
	return m.repo.DeleteBuilding(m.mapName, buildingID)
}

func (m *Manager) GetBuilding(buildingID string) (*BuildingEntity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	building, ok := m.buildings[buildingID]
	return building, ok
}

func (m *Manager) BuildingSnapshots() []*database.BuildingData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshots := make([]*database.BuildingData, 0, len(m.buildings))
	for _, building := range m.buildings {
		snapshots = append(snapshots, building.Snapshot())
	}
	return snapshots
}
