package world

import (
	"sync"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
)

// BuildingEntity 地图中的建筑实体
type BuildingEntity struct {
	ID     string
	DataID int

	mu        sync.Mutex
	parentID  string
	position  database.Vector3
	rotationY float32
	currentHp int
}

func NewBuildingEntity(data *database.BuildingData) *BuildingEntity {
	return &BuildingEntity{
		ID:        data.ID,
		DataID:    data.DataID,
		parentID:  data.ParentID,
		position:  data.Position,
		rotationY: data.RotationY,
		currentHp: data.CurrentHp,
	}
}

func (be *BuildingEntity) Snapshot() *database.BuildingData {
	be.mu.Lock()
	defer be.mu.Unlock()
	return &database.BuildingData{
		ID:        be.ID,
		ParentID:  be.parentID,
		DataID:    be.DataID,
		Position:  be.position,
		RotationY: be.rotationY,
		CurrentHp: be.currentHp,
	}
}

func (be *BuildingEntity) CurrentHp() int {
	be.mu.Lock()
	defer be.mu.Unlock()
	return be.currentHp
}

func (be *BuildingEntity) SetCurrentHp(hp int) {
	be.mu.Lock()
	defer be.mu.Unlock()
	be.currentHp = hp
}
