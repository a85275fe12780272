package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCharacterWriter struct {
	mu       sync.Mutex
	saved    []string
	inFlight int32
	overlaps int32
	delay    time.Duration
	failIDs  map[string]error
}

func (w *fakeCharacterWriter) SaveCharacter(character *database.CharacterData) error {
	if atomic.AddInt32(&w.inFlight, 1) > 1 {
		atomic.AddInt32(&w.overlaps, 1)
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	w.mu.Lock()
	w.saved = append(w.saved, character.ID)
	w.mu.Unlock()
	atomic.AddInt32(&w.inFlight, -1)
	if err, ok := w.failIDs[character.ID]; ok {
		return err
	}
	return nil
}

func (w *fakeCharacterWriter) savedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saved)
}

type fakeBuildingWriter struct {
	mu    sync.Mutex
	saved []string
}

func (w *fakeBuildingWriter) SaveBuilding(mapName string, building *database.BuildingData) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved = append(w.saved, building.ID)
	return nil
}

func newTestCoordinator(characters *fakeCharacterWriter, buildings *fakeBuildingWriter, characterData []*database.CharacterData, buildingData []*database.BuildingData) *Coordinator {
	return NewCoordinator(
		characters,
		buildings,
		"Town",
		time.Hour,
		func() []*database.CharacterData { return characterData },
		func() []*database.BuildingData { return buildingData },
	)
}

func TestSaveCharacterNeverOverlapsPerCharacter(t *testing.T) {
	writer := &fakeCharacterWriter{delay: 2 * time.Millisecond}
	coordinator := newTestCoordinator(writer, &fakeBuildingWriter{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = coordinator.SaveCharacter(&database.CharacterData{ID: "c1"})
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&writer.overlaps), "saves for the same character overlapped")
	assert.Equal(t, 16, writer.savedCount())
}

func TestSaveAllCharactersIndependentFailures(t *testing.T) {
	bad := errors.New("disk gone")
	writer := &fakeCharacterWriter{failIDs: map[string]error{"c2": bad}}
	characters := []*database.CharacterData{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	coordinator := newTestCoordinator(writer, &fakeBuildingWriter{}, characters, nil)

	err := coordinator.SaveAllCharacters()
	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	// 其余角色的保存不受单个失败影响
	assert.Equal(t, 3, writer.savedCount())
}

func TestAutosaveCycleSkipsWhileRunning(t *testing.T) {
	writer := &fakeCharacterWriter{delay: 50 * time.Millisecond}
	characters := []*database.CharacterData{{ID: "c1"}}
	coordinator := newTestCoordinator(writer, &fakeBuildingWriter{}, characters, nil)

	coordinator.triggerCharacterCycle()
	coordinator.triggerCharacterCycle()
	coordinator.triggerCharacterCycle()
	coordinator.characterCycle.wait()

	assert.Equal(t, 1, writer.savedCount(), "overlapping autosave cycles must be skipped, not queued")
}

func TestDrainRunsFinalFullSave(t *testing.T) {
	writer := &fakeCharacterWriter{}
	buildings := &fakeBuildingWriter{}
	characters := []*database.CharacterData{{ID: "c1"}, {ID: "c2"}}
	buildingData := []*database.BuildingData{{ID: "b1"}}
	coordinator := newTestCoordinator(writer, buildings, characters, buildingData)
	coordinator.Run()

	require.NoError(t, NewDrainCallback(coordinator).Invoke(context.Background()))
	assert.Equal(t, 2, writer.savedCount())
	assert.Len(t, buildings.saved, 1)
}
