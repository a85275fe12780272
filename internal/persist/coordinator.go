// Package persist 负责角色与世界状态的定期落库调度
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"golang.org/x/sync/errgroup"
)

type CharacterWriter interface {
	SaveCharacter(character *database.CharacterData) error
}

type BuildingWriter interface {
	SaveBuilding(mapName string, building *database.BuildingData) error
}

type saveTask struct {
	done chan struct{}
	err  error
}

func newSaveTask() *saveTask {
	return &saveTask{done: make(chan struct{})}
}

// cycle 同类自动保存周期的互斥门，上一轮未完成时新一轮直接跳过
type cycle struct {
	mu   sync.Mutex
	task *saveTask
}

func (c *cycle) tryStart() (*saveTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		select {
		case <-c.task.done:
		default:
			return nil, false
		}
	}
	task := newSaveTask()
	c.task = task
	return task, true
}

func (c *cycle) wait() {
	c.mu.Lock()
	task := c.task
	c.mu.Unlock()
	if task != nil {
		<-task.done
	}
}

type Coordinator struct {
	characters      CharacterWriter
	buildings       BuildingWriter
	mapName         string
	interval        time.Duration
	characterSource func() []*database.CharacterData
	buildingSource  func() []*database.BuildingData

	mu     sync.Mutex
	saving map[string]*saveTask // 角色ID: 进行中的保存任务

	characterCycle cycle
	worldCycle     cycle

	stop     chan struct{}
	stopOnce sync.Once
}

func NewCoordinator(
	characters CharacterWriter,
	buildings BuildingWriter,
	mapName string,
	interval time.Duration,
	characterSource func() []*database.CharacterData,
	buildingSource func() []*database.BuildingData,
) *Coordinator {
	return &Coordinator{
		characters:      characters,
		buildings:       buildings,
		mapName:         mapName,
		interval:        interval,
		characterSource: characterSource,
		buildingSource:  buildingSource,
		saving:          make(map[string]*saveTask),
		stop:            make(chan struct{}),
	}
}

// SaveCharacter 保存单个角色快照
// 同一角色的写入严格串行：先等待进行中的保存完成，再发起新的保存
func (c *Coordinator) SaveCharacter(data *database.CharacterData) error {
	if data == nil {
		return nil
	}
	for {
		c.mu.Lock()
		prev, ok := c.saving[data.ID]
		if !ok {
			task := newSaveTask()
			c.saving[data.ID] = task
			c.mu.Unlock()

			task.err = c.characters.SaveCharacter(data)
			close(task.done)

			c.mu.Lock()
			if c.saving[data.ID] == task {
				delete(c.saving, data.ID)
			}
			c.mu.Unlock()

			if task.err != nil {
				return fmt.Errorf("fail to save character %s: %w", data.ID, task.err)
			}
			logger.DebugF("Character [%s] saved", data.ID)
			return nil
		}
		c.mu.Unlock()
		<-prev.done
	}
}

// SaveAllCharacters 对所有在线角色并发保存，全部完成后返回
// 单个角色失败不会取消其余角色的保存
func (c *Coordinator) SaveAllCharacters() error {
	snapshots := c.characterSource()
	var g errgroup.Group
	for _, snapshot := range snapshots {
		snapshot := snapshot
		g.Go(func() error {
			return c.SaveCharacter(snapshot)
		})
	}
	err := g.Wait()
	logger.InfoF("Characters saved, %d character(s)", len(snapshots))
	return err
}

func (c *Coordinator) SaveAllBuildings() error {
	snapshots := c.buildingSource()
	var g errgroup.Group
	for _, snapshot := range snapshots {
		snapshot := snapshot
		g.Go(func() error {
			return c.buildings.SaveBuilding(c.mapName, snapshot)
		})
	}
	err := g.Wait()
	logger.InfoF("World saved, %d building(s)", len(snapshots))
	return err
}

// Run 启动自动保存循环
func (c *Coordinator) Run() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.triggerCharacterCycle()
				c.triggerWorldCycle()
			}
		}
	}()
}

func (c *Coordinator) triggerCharacterCycle() {
	task, ok := c.characterCycle.tryStart()
	if !ok {
		logger.Debug("Previous character autosave cycle still running, skipped")
		return
	}
	go func() {
		if err := c.SaveAllCharacters(); err != nil {
			logger.ErrorF("Character autosave cycle failed: %v", err)
		}
		close(task.done)
	}()
}

func (c *Coordinator) triggerWorldCycle() {
	task, ok := c.worldCycle.tryStart()
	if !ok {
		logger.Debug("Previous world autosave cycle still running, skipped")
		return
	}
	go func() {
		if err := c.SaveAllBuildings(); err != nil {
			logger.ErrorF("World autosave cycle failed: %v", err)
		}
		close(task.done)
	}()
}

func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// DrainCallback 关服回调：等待进行中的自动保存周期，再做最后一轮全量保存
type DrainCallback struct {
	coordinator *Coordinator
}

func NewDrainCallback(coordinator *Coordinator) *DrainCallback {
	return &DrainCallback{coordinator: coordinator}
}

func (dc *DrainCallback) Invoke(ctx context.Context) error {
	c := dc.coordinator
	c.Stop()
	c.characterCycle.wait()
	c.worldCycle.wait()
	return errors.Join(c.SaveAllCharacters(), c.SaveAllBuildings())
}
