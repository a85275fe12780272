package main

import (
	"time"

	c "github.com/life-stream-dev/life-stream-go-map-server/internal/config"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/cashshop"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/center"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/chat"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/connection"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/event"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/party"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/persist"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/server"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/session"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/utils"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/warp"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
)

func main() {
	config, err := c.ReadConfig()
	if err != nil {
		logger.FatalF("Error occured while reading config %v", err)
		return
	}
	loggerCallback := logger.Init()
	logger.Debug("Application initializing...")
	cleaner := event.NewCleaner()
	cleaner.Init(loggerCallback)
	err = database.ConnectDatabase()
	if err != nil {
		logger.FatalF("Error occured while initializing database, details: %v", err)
		return
	}

	repo := database.NewDatabaseStore()
	worldManager := world.NewManager(config.Server.MapName, repo)
	if err := worldManager.LoadBuildings(); err != nil {
		logger.FatalF("Error occured while loading buildings, details: %v", err)
		return
	}

	chatLink := chat.NewLink()
	parties := party.NewReplicator(repo, chatLink, worldManager, config.Game.MaxPartyMember)
	chatLink.SetPartyHandler(parties)

	selfPeer := wire.PeerInfo{
		PeerType:   wire.PeerMapServer,
		Address:    config.Server.MachineAddress,
		Port:       config.Server.AppPort,
		ConnectKey: config.Server.ConnectKey,
		Extra:      config.Server.MapName,
	}
	central := center.NewClient(selfPeer)
	sessions := session.NewRegistry(central, chatLink)

	saves := persist.NewCoordinator(
		repo,
		repo,
		config.Server.MapName,
		utils.ParseStringTime(config.Game.AutoSaveDuration),
		worldManager.CharacterSnapshots,
		worldManager.BuildingSnapshots,
	)
	// 落盘清理必须排在数据库关闭之前
	cleaner.Add(persist.NewDrainCallback(saves))
	cleaner.Add(database.NewDBCloseCallback())
	saves.Run()

	central.SetOnChatPeer(func(peer wire.PeerInfo) {
		if err := chatLink.Connect(peer, selfPeer); err != nil {
			logger.ErrorF("Fail to connect to chat server, details: %v", err)
		}
	})
	central.SetOnRegistered(func() {
		sessions.BroadcastAll(central)
	})
	chatLink.SetOnConnected(func() {
		sessions.BroadcastAll(chatLink)
	})
	sender := connection.NewMessageSender()
	chatLink.SetChatHandler(func(payload wire.ChatPayload) {
		for _, s := range sessions.Sessions() {
			if err := sender.SendMessage(s.ConnID, wire.CHAT, payload); err != nil {
				logger.WarnF("Fail to deliver chat message to %s, details: %v", s.ConnID, err)
			}
		}
	})
	if err := central.Register(config.Central.Address, config.Central.Port, config.Central.ConnectKey); err != nil {
		logger.WarnF("Fail to register to central server, running standalone, details: %v", err)
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			parties.UpdateOnlineMembers()
		}
	}()

	items, packages := cashshop.DefaultCatalog()
	cashShop := cashshop.NewHandler(repo, items, packages)
	warps := warp.NewCoordinator(worldManager, sessions, saves, central, sender)

	srv := server.NewServer(repo, worldManager, sessions, saves, parties, warps, cashShop, chatLink)
	srv.Start(config.Server.AppPort)
}
