// Package server 实现了地图服务器的客户端接入层
package server

import (
	"net"
	"strconv"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/cashshop"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/chat"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/party"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/persist"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/session"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/warp"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
)

var sem = make(chan struct{}, 10000)

type Server struct {
	repo     database.Repository
	world    *world.Manager
	sessions *session.Registry
	saves    *persist.Coordinator
	parties  *party.Replicator
	warps    *warp.Coordinator
	cashShop *cashshop.Handler
	chat     *chat.Link
}

func NewServer(
	repo database.Repository,
	worldManager *world.Manager,
	sessions *session.Registry,
	saves *persist.Coordinator,
	parties *party.Replicator,
	warps *warp.Coordinator,
	cashShop *cashshop.Handler,
	chatLink *chat.Link,
) *Server {
	return &Server{
		repo:     repo,
		world:    worldManager,
		sessions: sessions,
		saves:    saves,
		parties:  parties,
		warps:    warps,
		cashShop: cashShop,
		chat:     chatLink,
	}
}

func (s *Server) Start(port int) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		logger.FatalF("Map Server Start error: %v", err)
	}
	logger.InfoF("Map Server Listen On " + ln.Addr().String())
	defer func() {
		err := ln.Close()
		if err != nil {
			logger.ErrorF("Server close error: %v", err)
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.ErrorF("Accept connection error: %v", err)
			continue
		}

		logger.DebugF("Accepted new connection from %s", conn.RemoteAddr().String())

		handler := &ConnectionHandler{
			server: s,
			conn:   conn,
			connID: conn.RemoteAddr().String(),
		}

		sem <- struct{}{}
		go func() {
			handler.handleConnection()
			<-sem
		}()
	}
}
