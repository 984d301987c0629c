package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/dhumbal/broadcast"
	"github.com/wfunc/dhumbal/config"
	"github.com/wfunc/dhumbal/logger"
	"github.com/wfunc/dhumbal/monitor"
	"github.com/wfunc/dhumbal/network"
	"github.com/wfunc/dhumbal/room"
	gamerpc "github.com/wfunc/dhumbal/rpc"
	"github.com/wfunc/dhumbal/services"
	"github.com/wfunc/dhumbal/session"
	"github.com/wfunc/dhumbal/timer"
)

const heartbeatInterval = 30 * time.Second

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	records        *services.RecordService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	timers         *timer.TimerManager
	handlers       map[uint16]handlerFunc
	httpServer     *http.Server
	rpcServer      *gamerpc.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, records *services.RecordService, mon *monitor.Monitor) *GameServer {
	timers := timer.NewTimerManager()
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewRoomManager(timers),
		sessionManager: session.NewManager(),
		records:        records,
		monitor:        mon,
		timers:         timers,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器. State goes out from inside each room commit.
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)
	s.roomManager.OnCommit(s.broadcaster.BroadcastSnapshot)
	s.handlers = s.routes()

	if idle := cfg.Server.IdleTimeout; idle > 0 {
		s.timers.AddTimer(idle, idle/2, func() {
			s.reapIdleSessions(time.Now().Add(-idle))
		})
	}
	return s
}

// Rooms exposes the room store, for the admin RPC service.
func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

// Handler serves the websocket endpoint and health checks.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Dhumbal server running"))
	})
	return mux
}

// Start runs the RPC listener, if configured, and blocks serving HTTP.
func (s *GameServer) Start() error {
	if addr := s.cfg.Server.RPCAddress; addr != "" {
		rpcServer, err := gamerpc.NewServer(addr, gamerpc.NewGameService(s.roomManager, s.records))
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.cfg.Server.HTTPAddress, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes every session and drops all rooms.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		s.timers.Stop()
		s.roomManager.Close()
	})
	return err
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"rooms":    s.roomManager.Count(),
		"sessions": s.sessionManager.Count(),
	})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()
	conn.SetHeartbeat(heartbeatInterval)

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := conn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handleDisconnect takes the session out of every room it was seated in.
// Remaining members are updated by the room commits themselves.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	s.sessionManager.Remove(sess.GetID())
	s.monitor.DecOnlinePlayers()

	open := s.roomManager.RemoveSession(sess.GetID())
	logger.Log.Infof("Player %q (session %s) disconnected, %d room(s) still open", sess.GetName(), sess.GetID(), len(open))
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

// reapIdleSessions closes every session that has sent nothing since cutoff.
// The read loop then fails and runs the normal disconnect path.
func (s *GameServer) reapIdleSessions(cutoff time.Time) int {
	n := 0
	for _, sess := range s.sessionManager.All() {
		if sess.LastActive().Before(cutoff) {
			logger.Log.Infof("Closing idle session %s (%s)", sess.GetID(), sess.GetName())
			sess.Close()
			n++
		}
	}
	return n
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	sess.Touch()
	if packet.MsgID == network.MsgTypeHeartbeat {
		return
	}

	handler, ok := s.handlers[packet.MsgID]
	if !ok {
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return
	}

	if err := handler(sess, packet.Data); err != nil {
		name := network.MsgName(packet.MsgID)
		s.monitor.IncCommandFailures(name)
		logger.Log.Debugf("session %s %s rejected: %v", sess.GetID(), name, err)
		s.sendError(sess, err)
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

// sendError reports a failure to the acting session only.
func (s *GameServer) sendError(sess *session.Session, err error) {
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	if sendErr := sess.SendJSON(network.MsgTypeError, network.ErrorMessage{Message: msg}); sendErr != nil {
		logger.Log.Warnf("send error to %s failed: %v", sess.GetID(), sendErr)
	}
}
