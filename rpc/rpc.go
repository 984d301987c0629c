package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/dhumbal/logger"
	"github.com/wfunc/dhumbal/models"
	"github.com/wfunc/dhumbal/room"
	"github.com/wfunc/dhumbal/services"
)

const callTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the given services.
func NewServer(addr string, rcvrs ...interface{}) (*Server, error) {
	srv := rpc.NewServer()
	for _, rcvr := range rcvrs {
		if err := srv.Register(rcvr); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		rpc:      srv,
	}, nil
}

// Addr is the address actually bound, useful with port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins listening for RPC requests. It returns once the listener is closed.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService is the struct that exposes RPC methods.
type GameService struct {
	rooms   *room.Manager
	records *services.RecordService
}

// NewGameService creates a new GameService.
func NewGameService(rooms *room.Manager, records *services.RecordService) *GameService {
	return &GameService{rooms: rooms, records: records}
}

// Methods follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.

type ListRoomsArgs struct{}

type RoomInfo struct {
	Code    string
	Phase   string
	Players []string
	Version uint64
}

type ListRoomsReply struct {
	Rooms []RoomInfo
}

func (gs *GameService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, s := range gs.rooms.List() {
		reply.Rooms = append(reply.Rooms, RoomInfo{
			Code:    s.Code,
			Phase:   string(s.Phase),
			Players: s.Players,
			Version: s.Version,
		})
	}
	return nil
}

type GetPlayerStatsArgs struct {
	Name string
}

type GetPlayerStatsReply struct {
	Stats models.PlayerStats
}

func (gs *GameService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := gs.records.PlayerStats(ctx, args.Name)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

func (gs *GameService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	games, err := gs.records.RecentGames(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
