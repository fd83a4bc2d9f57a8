package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/monopoly/broadcast"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/monitor"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/room"
	monopoly_rpc "github.com/wfunc/monopoly/rpc"
	"github.com/wfunc/monopoly/session"
	"github.com/wfunc/monopoly/timer"
)

// DefaultRoom is the room a spectator joins when the request names none.
const DefaultRoom = "main"

type Options struct {
	Addr    string
	RPCAddr string // empty disables the records service
	// Records answers the records service; required when RPCAddr is set.
	Records     monopoly_rpc.RecordSource
	Metrics     *monitor.Metrics
	Gatherer    prometheus.Gatherer // nil selects the default gatherer
	IdleTimeout time.Duration
}

// SpectatorServer streams game events to websocket spectators and serves
// /metrics and the records service.
type SpectatorServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    *broadcast.RoomBroadcaster
	rpcServer      *monopoly_rpc.Server
	timers         *timer.TimerManager
	metrics        *monitor.Metrics
	httpServer     *http.Server
	idleTimeout    time.Duration
	feeds          []*broadcast.Feed
	mutex          sync.Mutex
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewSpectatorServer(opts Options) (*SpectatorServer, error) {
	s := &SpectatorServer{
		addr:           opts.Addr,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		timers:         timer.NewTimerManager(),
		metrics:        opts.Metrics,
		idleTimeout:    opts.IdleTimeout,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	if s.metrics != nil {
		s.broadcaster.WithCounter(s.metrics)
	}

	// 初始化RPC服务器
	if opts.RPCAddr != "" {
		rpcServer, err := monopoly_rpc.NewServer(opts.RPCAddr)
		if err != nil {
			s.timers.Stop()
			return nil, err
		}
		if err := rpcServer.Register(monopoly_rpc.NewRecords(opts.Records)); err != nil {
			rpcServer.Stop()
			s.timers.Stop()
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	if s.idleTimeout > 0 {
		every := s.idleTimeout / 2
		if every < time.Second {
			every = time.Second
		}
		s.timers.AddTimer(every, every, s.reapIdle)
	}
	return s, nil
}

// Handler is the HTTP surface: /ws and /metrics.
func (s *SpectatorServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Feed opens roomID (creating it) and returns a sink publishing a game's
// events into it.
func (s *SpectatorServer) Feed(roomID string) *broadcast.Feed {
	r := s.roomManager.CreateRoom(roomID, roomID, 0, s.broadcaster)
	if s.metrics != nil {
		s.metrics.SetActiveRooms(s.roomManager.Count())
	}
	f := broadcast.NewFeed(r, s.broadcaster)
	s.mutex.Lock()
	s.feeds = append(s.feeds, f)
	s.mutex.Unlock()
	return f
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *SpectatorServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	logger.Log.Infof("Spectator server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SpectatorServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		s.timers.Stop()
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		s.mutex.Lock()
		feeds := s.feeds
		s.feeds = nil
		s.mutex.Unlock()
		for _, f := range feeds {
			f.Close()
		}
		err = s.httpServer.Shutdown(ctx)
		// hijacked websocket connections are not closed by http.Server
		for _, sess := range s.sessionManager.Sessions() {
			sess.Close()
		}
	})
	return err
}

// reapIdle closes spectators that stopped sending heartbeats. Their read
// loops then clean them up.
func (s *SpectatorServer) reapIdle() {
	for _, sess := range s.sessionManager.Idle(s.idleTimeout) {
		logger.Log.Infof("Closing idle session %s", sess.GetID())
		sess.Close()
	}
}

func (s *SpectatorServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *SpectatorServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession("", wsConn)
	s.sessionManager.Add(sess)
	if s.metrics != nil {
		s.metrics.IncSpectators()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leave(sess)
		s.sessionManager.Remove(sess.GetID())
		if s.metrics != nil {
			s.metrics.DecSpectators()
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *SpectatorServer) handlePacket(sess *session.Session, packet *network.Packet) {
	sess.Touch()
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.leave(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, "unknown message type")
	}
}

func (s *SpectatorServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoom
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "bad join request")
			return
		}
	}
	roomID := req.Room
	if roomID == "" {
		roomID = DefaultRoom
	}

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		s.sendError(sess, "room not found")
		return
	}
	s.leave(sess)
	if !r.AddSpectator(sess) {
		s.sendError(sess, "room is full")
		return
	}
	logger.Log.Infof("Session %s joined room %s", sess.GetID(), roomID)

	data, err := json.Marshal(network.RoomState{
		Room:       r.ID,
		Status:     r.GetStatus().String(),
		Spectators: r.Count(),
		Backlog:    r.Backlog(),
	})
	if err != nil {
		logger.Log.Errorf("encode room state: %v", err)
		return
	}
	sess.Send(network.MsgTypeRoomState, data)
}

func (s *SpectatorServer) leave(sess *session.Session) {
	if sess.RoomID == "" {
		return
	}
	if r, exists := s.roomManager.GetRoom(sess.RoomID); exists {
		r.RemoveSpectator(sess.GetID())
	}
}

func (s *SpectatorServer) sendError(sess *session.Session, reason string) {
	data, _ := json.Marshal(network.ErrorMessage{Reason: reason})
	sess.Send(network.MsgTypeError, data)
}
