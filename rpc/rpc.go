package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server. Services are added with Register.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register publishes rcvr's exported methods under its type name.
func (s *Server) Register(rcvr interface{}) error {
	return s.rpc.Register(rcvr)
}

// Addr is the address actually listened on.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests. It returns when the listener closes.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
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

// RecordSource answers record queries; services.RecordService is one.
type RecordSource interface {
	Recent(limit int) ([]models.GameRecord, error)
	PlayerStats(playerID string) (*models.PlayerStats, error)
}

// Records is the struct that exposes record queries as RPC methods.
// Methods follow the net/rpc signature: exported arguments, a pointer
// reply, an error result.
type Records struct {
	source RecordSource
}

func NewRecords(source RecordSource) *Records {
	return &Records{source: source}
}

type RecentArgs struct {
	Limit int
}

type RecentReply struct {
	Records []models.GameRecord
}

type StatsArgs struct {
	PlayerID string
}

type StatsReply struct {
	Stats models.PlayerStats
}

func (r *Records) Recent(args *RecentArgs, reply *RecentReply) error {
	records, err := r.source.Recent(args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

func (r *Records) PlayerStats(args *StatsArgs, reply *StatsReply) error {
	stats, err := r.source.PlayerStats(args.PlayerID)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}
