package beast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
)

// clientQueueSize is the number of messages buffered per client before it is dropped
const clientQueueSize = 256

// Server re-broadcasts frames in Beast format to every connected TCP client
type Server struct {
	logger   *logrus.Logger
	listener net.Listener

	mu      sync.Mutex
	clients map[net.Conn]chan []byte
	wg      sync.WaitGroup
}

// NewServer listens on addr
func NewServer(addr string, logger *logrus.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Server{
		logger:   logger,
		listener: listener,
		clients:  make(map[net.Conn]chan []byte),
	}, nil
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts clients until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	s.logger.WithField("addr", s.Addr().String()).Info("Beast server listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.closeClients()
				return nil
			}
			return fmt.Errorf("failed to accept beast client: %w", err)
		}
		s.addClient(conn)
	}
}

func (s *Server) addClient(conn net.Conn) {
	queue := make(chan []byte, clientQueueSize)

	s.mu.Lock()
	s.clients[conn] = queue
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"client":  conn.RemoteAddr().String(),
		"clients": count,
	}).Info("Beast client connected")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		for data := range queue {
			if _, err := conn.Write(data); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()
	go func() {
		defer s.wg.Done()
		// Clients are not expected to send anything; a read error means they left
		buf := make([]byte, 64)
		for {
			if _, err := conn.Read(buf); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()
}

func (s *Server) removeClient(conn net.Conn) {
	s.mu.Lock()
	queue, ok := s.clients[conn]
	if ok {
		delete(s.clients, conn)
		close(queue)
	}
	s.mu.Unlock()

	if ok {
		conn.Close()
		s.logger.WithField("client", conn.RemoteAddr().String()).Info("Beast client disconnected")
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		s.removeClient(conn)
	}
	s.wg.Wait()
}

// Broadcast sends frame to every client. Clients whose queue is full are disconnected.
func (s *Server) Broadcast(frame adsb.RawFrame) error {
	data, err := FromRawFrame(frame, 0xFF).Encode()
	if err != nil {
		return err
	}

	var slow []net.Conn
	s.mu.Lock()
	for conn, queue := range s.clients {
		select {
		case queue <- data:
		default:
			slow = append(slow, conn)
		}
	}
	s.mu.Unlock()

	for _, conn := range slow {
		s.logger.WithField("client", conn.RemoteAddr().String()).Warn("Beast client too slow, dropping")
		s.removeClient(conn)
	}
	return nil
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
