package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MaxSpawnRequest caps a single POST /api/spawn.
const MaxSpawnRequest = 10000

// SpawnSink receives spawn requests; world.SpawnSignal satisfies it.
type SpawnSink interface {
	Add(n int)
}

// Server serves the latest Snapshot. Publish is called from the frame
// goroutine; handlers run on net/http goroutines and never touch the world.
type Server struct {
	log    *zap.Logger
	spawns SpawnSink

	latest   atomic.Pointer[Snapshot]
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
}

func NewServer(spawns SpawnSink, log *zap.Logger) *Server {
	return &Server{
		log:    log,
		spawns: spawns,
		subs:   make(map[uint64]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish stores snap as the latest sample and fans it out to websocket
// subscribers. Slow subscribers miss frames rather than block the caller.
func (s *Server) Publish(snap Snapshot) {
	s.latest.Store(&snap)
	b, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("encode diagnostics", zap.Error(err))
		return
	}
	s.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- b:
		default:
		}
	}
	s.mu.Unlock()
}

// Latest returns the last published snapshot.
func (s *Server) Latest() (Snapshot, bool) {
	p := s.latest.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}

// Subscribers returns the number of open websocket streams.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/diagnostics", s.snapshotHandler)
	mux.HandleFunc("/ws/diagnostics", s.wsHandler)
	mux.HandleFunc("/api/spawn", s.spawnHandler)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if e := <-errCh; e != nil && !errors.Is(e, http.ErrServerClosed) {
			return e
		}
		return err
	}
}

func (s *Server) snapshotHandler(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap, ok := s.Latest()
	if !ok {
		http.Error(rw, "no sample yet", http.StatusServiceUnavailable)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(snap)
}

func (s *Server) spawnHandler(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || n < 1 || n > MaxSpawnRequest {
		http.Error(rw, "count must be 1.."+strconv.Itoa(MaxSpawnRequest), http.StatusBadRequest)
		return
	}
	s.spawns.Add(n)
	s.log.Info("spawn requested", zap.Int("count", n), zap.String("remote", r.RemoteAddr))
	rw.WriteHeader(http.StatusAccepted)
}

func (s *Server) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	out := make(chan []byte, 8)
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = out
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	// The stream is one-way; the reader only notices the client leaving.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if p := s.latest.Load(); p != nil {
		if b, err := json.Marshal(p); err == nil {
			select {
			case out <- b:
			default:
			}
		}
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case b := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
