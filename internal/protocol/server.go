package protocol

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// TextCommand enumerates the UI's case-sensitive, exact-match commands.
// An unrecognized command is logged and ignored rather than closing the
// connection.
type TextCommand string

const (
	CmdHash                 TextCommand = "hash"
	CmdImport               TextCommand = "import"
	CmdProcess              TextCommand = "process"
	CmdGenerateProfiles     TextCommand = "generate_profiles"
	CmdBulk                 TextCommand = "bulk"
	CmdOutputTrackedPaths   TextCommand = "output_tracked_paths"
	CmdOutputFileVersions   TextCommand = "output_file_versions"
	CmdDisplayWorkers       TextCommand = "display_workers"
	CmdEncodeAll            TextCommand = "encode_all"
	CmdRunCompletenessCheck TextCommand = "run_completeness_check"
	CmdKillAllWorkers       TextCommand = "kill_all_workers"
	CmdFileAccessSelfTest   TextCommand = "file_access_self_test"
)

// Sink is the minimal write surface a handler needs for a peer's
// transport, satisfied by a *websocket.Conn wrapper and by test doubles.
type Sink interface {
	Send(envelope []byte) error
	Close() error
}

// Handlers wires the protocol layer to the rest of the server: each
// field is invoked for the matching text command or binary variant.
// Binary handlers receive the already-decoded payload; OnInitialise
// additionally receives the Sink so it can register the new peer.
type Handlers struct {
	OnText func(cmd TextCommand)

	OnInitialise func(addr string, sink Sink, payload InitialisePayload) (assignedID uint64)

	// OnEncodeGeneric additionally receives the sending peer's worker id
	// (nil if it never Initialised) so AddNow dispatch can target it
	// directly without a lookup through the central queue.
	OnEncodeGeneric  func(workerID *uint64, payload EncodeGenericPayload)
	OnEncodeStarted  func(payload EncodeStartedPayload)
	OnEncodeFinished func(payload EncodeFinishedPayload)
	OnMoveStarted    func(payload MoveStartedPayload)
	OnMoveFinished   func(payload MoveFinishedPayload) error

	// OnDisconnect fires when a connection drops; workerID is nil if the
	// peer never sent Initialise.
	OnDisconnect func(addr string, workerID *uint64)
}

// Peer is one connected client's outgoing sink plus whatever worker id
// the registry has assigned it, if any.
type Peer struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	workerID *uint64
}

// Send writes a binary frame containing the already-framed envelope
// bytes. Writes are serialized per-connection since gorilla/websocket
// forbids concurrent writers on the same connection.
func (p *Peer) Send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Close closes the underlying connection.
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Server accepts peer connections on IPv4 and IPv6 bindings concurrently,
// spawning one handler goroutine per connection, mirroring run_web's
// dual-listener shape.
type Server struct {
	logger   *slog.Logger
	handlers Handlers
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[string]*Peer
}

// New creates a Server. Bind addresses are not given here; each binding
// is passed to its own Serve call.
func New(handlers Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		handlers: handlers,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		peers:    make(map[string]*Peer),
	}
}

// Serve accepts on addr until ctx is cancelled. Call it once per binding
// (typically once for an IPv4 address, once for an IPv6 address) from
// separate goroutines so both accept loops run concurrently.
func (s *Server) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("protocol.Server.Serve: listening on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info("protocol server listening", slog.String("addr", addr))
	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("protocol.Server.Serve: %w", err)
	}
	return nil
}

// Close sends a Close envelope to every connected peer, for graceful
// shutdown fan-out.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := NewEnvelope(VariantClose, struct{}{})
	if err != nil {
		return
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, env); err != nil {
		return
	}
	for addr, peer := range s.peers {
		if err := peer.Send(buf.Bytes()); err != nil {
			s.logger.Warn("failed to send close to peer", slog.String("addr", addr), slog.Any("error", err))
		}
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	addr := r.RemoteAddr
	s.logger.Info("incoming connection", slog.String("addr", addr))

	peer := &Peer{conn: conn}
	s.mu.Lock()
	s.peers[addr] = peer
	s.mu.Unlock()

	s.handleConnection(addr, peer)

	s.mu.Lock()
	delete(s.peers, addr)
	s.mu.Unlock()

	if s.handlers.OnDisconnect != nil {
		s.handlers.OnDisconnect(addr, peer.workerID)
	}
	s.logger.Info("connection closed", slog.String("addr", addr))
}

func (s *Server) handleConnection(addr string, peer *Peer) {
	for {
		msgType, data, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.TextMessage:
			s.handleText(data)
		case websocket.BinaryMessage:
			s.handleBinary(addr, peer, data)
		}
	}
}

// handleText strips trailing newline variants and dispatches a text
// command, logging and ignoring anything unrecognized.
func (s *Server) handleText(data []byte) {
	line := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	cmd := TextCommand(line)
	switch cmd {
	case CmdHash, CmdImport, CmdProcess, CmdGenerateProfiles, CmdBulk,
		CmdOutputTrackedPaths, CmdOutputFileVersions, CmdDisplayWorkers,
		CmdEncodeAll, CmdRunCompletenessCheck, CmdKillAllWorkers, CmdFileAccessSelfTest:
		if s.handlers.OnText != nil {
			s.handlers.OnText(cmd)
		}
	default:
		s.logger.Warn("unrecognized text command", slog.String("command", line))
	}
}

func (s *Server) handleBinary(addr string, peer *Peer, data []byte) {
	env, err := ReadFrame(bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("malformed binary envelope", slog.String("addr", addr), slog.Any("error", err))
		return
	}

	switch env.Variant {
	case VariantInitialise:
		var payload InitialisePayload
		if err := env.Decode(&payload); err != nil {
			s.logger.Warn("malformed initialise payload", slog.Any("error", err))
			return
		}
		if s.handlers.OnInitialise != nil {
			id := s.handlers.OnInitialise(addr, peer, payload)
			peer.workerID = &id
		}
	case VariantEncodeGeneric:
		var payload EncodeGenericPayload
		if err := env.Decode(&payload); err == nil && s.handlers.OnEncodeGeneric != nil {
			s.handlers.OnEncodeGeneric(peer.workerID, payload)
		}
	case VariantEncodeStarted:
		var payload EncodeStartedPayload
		if err := env.Decode(&payload); err == nil && s.handlers.OnEncodeStarted != nil {
			s.handlers.OnEncodeStarted(payload)
		}
	case VariantEncodeFinished:
		var payload EncodeFinishedPayload
		if err := env.Decode(&payload); err == nil && s.handlers.OnEncodeFinished != nil {
			s.handlers.OnEncodeFinished(payload)
		}
	case VariantMoveStarted:
		var payload MoveStartedPayload
		if err := env.Decode(&payload); err == nil && s.handlers.OnMoveStarted != nil {
			s.handlers.OnMoveStarted(payload)
		}
	case VariantMoveFinished:
		var payload MoveFinishedPayload
		if err := env.Decode(&payload); err == nil && s.handlers.OnMoveFinished != nil {
			if err := s.handlers.OnMoveFinished(payload); err != nil {
				s.logger.Error("move finished handling failed", slog.Any("error", err))
			}
		}
	default:
		s.logger.Warn("server received a binary message it doesn't know how to handle", slog.String("variant", string(env.Variant)))
	}
}
