// Package gateway implements the translation routing gateway: the
// fan-out broadcaster, the websocket live-connection surface, and the
// HTTP diagnostic endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jcnm/meeshy-sub009/correlator"
	"github.com/jcnm/meeshy-sub009/registry"
	"github.com/jcnm/meeshy-sub009/translation"
)

// Dispatcher is the full correlation surface the server needs: direct
// single-language dispatch, batch dispatch for fan-out, and the pending
// count for health reporting.
type Dispatcher interface {
	Dispatch(ctx context.Context, job translation.Job, timeout time.Duration) (translation.Result, error)
	DispatchBatch(ctx context.Context, job translation.BatchJob, timeout time.Duration) (translation.BatchResult, error)
	PendingCount() int
}

// TransportStatus reports outbound-channel reachability for /healthz.
type TransportStatus interface {
	Addr() string
	Healthy() bool
}

// Server exposes the live-connection and diagnostic surfaces.
type Server struct {
	registry    *registry.Registry
	broadcaster *Broadcaster
	dispatcher  Dispatcher
	transport   TransportStatus
	logger      *zap.SugaredLogger
	upgrader    websocket.Upgrader
}

// NewServer wires the gateway's HTTP and websocket surface.
func NewServer(reg *registry.Registry, bc *Broadcaster, dispatcher Dispatcher, transport TransportStatus, logger *zap.SugaredLogger) *Server {
	return &Server{
		registry:    reg,
		broadcaster: bc,
		dispatcher:  dispatcher,
		transport:   transport,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP routes: the websocket endpoint, the health
// check, and the out-of-band translation endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/translate", s.handleTranslate)
	mux.HandleFunc("/v1/translate/batch", s.handleTranslateBatch)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	c := newClient(conn, s.logger)
	go c.writeLoop()
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		if c.identity != "" {
			// Only evict ourselves: a reconnect may already have
			// replaced this channel.
			s.registry.UnregisterChannel(c.identity, c)
		}
		c.close()
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("connection closed", "identity", c.identity, "error", err)
			}
			return
		}
		s.handleFrame(c, raw)
	}
}

func (s *Server) handleFrame(c *client, raw []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		s.sendError(c, fmt.Sprintf("invalid frame: %v", err))
		return
	}

	switch probe.Type {
	case FrameAuth:
		s.handleAuth(c, raw)
	case FramePreferenceUpdate:
		s.handlePreferenceUpdate(c, raw)
	case FrameSendMessage:
		s.handleSendMessage(c, raw)
	case FrameTranslationRequest:
		s.handleTranslationRequest(c, raw)
	default:
		s.sendError(c, fmt.Sprintf("unknown frame type %q", probe.Type))
	}
}

func (s *Server) handleAuth(c *client, raw []byte) {
	var frame AuthFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(c, fmt.Sprintf("invalid auth frame: %v", err))
		return
	}
	if frame.Identity == "" {
		s.sendError(c, "auth frame missing identity")
		return
	}

	if c.identity != "" && c.identity != frame.Identity {
		s.registry.UnregisterChannel(c.identity, c)
	}
	replaced := s.registry.Register(frame.Identity, c, frame.Preference)
	if replaced != nil && replaced != registry.Channel(c) {
		// Later registration wins; disconnect the earlier connection.
		if old, ok := replaced.(*client); ok {
			old.close()
		}
	}
	c.identity = frame.Identity
	s.logger.Infow("participant registered",
		"identity", frame.Identity, "connections", s.registry.Len())
}

func (s *Server) handlePreferenceUpdate(c *client, raw []byte) {
	if c.identity == "" {
		s.sendError(c, "not authenticated")
		return
	}
	var frame PreferenceUpdateFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(c, fmt.Sprintf("invalid preference_update frame: %v", err))
		return
	}
	if err := s.registry.UpdatePreference(c.identity, frame.Preference); err != nil {
		s.sendError(c, err.Error())
	}
}

func (s *Server) handleSendMessage(c *client, raw []byte) {
	var frame SendMessageFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(c, fmt.Sprintf("invalid send_message frame: %v", err))
		return
	}
	if c.identity == "" {
		s.sendFrame(c, MessageSentFrame{
			Type: FrameMessageSent, JobID: frame.JobID,
			Success: false, Error: "not authenticated",
		})
		return
	}

	msg := Message{
		JobID:          frame.JobID,
		ConversationID: frame.ConversationID,
		SenderID:       c.identity,
		Text:           frame.Text,
		SourceLang:     frame.SourceLang,
	}
	participants := frame.Participants

	// The round trip may take seconds; never block the read loop on it.
	go func() {
		report, err := s.broadcaster.RouteMessage(context.Background(), msg, participants)
		ack := MessageSentFrame{Type: FrameMessageSent, JobID: report.JobID, Success: err == nil}
		if err != nil {
			ack.Error = routeErrorMessage(err)
			s.logger.Warnw("message routing failed",
				"jobId", report.JobID, "conversationId", msg.ConversationID, "error", err)
		} else {
			s.logger.Infow("message routed",
				"jobId", report.JobID, "conversationId", msg.ConversationID,
				"delivered", report.Delivered, "verbatim", report.Verbatim,
				"missed", len(report.Missed), "dropped", report.Dropped)
		}
		s.sendFrame(c, ack)
	}()
}

func (s *Server) handleTranslationRequest(c *client, raw []byte) {
	var frame TranslationRequestFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendError(c, fmt.Sprintf("invalid translation_request frame: %v", err))
		return
	}
	if frame.TargetLang == "" || frame.Text == "" {
		s.sendFrame(c, TranslationErrorFrame{
			Type: FrameTranslationError, JobID: frame.JobID,
			Error: "translation_request requires text and targetLanguage",
		})
		return
	}

	job := translation.Job{
		JobID:      frame.JobID,
		Text:       frame.Text,
		TargetLang: frame.TargetLang,
		SourceLang: frame.SourceLang,
		ModelHint:  frame.ModelHint,
	}
	if job.JobID == "" {
		job.JobID = correlator.NewJobID()
	}

	go func() {
		result, err := s.dispatcher.Dispatch(context.Background(), job, 0)
		if err != nil {
			s.sendFrame(c, TranslationErrorFrame{
				Type: FrameTranslationError, JobID: job.JobID,
				Error: routeErrorMessage(err),
			})
			return
		}
		s.sendFrame(c, TranslationResponseFrame{
			Type:               FrameTranslationResponse,
			JobID:              result.JobID,
			TranslatedText:     result.TranslatedText,
			DetectedSourceLang: result.DetectedSourceLang,
			Confidence:         result.Meta.Confidence,
			FromCache:          result.Meta.FromCache,
		})
	}()
}

// routeErrorMessage maps correlation failures to the user-visible error
// string carried in acknowledgments.
func routeErrorMessage(err error) string {
	var transportErr *correlator.TransportError
	switch {
	case errors.Is(err, correlator.ErrTimeout):
		return "Translation timeout: the engine did not answer in time"
	case errors.Is(err, correlator.ErrShuttingDown):
		return "Gateway is shutting down"
	case errors.As(err, &transportErr):
		return "Translation engine unreachable"
	default:
		return err.Error()
	}
}

func (s *Server) sendFrame(c *client, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		s.logger.Errorw("failed to encode frame", "error", err)
		return
	}
	if !c.Deliver(payload) {
		s.logger.Debugw("frame dropped on closed or congested connection")
	}
}

func (s *Server) sendError(c *client, msg string) {
	s.sendFrame(c, ErrorFrame{Type: FrameError, Error: msg})
}

type healthResponse struct {
	Status      string          `json:"status"`
	PendingJobs int             `json:"pendingJobs"`
	Connections int             `json:"connections"`
	Transport   transportHealth `json:"transport"`
}

type transportHealth struct {
	EngineAddr string `json:"engineAddr"`
	Reachable  bool   `json:"reachable"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:      "ok",
		PendingJobs: s.dispatcher.PendingCount(),
		Connections: s.registry.Len(),
		Transport: transportHealth{
			EngineAddr: s.transport.Addr(),
			Reachable:  s.transport.Healthy(),
		},
	}
	if !resp.Transport.Reachable {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Errorw("failed to encode health response", "error", err)
	}
}

// handleTranslate is the out-of-band single-translation endpoint used for
// diagnostics and engine smoke tests.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var job translation.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}
	if job.Text == "" || job.TargetLang == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("text and targetLanguage are required"))
		return
	}
	if job.JobID == "" {
		job.JobID = correlator.NewJobID()
	}

	result, err := s.dispatcher.Dispatch(r.Context(), job, 0)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleTranslateBatch is the out-of-band batch endpoint.
func (s *Server) handleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var job translation.BatchJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}
	if job.JobID == "" {
		job.JobID = correlator.NewJobID()
	}
	if err := job.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.dispatcher.DispatchBatch(r.Context(), job, 0)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	var transportErr *correlator.TransportError
	switch {
	case errors.Is(err, correlator.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err)
	case errors.As(err, &transportErr), errors.Is(err, correlator.ErrShuttingDown):
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
