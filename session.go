package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultWriteTimeout = 5 * time.Second
	closeFrameTimeout   = time.Second
	// Viewers only ever send control frames.
	maxInboundMessage = 512
)

// viewerSession streams snapshots from one hub feed to one WebSocket
// connection. It shares nothing mutable with other sessions.
type viewerSession struct {
	id           uuid.UUID
	conn         *websocket.Conn
	hub          *Hub
	writeTimeout time.Duration
	log          zerolog.Logger
	telemetry    *telemetry

	// touched only by run
	state   SessionState
	history []SessionState
}

func newViewerSession(conn *websocket.Conn, hub *Hub, writeTimeout time.Duration, log zerolog.Logger, t *telemetry) *viewerSession {
	id := uuid.New()
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &viewerSession{
		id:           id,
		conn:         conn,
		hub:          hub,
		writeTimeout: writeTimeout,
		log:          log.With().Str("session", id.String()).Logger(),
		telemetry:    t,
	}
}

func (s *viewerSession) transition(to SessionState) {
	if !canTransition(s.state, to) {
		// A bug, not a runtime condition; keep going so resources are released.
		s.log.Error().Str("from", string(s.state)).Str("to", string(to)).Msg("invalid session transition")
	}
	s.state = to
	s.history = append(s.history, to)
}

// run drives the session from connecting to closed. It returns once the feed
// is released, the connection is closed and the reader has exited.
func (s *viewerSession) run(ctx context.Context) {
	s.transition(StateConnecting)
	feed := s.hub.Subscribe()

	s.conn.SetReadLimit(maxInboundMessage)
	remoteDone := make(chan struct{})
	go s.readLoop(remoteDone)

	s.transition(StateStreaming)
	s.log.Debug().Str("remote", s.conn.RemoteAddr().String()).Msg("viewer connected")

	reason, err := s.stream(ctx, feed, remoteDone)

	s.transition(StateClosing)
	feed.Close()
	s.finish(reason, err)
	_ = s.conn.Close()
	<-remoteDone

	s.transition(StateClosed)
	s.log.Debug().Str("reason", reason.String()).Msg("viewer disconnected")
}

func (s *viewerSession) stream(ctx context.Context, feed *Feed, remoteDone <-chan struct{}) (closeReason, error) {
	for {
		select {
		case snap, ok := <-feed.C():
			if !ok {
				return closeFeedEnded, nil
			}
			if err := s.write(snap); err != nil {
				return closeWriteFailed, err
			}
		case <-remoteDone:
			return closeRemote, nil
		case <-ctx.Done():
			return closeShutdown, nil
		}
	}
}

func (s *viewerSession) write(snap Snapshot) error {
	payload, err := snap.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *viewerSession) finish(reason closeReason, err error) {
	switch reason {
	case closeWriteFailed:
		if ClassifyDisconnect(err) == DisconnectRoutine {
			s.telemetry.sessionDisconnects.WithLabelValues(disconnectKindRoutine).Inc()
			return
		}
		s.telemetry.sessionDisconnects.WithLabelValues(disconnectKindUnexpected).Inc()
		s.log.Error().Err(err).Msg("viewer write failed")
	case closeRemote:
		s.telemetry.sessionDisconnects.WithLabelValues(disconnectKindRemote).Inc()
	case closeFeedEnded, closeShutdown:
		s.telemetry.sessionDisconnects.WithLabelValues(disconnectKindShutdown).Inc()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeFrameTimeout))
	}
}

// readLoop drains inbound frames so ping and close control frames are handled.
// Viewers send nothing meaningful; any read error ends the session.
func (s *viewerSession) readLoop(done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
