package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/net/websocket"

	"github.com/abhisek/mathprobe/internal/assessment"
	"github.com/abhisek/mathprobe/internal/protocol"
)

// serveConn runs the receive loop for one WebSocket connection. Frames are
// handled strictly in order, so the connection's session never sees two
// events at once.
func (s *Server) serveConn(conn *websocket.Conn) {
	conn.MaxPayloadBytes = maxFrameBytes
	defer func() {
		_ = conn.Close()
	}()

	logger := s.logger.With("remote", remoteAddr(conn))
	logger.Info("websocket connection accepted")

	var session *assessment.Session
	defer func() {
		s.teardown(conn, session, logger)
	}()

	decodeErrors := 0
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("websocket disconnected by client")
			} else {
				logger.Info("websocket receive ended", "error", err)
			}
			return
		}

		frame, err := protocol.Decode(raw)
		if err != nil {
			decodeErrors++
			logger.Warn("received non-JSON frame", "consecutive", decodeErrors)
			if !s.send(conn, protocol.ErrorMessage("Invalid data format. Please send JSON."), logger) {
				return
			}
			if decodeErrors >= s.opts.MaxDecodeErrors {
				logger.Warn("closing connection after repeated invalid frames")
				return
			}
			continue
		}
		decodeErrors = 0

		if session == nil {
			if m, bad := frame.Event.(assessment.Malformed); bad {
				logger.Warn("invalid frame before session start", "reason", m.Reason)
				if !s.send(conn, protocol.ErrorMessage(m.Reason), logger) {
					return
				}
				continue
			}
			session, err = s.startSession(conn, frame.TaskID, logger)
			if err != nil {
				s.send(conn, protocol.ErrorMessage(fmt.Sprintf("Failed to load task rules for '%s'.", s.taskFor(frame.TaskID))), logger)
				return
			}
			logger = logger.With("session_id", session.ID())
		} else if frame.TaskID != "" && frame.TaskID != session.TaskID() {
			logger.Debug("frame names a different task than its session", "frame_task_id", frame.TaskID)
		}

		action := session.Handle(frame.Event)
		if action == nil {
			continue
		}
		msg, err := protocol.NewMessage(action)
		if err != nil {
			logger.Error("encode action", "error", err)
			continue
		}
		if !s.send(conn, msg, logger) {
			return
		}
		logger.Info("action sent", "type", msg.Type)
		s.recorder.action(session, action)

		if session.Complete() {
			level, _ := session.FinalLevel()
			logger.Info("assessment complete", "level", level)
		}
	}
}

func (s *Server) taskFor(frameTaskID string) string {
	if frameTaskID != "" {
		return frameTaskID
	}
	return s.opts.DefaultTask
}

func (s *Server) startSession(conn *websocket.Conn, frameTaskID string, logger *slog.Logger) (*assessment.Session, error) {
	taskID := s.taskFor(frameTaskID)
	session, err := assessment.New(taskID, s.opts.Loader,
		assessment.WithLogger(s.opts.Logger.With("component", "assessment")),
		assessment.WithDrawingProbe(s.opts.DrawingProbe),
	)
	if err != nil {
		logger.Error("failed to create session", "task_id", taskID, "error", err)
		return nil, err
	}
	total := s.registry.add(conn, session)
	logger.Info("created assessment session", "task_id", taskID, "session_id", session.ID(), "total_sessions", total)
	s.recorder.sessionStarted(session)
	return session, nil
}

func (s *Server) teardown(conn *websocket.Conn, session *assessment.Session, logger *slog.Logger) {
	total, ok := s.registry.remove(conn)
	if !ok {
		logger.Debug("connection closed without a session")
		return
	}
	logger.Info("removed session", "total_sessions", total)
	s.recorder.sessionEnded(session)
}

// send writes msg and reports whether the connection is still usable.
func (s *Server) send(conn *websocket.Conn, msg protocol.Message, logger *slog.Logger) bool {
	if err := websocket.JSON.Send(conn, msg); err != nil {
		logger.Warn("send failed", "type", msg.Type, "error", err)
		return false
	}
	return true
}

func remoteAddr(conn *websocket.Conn) string {
	if r := conn.Request(); r != nil {
		return r.RemoteAddr
	}
	return ""
}
