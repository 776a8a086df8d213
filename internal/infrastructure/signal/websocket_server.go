package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
	"reelsync/internal/infrastructure/monitoring"
	apperrors "reelsync/pkg/errors"
	"reelsync/pkg/utils"
	"reelsync/pkg/validation"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const sendQueueSize = 64

// Options collects the websocket tunables from config.
type Options struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	MessagesPerSec  float64
	MessageBurst    int
}

type WebSocketServer struct {
	rooms     ports.RoomService
	auth      ports.AuthService
	registry  *Registry
	collector *monitoring.PrometheusCollector
	opts      Options
	logger    *zap.SugaredLogger
}

func NewWebSocketServer(
	rooms ports.RoomService,
	auth ports.AuthService,
	registry *Registry,
	collector *monitoring.PrometheusCollector,
	opts Options,
	logger *zap.SugaredLogger,
) *WebSocketServer {
	return &WebSocketServer{
		rooms:     rooms,
		auth:      auth,
		registry:  registry,
		collector: collector,
		opts:      opts,
		logger:    logger,
	}
}

// client is one viewer socket. Writes go through a buffered queue drained
// by a single goroutine, so fan-out never blocks on a slow socket.
type client struct {
	id       domain.ConnID
	roomID   domain.RoomID
	viewerID domain.ViewerID

	conn *websocket.Conn
	send chan domain.Event

	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) ID() domain.ConnID { return c.id }

// Send enqueues without blocking. A full queue counts as a failed write so
// the registry can drop the connection instead of stalling a fan-out.
func (c *client) Send(event domain.Event) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.id)
	case c.send <- event:
		return nil
	default:
		return fmt.Errorf("connection %s send queue full", c.id)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// commandMessage is the inbound frame: explicit calls only, since Connect
// and Disconnect are implicit in the socket lifecycle.
type commandMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type playerUpdatePayload struct {
	Pause      *bool    `json:"pause,omitempty"`
	FullScreen *bool    `json:"fullscreen,omitempty"`
	TimeLineMs *int64   `json:"timeline_ms,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	Season     *int     `json:"season,omitempty"`
	Episode    *int     `json:"episode,omitempty"`
	Muted      *bool    `json:"muted,omitempty"`
}

type targetPayload struct {
	TargetID domain.ViewerID `json:"target_id"`
}

type messagePayload struct {
	Text string `json:"text"`
}

type typingPayload struct {
	Typing bool `json:"typing"`
}

// HandleWebSocket authenticates, upgrades, registers the connection for
// its room and performs the implicit Connect. Disconnect is implicit on
// close and never deletes the viewer entry.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filmID := r.URL.Query().Get("film_id")
	isSerial := r.URL.Query().Get("is_serial") == "true"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:       domain.ConnID(utils.GenerateConnID()),
		roomID:   domain.RoomID(roomID),
		viewerID: claims.ViewerID,
		conn:     conn,
		send:     make(chan domain.Event, sendQueueSize),
		done:     make(chan struct{}),
	}

	// Subscribe before Connect so no delta between the two is missed; the
	// viewer's own Join is excluded by origin anyway.
	s.registry.Subscribe(c.roomID, c)
	s.collector.ConnectionOpened()
	s.collector.SetRoomCount(s.registry.RoomCount())

	err = s.rooms.Connect(r.Context(), ports.ConnectParams{
		RoomID:   c.roomID,
		FilmID:   filmID,
		IsSerial: isSerial,
		Profile: domain.ViewerProfile{
			ID:       claims.ViewerID,
			UserName: claims.UserName,
			PhotoKey: claims.PhotoKey,
		},
		Origin: c.id,
	})
	if err != nil {
		s.logger.Warnw("connect failed", "room_id", c.roomID, "viewer_id", c.viewerID, "error", err)
		s.sendError(c, err)
		s.teardown(c)
		return
	}

	s.logger.Infow("viewer socket opened",
		"room_id", c.roomID,
		"viewer_id", c.viewerID,
		"conn_id", c.id,
	)

	go s.writePump(c)
	s.readPump(c)
	s.teardown(c)
}

func (s *WebSocketServer) authenticate(r *http.Request) (*ports.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return s.auth.ValidateToken(token)
}

func (s *WebSocketServer) teardown(c *client) {
	c.close()
	s.registry.Unsubscribe(c.roomID, c.id)
	s.collector.ConnectionClosed()
	s.collector.SetRoomCount(s.registry.RoomCount())

	// The request context is gone; disconnect must still land.
	if err := s.rooms.Disconnect(context.Background(), c.roomID, c.viewerID, c.id); err != nil {
		s.logger.Warnw("disconnect failed", "room_id", c.roomID, "viewer_id", c.viewerID, "error", err)
	}

	s.logger.Infow("viewer socket closed",
		"room_id", c.roomID,
		"viewer_id", c.viewerID,
		"conn_id", c.id,
	)
}

func (s *WebSocketServer) writePump(c *client) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				s.collector.SocketWriteFailed()
				c.close()
				return
			}
			s.collector.EventDelivered()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (s *WebSocketServer) readPump(c *client) {
	c.conn.SetReadLimit(s.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(s.opts.MessagesPerSec), s.opts.MessageBurst)

	for {
		var cmd commandMessage
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read error", "conn_id", c.id, "error", err)
			}
			return
		}
		if !limiter.Allow() {
			s.sendError(c, fmt.Errorf("%w: too many messages", domain.ErrValidation))
			continue
		}

		s.handleCommand(context.Background(), c, cmd)
	}
}

func (s *WebSocketServer) handleCommand(ctx context.Context, c *client, cmd commandMessage) {
	start := time.Now()
	err := s.dispatch(ctx, c, cmd)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		// Failures go only to the caller; a rejected action never
		// disturbs other viewers.
		s.sendError(c, err)
	}
	s.collector.RecordCommand(cmd.Action, outcome, time.Since(start))
}

func (s *WebSocketServer) dispatch(ctx context.Context, c *client, cmd commandMessage) error {
	switch cmd.Action {
	case "update_player":
		var p playerUpdatePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid update_player payload", domain.ErrValidation)
		}
		upd := domain.PlayerUpdate{
			OnPause:    p.Pause,
			FullScreen: p.FullScreen,
			Speed:      p.Speed,
			Season:     p.Season,
			Episode:    p.Episode,
			Muted:      p.Muted,
		}
		if p.TimeLineMs != nil {
			d := time.Duration(*p.TimeLineMs) * time.Millisecond
			upd.TimeLine = &d
		}
		_, err := s.rooms.UpdatePlayer(ctx, c.roomID, c.viewerID, upd, c.id)
		return err

	case "send_message":
		var p messagePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid send_message payload", domain.ErrValidation)
		}
		_, err := s.rooms.SendMessage(ctx, c.roomID, c.viewerID, p.Text, c.id)
		return err

	case "kick":
		var p targetPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid kick payload", domain.ErrValidation)
		}
		return s.rooms.Kick(ctx, c.roomID, c.viewerID, p.TargetID, c.id)

	case "beep":
		var p targetPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid beep payload", domain.ErrValidation)
		}
		return s.rooms.Beep(ctx, c.roomID, c.viewerID, p.TargetID, c.id)

	case "scream":
		var p targetPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid scream payload", domain.ErrValidation)
		}
		return s.rooms.Scream(ctx, c.roomID, c.viewerID, p.TargetID, c.id)

	case "update_settings":
		var p domain.Settings
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid update_settings payload", domain.ErrValidation)
		}
		return s.rooms.UpdateSettings(ctx, c.roomID, c.viewerID, p, c.id)

	case "typing":
		var p typingPayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("%w: invalid typing payload", domain.ErrValidation)
		}
		return s.rooms.Typing(ctx, c.roomID, c.viewerID, p.Typing, c.id)

	case "leave":
		return s.rooms.Leave(ctx, c.roomID, c.viewerID, c.id)

	case "delete_room":
		return s.rooms.DeleteRoom(ctx, c.roomID, c.viewerID)

	default:
		return fmt.Errorf("%w: unknown action %q", domain.ErrValidation, cmd.Action)
	}
}

func (s *WebSocketServer) sendError(c *client, err error) {
	appErr := apperrors.FromDomain(err)

	remaining := 0
	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		remaining = cooldown.RemainingSeconds()
	}

	event := domain.ComposeError(c.roomID, c.viewerID, string(appErr.Code), appErr.Message, remaining)
	if sendErr := c.Send(event); sendErr != nil {
		s.logger.Debugw("failed to deliver error event", "conn_id", c.id, "error", sendErr)
	}
}
