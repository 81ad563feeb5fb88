package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	ferrors "github.com/devfolio-dev/folio/internal/errors"
	"github.com/devfolio-dev/folio/pkg/editor"
	"github.com/devfolio-dev/folio/pkg/features/attachments"
	"github.com/devfolio-dev/folio/pkg/loop"
	"github.com/devfolio-dev/folio/pkg/render"
	"github.com/devfolio-dev/folio/pkg/toast"
	"github.com/devfolio-dev/folio/pkg/upload"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	claimTimeout   = 30 * time.Second
	closeTimeout   = 2 * time.Second
)

// Message types.
const (
	TypeLoad        = "load"
	TypeData        = "data"
	TypeInsertImage = "insert-image"
	TypeUpload      = "upload"
	TypeSubmit      = "submit"

	TypeSession  = "session"
	TypeFields   = "fields"
	TypeInserted = "inserted"
	TypeSaved    = "saved"
	TypeError    = "error"
	TypeEvent    = "event"
)

// Message is a client to server editor message.
type Message struct {
	Type   string `json:"type"`
	HTML   string `json:"html,omitempty"`
	Parent string `json:"parent,omitempty"`
	Index  *int   `json:"index,omitempty"`
	Key    string `json:"key,omitempty"`
	Ref    string `json:"ref,omitempty"`
}

// Reply is a server to client editor message.
type Reply struct {
	Type    string     `json:"type"`
	Session string     `json:"session,omitempty"`
	Key     string     `json:"key,omitempty"`
	Refs    []string   `json:"refs,omitempty"`
	HTML    string     `json:"html,omitempty"`
	Fields  string     `json:"fields,omitempty"`
	Values  url.Values `json:"values,omitempty"`
	Message string     `json:"message,omitempty"`
	Code    string     `json:"code,omitempty"`
	Name    string     `json:"name,omitempty"`
	Payload any        `json:"payload,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts same-origin requests and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return matchOrigin(s.config.AllowedOrigins, origin)
}

func matchOrigin(patterns []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == "*" {
			return true
		}
		prefix, suffix, wild := strings.Cut(p, "*")
		if !wild {
			if p == origin {
				return true
			}
			continue
		}
		if len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.metrics.WebSocketError("upgrade")
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := r.URL.Query().Get("session")
	if id == "" {
		id = uuid.NewString()
	}
	sess := s.newSession(r.Context(), id, conn)

	// A reconnect replaces the previous session with the same id.
	s.sessions.Remove(id)
	s.sessions.Add(id, sess)

	sess.run()

	if cur, ok := s.sessions.Peek(id); ok && cur == sess {
		s.sessions.Remove(id)
	} else {
		sess.Close()
	}
}

// session is one editor connection. editor and tracker are only touched
// from loop callbacks.
type session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	loop   *loop.Loop
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	editor   *editor.Editor
	tracker  *attachments.Tracker
	notifier toast.Notifier

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *Server) newSession(ctx context.Context, id string, conn *websocket.Conn) *session {
	logger := s.logger.With("session", id)
	cfg := s.config

	editorOpts := []editor.Option{
		editor.WithRefAttr(cfg.RefAttr),
		editor.WithLogger(logger),
	}
	if cfg.MaxAttachments > 0 {
		editorOpts = append(editorOpts, editor.WithValidator(editor.MaxAttachments(cfg.MaxAttachments, cfg.ImageTags...)))
	}

	sess := &session{
		id:     id,
		server: s,
		conn:   conn,
		loop:   loop.New(loop.WithLogger(logger)),
		logger: logger,
		editor: editor.New(editorOpts...),
	}
	sess.ctx, sess.cancel = context.WithCancel(ctx)
	sess.notifier = toast.EmitNotifier{Emitter: sess}
	return sess
}

// run serves the connection until the client goes away.
func (s *session) run() {
	s.server.metrics.SessionOpened()
	defer s.server.metrics.SessionClosed()
	s.logger.Info("editor session opened")

	go s.loop.Run(s.ctx)
	go s.pingLoop()

	s.send(Reply{Type: TypeSession, Session: s.id})
	s.readLoop()
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.server.metrics.WebSocketError("read")
				s.logger.Warn("editor read failed", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.server.metrics.WebSocketError("decode")
			s.send(Reply{Type: TypeError, Message: "invalid message"})
			continue
		}
		s.loop.Dispatch(func() { s.handle(msg) })
	}
}

func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.Close()
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handle runs on the session loop.
func (s *session) handle(msg Message) {
	if msg.Type == TypeLoad && s.tracker == nil {
		if err := s.editor.LoadHTML(msg.HTML); err != nil {
			s.reject(err)
			return
		}
		s.start()
		s.sendFields()
		return
	}
	s.start()

	var err error
	switch msg.Type {
	case TypeLoad:
		err = ferrors.New("E031")
	case TypeData:
		err = s.editor.SetData(msg.HTML, editor.OriginUser)
	case TypeInsertImage:
		index := -1
		if msg.Index != nil {
			index = *msg.Index
		}
		var key string
		key, err = s.editor.InsertImage(msg.Parent, index)
		if err == nil {
			s.send(Reply{Type: TypeInserted, Key: key})
		}
	case TypeUpload:
		err = s.editor.CompleteUpload(msg.Key, msg.Ref)
	case TypeSubmit:
		s.submit()
		return
	default:
		err = ferrors.New("E030").WithDetail("type " + msg.Type)
	}
	if err != nil {
		s.reject(err)
		return
	}
	s.sendFields()
}

// start attaches the tracker to whatever the editor holds.
func (s *session) start() {
	if s.tracker != nil {
		return
	}
	cfg := s.server.config
	s.tracker = attachments.New(s.editor,
		attachments.WithClassifier(cfg.classifier()),
		attachments.WithFieldName(cfg.FieldName),
		attachments.WithRecordedAttr(cfg.RecordedAttr),
		attachments.WithLogger(s.logger),
		attachments.WithMetrics(s.server.metrics),
	)
}

func (s *session) submit() {
	refs := s.tracker.Refs()
	if uploads := s.server.uploads; uploads != nil {
		ctx, cancel := context.WithTimeout(s.ctx, claimTimeout)
		failed := 0
		for _, ref := range refs {
			if _, err := uploads.Claim(ctx, ref); err != nil {
				failed++
				if errors.Is(err, upload.ErrNotFound) {
					err = ferrors.New("E021").Wrap(err)
				}
				s.logger.Warn("upload claim failed", "ref", ref, "error", err)
			}
		}
		cancel()
		if failed > 0 {
			toast.Warning(s.notifier, fmt.Sprintf("%d of %d images could not be saved", failed, len(refs)))
		}
	}
	s.send(Reply{Type: TypeSaved, Refs: refs, Values: s.tracker.Values()})
}

func (s *session) sendFields() {
	s.send(Reply{
		Type:   TypeFields,
		Refs:   s.tracker.Refs(),
		HTML:   s.editor.HTML(),
		Fields: render.RenderToString(s.tracker.Fields()),
	})
}

func (s *session) reject(err error) {
	s.logger.Debug("editor message rejected", "error", err)
	s.send(Reply{Type: TypeError, Message: err.Error(), Code: ferrors.Code(err)})
}

// Emit sends an event to the client. It implements toast.Emitter.
func (s *session) Emit(name string, payload any) {
	s.send(Reply{Type: TypeEvent, Name: name, Payload: payload})
}

func (s *session) send(r Reply) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(r); err != nil {
		s.server.metrics.WebSocketError("write")
		s.logger.Debug("editor write failed", "type", r.Type, "error", err)
	}
}

// Close detaches the tracker, stops the loop and closes the connection.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		_ = s.loop.Call(ctx, func() {
			if s.tracker != nil {
				s.tracker.Close()
			}
		})
		cancel()
		s.loop.Close()
		s.cancel()

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
		s.logger.Info("editor session closed")
	})
}
