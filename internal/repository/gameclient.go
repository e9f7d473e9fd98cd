package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"leela_client/internal/bootstrap"
	"leela_client/internal/domain/gtp"
	errs "leela_client/internal/errors"
)

const (
	MessageTypeGTP = "gtp"
	MessageTypeSys = "sys"

	writeWait = 10 * time.Second
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outboundEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type inboundSys struct {
	ID   *int64          `json:"id"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args"`
}

type outboundSys struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Args any    `json:"args,omitempty"`
}

type pendingCall struct {
	kind    string
	resolve func(payload []byte)
	fail    func(err error)
}

// GameClient multiplexes engine (gtp) and control (sys) requests over one
// websocket connection. Both kinds draw ids from one counter. Responses are
// matched to callers by id in any order.
//
// When the connection drops, every pending request fails with
// ErrConnectionLost and a new connection is dialed after the reconnect delay.
type GameClient struct {
	url    string
	delay  time.Duration
	dialer *websocket.Dialer
	log    *zap.SugaredLogger

	msgID   atomic.Int64
	pending sync.Map // map[int64]*pendingCall

	mu        sync.Mutex
	conn      *websocket.Conn
	state     ConnState
	reconnect *time.Timer
	started   bool
	closed    bool

	writeMu sync.Mutex

	subMu       sync.RWMutex
	subSeq      int
	onConnected map[int]func()
	pushes      map[string]map[int]func(json.RawMessage)
}

func NewGameClient(cfg *bootstrap.Config, log *zap.SugaredLogger) *GameClient {
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &GameClient{
		url:   cfg.ServerURL(),
		delay: delay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		log:         log,
		state:       StateClosed,
		onConnected: make(map[int]func()),
		pushes:      make(map[string]map[int]func(json.RawMessage)),
	}
}

// Open dials the server. A failed first dial is returned but the client keeps
// retrying in the background until Close.
func (c *GameClient) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errs.ErrClientClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	return c.connect(ctx)
}

// Close stops reconnecting, closes the socket and fails pending requests with
// ErrClientClosed.
func (c *GameClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateClosing
	c.mu.Unlock()

	var err error
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = conn.Close()
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()

	c.failPending(errs.ErrClientClosed)
	c.log.Info("game client closed")
	return err
}

func (c *GameClient) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *GameClient) Connected() bool {
	return c.State() == StateOpen
}

func (c *GameClient) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errs.ErrClientClosed
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.log.Warnw("game server dial failed", "url", c.url, "error", err, "retryIn", c.delay)
		c.mu.Lock()
		c.state = StateClosed
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return errs.ErrClientClosed
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	c.log.Infow("connected to game server", "url", c.url)

	go c.readLoop(conn)
	c.notifyConnected()
	return nil
}

func (c *GameClient) scheduleReconnectLocked() {
	if c.closed || c.reconnect != nil {
		return
	}
	c.reconnect = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.reconnect = nil
		c.mu.Unlock()
		_ = c.connect(context.Background())
	})
}

func (c *GameClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		c.handleMessage(data)
	}
}

func (c *GameClient) handleClose(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateClosed
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	_ = conn.Close()

	if websocket.IsUnexpectedCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Warnw("game server connection lost", "error", cause, "retryIn", c.delay)
	} else {
		c.log.Infow("game server connection closed", "reason", cause, "retryIn", c.delay)
	}
	c.failPending(errs.ErrConnectionLost)
}

func (c *GameClient) failPending(err error) {
	c.pending.Range(func(key, value any) bool {
		if _, ok := c.pending.LoadAndDelete(key); ok {
			call := value.(*pendingCall)
			c.log.Debugw("failing pending request", "id", key, "kind", call.kind, "error", err)
			call.fail(err)
		}
		return true
	})
}

func (c *GameClient) handleMessage(data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warnw("discarding malformed message", "error", err, "message", string(data))
		return
	}

	switch env.Type {
	case MessageTypeGTP:
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			c.log.Warnw("discarding gtp message with non-text data", "error", err)
			return
		}
		resp, err := gtp.ParseResponse(text)
		if err != nil {
			c.log.Warnw("discarding malformed gtp response", "error", err)
			return
		}
		if resp.ID == nil || !c.resolve(*resp.ID, []byte(text)) {
			c.log.Debugw("dropping gtp response without caller", "response", text)
		}

	case MessageTypeSys:
		var msg inboundSys
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.log.Warnw("discarding malformed sys message", "error", err)
			return
		}
		if msg.ID != nil && c.resolve(*msg.ID, msg.Args) {
			return
		}
		if msg.Name != "" && c.dispatch(msg.Name, msg.Args) {
			return
		}
		c.log.Debugw("dropping sys message without caller", "name", msg.Name)

	default:
		c.log.Warnw("discarding message of unknown type", "type", env.Type)
	}
}

func (c *GameClient) resolve(id int64, payload []byte) bool {
	value, ok := c.pending.LoadAndDelete(id)
	if !ok {
		return false
	}
	value.(*pendingCall).resolve(payload)
	return true
}

func (c *GameClient) nextID() int64 {
	return c.msgID.Add(1)
}

// Send transmits an engine command. The future resolves with the raw
// response text, including failure responses.
func (c *GameClient) Send(cmd gtp.Command) (*Future[string], error) {
	id := c.nextID()
	cmd = cmd.WithID(id)

	f := newFuture[string](id)
	c.pending.Store(id, &pendingCall{
		kind:    MessageTypeGTP,
		resolve: func(payload []byte) { f.complete(string(payload), nil) },
		fail:    func(err error) { f.complete("", err) },
	})

	if err := c.write(outboundEnvelope{Type: MessageTypeGTP, Data: cmd.String()}); err != nil {
		c.pending.Delete(id)
		return nil, err
	}
	return f, nil
}

// SendSystem transmits a control message. The future resolves with the args
// of the matching reply.
func (c *GameClient) SendSystem(name string, args any) (*Future[json.RawMessage], error) {
	id := c.nextID()

	f := newFuture[json.RawMessage](id)
	c.pending.Store(id, &pendingCall{
		kind:    MessageTypeSys,
		resolve: func(payload []byte) { f.complete(json.RawMessage(payload), nil) },
		fail:    func(err error) { f.complete(nil, err) },
	})

	msg := outboundSys{ID: id, Name: name, Args: args}
	if err := c.write(outboundEnvelope{Type: MessageTypeSys, Data: msg}); err != nil {
		c.pending.Delete(id)
		return nil, err
	}
	return f, nil
}

// NotifySystem sends a control message that expects no reply.
func (c *GameClient) NotifySystem(name string, args any) error {
	msg := outboundSys{ID: c.nextID(), Name: name, Args: args}
	return c.write(outboundEnvelope{Type: MessageTypeSys, Data: msg})
}

func (c *GameClient) write(msg outboundEnvelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}

	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()
	if conn == nil || !open {
		return errs.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s message: %w", msg.Type, err)
	}
	return nil
}

// OnConnected registers fn to run after every successful connect. Each call
// runs on its own goroutine, so fn may wait on requests.
func (c *GameClient) OnConnected(fn func()) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subSeq++
	id := c.subSeq
	c.onConnected[id] = fn
	return func() {
		c.subMu.Lock()
		delete(c.onConnected, id)
		c.subMu.Unlock()
	}
}

// Subscribe registers fn for server pushes with the given sys name. Handlers
// run on the read goroutine and must not wait on requests.
func (c *GameClient) Subscribe(name string, fn func(args json.RawMessage)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subSeq++
	id := c.subSeq
	if c.pushes[name] == nil {
		c.pushes[name] = make(map[int]func(json.RawMessage))
	}
	c.pushes[name][id] = fn
	return func() {
		c.subMu.Lock()
		delete(c.pushes[name], id)
		c.subMu.Unlock()
	}
}

func (c *GameClient) notifyConnected() {
	c.subMu.RLock()
	handlers := make([]func(), 0, len(c.onConnected))
	for _, fn := range c.onConnected {
		handlers = append(handlers, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range handlers {
		go fn()
	}
}

func (c *GameClient) dispatch(name string, args json.RawMessage) bool {
	c.subMu.RLock()
	handlers := make([]func(json.RawMessage), 0, len(c.pushes[name]))
	for _, fn := range c.pushes[name] {
		handlers = append(handlers, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range handlers {
		fn(args)
	}
	return len(handlers) > 0
}
