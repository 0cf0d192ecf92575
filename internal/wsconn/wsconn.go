// Package wsconn provides a WebSocket client with reconnection.
package wsconn

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/trading-sdk/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	Header         http.Header
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	ReadTimeout    time.Duration // 0 = wait forever
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// MessageHandler receives every inbound message on the read goroutine.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is the cause, if any.
type StateHandler func(state State, err error)

// ConnectHandler runs after every successful dial. Subscriptions are
// re-sent from here on reconnect.
type ConnectHandler func(ctx context.Context) error

// Client is a WebSocket client that reconnects with exponential backoff.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	onMessage  MessageHandler
	onState    StateHandler
	onConnect  ConnectHandler
	handlersMu sync.RWMutex

	ctx        context.Context
	cancel     context.CancelFunc
	closed     atomic.Bool
	closeOnce  sync.Once
	reconnects atomic.Int64
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("wsconn: url is required"))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// OnMessage registers the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange registers the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onState = h
	c.handlersMu.Unlock()
}

// OnConnect registers a handler run after each successful dial.
func (c *Client) OnConnect(h ConnectHandler) {
	c.handlersMu.Lock()
	c.onConnect = h
	c.handlersMu.Unlock()
}

// Connect dials once. On failure the client is left disconnected and no
// reconnection is attempted. Once connected, dropped connections are
// re-dialed in the background.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}
	c.setState(StateConnecting, nil)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return err
	}
	return nil
}

// ConnectWithRetry dials until it succeeds, ctx ends or MaxReconnects
// attempts have failed.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 0; c.config.MaxReconnects == 0 || attempt <= c.config.MaxReconnects; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperror.New(apperror.CodeWebSocketConnectionError,
					apperror.WithCause(errors.Join(ctx.Err(), lastErr)),
					apperror.WithContext(c.config.Name))
			case <-time.After(Backoff(c.config.InitialBackoff, c.config.MaxBackoff, attempt-1)):
			}
		}
		if lastErr = c.Connect(ctx); lastErr == nil {
			return nil
		}
		if c.closed.Load() {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: c.config.Header,
	})
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		conn.CloseNow()
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}

	c.handlersMu.RLock()
	onConnect := c.onConnect
	c.handlersMu.RUnlock()
	if onConnect != nil {
		if err := onConnect(ctx); err != nil {
			c.retire(conn)
			return apperror.New(apperror.CodeWebSocketConnectionError,
				apperror.WithCause(err),
				apperror.WithContext(c.config.Name+": on connect"))
		}
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		readCtx, cancel := c.ctx, context.CancelFunc(func() {})
		if c.config.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		}
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			c.dropped(conn, err)
			return
		}

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.isCurrent(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				c.dropped(conn, err)
				return
			}
		}
	}
}

// dropped retires conn and starts reconnecting. Only the first caller for a
// given conn does anything.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	if !c.retire(conn) || c.closed.Load() {
		return
	}

	c.setState(StateReconnecting, cause)
	go c.reconnectLoop()
}

// retire detaches conn if it is still current and reports whether it was.
func (c *Client) retire(conn *websocket.Conn) bool {
	c.connMu.Lock()
	if c.conn != conn {
		c.connMu.Unlock()
		return false
	}
	c.conn = nil
	c.connMu.Unlock()

	conn.CloseNow()
	return true
}

func (c *Client) reconnectLoop() {
	for attempt := 0; ; attempt++ {
		if c.config.MaxReconnects > 0 && attempt >= c.config.MaxReconnects {
			c.setState(StateDisconnected, apperror.New(apperror.CodeWebSocketConnectionError,
				apperror.WithContext(c.config.Name+": reconnect attempts exhausted")))
			return
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(Backoff(c.config.InitialBackoff, c.config.MaxBackoff, attempt)):
		}

		c.reconnects.Add(1)
		err := c.dial(c.ctx)
		if err == nil || c.closed.Load() {
			return
		}
		c.setState(StateReconnecting, err)
	}
}

func (c *Client) isCurrent(conn *websocket.Conn) bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn == conn
}

func (c *Client) current() (*websocket.Conn, error) {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		code := apperror.CodeWebSocketReconnecting
		if c.closed.Load() {
			code = apperror.CodeWebSocketClosed
		}
		return nil, apperror.New(code, apperror.WithContext(c.config.Name))
	}
	return conn, nil
}

func (c *Client) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.WriteTimeout > 0 {
		return context.WithTimeout(ctx, c.config.WriteTimeout)
	}
	return ctx, func() {}
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	ctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err), apperror.WithContext(c.config.Name))
	}
	return nil
}

// SendJSON writes v as a JSON text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	ctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err), apperror.WithContext(c.config.Name))
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether a connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Reconnects returns the number of background re-dial attempts so far.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Close closes the connection and stops reconnecting. It is idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		if conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "")
			if websocket.CloseStatus(err) != -1 {
				err = nil
			}
		}
		c.cancel()
		c.setState(StateClosed, nil)
	})
	if err != nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithCause(err), apperror.WithContext(c.config.Name))
	}
	return nil
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed || (c.closed.Load() && state != StateClosed) {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlersMu.RLock()
	h := c.onState
	c.handlersMu.RUnlock()
	if h != nil {
		h(state, err)
	}
}
