// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package client

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/duskfall-games/duskrift/api"
	"github.com/duskfall-games/duskrift/dispatch"
	"github.com/duskfall-games/duskrift/pool"
	"github.com/duskfall-games/duskrift/rtt"
	"github.com/duskfall-games/duskrift/transport"
	"github.com/duskfall-games/duskrift/wire"
)

// Client is the facade of spec §4.6: one connection at a time, a
// server-assigned client id valid only while Connected, a one-shot
// setup signal, and the RTT helper.
type Client struct {
	cfg       Config
	bufPool   *pool.BufferPool
	rttTrk    *rtt.Tracker
	disp      *dispatch.Dispatcher
	eventPool *pool.TypedPool[*MessageReceivedEvent]

	mu        sync.RWMutex
	conn      *transport.Connection
	clientID  uint16
	setupDone chan struct{}
	setupOnce *sync.Once

	handlersMu sync.RWMutex
	onMessage  []MessageReceivedHandler
	onDisc     []DisconnectedHandler
}

// New constructs a Client. A fresh BufferPool and rtt.Tracker are
// built from cfg; both are shared across the client's sessions.
// wire.Configure installs cfg.Pool's message/reader/writer capacities
// process-wide (spec §6 max_messages/max_readers/max_writers); it only
// takes effect before the first wire.Message is built anywhere in the
// process, and the last such call before then wins.
func New(cfg Config) *Client {
	wire.Configure(cfg.Pool)
	return &Client{
		cfg:     cfg,
		bufPool: pool.NewBufferPool(cfg.Pool),
		rttTrk:  rtt.New(cfg.RTTOutboundCapacity, cfg.RTTWindowSize),
		disp:    dispatch.New(cfg.Pool.MaxActionDispatcherTasks),
		eventPool: pool.NewTypedPool(cfg.Pool.MaxMessageReceivedEventArgs,
			func() *MessageReceivedEvent { return &MessageReceivedEvent{} },
			func(e *MessageReceivedEvent) { *e = MessageReceivedEvent{} },
		),
	}
}

// OnMessageReceived registers a message-received subscriber.
func (c *Client) OnMessageReceived(h MessageReceivedHandler) {
	c.handlersMu.Lock()
	c.onMessage = append(c.onMessage, h)
	c.handlersMu.Unlock()
}

// OnDisconnected registers a disconnected subscriber.
func (c *Client) OnDisconnected(h DisconnectedHandler) {
	c.handlersMu.Lock()
	c.onDisc = append(c.onDisc, h)
	c.handlersMu.Unlock()
}

// RTT exposes the client's round-trip-time tracker.
func (c *Client) RTT() *rtt.Tracker { return c.rttTrk }

// BufferPool exposes the client's message-buffer pool.
func (c *Client) BufferPool() *pool.BufferPool { return c.bufPool }

// ClientID returns the server-assigned id, valid only while Connected.
func (c *Client) ClientID() (uint16, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || c.conn.State() != api.Connected {
		return 0, false
	}
	return c.clientID, true
}

// ConnectionState reports the current connection's state, or
// Disconnected if no connection has ever been established.
func (c *Client) ConnectionState() api.ConnectionState {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return api.Disconnected
	}
	return conn.State()
}

// GetRemoteEndpoint returns the named channel's remote address
// ("tcp" or "udp"), or nil if not connected.
func (c *Client) GetRemoteEndpoint(name string) net.Addr {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil
	}
	return conn.Endpoint(name)
}

// Connect replaces any existing connection, dials reliableAddr (and
// unreliableAddr, or reliableAddr itself if empty) and blocks until
// the Configure handshake completes or cfg.HandshakeTimeout elapses
// (spec §4.6). On timeout the connection is forced to disconnect and
// ErrHandshakeTimeout is returned.
func (c *Client) Connect(ctx context.Context, reliableAddr, unreliableAddr string, hello *wire.Message) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	setupDone := make(chan struct{})
	c.setupDone = setupDone
	c.setupOnce = &sync.Once{}

	conn := transport.New(transport.Config{
		ReliableAddr:         reliableAddr,
		UnreliableAddr:       unreliableAddr,
		NoDelay:              c.cfg.NoDelay,
		DialTimeout:          c.cfg.DialTimeout,
		Pool:                 c.bufPool,
		ReadOpCapacity:       c.cfg.Pool.MaxSocketAsyncEventArgs,
		WriteOpCapacity:      c.cfg.Pool.MaxMessageBuffers,
		AutoRecyclerCapacity: c.cfg.Pool.MaxAutoRecyclingArrays,
	})
	conn.SetCallbacks(c.handleReceived, c.handleDisconnected)
	c.conn = conn
	c.mu.Unlock()

	dialCtx, cancelDial := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancelDial()
	if err := conn.Connect(dialCtx, hello); err != nil {
		return err
	}

	timer := time.NewTimer(c.cfg.HandshakeTimeout)
	defer timer.Stop()
	select {
	case <-setupDone:
		return nil
	case <-timer.C:
		conn.Disconnect()
		return api.ErrHandshakeTimeout
	case <-ctx.Done():
		conn.Disconnect()
		return ctx.Err()
	}
}

// ConnectInBackground runs Connect on a one-shot worker goroutine and
// invokes callback with its result (spec §9 "background connect... a
// one-shot worker is sufficient").
func (c *Client) ConnectInBackground(ctx context.Context, reliableAddr, unreliableAddr string, hello *wire.Message, callback func(error)) {
	go func() {
		err := c.Connect(ctx, reliableAddr, unreliableAddr, hello)
		if callback != nil {
			callback(err)
		}
	}()
}

// Send serializes msg to a pooled buffer and hands it to the
// connection over mode. If msg is a ping, its code is recorded in the
// RTT tracker before transmission (spec §4.6).
func (c *Client) Send(msg *wire.Message, mode api.SendMode) bool {
	if msg.IsPing() {
		if code, ok := msg.PingCode(); ok {
			c.rttTrk.RecordOutbound(code)
		}
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return false
	}

	buf := msg.ToBuffer(c.bufPool)
	defer buf.Release()
	return conn.Send(buf, mode)
}

// Disconnect ends the current session. Idempotent: returns false if
// already disconnected (spec §7 "double disconnect").
func (c *Client) Disconnect() bool {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || conn.State() == api.Disconnected {
		return false
	}
	conn.Disconnect()
	return true
}

// Close tears the client down: disconnects if connected and stops the
// background event dispatcher.
func (c *Client) Close() {
	c.Disconnect()
	c.disp.Close()
}

// handleReceived is installed as the connection's receive callback. It
// interprets ping-acks and the Configure command internally and raises
// the user-visible message-received event for everything else,
// releasing msg's reference on every exit path (spec §4.6).
func (c *Client) handleReceived(msg *wire.Message, mode api.SendMode) {
	defer msg.Release()

	if msg.IsAck() {
		if code, ok := msg.PingCode(); ok {
			c.rttTrk.RecordInbound(code) // unknown id: non-fatal no-op
		}
		return
	}

	if msg.IsCommand() {
		if msg.Tag() == wire.ConfigureTag {
			id, err := msg.Reader().ReadUint16()
			if err != nil {
				log.Printf("duskrift: malformed Configure payload: %v", err)
				return
			}
			c.mu.Lock()
			c.clientID = id
			once := c.setupOnce
			done := c.setupDone
			c.mu.Unlock()
			if once != nil {
				once.Do(func() { close(done) })
			}
		}
		return
	}

	c.handlersMu.RLock()
	handlers := c.onMessage
	c.handlersMu.RUnlock()

	evt := c.eventPool.Acquire()
	evt.Message = msg
	evt.SendMode = mode
	for _, h := range handlers {
		invokeMessageHandler(h, evt)
	}
	c.eventPool.Release(evt)
}

func invokeMessageHandler(h MessageReceivedHandler, evt *MessageReceivedEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("duskrift: recovered panic in message-received handler: %v", r)
		}
	}()
	h(evt)
}

// handleDisconnected is installed as the connection's disconnect
// callback. Subscribers run on the background dispatcher so a
// panicking one never blocks the connection's own teardown path.
func (c *Client) handleDisconnected(locallyInitiated bool, socketErr error) {
	evt := api.DisconnectedEvent{LocallyInitiated: locallyInitiated, SocketError: socketErr}
	c.handlersMu.RLock()
	handlers := c.onDisc
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h := h
		c.disp.Submit(func() { invokeDisconnectedHandler(h, evt) })
	}
}

func invokeDisconnectedHandler(h DisconnectedHandler, evt api.DisconnectedEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("duskrift: recovered panic in disconnected handler: %v", r)
		}
	}()
	h(evt)
}
