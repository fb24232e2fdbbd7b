// File: transport/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/duskfall-games/duskrift/api"
	"github.com/duskfall-games/duskrift/pool"
	"github.com/duskfall-games/duskrift/wire"
)

// ReceivedFunc is invoked once per framed message, on the goroutine of
// whichever channel's receive loop produced it. It must not block for
// long: until it returns, the loop holds its own reference to msg's
// backing buffer open (spec §4.5).
type ReceivedFunc func(msg *wire.Message, mode api.SendMode)

// DisconnectedFunc is invoked exactly once, on whichever goroutine
// first detects the session has ended.
type DisconnectedFunc func(locallyInitiated bool, socketErr error)

// Config configures a Connection's sockets and framing.
type Config struct {
	// ReliableAddr is dialed as "tcp". UnreliableAddr is dialed as
	// "udp"; if empty, ReliableAddr (same host and port) is reused.
	ReliableAddr   string
	UnreliableAddr string

	// NoDelay disables Nagle coalescing on the reliable socket.
	NoDelay bool

	// DialTimeout bounds both socket dials. Zero means no deadline.
	DialTimeout time.Duration

	Pool *pool.BufferPool

	// ReadOpCapacity and WriteOpCapacity cap the per-read and per-send
	// operation-record pools (spec §6 max_socket_async_event_args,
	// max_message_buffers). Zero is valid: every Acquire then always
	// misses and allocates fresh, just without reuse.
	ReadOpCapacity  int
	WriteOpCapacity int

	// AutoRecyclerCapacity caps the pool of AutoRecycler wrapper
	// objects guarding every receive-loop buffer (spec §6
	// max_auto_recycling_arrays).
	AutoRecyclerCapacity int
}

// Connection is the bi-channel client transport of spec §4.5: one
// reliable (TCP) stream and one unreliable (UDP) "connected" datagram
// socket to the same peer, behind a single state machine.
type Connection struct {
	cfg Config

	onReceived     ReceivedFunc
	onDisconnected DisconnectedFunc

	mu    sync.RWMutex
	state api.ConnectionState

	reliable        net.Conn
	reliableWriteMu sync.Mutex
	unreliable      net.Conn

	interruptedCount int64

	readOps  *pool.TypedPool[*readOp]
	writeOps *pool.TypedPool[*writeOp]
	arPool   *pool.AutoRecyclerPool

	done chan struct{}
	wg   sync.WaitGroup

	disconnectOnce sync.Once
}

// New constructs an unconnected Connection. Callbacks default to
// no-ops; the facade installs its own via SetCallbacks before calling
// Connect (spec §4.6 "installs internal receive/disconnect callbacks,
// triggers the connection's connect").
func New(cfg Config) *Connection {
	return &Connection{
		cfg:            cfg,
		onReceived:     func(*wire.Message, api.SendMode) {},
		onDisconnected: func(bool, error) {},
		state:          api.Disconnected,
		readOps:        newReadOpPool(cfg.ReadOpCapacity),
		writeOps:       newWriteOpPool(cfg.WriteOpCapacity),
		arPool:         pool.NewAutoRecyclerPool(cfg.AutoRecyclerCapacity),
		done:           make(chan struct{}),
	}
}

// SetCallbacks installs the receive and disconnect callbacks. Must be
// called before Connect; not safe to change concurrently with an
// active connection.
func (c *Connection) SetCallbacks(onReceived ReceivedFunc, onDisconnected DisconnectedFunc) {
	if onReceived != nil {
		c.onReceived = onReceived
	}
	if onDisconnected != nil {
		c.onDisconnected = onDisconnected
	}
}

// State returns the connection's current state-machine position.
func (c *Connection) State() api.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// InterruptedCount reports how many times the reliable channel has
// recovered from a transient read error without a full disconnect
// (spec §4.5 "transparent to the facade except via a counter").
func (c *Connection) InterruptedCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interruptedCount
}

// Endpoint returns the remote address of the named channel ("tcp" or
// "udp"), or nil if not yet connected.
func (c *Connection) Endpoint(name string) net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch name {
	case "tcp":
		if c.reliable != nil {
			return c.reliable.RemoteAddr()
		}
	case "udp":
		if c.unreliable != nil {
			return c.unreliable.RemoteAddr()
		}
	}
	return nil
}

func (c *Connection) setState(s api.ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Connect dials both sockets, sends hello on the reliable channel, and
// starts the two independent receive loops. It returns once both
// sockets are dialed; it does not wait for the peer's Configure reply
// — that wait (and its 10-second bound) belongs to the caller, which
// observes Configure through onReceived (spec §4.6).
func (c *Connection) Connect(ctx context.Context, hello *wire.Message) error {
	c.setState(api.Connecting)

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	reliable, err := dialer.DialContext(ctx, "tcp", c.cfg.ReliableAddr)
	if err != nil {
		c.setState(api.Disconnected)
		return fmt.Errorf("duskrift: dial reliable channel: %w", err)
	}
	_ = tuneReliableSocket(reliable, c.cfg.NoDelay)

	unreliableAddr := c.cfg.UnreliableAddr
	if unreliableAddr == "" {
		unreliableAddr = c.cfg.ReliableAddr
	}
	unreliable, err := dialer.DialContext(ctx, "udp", unreliableAddr)
	if err != nil {
		reliable.Close()
		c.setState(api.Disconnected)
		return fmt.Errorf("duskrift: dial unreliable channel: %w", err)
	}

	c.mu.Lock()
	c.reliable = reliable
	c.unreliable = unreliable
	c.mu.Unlock()

	if hello != nil {
		buf := hello.ToBuffer(c.cfg.Pool)
		defer buf.Release()
		if !c.Send(buf, api.Reliable) {
			c.forceDisconnect(false, errors.New("duskrift: failed to send hello"))
			return errors.New("duskrift: failed to send hello")
		}
	}

	c.wg.Add(2)
	go c.recvReliable()
	go c.recvUnreliable()

	return nil
}

// Send writes buf to the named channel. The connection keeps no
// reference to buf once the write returns; the caller releases it.
func (c *Connection) Send(buf *pool.Buffer, mode api.SendMode) bool {
	c.mu.RLock()
	var conn net.Conn
	if mode == api.Reliable {
		conn = c.reliable
	} else {
		conn = c.unreliable
	}
	c.mu.RUnlock()
	if conn == nil {
		return false
	}

	data := buf.Bytes()
	if mode == api.Reliable {
		op := c.writeOps.Acquire()
		defer c.writeOps.Release(op)
		wire.PutLengthPrefix(op.prefix[:], len(data))
		c.reliableWriteMu.Lock()
		_, err1 := conn.Write(op.prefix[:])
		var err2 error
		if err1 == nil {
			_, err2 = conn.Write(data)
		}
		c.reliableWriteMu.Unlock()
		if err1 != nil || err2 != nil {
			return false
		}
		return true
	}

	_, err := conn.Write(data)
	return err == nil
}

// Disconnect tears the connection down locally (spec §4.5 "either end
// may request disconnection").
func (c *Connection) Disconnect() {
	c.forceDisconnect(true, nil)
}

func (c *Connection) forceDisconnect(locallyInitiated bool, socketErr error) {
	c.disconnectOnce.Do(func() {
		c.setState(api.Disconnecting)
		close(c.done)
		c.mu.RLock()
		reliable, unreliable := c.reliable, c.unreliable
		c.mu.RUnlock()
		if reliable != nil {
			reliable.Close()
		}
		if unreliable != nil {
			unreliable.Close()
		}
		c.setState(api.Disconnected)
		c.onDisconnected(locallyInitiated, socketErr)
	})
}

// Close stops both receive loops and releases socket resources. It is
// the teardown half of Disconnect's effect without re-raising the
// disconnected callback if one has already fired.
func (c *Connection) Close() {
	c.forceDisconnect(true, nil)
	c.wg.Wait()
}

func (c *Connection) recvReliable() {
	defer c.wg.Done()
	r := c.reliable
	transientRetried := false

	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.readLengthPrefix(r)
		if err != nil {
			if c.handleReliableReadError(err, &transientRetried) {
				continue
			}
			return
		}
		transientRetried = false

		if !c.recvReliableFrame(r, n, &transientRetried) {
			return
		}
	}
}

// readLengthPrefix reads one frame's length prefix through a pooled
// per-read operation record (spec §6 max_socket_async_event_args)
// instead of allocating scratch space on every iteration.
func (c *Connection) readLengthPrefix(r net.Conn) (int, error) {
	op := c.readOps.Acquire()
	defer c.readOps.Release(op)
	if _, err := io.ReadFull(r, op.prefix[:]); err != nil {
		return 0, err
	}
	return wire.LengthPrefix(op.prefix[:]), nil
}

// recvReliableFrame reads and dispatches one frame body. The pooled
// buffer is routed through an AutoRecycler so it is released exactly
// once regardless of exit path — malformed frame, socket error, or a
// panicking receive callback (spec §1, §9) — the same guarantee a
// hand-written Release on every branch previously had to reimplement.
func (c *Connection) recvReliableFrame(r net.Conn, n int, transientRetried *bool) bool {
	buf := c.cfg.Pool.Acquire(n)
	ar := c.arPool.Acquire(buf)
	defer func() {
		ar.Close()
		c.arPool.Release(ar)
	}()

	if _, err := io.ReadFull(r, buf.Bytes()); err != nil {
		return c.handleReliableReadError(err, transientRetried)
	}
	*transientRetried = false

	msg, err := wire.Decode(buf)
	if err != nil {
		return true
	}

	if msg.IsCommand() && msg.Tag() == wire.ConfigureTag {
		c.mu.Lock()
		if c.state == api.Connecting {
			c.state = api.Connected
		}
		c.mu.Unlock()
	}

	c.onReceived(msg, api.Reliable)
	return true
}

// handleReliableReadError classifies err and either arranges a single
// retry (transient, spec §7) or tears the connection down. It returns
// true when the loop should retry the read immediately.
func (c *Connection) handleReliableReadError(err error, retried *bool) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	var ne net.Error
	transient := errors.As(err, &ne) && ne.Timeout()
	if transient && !*retried {
		*retried = true
		c.mu.Lock()
		c.interruptedCount++
		c.mu.Unlock()
		return true
	}

	c.forceDisconnect(false, err)
	return false
}

func (c *Connection) recvUnreliable() {
	defer c.wg.Done()
	r := c.unreliable

	for {
		select {
		case <-c.done:
			return
		default:
		}
		c.recvUnreliableDatagram(r)
	}
}

// recvUnreliableDatagram reads and dispatches one datagram, routing
// its pooled buffer through an AutoRecycler so it releases exactly
// once even if the receive callback panics. Unreliable-socket errors
// never disconnect the session (spec §4.5).
func (c *Connection) recvUnreliableDatagram(r net.Conn) {
	buf := c.cfg.Pool.Acquire(c.cfg.Pool.DatagramHint())
	ar := c.arPool.Acquire(buf)
	defer func() {
		ar.Close()
		c.arPool.Release(ar)
	}()

	n, err := r.Read(buf.Bytes())
	if err != nil {
		return
	}
	buf.Resize(n)

	msg, err := wire.Decode(buf)
	if err != nil {
		return
	}
	c.onReceived(msg, api.Unreliable)
}
