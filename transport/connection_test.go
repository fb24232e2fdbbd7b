package transport_test

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/duskfall-games/duskrift/api"
	"github.com/duskfall-games/duskrift/pool"
	"github.com/duskfall-games/duskrift/transport"
	"github.com/duskfall-games/duskrift/wire"
)

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	var prefix [wire.LengthPrefixSize]byte
	if _, err := io.ReadFull(conn, prefix[:]); err != nil {
		t.Fatalf("read prefix: %v", err)
	}
	body := make([]byte, wire.LengthPrefix(prefix[:]))
	if _, err := io.ReadFull(conn, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return body
}

func writeFrame(t *testing.T, conn net.Conn, bp *pool.BufferPool, msg *wire.Message) {
	t.Helper()
	buf := msg.ToBuffer(bp)
	defer buf.Release()
	var prefix [wire.LengthPrefixSize]byte
	wire.PutLengthPrefix(prefix[:], buf.Len())
	if _, err := conn.Write(prefix[:]); err != nil {
		t.Fatalf("write prefix: %v", err)
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		t.Fatalf("write body: %v", err)
	}
}

// TestConnectAndHandshake covers scenario S1 at the transport layer: a
// mock peer accepts the reliable socket, reads hello, and replies with
// Configure(7); the receive loop must observe it and flip state to
// Connected.
func TestConnectAndHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer udp.Close()

	bp := pool.NewBufferPool(pool.DefaultConfig())

	peerDone := make(chan struct{})
	go func() {
		defer close(peerDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readFrame(t, conn) // hello
		writeFrame(t, conn, bp, wire.NewConfigure(7))
		time.Sleep(100 * time.Millisecond)
	}()

	var mu sync.Mutex
	var gotConfigure bool
	conn := transport.New(transport.Config{
		ReliableAddr:   ln.Addr().String(),
		UnreliableAddr: udp.LocalAddr().String(),
		Pool:           bp,
		DialTimeout:    time.Second,
	})
	conn.SetCallbacks(func(msg *wire.Message, mode api.SendMode) {
		defer msg.Release()
		if msg.IsCommand() && msg.Tag() == wire.ConfigureTag {
			mu.Lock()
			gotConfigure = true
			mu.Unlock()
		}
	}, func(bool, error) {})

	if err := conn.Connect(context.Background(), wire.NewHello([]byte("HI!!"))); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		ok := gotConfigure
		mu.Unlock()
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	ok := gotConfigure
	mu.Unlock()
	if !ok {
		t.Fatalf("never observed Configure command")
	}
	if conn.State() != api.Connected {
		t.Fatalf("expected Connected, got %s", conn.State())
	}

	<-peerDone
}

// TestPeerClosePropagatesDisconnected covers scenario S5 at the
// transport layer: the peer closing the reliable socket must surface
// exactly one disconnected callback with LocallyInitiated=false.
func TestPeerClosePropagatesDisconnected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer udp.Close()

	bp := pool.NewBufferPool(pool.DefaultConfig())

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		readFrame(t, conn)
		writeFrame(t, conn, bp, wire.NewConfigure(1))
		time.Sleep(50 * time.Millisecond)
		conn.Close()
	}()

	events := make(chan bool, 2)
	conn := transport.New(transport.Config{
		ReliableAddr:   ln.Addr().String(),
		UnreliableAddr: udp.LocalAddr().String(),
		Pool:           bp,
		DialTimeout:    time.Second,
	})
	conn.SetCallbacks(func(msg *wire.Message, mode api.SendMode) { msg.Release() },
		func(locallyInitiated bool, socketErr error) { events <- locallyInitiated })

	if err := conn.Connect(context.Background(), wire.NewHello([]byte("HI!!"))); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	select {
	case locally := <-events:
		if locally {
			t.Fatalf("expected a peer-initiated disconnect")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no disconnected callback observed")
	}

	select {
	case <-events:
		t.Fatalf("disconnected callback fired more than once")
	case <-time.After(100 * time.Millisecond):
	}

	if conn.State() != api.Disconnected {
		t.Fatalf("expected Disconnected, got %s", conn.State())
	}
}

// TestSendUnreliableRoundTrip exercises the one-datagram-per-read
// unreliable path end to end.
func TestSendUnreliableRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	peerUDP, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer peerUDP.Close()

	bp := pool.NewBufferPool(pool.DefaultConfig())

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		readFrame(t, conn)
		writeFrame(t, conn, bp, wire.NewConfigure(1))
		time.Sleep(time.Second)
	}()

	received := make(chan []byte, 1)
	conn := transport.New(transport.Config{
		ReliableAddr:   ln.Addr().String(),
		UnreliableAddr: peerUDP.LocalAddr().String(),
		Pool:           bp,
		DialTimeout:    time.Second,
	})
	conn.SetCallbacks(func(msg *wire.Message, mode api.SendMode) {
		defer msg.Release()
		if mode == api.Unreliable {
			cp := append([]byte(nil), msg.Payload()...)
			received <- cp
		}
	}, func(bool, error) {})

	if err := conn.Connect(context.Background(), wire.NewHello([]byte("HI!!"))); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	// Peer echoes whatever datagram it receives back to the sender.
	go func() {
		buf := make([]byte, 2048)
		n, addr, err := peerUDP.ReadFromUDP(buf)
		if err != nil {
			return
		}
		peerUDP.WriteToUDP(buf[:n], addr)
	}()

	out := wire.NewMessage(5, []byte("ping-udp"))
	outBuf := out.ToBuffer(bp)
	if !conn.Send(outBuf, api.Unreliable) {
		outBuf.Release()
		t.Fatalf("send failed")
	}
	outBuf.Release()

	select {
	case payload := <-received:
		if string(payload) != "ping-udp" {
			t.Fatalf("unexpected echoed payload: %q", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("never received echoed datagram")
	}
}
