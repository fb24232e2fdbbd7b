//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneReliableSocket sets TCP_NODELAY on the raw file descriptor via
// golang.org/x/sys/unix, the platform split the teacher uses for its
// NUMA allocator (pool/bufferpool_linux.go) repurposed here for socket
// option tuning (SPEC_FULL.md §4).
func tuneReliableSocket(conn net.Conn, noDelay bool) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok || !noDelay {
		return nil
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
