//go:build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package transport

import (
	"net"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Winsock level/option constants for TCP_NODELAY; mirrored locally
// since x/sys/windows does not export stable names for every TCP-level
// option (the teacher's Windows split, pool/bufferpool_windows.go, does
// the same local-constant mirroring for its VirtualAlloc flags).
const (
	ipprotoTCP  = 6
	tcpNoDelay  = 1
	sockoptTrue = 1
)

// tuneReliableSocket sets TCP_NODELAY on the raw socket handle via
// golang.org/x/sys/windows (SPEC_FULL.md §4).
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
		v := int32(sockoptTrue)
		sockErr = windows.Setsockopt(windows.Handle(fd), ipprotoTCP, tcpNoDelay,
			(*byte)(unsafe.Pointer(&v)), int32(unsafe.Sizeof(v)))
	})
	if err != nil {
		return err
	}
	return sockErr
}
