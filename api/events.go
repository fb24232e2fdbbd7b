// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package api

// DisconnectedEvent carries the reason a session ended (spec §4.6, §7).
type DisconnectedEvent struct {
	LocallyInitiated bool
	SocketError      error
}
