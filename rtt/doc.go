// File: rtt/doc.go
// Package rtt
// Author: momentics <momentics@gmail.com>
//
// Tracker records outbound/inbound ping correlations over a bounded,
// time-windowed history and reports smoothed round-trip latency
// (spec §4.4). No teacher equivalent exists in momentics-hioload-ws;
// built directly from spec §4.4/§5/§8 property 5 — see DESIGN.md.
package rtt
