package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/mcwire"
)

// MinecraftChecker probes a Minecraft server with the status handshake:
// connect, send the handshake and status request packets, then read the
// varint length of the forthcoming status response. Receiving that length
// is the liveness signal; the response body itself is never read.
type MinecraftChecker struct {
	Timeout time.Duration
}

func NewMinecraftChecker(timeout time.Duration) *MinecraftChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MinecraftChecker{Timeout: timeout}
}

// Check probes target, given as host:port. Latency is measured from
// before the dial so connect time is part of the sample, matching the
// HTTP checker's dispatch-to-response measurement.
func (c *MinecraftChecker) Check(ctx context.Context, target string) CheckResult {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		host = target
		portStr = strconv.Itoa(domain.DefaultMinecraftPort)
		target = net.JoinHostPort(host, portStr)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return CheckResult{Message: "invalid port: " + portStr}
	}

	start := time.Now()
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return CheckResult{Message: err.Error()}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return CheckResult{Message: err.Error()}
	}

	if err := mcwire.WritePacket(conn, mcwire.HandshakePayload(host, uint16(port))); err != nil {
		return CheckResult{Message: err.Error()}
	}
	if err := mcwire.WritePacket(conn, mcwire.StatusRequestPayload()); err != nil {
		return CheckResult{Message: err.Error()}
	}
	if _, err := mcwire.ReadVarint(conn); err != nil {
		return CheckResult{Message: err.Error()}
	}

	return CheckResult{
		Success:   true,
		LatencyMS: int(time.Since(start).Milliseconds()),
		Message:   "handshake ok",
	}
}
