package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxHistory bounds the per-service response time history. At the 60s
// probe cadence this holds roughly 90 days of samples.
const MaxHistory = 129600

type ServiceID string

// ErrEmptyServiceID is returned when a service name normalizes to nothing.
var ErrEmptyServiceID = errors.New("service name normalizes to empty id")

// NormalizeID derives the stable service identifier from a human-readable
// name: lowercased, spaces become underscores, everything outside
// [a-z0-9_] is stripped.
func NormalizeID(name string) (ServiceID, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%q: %w", name, ErrEmptyServiceID)
	}
	return ServiceID(b.String()), nil
}

type Service struct {
	ID       ServiceID `json:"id"`
	Name     string    `json:"name"`
	Target   string    `json:"target"`
	IsOnline bool      `json:"is_online"`
}

type Incident struct {
	ID          int64      `json:"id"`
	ServiceID   ServiceID  `json:"service_id"`
	ServiceName string     `json:"service_name"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Description string     `json:"description"`
}

// Open reports whether the incident has not been ended yet.
func (i Incident) Open() bool { return i.EndTime == nil }

// ProbeKind selects the probe strategy for a target. It is resolved once
// from the target string so orchestration code never inspects URL schemes.
type ProbeKind int

const (
	KindHTTP ProbeKind = iota
	KindMinecraft
)

func (k ProbeKind) String() string {
	if k == KindMinecraft {
		return "minecraft"
	}
	return "http"
}

const minecraftScheme = "mc://"

// DefaultMinecraftPort is the port assumed when an mc:// target omits one.
const DefaultMinecraftPort = 25565

// ParseTarget classifies a target string. mc://host[:port] selects the
// Minecraft handshake probe; anything else is probed over HTTP. The
// returned address is the URL for HTTP targets and host:port for
// Minecraft targets (default port filled in).
func ParseTarget(target string) (ProbeKind, string) {
	if !strings.HasPrefix(target, minecraftScheme) {
		return KindHTTP, target
	}
	addr := strings.TrimPrefix(target, minecraftScheme)
	if !strings.Contains(addr, ":") {
		addr += ":" + strconv.Itoa(DefaultMinecraftPort)
	}
	return KindMinecraft, addr
}
