package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"
)

// DefaultTimeout bounds every probe attempt.
const DefaultTimeout = 2 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.3"

// HTTPChecker probes a target with a single GET and measures time to
// header receipt. Certificate validation is disabled on purpose: the
// monitored targets are operator-controlled and self-signed certs are
// common on internal services.
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPChecker{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return CheckResult{Message: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return CheckResult{Message: err.Error()}
	}
	defer resp.Body.Close()

	latency := int(time.Since(start).Milliseconds())
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Non-2xx counts as a failed sample; the status is kept for
		// incident descriptions.
		return CheckResult{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return CheckResult{
		Success:    true,
		LatencyMS:  latency,
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
	}
}
