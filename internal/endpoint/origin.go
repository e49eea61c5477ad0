package endpoint

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Origin is the scheme and authority a client used to reach the gateway.
// Port 0 means the scheme's default port.
type Origin struct {
	Scheme string
	Host   string
	Port   int
}

// Secure reports whether the client reached us over TLS.
func (o Origin) Secure() bool {
	switch strings.ToLower(o.Scheme) {
	case "https", "wss":
		return true
	default:
		return false
	}
}

func (o Origin) httpScheme() string {
	if o.Secure() {
		return "https"
	}
	return "http"
}

func (o Origin) wsScheme() string {
	if o.Secure() {
		return "wss"
	}
	return "ws"
}

func (o Origin) defaultPort() int {
	if o.Secure() {
		return 443
	}
	return 80
}

// Authority renders host[:port], leaving out the port when it is the default
// for the origin's security level.
func (o Origin) Authority() string {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	if o.Port == 0 || o.Port == o.defaultPort() {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(o.Port))
}

// String renders the origin as scheme://authority.
func (o Origin) String() string {
	return o.httpScheme() + "://" + o.Authority()
}

// OriginFromRequest derives the client-facing origin of req. Forwarding
// headers are only honoured when trustProxy is set.
func OriginFromRequest(req *http.Request, trustProxy bool) Origin {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}

	host := req.Host
	if host == "" && req.URL != nil {
		host = req.URL.Host
	}

	if trustProxy {
		switch strings.ToLower(firstHeaderValue(req.Header.Get("X-Forwarded-Proto"))) {
		case "https", "wss":
			scheme = "https"
		case "http", "ws":
			scheme = "http"
		}
		if forwarded := firstHeaderValue(req.Header.Get("X-Forwarded-Host")); forwarded != "" {
			host = forwarded
		}
	}

	origin := Origin{Scheme: scheme}
	hostname, rawPort, err := net.SplitHostPort(host)
	if err != nil {
		origin.Host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
		return origin
	}
	origin.Host = hostname
	if port, err := strconv.Atoi(rawPort); err == nil && port > 0 && port <= 65535 {
		origin.Port = port
	}
	return origin
}

func firstHeaderValue(raw string) string {
	if idx := strings.IndexByte(raw, ','); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
