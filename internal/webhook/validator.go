package webhook

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidScheme is returned when URL scheme is not HTTPS.
	ErrInvalidScheme = errors.New("only HTTPS allowed")
	// ErrPrivateIP is returned when URL resolves to private IP.
	ErrPrivateIP = errors.New("private IP addresses not allowed")
	// ErrLocalhostBlocked is returned when localhost is used.
	ErrLocalhostBlocked = errors.New("localhost not allowed")
	// ErrInvalidPort is returned when non-standard port is used.
	ErrInvalidPort = errors.New("only port 443 allowed")
	// ErrInvalidURL is returned when URL parsing fails.
	ErrInvalidURL = errors.New("invalid URL format")
	// ErrEmptyHost is returned when URL has no host.
	ErrEmptyHost = errors.New("URL must have a host")
)

// BlockedCIDRs contains private/internal IP ranges.
var BlockedCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedNetworks []*net.IPNet

func init() {
	for _, cidr := range BlockedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err == nil {
			blockedNetworks = append(blockedNetworks, network)
		}
	}
}

// ValidateTargetURL checks a webhook URL for SSRF vectors. It enforces
// HTTPS on the default port and blocks private and loopback addresses.
func ValidateTargetURL(targetURL string) error {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return ErrInvalidURL
	}

	if parsed.Scheme != "https" {
		return ErrInvalidScheme
	}

	host := parsed.Hostname()
	if host == "" {
		return ErrEmptyHost
	}

	if isLocalhostHostname(host) {
		return ErrLocalhostBlocked
	}

	if port := parsed.Port(); port != "" && port != "443" {
		return ErrInvalidPort
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return ErrPrivateIP
		}
		return nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		// Unresolvable now may resolve later; let delivery fail instead.
		return nil
	}

	for _, ip := range ips {
		if isBlockedIP(ip) {
			return ErrPrivateIP
		}
	}

	return nil
}

// isLocalhostHostname checks if hostname is localhost variant.
func isLocalhostHostname(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") ||
		host == "127.0.0.1" ||
		host == "::1"
}

// isBlockedIP checks if IP is in any blocked CIDR range.
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ExtractHost extracts host from URL for safe logging. Full URLs can
// carry secrets in path or query and must never be logged.
func ExtractHost(targetURL string) string {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "(invalid)"
	}
	return parsed.Host
}
