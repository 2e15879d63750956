package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultMaxLength = 2048

var (
	ErrEmptyEndpoint = errors.New("endpoint cannot be empty")
	ErrLocalEndpoint = errors.New("local endpoints are not permitted (set api.allow_local)")
)

// EndpointValidator checks the collection URL posts are fetched from.
type EndpointValidator struct {
	// AllowLocal permits loopback hosts and private address ranges.
	AllowLocal bool
	MaxLength  int
}

// NewEndpointValidator rejects loopback and private hosts.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{MaxLength: defaultMaxLength}
}

// NewPermissiveEndpointValidator is used for local development servers and
// test fixtures.
func NewPermissiveEndpointValidator() *EndpointValidator {
	return &EndpointValidator{AllowLocal: true, MaxLength: defaultMaxLength}
}

// ValidateAndNormalize returns the endpoint in canonical form. A missing
// scheme defaults to https. Pagination parameters already present in the
// query are dropped because the fetcher sets them per request.
func (v *EndpointValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyEndpoint
	}

	maxLen := v.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxLength
	}
	if len(input) > maxLen {
		return "", fmt.Errorf("endpoint too long (max %d characters)", maxLen)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", errors.New("endpoint contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", errors.New("endpoint must have a hostname")
	}
	if u.User != nil {
		return "", errors.New("credentials in endpoint URL are not permitted")
	}
	if strings.Contains(u.Path, "..") {
		return "", errors.New("path traversal in endpoint is not permitted")
	}

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}

	if u.RawQuery != "" {
		q := u.Query()
		q.Del("_start")
		q.Del("_limit")
		u.RawQuery = q.Encode()
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return u.String(), nil
}

func (v *EndpointValidator) checkHost(host string) error {
	host = strings.ToLower(host)
	if host == "0.0.0.0" || host == "255.255.255.255" {
		return fmt.Errorf("unroutable host %q", host)
	}
	if v.AllowLocal {
		return nil
	}
	if IsLocalHost(host) {
		return ErrLocalEndpoint
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return ErrLocalEndpoint
	}
	return nil
}

// IsLocalHost reports whether host names the local machine.
func IsLocalHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
