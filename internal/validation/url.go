package validation

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// LinkValidator checks external links before they are handed to a
// system opener. Links come from a remote catalog, so anything that could
// reach the local machine or smuggle shell metacharacters is refused.
type LinkValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewLinkValidator creates a new validator with secure defaults
func NewLinkValidator() *LinkValidator {
	return &LinkValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveLinkValidator allows local and private hosts, for tests
// against local servers.
func NewPermissiveLinkValidator() *LinkValidator {
	return &LinkValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a link and returns the normalized version.
// A missing scheme defaults to https.
func (v *LinkValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'`") || strings.IndexFunc(input, isControl) >= 0 {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !hasScheme(input) {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	switch {
	case parsedURL.Scheme != "http" && parsedURL.Scheme != "https":
		return "", fmt.Errorf("URL must use http or https protocol")
	case parsedURL.Hostname() == "":
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if parsedURL.User != nil {
		return "", fmt.Errorf("URL must not carry credentials")
	}

	if err := v.checkHost(parsedURL.Hostname()); err != nil {
		return "", err
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return parsedURL.String(), nil
}

// hasScheme reports whether input starts with "scheme:". Bare hosts such
// as "example.org/x" or "example.org:8080" do not.
func hasScheme(input string) bool {
	i := strings.IndexByte(input, ':')
	if i <= 0 {
		return false
	}
	if strings.HasPrefix(input[i:], "://") {
		return true
	}
	// "host:port" keeps a dot before the colon and digits after it.
	rest := input[i+1:]
	if strings.Contains(input[:i], ".") && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return false
	}
	return true
}

// checkHost refuses hosts that resolve to this machine or its network
// unless the validator was built to allow them.
func (v *LinkValidator) checkHost(host string) error {
	host = strings.ToLower(host)
	if !v.AllowLocalhost && (host == "localhost" || strings.HasSuffix(host, ".localhost")) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// A DNS name; only literal addresses are screened.
		return nil
	}
	addr = addr.Unmap()

	switch {
	case addr.IsUnspecified() || addr == broadcast:
		return fmt.Errorf("suspicious hostname detected")
	case addr.IsLoopback() && !v.AllowLocalhost:
		return fmt.Errorf("localhost URLs are not permitted")
	case isPrivateAddr(addr) && !v.AllowPrivateIPs:
		return fmt.Errorf("private IP addresses are not permitted")
	}
	return nil
}

var broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// isPrivateAddr covers RFC 1918 and unique-local ranges, link-local
// addresses and loopback.
func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLoopback()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
