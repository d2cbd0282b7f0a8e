package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// proxy headers in order of trust
var httpInterestingHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

type ipClientGetter func(r *http.Request) string

func getClientIPFactory(trustedProxy bool) ipClientGetter {
	if trustedProxy {
		return getProxyClientIP
	}
	return getDirectClientIPValidated
}

func getProxyClientIP(r *http.Request) string {
	for _, header := range httpInterestingHeaders {
		originIP := strings.TrimSpace(r.Header.Get(header))
		if originIP == "" {
			continue
		}

		// X-Forwarded-For carries a list, the client is first
		originIP, _, _ = strings.Cut(originIP, ",")
		originIP = strings.TrimSpace(originIP)

		// private addresses in a proxy header are spoofing attempts
		parsedIP := net.ParseIP(originIP)
		if parsedIP == nil || isPrivateIP(parsedIP) {
			continue
		}

		return originIP
	}

	return getDirectClientIPValidated(r)
}

func getDirectClientIPValidated(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// no port
		ip = r.RemoteAddr
	}

	ip = strings.TrimSpace(ip)

	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}

var getPrivateIPBlocks = sync.OnceValue(func() []*net.IPNet {
	privateCIDRnets := []string{
		"127.0.0.0/8",    // IPv4 loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"::1/128",        // IPv6 loopback
		"fc00::/7",       // IPv6 unique local
		"fe80::/10",      // IPv6 link-local
	}

	blocks := make([]*net.IPNet, 0, len(privateCIDRnets))
	for _, cidr := range privateCIDRnets {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		blocks = append(blocks, ipNet)
	}

	return blocks
})

func isPrivateIP(ip net.IP) bool {
	for _, block := range getPrivateIPBlocks() {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
