package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

const unknownCountry = "ZZ"

// Edge proxies in front of the API, most trusted first.
var (
	clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}
	countryHeaders  = []string{
		"Fly-Client-Country",
		"CF-IPCountry",
		"X-Vercel-IP-Country",
		"X-AppEngine-Country",
		"CloudFront-Viewer-Country",
	}
)

type clientOrigin struct {
	IP      string
	Country string
}

func resolveClientOrigin(r *http.Request) clientOrigin {
	origin := clientOrigin{Country: unknownCountry}
	for _, h := range clientIPHeaders {
		if addr, ok := parseClientAddr(r.Header.Get(h)); ok {
			origin.IP = addr.String()
			break
		}
	}
	if origin.IP == "" {
		if addr, ok := parseClientAddr(r.RemoteAddr); ok {
			origin.IP = addr.String()
		}
	}
	for _, h := range countryHeaders {
		if code, ok := parseCountry(r.Header.Get(h)); ok {
			origin.Country = code
			break
		}
	}
	return origin
}

// parseClientAddr accepts a bare address, host:port, or a forwarded-for list,
// in which case the first hop is the client.
func parseClientAddr(raw string) (netip.Addr, bool) {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(first); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(strings.Trim(first, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func parseCountry(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code == unknownCountry {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return "", false
		}
	}
	return code, true
}
