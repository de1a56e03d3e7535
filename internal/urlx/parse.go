package urlx

import (
	"errors"
	"strings"
)

const (
	schemeHTTP = "http://"

	// DefaultHostCapacity is the size of the host buffer; a host must be
	// strictly shorter than it.
	DefaultHostCapacity = 200
	DefaultPort         = 80
)

var (
	ErrUnsupportedScheme = errors.New("only http:// is supported")
	ErrMalformedURL      = errors.New("malformed url")
	ErrHostTooLong       = errors.New("host name too long")
	ErrInvalidPort       = errors.New("invalid port")
)

// ParsedURL is the host, port and path of a canonical URL. Path is a slice
// of the string it was parsed from and always begins with '/'.
type ParsedURL struct {
	Host string
	Port uint16
	Path string
}

// Parse splits a canonical http://host[:port]/path URL.
func Parse(url string, hostCapacity int) (ParsedURL, error) {
	if !strings.HasPrefix(url, schemeHTTP) {
		return ParsedURL{}, ErrUnsupportedScheme
	}
	rest := url[len(schemeHTTP):]

	end := strings.IndexAny(rest, ":/")
	if end < 0 {
		return ParsedURL{}, ErrMalformedURL
	}
	if end >= hostCapacity {
		return ParsedURL{}, ErrHostTooLong
	}
	if end == 0 {
		return ParsedURL{}, ErrMalformedURL
	}
	out := ParsedURL{Host: rest[:end], Port: DefaultPort}
	rest = rest[end:]

	if rest[0] == ':' {
		port, n, err := parsePort(rest[1:])
		if err != nil {
			return ParsedURL{}, err
		}
		out.Port = port
		rest = rest[1+n:]
	}
	if rest == "" || rest[0] != '/' {
		return ParsedURL{}, ErrMalformedURL
	}
	out.Path = rest
	return out, nil
}

// parsePort reads the decimal digits that must run up to the next '/'. It
// returns the port and the number of bytes consumed. No digits read as
// port 0.
func parsePort(s string) (uint16, int, error) {
	var v uint32
	i := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + uint32(s[i]-'0')
		if v > 65535 {
			return 0, 0, ErrInvalidPort
		}
	}
	if i == len(s) || s[i] != '/' {
		return 0, 0, ErrInvalidPort
	}
	return uint16(v), i, nil
}
