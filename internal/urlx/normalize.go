package urlx

import (
	"errors"
	"strings"
)

// DefaultURLCapacity bounds the canonical URL composed from a command
// argument, terminator included.
const DefaultURLCapacity = 1024

const (
	EnvHTTPServer = "httpserverip"
	EnvServer     = "serverip"
)

var (
	ErrBufferTooSmall = errors.New("url does not fit the output buffer")
	ErrNoServer       = errors.New("httpserverip or serverip has to be set")
)

// Getter reads a named environment value.
type Getter interface {
	Get(name string) (string, bool)
}

// Normalize turns a command argument into a canonical http:// URL. Arguments
// already starting with "http" are returned unchanged; "host:path" and bare
// paths are expanded, the latter against the configured default server.
// The result plus one terminator byte must fit within capacity. On error the
// returned string is always empty.
func Normalize(arg string, env Getter, capacity int) (string, error) {
	if strings.HasPrefix(arg, "http") {
		if len(arg)+1 > capacity {
			return "", ErrBufferTooSmall
		}
		return arg, nil
	}

	var server, path string
	col := strings.IndexByte(arg, ':')
	slash := strings.IndexByte(arg, '/')
	if col >= 0 && (slash < 0 || col < slash) {
		server, path = arg[:col], arg[col+1:]
	} else {
		server = defaultServer(env)
		if server == "" {
			return "", ErrNoServer
		}
		path = arg
	}

	// "http://" + server + "/" + path + terminator
	need := len(schemeHTTP) + len(server) + 1 + len(path) + 1
	if need > capacity {
		return "", ErrBufferTooSmall
	}
	var b strings.Builder
	b.Grow(need - 1)
	b.WriteString(schemeHTTP)
	b.WriteString(server)
	b.WriteByte('/')
	b.WriteString(path)
	return b.String(), nil
}

func defaultServer(env Getter) string {
	if env == nil {
		return ""
	}
	if v, ok := env.Get(EnvHTTPServer); ok && v != "" {
		return v
	}
	if v, ok := env.Get(EnvServer); ok && v != "" {
		return v
	}
	return ""
}
