package urlx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		url  string
		host string
		port uint16
		path string
	}{
		{"default port", "http://example.com/boot/Image", "example.com", 80, "/boot/Image"},
		{"explicit port", "http://10.0.0.1:8080/uImage", "10.0.0.1", 8080, "/uImage"},
		{"max port", "http://h:65535/", "h", 65535, "/"},
		{"zero port", "http://h:0/img", "h", 0, "/img"},
		{"empty port", "http://h:/img", "h", 0, "/img"},
		{"leading zeros", "http://h:0080/img", "h", 80, "/img"},
		{"root path", "http://server/", "server", 80, "/"},
		{"colon in path", "http://server/a:b", "server", 80, "/a:b"},
		{"query kept in path", "http://server:81/f?x=1", "server", 81, "/f?x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.url, DefaultHostCapacity)
			require.NoError(t, err)
			require.Equal(t, tt.host, got.Host)
			require.Equal(t, tt.port, got.Port)
			require.Equal(t, tt.path, got.Path)
			require.True(t, strings.HasSuffix(tt.url, got.Path))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{"https", "https://host/path", ErrUnsupportedScheme},
		{"ftp", "ftp://host/path", ErrUnsupportedScheme},
		{"scheme not at start", "x http://host/path", ErrUnsupportedScheme},
		{"no delimiter", "http://host", ErrMalformedURL},
		{"empty host", "http:///path", ErrMalformedURL},
		{"port letters", "http://host:80a/path", ErrInvalidPort},
		{"port too big", "http://host:65536/path", ErrInvalidPort},
		{"port huge", "http://host:99999999999999999999/path", ErrInvalidPort},
		{"port without path", "http://host:8080", ErrInvalidPort},
		{"signed port", "http://host:+80/path", ErrInvalidPort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.url, DefaultHostCapacity)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseHostCapacity(t *testing.T) {
	fits := strings.Repeat("a", DefaultHostCapacity-1)
	got, err := Parse("http://"+fits+"/p", DefaultHostCapacity)
	require.NoError(t, err)
	require.Equal(t, fits, got.Host)

	for _, n := range []int{DefaultHostCapacity, DefaultHostCapacity + 1, 4 * DefaultHostCapacity} {
		host := strings.Repeat("b", n)
		got, err := Parse("http://"+host+":80/p", DefaultHostCapacity)
		require.ErrorIs(t, err, ErrHostTooLong)
		require.Empty(t, got.Host)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		env  mapEnv
		want string
	}{
		{"bare path with httpserverip", "foo/bar", mapEnv{EnvHTTPServer: "H"}, "http://H/foo/bar"},
		{"bare path falls back to serverip", "foo/bar", mapEnv{EnvServer: "S"}, "http://S/foo/bar"},
		{"httpserverip wins", "img", mapEnv{EnvHTTPServer: "H", EnvServer: "S"}, "http://H/img"},
		{"host and path", "host:foo/bar", nil, "http://host/foo/bar"},
		{"host with leading slash path", "host:/foo", nil, "http://host//foo"},
		{"passthrough", "http://x:81/y", nil, "http://x:81/y"},
		{"colon after slash is path", "dir/a:b", mapEnv{EnvServer: "S"}, "http://S/dir/a:b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.arg, tt.env, DefaultURLCapacity)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeNoServer(t *testing.T) {
	got, err := Normalize("foo/bar", mapEnv{}, DefaultURLCapacity)
	require.ErrorIs(t, err, ErrNoServer)
	require.Empty(t, got)

	got, err = Normalize("foo/bar", nil, DefaultURLCapacity)
	require.ErrorIs(t, err, ErrNoServer)
	require.Empty(t, got)
}

func TestNormalizeCapacity(t *testing.T) {
	// "http://h/ab" is 11 bytes, plus a terminator.
	got, err := Normalize("h:ab", nil, 12)
	require.NoError(t, err)
	require.Equal(t, "http://h/ab", got)

	got, err = Normalize("h:ab", nil, 11)
	require.ErrorIs(t, err, ErrBufferTooSmall)
	require.Empty(t, got)

	got, err = Normalize("http://h/ab", nil, 11)
	require.ErrorIs(t, err, ErrBufferTooSmall)
	require.Empty(t, got)

	long := strings.Repeat("x", DefaultURLCapacity)
	got, err = Normalize(long, mapEnv{EnvServer: "S"}, DefaultURLCapacity)
	require.ErrorIs(t, err, ErrBufferTooSmall)
	require.Empty(t, got)
}

func TestNormalizedOutputParses(t *testing.T) {
	canonical, err := Normalize("10.0.0.5:boot/fit.itb", nil, DefaultURLCapacity)
	require.NoError(t, err)
	got, err := Parse(canonical, DefaultHostCapacity)
	require.NoError(t, err)
	require.Equal(t, ParsedURL{Host: "10.0.0.5", Port: 80, Path: "/boot/fit.itb"}, got)
}

func TestCheckURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"plain", "http://host/path", nil},
		{"with port", "http://host:8080/path", nil},
		{"nul tolerated", "http://host/path\x00", nil},
		{"user info", "http://user@host/path", ErrUserInfo},
		{"ftp", "ftp://host/path", ErrUnsupportedScheme},
		{"no path", "http://host", ErrNoPath},
		{"space", "http://host/a b", ErrInvalidCharacter},
		{"tab", "http://host/a\tb", ErrInvalidCharacter},
		{"newline", "http://host/\n", ErrInvalidCharacter},
		{"delete", "http://host/\x7f", ErrInvalidCharacter},
		{"at in path is fine", "http://host/a@b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckURI(tt.uri)
			if tt.want == nil {
				require.NoError(t, err)
				require.True(t, ValidateURI(tt.uri))
				return
			}
			require.ErrorIs(t, err, tt.want)
			require.False(t, ValidateURI(tt.uri))
		})
	}
}
