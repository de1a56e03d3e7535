package urlx

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCharacter = errors.New("invalid character is used")
	ErrNoPath           = errors.New("invalid uri, no file path")
	ErrUserInfo         = errors.New("user information is not supported")
)

// CheckURI is the pre-flight check used before a URI is handed to the
// loader. It accepts http://authority/path URIs without user information
// and without control codes or spaces. NUL is tolerated.
func CheckURI(uri string) error {
	for i := 0; i < len(uri); i++ {
		c := uri[i]
		if (c >= 0x01 && c <= 0x20) || c == 0x7f {
			return ErrInvalidCharacter
		}
	}
	if !strings.HasPrefix(uri, schemeHTTP) {
		return ErrUnsupportedScheme
	}
	authority, _, found := strings.Cut(uri[len(schemeHTTP):], "/")
	if !found {
		return ErrNoPath
	}
	if strings.IndexByte(authority, '@') >= 0 {
		return ErrUserInfo
	}
	return nil
}

// ValidateURI reports whether uri passes CheckURI, logging the reason when
// it does not.
func ValidateURI(uri string) bool {
	if err := CheckURI(uri); err != nil {
		log.Error().Str("op", "urlx/validate").Str("uri", uri).Err(err).Msg("uri rejected")
		return false
	}
	return true
}
