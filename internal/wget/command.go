package wget

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/errdef"
	"github.com/tanq16/bootfetch/internal/urlx"
)

// ResultCode is what the command reports to its dispatcher.
type ResultCode int

const (
	CmdSuccess ResultCode = 0
	CmdFailure ResultCode = 1
	CmdUsage   ResultCode = -1
)

func (c ResultCode) String() string {
	switch c {
	case CmdSuccess:
		return "success"
	case CmdFailure:
		return "failure"
	case CmdUsage:
		return "usage"
	}
	return "unknown"
}

// Command runs "wget [address] url". The address is taken from the first
// argument when it is a pure hex token, otherwise from the environment's
// loadaddr or the driver default; the url may use the legacy
// [host:]path form.
func (d *Driver) Command(ctx context.Context, args []string) ResultCode {
	if len(args) < 1 || len(args) > 2 {
		return CmdUsage
	}

	var dst uint64
	var arg string
	if addr, ok := parseAddress(args[0]); ok {
		if len(args) < 2 {
			return CmdUsage
		}
		dst, arg = addr, args[1]
	} else {
		dst, arg = d.loadAddr(), args[0]
	}

	uri, err := d.canonicalURL(arg)
	if err != nil {
		log.Error().Str("op", "wget/command").Str("arg", arg).Str("code", string(errdef.CodeOf(err))).Err(err).Msg("Cannot build URL")
		return CmdFailure
	}
	if err := d.WithDNS(ctx, dst, uri); err != nil {
		log.Debug().Str("op", "wget/command").Str("code", string(errdef.CodeOf(err))).Err(err).Msg("Download failed")
		return CmdFailure
	}
	return CmdSuccess
}

func (d *Driver) canonicalURL(arg string) (string, error) {
	uri, err := urlx.Normalize(arg, d.Env, d.urlCapacity())
	if err != nil {
		return "", errdef.Wrap(errdef.CodeURL, err, "")
	}
	return uri, nil
}

// parseAddress accepts a token made only of hex digits, with an optional
// 0x prefix.
func parseAddress(s string) (uint64, bool) {
	digits := s
	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" || strings.Trim(digits, "0123456789abcdefABCDEF") != "" {
		return 0, false
	}
	v, err := env.ParseHex(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (d *Driver) loadAddr() uint64 {
	if d.Env != nil {
		if s, ok := d.Env.Get(env.LoadAddr); ok {
			if v, err := env.ParseHex(s); err == nil {
				return v
			}
			log.Warn().Str("op", "wget/command").Str("loadaddr", s).Msg("Ignoring invalid loadaddr")
		}
	}
	return d.LoadAddr
}
