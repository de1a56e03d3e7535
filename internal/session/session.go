package session

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/bootfetch/internal/bootdev"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/errdef"
	"github.com/tanq16/bootfetch/internal/memory"
	"github.com/tanq16/bootfetch/internal/metrics"
	"github.com/tanq16/bootfetch/internal/output"
	"github.com/tanq16/bootfetch/internal/transport"
)

// ProgressStep is the number of received bytes per progress marker.
const ProgressStep = 100 * 1024

// ErrBuf is returned for a receive event that carries no buffer, which the
// transport uses to signal an aborted exchange.
var ErrBuf = errors.New("no receive buffer")

type Status int

const (
	Pending Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HexSetter is the part of the environment a session publishes to.
type HexSetter interface {
	SetHex(name string, value uint64) error
}

type Config struct {
	// Path is the requested path, recorded as the boot device path.
	Path    string
	Region  *memory.Region
	Env     HexSetter
	BootDev bootdev.Registry
	// Console receives progress markers and the transfer summary.
	Console io.Writer
	Clock   Clock
}

// Session is the state of one download. It implements transport.Handler;
// all mutation happens inside those two callbacks, which the transport
// invokes from the driver's polling loop.
type Session struct {
	id      string
	path    string
	region  *memory.Region
	origin  uint64
	env     HexSetter
	bootdev bootdev.Registry
	console io.Writer
	clock   Clock
	log     zerolog.Logger

	size       uint64
	checkpoint uint64
	start      time.Time
	started    bool
	status     Status
	err        error
}

func New(cfg Config) *Session {
	s := &Session{
		id:      uuid.NewString(),
		path:    cfg.Path,
		region:  cfg.Region,
		origin:  cfg.Region.Base(),
		env:     cfg.Env,
		bootdev: cfg.BootDev,
		console: cfg.Console,
		clock:   cfg.Clock,
		status:  Pending,
	}
	if s.console == nil {
		s.console = io.Discard
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	s.log = log.With().Str("op", "session").Str("session", s.id).Logger()
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) Status() Status { return s.status }
func (s *Session) Size() uint64 { return s.size }
func (s *Session) Cursor() uint64 { return s.region.Cursor() }
func (s *Session) Origin() uint64 { return s.origin }
func (s *Session) Path() string { return s.path }
func (s *Session) Err() error { return s.err }
func (s *Session) Started() bool { return s.started }

// Receive copies every fragment of chunk to the destination region and
// returns the number of bytes to acknowledge to the transport.
func (s *Session) Receive(chunk transport.Chunk) (int, error) {
	if s.status != Pending {
		s.log.Debug().Int("bytes", chunk.Len()).Str("status", s.status.String()).Msg("Ignoring data after completion")
		return chunk.Len(), nil
	}
	if chunk == nil {
		return 0, errdef.Wrap(errdef.CodeIO, ErrBuf, "receive")
	}
	if !s.started {
		s.start = s.clock.Now()
		s.started = true
	}

	acked := 0
	for _, frag := range chunk {
		n, err := s.region.Write(frag)
		if err != nil {
			return acked, errdef.Wrap(errdef.CodeIO, err, "writing %d bytes at 0x%x", len(frag), s.region.Cursor())
		}
		acked += n
		s.size += uint64(n)
		metrics.ReceivedBytes.Add(float64(n))
		for s.size-s.checkpoint > ProgressStep {
			fmt.Fprint(s.console, "#")
			metrics.ProgressMarkers.Inc()
			s.checkpoint += ProgressStep
		}
	}
	return acked, nil
}

// Result implements transport.Handler.
func (s *Session) Result(o transport.Outcome) {
	s.Complete(o)
}

// Complete settles the session from the transport outcome and returns the
// terminal status. Calls after the first are ignored.
func (s *Session) Complete(o transport.Outcome) Status {
	if s.status != Pending {
		s.log.Debug().Str("status", s.status.String()).Msg("Ignoring repeated result")
		return s.status
	}
	if o.Result != transport.ResultOK {
		s.log.Error().Err(o.Err).Msgf("HTTP client error %d (%s)", int(o.Result), o.Result)
		return s.fail(errdef.Wrap(errdef.CodeTransport, resultError(o), "HTTP client error %d", int(o.Result)))
	}
	if o.StatusCode != http.StatusOK {
		s.log.Error().Msgf("HTTP server error %d", o.StatusCode)
		return s.fail(errdef.New(errdef.CodeProtocol, "HTTP server error %d", o.StatusCode))
	}

	if !s.started {
		s.start = s.clock.Now()
	}
	elapsed := s.clock.Now().Sub(s.start)
	ms := elapsed.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	length := uint64(max(o.ContentLength, 0))
	if length > ProgressStep {
		fmt.Fprintln(s.console)
	}
	fmt.Fprintf(s.console, "%d bytes transferred in %d ms (%s)\n", length, ms, output.FormatRate(length, time.Duration(ms)*time.Millisecond))
	fmt.Fprintf(s.console, "Bytes transferred = %d (%x hex)\n", s.size, s.size)

	s.bootdev.SetBootDevice(bootdev.Device{
		Protocol: "Net",
		Subtype:  "",
		Path:     s.path,
		Address:  s.origin,
		Length:   length,
	})
	if err := s.publish(length); err != nil {
		s.log.Error().Err(err).Msg("Could not set filesize or fileaddr")
		return s.fail(errdef.Wrap(errdef.CodeBookkeeping, err, "could not set %s or %s", env.FileSize, env.FileAddr))
	}

	s.status = Success
	s.log.Debug().Uint64("size", s.size).Int64("ms", ms).Msg("Transfer complete")
	return s.status
}

func (s *Session) publish(length uint64) error {
	if err := s.env.SetHex(env.FileSize, length); err != nil {
		return err
	}
	return s.env.SetHex(env.FileAddr, s.origin)
}

func (s *Session) fail(err error) Status {
	s.status = Failure
	s.err = err
	return s.status
}

func resultError(o transport.Outcome) error {
	if o.Err != nil {
		return o.Err
	}
	return errors.New(o.Result.String())
}
