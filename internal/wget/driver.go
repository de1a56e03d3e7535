package wget

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/bootfetch/internal/bootdev"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/errdef"
	"github.com/tanq16/bootfetch/internal/memory"
	"github.com/tanq16/bootfetch/internal/metrics"
	"github.com/tanq16/bootfetch/internal/session"
	"github.com/tanq16/bootfetch/internal/transport"
	"github.com/tanq16/bootfetch/internal/urlx"
)

var ErrInterrupted = errors.New("download interrupted")

// Driver performs downloads into an arena. One driver runs one download at
// a time; its loop is the only place transport callbacks are dispatched.
type Driver struct {
	Stack   transport.Stack
	Env     env.Store
	BootDev bootdev.Registry
	Arena   *memory.Arena
	Console io.Writer
	Clock   session.Clock

	// Device is used when the environment names no active device.
	Device transport.Device
	// LoadAddr is the destination when neither the command nor the
	// environment provide one.
	LoadAddr     uint64
	HostCapacity int
	URLCapacity  int
}

func (d *Driver) hostCapacity() int {
	if d.HostCapacity > 0 {
		return d.HostCapacity
	}
	return urlx.DefaultHostCapacity
}

func (d *Driver) urlCapacity() int {
	if d.URLCapacity > 0 {
		return d.URLCapacity
	}
	return urlx.DefaultURLCapacity
}

// Loop downloads the canonical uri into memory at dst over dev. It returns
// once the transfer reached a terminal state or ctx was cancelled; the
// netif is released on every path after it was acquired.
func (d *Driver) Loop(ctx context.Context, dev transport.Device, dst uint64, uri string) (err error) {
	result := "failure"
	defer func() { metrics.Downloads.WithLabelValues(result).Inc() }()

	u, err := urlx.Parse(uri, d.hostCapacity())
	if err != nil {
		log.Error().Str("op", "wget/loop").Str("uri", uri).Err(err).Msg("Invalid URL")
		return errdef.Wrap(errdef.CodeUsage, err, "parse %q", uri)
	}

	netif, err := d.Stack.NewNetif(dev)
	if err != nil {
		log.Error().Str("op", "wget/loop").Str("device", dev.Name).Err(err).Msg("No network interface")
		return errdef.Wrap(errdef.CodeResource, err, "")
	}
	defer func() {
		if cerr := netif.Close(); cerr != nil {
			log.Warn().Str("op", "wget/loop").Err(cerr).Msg("Error releasing network interface")
		}
	}()

	region, err := d.Arena.Region(dst)
	if err != nil {
		log.Error().Str("op", "wget/loop").Err(err).Msg("Invalid destination")
		return errdef.Wrap(errdef.CodeResource, err, "")
	}

	s := session.New(session.Config{
		Path:    u.Path,
		Region:  region,
		Env:     d.Env,
		BootDev: d.BootDev,
		Console: d.Console,
		Clock:   d.Clock,
	})
	logger := log.With().Str("op", "wget/loop").Str("session", s.ID()).Logger()
	logger.Debug().Str("host", u.Host).Uint16("port", u.Port).Str("path", u.Path).Str("dst", "0x"+env.FormatHex(dst)).Msg("Starting download")

	if err := netif.GetFile(u.Host, u.Port, u.Path, s); err != nil {
		logger.Error().Err(err).Msg("Cannot start HTTP request")
		return errdef.Wrap(errdef.CodeTransport, err, "start request")
	}

	for s.Status() == session.Pending {
		netif.Rx()
		netif.CheckTimeouts()
		if ctx.Err() != nil {
			logger.Warn().Uint64("received", s.Size()).Msg("Download interrupted")
			break
		}
	}

	logger.Debug().Str("path", s.Path()).Str("status", s.Status().String()).Uint64("received", s.Size()).Msg("Download finished")
	switch s.Status() {
	case session.Success:
		result = "success"
		return nil
	case session.Failure:
		return s.Err()
	default:
		result = "interrupted"
		return errdef.Wrap(errdef.CodeIO, ErrInterrupted, "")
	}
}

// WithDNS downloads over the current ethernet device.
func (d *Driver) WithDNS(ctx context.Context, dst uint64, uri string) error {
	return d.Loop(ctx, d.currentDevice(), dst, uri)
}

func (d *Driver) currentDevice() transport.Device {
	if d.Env != nil {
		if name, ok := d.Env.Get(env.EthAct); ok && name != "" {
			return transport.Device{Name: name}
		}
	}
	return d.Device
}
