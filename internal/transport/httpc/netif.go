package httpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/bootfetch/internal/transport"
)

var (
	ErrBusy   = errors.New("an exchange is already in progress")
	ErrClosed = errors.New("netif is closed")
	ErrNoHost = errors.New("empty host")
)

// event is one unit of inbound traffic handed from the worker goroutine to
// the polling side. A final event carries the outcome instead of data.
type event struct {
	data    []byte
	final   bool
	outcome transport.Outcome
}

// netif runs at most one exchange. The network side lives on a worker
// goroutine; handler callbacks only ever run inside Rx and CheckTimeouts,
// on the caller's goroutine.
type netif struct {
	cfg    Config
	dev    transport.Device
	client *client
	log    zerolog.Logger
	now    func() time.Time

	handler transport.Handler
	events  chan event
	credits chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}

	active       bool
	closed       bool
	lastActivity time.Time
}

func newNetif(cfg Config, dev transport.Device, c *client) *netif {
	return &netif{
		cfg:    cfg,
		dev:    dev,
		client: c,
		log:    log.With().Str("op", "httpc/netif").Str("device", dev.Name).Logger(),
		now:    time.Now,
	}
}

func (n *netif) GetFile(host string, port uint16, path string, h transport.Handler) error {
	switch {
	case n.closed:
		return ErrClosed
	case n.handler != nil:
		return ErrBusy
	case host == "":
		return ErrNoHost
	case h == nil:
		return fmt.Errorf("nil handler")
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.handler = h
	n.cancel = cancel
	n.events = make(chan event, n.cfg.Window+1)
	n.credits = make(chan struct{}, n.cfg.Window)
	for i := 0; i < n.cfg.Window; i++ {
		n.credits <- struct{}{}
	}
	n.done = make(chan struct{})
	n.active = true
	n.lastActivity = n.now()

	n.log.Debug().Str("host", host).Uint16("port", port).Str("path", path).Msg("Starting GET")
	go n.run(ctx, host, port, path)
	return nil
}

func (n *netif) run(ctx context.Context, host string, port uint16, path string) {
	defer close(n.done)
	o := n.fetch(ctx, host, port, path)
	n.send(ctx, event{final: true, outcome: o})
}

func (n *netif) send(ctx context.Context, ev event) bool {
	select {
	case n.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (n *netif) fetch(ctx context.Context, host string, port uint16, path string) transport.Outcome {
	addrs, err := n.cfg.Resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		if err == nil {
			err = fmt.Errorf("no addresses for %s", host)
		}
		return transport.Outcome{Result: transport.ResultErrHostname, Err: err}
	}
	portStr := strconv.Itoa(int(port))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+net.JoinHostPort(addrs[0], portStr)+path, nil)
	if err != nil {
		return transport.Outcome{Result: transport.ResultErrUnknown, Err: err}
	}
	req.Host = host
	if port != 80 {
		req.Host = net.JoinHostPort(host, portStr)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return transport.Outcome{Result: transport.ResultLocalAbort, Err: err}
		}
		return transport.Outcome{Result: transport.ResultErrConnect, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return transport.Outcome{Result: transport.ResultOK, StatusCode: resp.StatusCode}
	}

	var total int64
	for {
		select {
		case <-n.credits:
		case <-ctx.Done():
			return transport.Outcome{Result: transport.ResultLocalAbort, ContentLength: total, StatusCode: resp.StatusCode, Err: ctx.Err()}
		}
		buf := make([]byte, n.cfg.ReadSize)
		read, rerr := resp.Body.Read(buf)
		if read > 0 {
			if !n.send(ctx, event{data: buf[:read]}) {
				return transport.Outcome{Result: transport.ResultLocalAbort, ContentLength: total, StatusCode: resp.StatusCode, Err: ctx.Err()}
			}
			total += int64(read)
		} else {
			n.credits <- struct{}{}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return transport.Outcome{Result: transport.ResultLocalAbort, ContentLength: total, StatusCode: resp.StatusCode, Err: rerr}
			}
			return transport.Outcome{Result: transport.ResultErrClosed, ContentLength: total, StatusCode: resp.StatusCode, Err: rerr}
		}
	}
	if resp.ContentLength >= 0 && total != resp.ContentLength {
		return transport.Outcome{
			Result:        transport.ResultErrContentLen,
			ContentLength: total,
			StatusCode:    resp.StatusCode,
			Err:           fmt.Errorf("received %d of %d bytes", total, resp.ContentLength),
		}
	}
	return transport.Outcome{Result: transport.ResultOK, ContentLength: total, StatusCode: resp.StatusCode}
}

// Rx waits up to one poll interval for traffic and dispatches it.
func (n *netif) Rx() {
	if !n.active {
		return
	}
	timer := time.NewTimer(n.cfg.PollInterval)
	defer timer.Stop()
	select {
	case ev := <-n.events:
		n.dispatch(ev)
	case <-timer.C:
	}
}

func (n *netif) dispatch(ev event) {
	n.lastActivity = n.now()
	if ev.final {
		n.active = false
		n.log.Debug().Str("result", ev.outcome.Result.String()).Int("status", ev.outcome.StatusCode).Int64("bytes", ev.outcome.ContentLength).Msg("Exchange finished")
		n.handler.Result(ev.outcome)
		return
	}
	acked, err := n.handler.Receive(transport.Chunk{ev.data})
	// a credit comes back only for a fully acknowledged fragment, so
	// under-acknowledging shrinks the window
	if acked >= len(ev.data) {
		select {
		case n.credits <- struct{}{}:
		default:
		}
	} else if err == nil {
		n.log.Debug().Int("acked", acked).Int("bytes", len(ev.data)).Msg("Fragment not fully acknowledged, window shrinks")
	}
	if err != nil {
		n.log.Debug().Err(err).Msg("Receive failed, aborting exchange")
		n.abort(transport.Outcome{Result: transport.ResultLocalAbort, Err: err})
	}
}

func (n *netif) abort(o transport.Outcome) {
	n.cancel()
	n.active = false
	n.handler.Result(o)
}

// CheckTimeouts aborts an exchange that has been idle for too long.
func (n *netif) CheckTimeouts() {
	if !n.active {
		return
	}
	idle := n.now().Sub(n.lastActivity)
	if idle > n.cfg.IdleTimeout {
		n.log.Debug().Dur("idle", idle).Msg("Exchange timed out")
		n.abort(transport.Outcome{Result: transport.ResultErrTimeout, Err: fmt.Errorf("no data for %s", idle.Round(time.Millisecond))})
	}
}

// Close aborts any exchange in flight without invoking the handler and
// waits for the worker to exit.
func (n *netif) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	n.active = false
	if n.cancel != nil {
		n.cancel()
		<-n.done
	}
	n.client.Close()
	n.log.Debug().Msg("Netif removed")
	return nil
}
