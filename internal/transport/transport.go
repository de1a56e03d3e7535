package transport

import "fmt"

// Result is the transport-level outcome of an HTTP exchange.
type Result int

const (
	ResultOK Result = iota
	ResultErrUnknown
	ResultErrConnect
	ResultErrHostname
	ResultErrClosed
	ResultErrTimeout
	ResultErrServerResponse
	ResultErrMem
	ResultLocalAbort
	ResultErrContentLen
)

var resultNames = map[Result]string{
	ResultOK:                "ok",
	ResultErrUnknown:        "unknown error",
	ResultErrConnect:        "connection failed",
	ResultErrHostname:       "hostname lookup failed",
	ResultErrClosed:         "connection closed",
	ResultErrTimeout:        "timeout",
	ResultErrServerResponse: "invalid server response",
	ResultErrMem:            "out of memory",
	ResultLocalAbort:        "aborted locally",
	ResultErrContentLen:     "content length mismatch",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// Chunk is the list of payload fragments delivered by one receive event.
// A nil Chunk marks a transport-level abort.
type Chunk [][]byte

// Len returns the total payload length of the chunk.
func (c Chunk) Len() int {
	n := 0
	for _, frag := range c {
		n += len(frag)
	}
	return n
}

// Outcome describes how an exchange concluded.
type Outcome struct {
	Result        Result
	ContentLength int64
	StatusCode    int
	Err           error
}

// Handler receives the callbacks of one HTTP exchange. Both methods are
// invoked synchronously from Netif.Rx or Netif.CheckTimeouts, never
// concurrently.
type Handler interface {
	// Receive consumes one chunk and returns the number of bytes to
	// acknowledge. The engine keeps reading only while chunks are
	// acknowledged in full. A non-nil error aborts the exchange.
	Receive(chunk Chunk) (int, error)
	// Result is called once when the exchange concludes.
	Result(o Outcome)
}

// Device names the network device a download is bound to. An empty name
// means any available interface.
type Device struct {
	Name string
}

// Netif is a network interface acquired for the duration of one download.
type Netif interface {
	// GetFile resolves host and starts an HTTP GET for path. It fails
	// synchronously when the exchange cannot be started.
	GetFile(host string, port uint16, path string, h Handler) error
	// Rx pumps inbound traffic and dispatches pending callbacks.
	Rx()
	// CheckTimeouts processes expired timers.
	CheckTimeouts()
	// Close releases the interface and aborts any exchange in flight.
	Close() error
}

// Stack hands out network interfaces bound to a device.
type Stack interface {
	NewNetif(dev Device) (Netif, error)
}
