package httpc

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/bootfetch/internal/transport"
)

var (
	ErrNoInterface   = errors.New("no network interface")
	ErrInterfaceDown = errors.New("network interface is down")
)

// Stack hands out netifs backed by the host network stack.
type Stack struct {
	cfg         Config
	lookupIface func(name string) (*net.Interface, error)
}

func NewStack(cfg Config) *Stack {
	return &Stack{cfg: cfg.withDefaults(), lookupIface: net.InterfaceByName}
}

// NewNetif binds a netif to dev. A named device must exist and be up;
// outgoing connections then originate from its first IPv4 address.
func (s *Stack) NewNetif(dev transport.Device) (transport.Netif, error) {
	var local net.Addr
	if dev.Name != "" {
		iface, err := s.lookupIface(dev.Name)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrNoInterface, dev.Name, err)
		}
		if iface.Flags&net.FlagUp == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInterfaceDown, dev.Name)
		}
		if ip := firstIPv4(iface); ip != nil {
			local = &net.TCPAddr{IP: ip}
		}
	}
	log.Debug().Str("op", "httpc/stack").Str("device", dev.Name).Msg("Netif created")
	return newNetif(s.cfg, dev, newClient(s.cfg, local)), nil
}

func firstIPv4(iface *net.Interface) net.IP {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if ip4 := ipn.IP.To4(); ip4 != nil {
				return ip4
			}
		}
	}
	return nil
}
