//go:build !windows

package httpc

import (
	"syscall"
)

func setSocketOptions(fd uintptr, rcvbuf int) {
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, rcvbuf)
}
