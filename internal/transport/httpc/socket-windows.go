//go:build windows

package httpc

import (
	"syscall"
)

func setSocketOptions(fd uintptr, rcvbuf int) {
	syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, rcvbuf)
}
