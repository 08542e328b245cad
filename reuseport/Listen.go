/*
File Name:  Listen.go

UDP listener construction with SO_REUSEADDR set on the socket before
bind. This lets multiple processes on the same host join the same
multicast group and each receive a copy of every datagram, which a
plain net.ListenUDP bind does not allow on most platforms.
*/

package reuseport

import (
	"context"
	"net"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ListenPacketReusable opens a UDP socket bound to address with
// SO_REUSEADDR applied ahead of bind.
func ListenPacketReusable(network, address string) (conn net.PacketConn, err error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var controlErr error

			err := c.Control(func(fd uintptr) {
				if setErr := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); setErr != nil {
					controlErr = errors.Wrap(setErr, "reuseport: SO_REUSEADDR")
				}
			})
			if err != nil {
				return err
			}

			return controlErr
		},
	}

	return lc.ListenPacket(context.Background(), network, address)
}
