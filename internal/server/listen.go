package server

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortConfig returns a ListenConfig with SO_REUSEPORT set, so a
// restarting daemon can bind while old sockets drain and multiple
// processes can share the port if the operator wants that.
func reusePortConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}
}

func listenUDPReusePort(ctx context.Context, addr string) (net.PacketConn, error) {
	lc := reusePortConfig()
	return lc.ListenPacket(ctx, "udp", addr)
}

func listenTCPReusePort(ctx context.Context, addr string) (net.Listener, error) {
	lc := reusePortConfig()
	return lc.Listen(ctx, "tcp", addr)
}
