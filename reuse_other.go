//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package continuity

import "syscall"

func reusePort(network, address string, c syscall.RawConn) error {
	return nil
}
