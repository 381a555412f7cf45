//go:build linux

package acceptor

import (
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/unix"
)

// soOriginalDst is SO_ORIGINAL_DST, the netfilter-defined socket
// option that recovers a redirected connection's pre-NAT destination.
// It has no portable equivalent and is not exported by x/sys/unix.
const soOriginalDst = 80

// originalDestination queries SOL_IP/SO_ORIGINAL_DST on conn's
// underlying file descriptor, laid out as !2xH4s8x: 2 bytes of
// padding, a big-endian port, a 4-byte IPv4 address, 8 bytes of
// padding. unix.RawSockaddrInet4 already matches that layout.
func originalDestination(conn *net.TCPConn) (*net.TCPAddr, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("acceptor: syscall conn: %w", err)
	}

	var addr unix.RawSockaddrInet4
	size := uint32(unsafe.Sizeof(addr))

	var getErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		_, _, errno := unix.Syscall6(
			unix.SYS_GETSOCKOPT,
			fd,
			unix.SOL_IP,
			soOriginalDst,
			uintptr(unsafe.Pointer(&addr)),
			uintptr(unsafe.Pointer(&size)),
			0,
		)
		if errno != 0 {
			getErr = errno
		}
	})
	if ctrlErr != nil {
		return nil, fmt.Errorf("acceptor: control: %w", ctrlErr)
	}
	if getErr != nil {
		return nil, fmt.Errorf("acceptor: getsockopt SO_ORIGINAL_DST: %w", getErr)
	}

	port := int(addr.Port>>8) | int(addr.Port&0xff)<<8
	ip := net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3])
	return &net.TCPAddr{IP: ip, Port: port}, nil
}
