//go:build linux

package socketcan

import "golang.org/x/sys/unix"

// Addr is the bind address of a raw CAN socket. The address family is
// implied (AF_CAN); only the interface index matters for CAN_RAW.
//
// RxID and TxID carry transport-protocol addressing for other socket
// variants (ISO-TP style point-to-point channels). The kernel ignores them
// on raw sockets, so NewAddr leaves them zero; they are exposed only so the
// full sockaddr_can layout stays representable.
type Addr struct {
	Ifindex int
	RxID    uint32
	TxID    uint32
}

// NewAddr builds a raw-socket bind address for a resolved interface index.
func NewAddr(ifindex int) Addr {
	return Addr{Ifindex: ifindex}
}

func (a Addr) sockaddr() *unix.SockaddrCAN {
	return &unix.SockaddrCAN{
		Ifindex: a.Ifindex,
		RxID:    a.RxID,
		TxID:    a.TxID,
	}
}
