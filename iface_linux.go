//go:build linux

package socketcan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// Interface is a resolved network interface. The kernel-assigned index is
// only valid while the interface exists: it goes stale if the interface is
// removed and re-created, so resolve again instead of caching across
// interface lifecycle events.
type Interface struct {
	Name  string
	Index int
	// Up reflects the administrative IFF_UP flag at resolution time.
	Up bool
}

// ResolveInterface maps an interface name to its kernel index with a
// rtnetlink RTM_GETLINK query. Every call re-queries the kernel. Returns
// ErrInterfaceNotFound if no interface with that name exists.
func ResolveInterface(name string) (Interface, error) {
	msg, err := queryLink(name)
	if err != nil {
		return Interface{}, err
	}
	var ifi ifInfoMsg
	if err := ifi.unmarshalBinary(msg.Data[:unix.SizeofIfInfomsg]); err != nil {
		return Interface{}, err
	}
	return Interface{
		Name:  name,
		Index: int(ifi.Index),
		Up:    ifi.Flags&unix.IFF_UP != 0,
	}, nil
}

// LinkInfo is the read-only rtnetlink view of a CAN link: identity plus the
// CAN-specific attributes the driver reports. Populated by GetLinkInfo;
// virtual links (vcan) carry no bit timing or counters.
type LinkInfo struct {
	Interface
	// Kind is the link type, "can" or "vcan".
	Kind          string
	BitTiming     unix.CANBitTiming
	CtrlMode      unix.CANCtrlMode
	Clock         unix.CANClock
	ErrorCounters unix.CANBusErrorCounters
	Stats         unix.CANDeviceStats
}

// Bitrate returns the configured arbitration bitrate in bits per second,
// zero for links without bit timing (vcan).
func (li *LinkInfo) Bitrate() uint32 {
	return li.BitTiming.Bitrate
}

// GetLinkInfo queries the kernel for the state of a CAN interface. Fails
// with ErrNotCANInterface when the link is not a CAN device.
func GetLinkInfo(name string) (LinkInfo, error) {
	msg, err := queryLink(name)
	if err != nil {
		return LinkInfo{}, err
	}
	var ifi ifInfoMsg
	if err := ifi.unmarshalBinary(msg.Data[:unix.SizeofIfInfomsg]); err != nil {
		return LinkInfo{}, err
	}
	if ifi.Type != unix.ARPHRD_CAN {
		return LinkInfo{}, fmt.Errorf("%w: %s", ErrNotCANInterface, name)
	}
	li := LinkInfo{
		Interface: Interface{
			Name:  name,
			Index: int(ifi.Index),
			Up:    ifi.Flags&unix.IFF_UP != 0,
		},
	}
	ad, err := netlink.NewAttributeDecoder(msg.Data[unix.SizeofIfInfomsg:])
	if err != nil {
		return LinkInfo{}, err
	}
	for ad.Next() {
		switch ad.Type() {
		case unix.IFLA_IFNAME:
			li.Name = ad.String()
		case unix.IFLA_LINKINFO:
			ad.Nested(li.decodeLinkInfo)
		}
	}
	if err := ad.Err(); err != nil {
		return LinkInfo{}, fmt.Errorf("couldn't decode link %s: %w", name, err)
	}
	return li, nil
}

// queryLink performs one RTM_GETLINK request by interface name.
func queryLink(name string) (netlink.Message, error) {
	// Interface names are capped at IFNAMSIZ-1 bytes. The kernel rejects
	// longer names with ERANGE before looking anything up, so report them
	// as not found directly instead of surfacing the policy error.
	if len(name) >= unix.IFNAMSIZ {
		return netlink.Message{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
	}
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{})
	if err != nil {
		return netlink.Message{}, fmt.Errorf("couldn't dial netlink socket: %w", err)
	}
	defer c.Close()

	req, err := newLinkRequest(name)
	if err != nil {
		return netlink.Message{}, err
	}
	res, err := c.Execute(req)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENOENT) {
			return netlink.Message{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
		}
		return netlink.Message{}, fmt.Errorf("couldn't query link %s: %w", name, err)
	}
	if len(res) != 1 {
		return netlink.Message{}, fmt.Errorf("expected 1 message, got %d", len(res))
	}
	if len(res[0].Data) < unix.SizeofIfInfomsg {
		return netlink.Message{}, fmt.Errorf("link reply truncated: %d bytes", len(res[0].Data))
	}
	return res[0], nil
}

func newLinkRequest(name string) (netlink.Message, error) {
	req := netlink.Message{
		Header: netlink.Header{
			Flags: netlink.Request,
			Type:  unix.RTM_GETLINK,
		},
	}
	ifi := &ifInfoMsg{}
	req.Data = append(req.Data, ifi.marshalBinary()...)

	ae := netlink.NewAttributeEncoder()
	ae.String(unix.IFLA_IFNAME, name)
	attrs, err := ae.Encode()
	if err != nil {
		return netlink.Message{}, fmt.Errorf("couldn't encode link request: %w", err)
	}
	req.Data = append(req.Data, attrs...)
	return req, nil
}

func (li *LinkInfo) decodeLinkInfo(nad *netlink.AttributeDecoder) error {
	for nad.Next() {
		switch nad.Type() {
		case unix.IFLA_INFO_KIND:
			li.Kind = nad.String()
		case unix.IFLA_INFO_DATA:
			nad.Nested(li.decodeCANData)
		case unix.IFLA_INFO_XSTATS:
			if err := decodeDevStats(nad.Bytes(), &li.Stats); err != nil {
				return err
			}
		}
	}
	return nil
}

func (li *LinkInfo) decodeCANData(nad *netlink.AttributeDecoder) error {
	var err error
	for nad.Next() {
		switch nad.Type() {
		case unix.IFLA_CAN_BITTIMING:
			err = decodeBitTiming(nad.Bytes(), &li.BitTiming)
		case unix.IFLA_CAN_CTRLMODE:
			err = decodeCtrlMode(nad.Bytes(), &li.CtrlMode)
		case unix.IFLA_CAN_CLOCK:
			err = decodeClock(nad.Bytes(), &li.Clock)
		case unix.IFLA_CAN_BERR_COUNTER:
			err = decodeErrCounters(nad.Bytes(), &li.ErrorCounters)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

const (
	sizeofBitTiming   = int(unsafe.Sizeof(unix.CANBitTiming{}))
	sizeofCtrlMode    = int(unsafe.Sizeof(unix.CANCtrlMode{}))
	sizeofClock       = int(unsafe.Sizeof(unix.CANClock{}))
	sizeofErrCounters = int(unsafe.Sizeof(unix.CANBusErrorCounters{}))
	sizeofDevStats    = int(unsafe.Sizeof(unix.CANDeviceStats{}))
)

func decodeBitTiming(data []byte, bt *unix.CANBitTiming) error {
	if len(data) != sizeofBitTiming {
		return fmt.Errorf("bit timing attribute: expected %d bytes, got %d", sizeofBitTiming, len(data))
	}
	bt.Bitrate = nlenc.Uint32(data[0:4])
	bt.Sample_point = nlenc.Uint32(data[4:8])
	bt.Tq = nlenc.Uint32(data[8:12])
	bt.Prop_seg = nlenc.Uint32(data[12:16])
	bt.Phase_seg1 = nlenc.Uint32(data[16:20])
	bt.Phase_seg2 = nlenc.Uint32(data[20:24])
	bt.Sjw = nlenc.Uint32(data[24:28])
	bt.Brp = nlenc.Uint32(data[28:32])
	return nil
}

func decodeCtrlMode(data []byte, cm *unix.CANCtrlMode) error {
	if len(data) != sizeofCtrlMode {
		return fmt.Errorf("ctrl mode attribute: expected %d bytes, got %d", sizeofCtrlMode, len(data))
	}
	cm.Mask = nlenc.Uint32(data[0:4])
	cm.Flags = nlenc.Uint32(data[4:8])
	return nil
}

func decodeClock(data []byte, c *unix.CANClock) error {
	if len(data) != sizeofClock {
		return fmt.Errorf("clock attribute: expected %d bytes, got %d", sizeofClock, len(data))
	}
	c.Freq = nlenc.Uint32(data)
	return nil
}

func decodeErrCounters(data []byte, bec *unix.CANBusErrorCounters) error {
	if len(data) != sizeofErrCounters {
		return fmt.Errorf("error counter attribute: expected %d bytes, got %d", sizeofErrCounters, len(data))
	}
	bec.Txerr = nlenc.Uint16(data[0:2])
	bec.Rxerr = nlenc.Uint16(data[2:4])
	return nil
}

func decodeDevStats(data []byte, s *unix.CANDeviceStats) error {
	if len(data) != sizeofDevStats {
		return fmt.Errorf("device stats attribute: expected %d bytes, got %d", sizeofDevStats, len(data))
	}
	s.Bus_error = nlenc.Uint32(data[0:4])
	s.Error_warning = nlenc.Uint32(data[4:8])
	s.Error_passive = nlenc.Uint32(data[8:12])
	s.Bus_off = nlenc.Uint32(data[12:16])
	s.Arbitration_lost = nlenc.Uint32(data[16:20])
	s.Restarts = nlenc.Uint32(data[20:24])
	return nil
}

// ifInfoMsg is the fixed rtnetlink link header (struct ifinfomsg).
type ifInfoMsg unix.IfInfomsg

func (ifi *ifInfoMsg) marshalBinary() []byte {
	buf := make([]byte, 2)
	buf[0] = ifi.Family
	buf[1] = 0 // reserved
	buf = binary.LittleEndian.AppendUint16(buf, ifi.Type)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ifi.Index))
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Change)
	return buf
}

func (ifi *ifInfoMsg) unmarshalBinary(data []byte) error {
	if len(data) != unix.SizeofIfInfomsg {
		return fmt.Errorf(
			"data is not a valid ifInfoMsg, expected: %d bytes, got: %d bytes",
			unix.SizeofIfInfomsg,
			len(data),
		)
	}
	ifi.Family = nlenc.Uint8(data[0:1])
	ifi.Type = nlenc.Uint16(data[2:4])
	ifi.Index = nlenc.Int32(data[4:8])
	ifi.Flags = nlenc.Uint32(data[8:12])
	ifi.Change = nlenc.Uint32(data[12:16])
	return nil
}
