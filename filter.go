package socketcan

import "golang.org/x/sys/unix"

// Filter is a kernel acceptance filter. A received frame is delivered when
//
//	received_id & Mask == Id & Mask
//
// holds. Setting CAN_INV_FILTER in Id inverts the match.
type Filter struct {
	Id   uint32
	Mask uint32
}

// NewFilter builds a filter from a raw id/mask pair.
func NewFilter(id, mask uint32) Filter {
	return Filter{Id: id, Mask: mask}
}

// NewStdFilter matches exactly one standard (11 bit) identifier. The mask
// pins the EFF and RTR flag bits so an extended or remote frame with the
// same identifier does not match.
func NewStdFilter(id uint32) Filter {
	return Filter{
		Id:   id & CAN_SFF_MASK,
		Mask: CAN_SFF_MASK | CAN_EFF_FLAG | CAN_RTR_FLAG,
	}
}

// NewStdInvFilter matches every standard identifier except id.
func NewStdInvFilter(id uint32) Filter {
	f := NewStdFilter(id)
	f.Id |= unix.CAN_INV_FILTER
	return f
}

// NewExtFilter matches exactly one extended (29 bit) identifier.
func NewExtFilter(id uint32) Filter {
	return Filter{
		Id:   (id & CAN_EFF_MASK) | CAN_EFF_FLAG,
		Mask: CAN_EFF_MASK | CAN_EFF_FLAG | CAN_RTR_FLAG,
	}
}

// NewExtInvFilter matches every extended identifier except id.
func NewExtInvFilter(id uint32) Filter {
	f := NewExtFilter(id)
	f.Id |= unix.CAN_INV_FILTER
	return f
}
