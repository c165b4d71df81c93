package model

import (
	"fmt"
	"net"
	"strings"
)

// MAC holds a 48-bit hardware address in the low bits of a uint64.
type MAC uint64

// ParseMAC accepts colon, dash or dot separated EUI-48 notation.
func ParseMAC(raw string) (MAC, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if len(hw) != 6 {
		return 0, fmt.Errorf("expected 6 octets, got %d", len(hw))
	}
	var v uint64
	for _, b := range hw {
		v = v<<8 | uint64(b)
	}
	return MAC(v), nil
}

func (m MAC) FirstOctet() byte {
	return byte(m >> 40)
}

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		byte(m>>40), byte(m>>32), byte(m>>24), byte(m>>16), byte(m>>8), byte(m))
}
