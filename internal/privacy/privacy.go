// Package privacy holds the MAC bit predicates used to keep randomized and
// group addresses out of occupancy counts.
package privacy

import "github.com/JohandeGraaf/busyness-tracker-pi/internal/model"

const (
	groupBit = 0x01
	localBit = 0x02
)

// IsLocallyAdministered reports whether the U/L bit of the first octet is set.
func IsLocallyAdministered(mac model.MAC) bool {
	return mac.FirstOctet()&localBit != 0
}

// IsStableIdentity is false for locally administered (usually randomized) addresses.
func IsStableIdentity(mac model.MAC) bool {
	return !IsLocallyAdministered(mac)
}

// IsUnicast reports whether the I/G bit of the first octet is clear.
func IsUnicast(mac model.MAC) bool {
	return mac.FirstOctet()&groupBit == 0
}
