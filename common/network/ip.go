package network

import (
	"net"
	"strings"

	"github.com/Laisky/errors/v2"
)

// ParseSubnets parses a comma separated CIDR list. Blank entries are ignored.
func ParseSubnets(subnets string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, raw := range strings.Split(subnets, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid subnet in list: %s", raw)
		}
		out = append(out, ipNet)
	}
	return out, nil
}

// BlockedAddressError is returned when an outbound connection targets a blocked subnet.
type BlockedAddressError struct {
	Address string
}

func (e *BlockedAddressError) Error() string {
	return "target address " + e.Address + " is blocked"
}

// IsIpInSubnets reports whether ip falls in any of subnets. Unparseable ips never match.
func IsIpInSubnets(ip string, subnets []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, subnet := range subnets {
		if subnet.Contains(parsed) {
			return true
		}
	}
	return false
}
