package peer

import (
	"net"
	"strings"
)

var cgnatBlock = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// vpnInterfacePrefixes are name fragments of tunnel adapters.
var vpnInterfacePrefixes = []string{"tun", "tap", "wg", "ppp", "warp"}

// ShouldForceRelay checks if the host is likely behind a VPN or CGNAT,
// where direct candidates rarely work.
func ShouldForceRelay() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isTunnelName(iface.Name) {
			return true
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && isCGNAT(ipNet.IP) {
				return true
			}
		}
	}
	return false
}

func isTunnelName(name string) bool {
	name = strings.ToLower(name)
	for _, p := range vpnInterfacePrefixes {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// isCGNAT reports whether ip is in 100.64.0.0/10.
func isCGNAT(ip net.IP) bool {
	return cgnatBlock.Contains(ip)
}
