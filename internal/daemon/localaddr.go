package daemon

import "net"

// DetectLocalIP returns the IP address of the first non-loopback
// network interface with an IPv4 address, the address this node
// advertises to peers during UDP discovery. Falls back to 127.0.0.1
// when no such interface exists (e.g. a single-host test cluster).
func DetectLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
