package utils

import "net"

// GetLocalIP 返回本机对外通信使用的 IPv4 地址，取不到时返回 "unknown"。
// UDP 拨号不实际发包，仅用于让内核选路。
func GetLocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "unknown"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
		return addr.IP.String()
	}
	return "unknown"
}
