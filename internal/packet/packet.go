// Package packet summarises raw IP packets for diagnostics.
package packet

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Describe returns a one-line summary of an IPv4 or IPv6 packet, e.g.
// "10.0.1.2 -> 10.0.1.0 TCP 51234 -> 22 [SYN] (60 bytes)". Packets whose
// IP or transport headers are malformed or cut off are reported as invalid.
func Describe(b []byte) string {
	invalid := fmt.Sprintf("invalid packet (%d bytes)", len(b))
	if len(b) == 0 {
		return invalid
	}

	var first gopacket.LayerType
	switch b[0] >> 4 {
	case 4:
		first = layers.LayerTypeIPv4
	case 6:
		first = layers.LayerTypeIPv6
	default:
		return invalid
	}

	var (
		ip4     layers.IPv4
		ip6     layers.IPv6
		tcp     layers.TCP
		udp     layers.UDP
		icmp    layers.ICMPv4
		payload gopacket.Payload
	)
	parser := gopacket.NewDecodingLayerParser(first, &ip4, &ip6, &tcp, &udp, &icmp, &payload)
	// Protocols without a decoder here (GRE, extension headers, DNS...) end
	// decoding without being an error.
	parser.IgnoreUnsupported = true

	decoded := make([]gopacket.LayerType, 0, 4)
	if err := parser.DecodeLayers(b, &decoded); err != nil || parser.Truncated {
		return invalid
	}

	var src, dst, proto string
	var sb strings.Builder
	for _, lt := range decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			src, dst, proto = ip4.SrcIP.String(), ip4.DstIP.String(), ip4.Protocol.String()
		case layers.LayerTypeIPv6:
			src, dst, proto = ip6.SrcIP.String(), ip6.DstIP.String(), ip6.NextHeader.String()
		case layers.LayerTypeTCP:
			fmt.Fprintf(&sb, " TCP %d -> %d", tcp.SrcPort, tcp.DstPort)
			if f := tcpFlags(&tcp); f != "" {
				fmt.Fprintf(&sb, " [%s]", f)
			}
		case layers.LayerTypeUDP:
			fmt.Fprintf(&sb, " UDP %d -> %d", udp.SrcPort, udp.DstPort)
		case layers.LayerTypeICMPv4:
			fmt.Fprintf(&sb, " ICMP %s", icmp.TypeCode)
		}
	}
	if src == "" {
		return invalid
	}

	transport := sb.String()
	if transport == "" {
		transport = " " + proto
	}
	return fmt.Sprintf("%s -> %s%s (%d bytes)", src, dst, transport, len(b))
}

func tcpFlags(t *layers.TCP) string {
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{t.SYN, "SYN"},
		{t.ACK, "ACK"},
		{t.PSH, "PSH"},
		{t.FIN, "FIN"},
		{t.RST, "RST"},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	return strings.Join(flags, ",")
}
