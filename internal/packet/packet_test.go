package packet

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func ipv4(proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.IPv4(10, 0, 1, 2),
		DstIP:    net.IPv4(10, 0, 1, 0),
	}
}

func TestDescribeTCP(t *testing.T) {
	ip := ipv4(layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: 51234, DstPort: 22, SYN: true, Window: 1024}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	b := serialize(t, ip, tcp)

	got := Describe(b)
	want := "10.0.1.2 -> 10.0.1.0 TCP 51234 -> 22 [SYN] (40 bytes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestDescribeUDP(t *testing.T) {
	ip := ipv4(layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: 40000, DstPort: 9999}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	b := serialize(t, ip, udp, gopacket.Payload([]byte("ping")))

	got := Describe(b)
	want := "10.0.1.2 -> 10.0.1.0 UDP 40000 -> 9999 (32 bytes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestDescribeICMP(t *testing.T) {
	ip := ipv4(layers.IPProtocolICMPv4)
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 1, Seq: 1}
	b := serialize(t, ip, icmp)

	got := Describe(b)
	want := "10.0.1.2 -> 10.0.1.0 ICMP EchoRequest (28 bytes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func ipv6TCP(t *testing.T) []byte {
	t.Helper()
	ip := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolTCP,
		HopLimit:   64,
		SrcIP:      net.ParseIP("fd00::1"),
		DstIP:      net.ParseIP("fd00::2"),
	}
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 22, SYN: true, ACK: true, Window: 1024}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	return serialize(t, ip, tcp)
}

func TestDescribeIPv6(t *testing.T) {
	got := Describe(ipv6TCP(t))
	want := "fd00::1 -> fd00::2 TCP 40000 -> 22 [SYN,ACK] (60 bytes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestDescribeUndecodedProtocol(t *testing.T) {
	b := serialize(t, ipv4(layers.IPProtocolGRE), gopacket.Payload([]byte{0, 0, 0x08, 0}))

	got := Describe(b)
	want := "10.0.1.2 -> 10.0.1.0 GRE (24 bytes)"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestDescribeInvalid(t *testing.T) {
	ip := ipv4(layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: 51234, DstPort: 22, SYN: true}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	v4tcp := serialize(t, ip, tcp)
	v6tcp := ipv6TCP(t)

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, "invalid packet (0 bytes)"},
		{"not ip", []byte{0x00, 0x01, 0x02}, "invalid packet (3 bytes)"},
		{"truncated ipv4", []byte{0x45, 0x00, 0x00, 0x1c}, "invalid packet (4 bytes)"},
		{"short ipv4 header", []byte{0x45, 0, 0, 40, 0, 0}, "invalid packet (6 bytes)"},
		{"short ipv6 header", v6tcp[:20], "invalid packet (20 bytes)"},
		{"ipv4 tcp cut off", v4tcp[:30], "invalid packet (30 bytes)"},
		{"ipv6 tcp cut off", v6tcp[:45], "invalid packet (45 bytes)"},
	}
	for _, tt := range tests {
		if got := Describe(tt.in); got != tt.want {
			t.Errorf("%s: Describe = %q, want %q", tt.name, got, tt.want)
		}
	}
}
