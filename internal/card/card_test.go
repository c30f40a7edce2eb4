package card

import (
	"bytes"
	"image/png"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testCardData() CardData {
	return CardData{
		DeviceName:          "rpi-garage",
		InterfaceName:       "thingify0",
		AddressRange:        "10.0.1.0/24",
		RemoteHost:          "10.0.1.0",
		SSHPort:             22,
		PairingServerURL:    "https://thingify.deno.dev/pairing",
		SignallingServerURL: "wss://thingify.deno.dev/signalling",
		WebClientURL:        "https://thingify.app/net",
		PairingIDs:          []string{"c1b0a8f2-4f9e-4d7c-9a3e-2d1f0e5b6a7c"},
		Version:             "v0.1.0-test",
		Created:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	pdfBytes, err := Generate(testCardData())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF-")) {
		t.Error("output does not start with PDF header")
	}
}

func TestGenerateUnpairedNonASCII(t *testing.T) {
	data := testCardData()
	data.DeviceName = "Café Kamera"
	data.PairingIDs = nil
	data.Version = ""
	pdfBytes, err := Generate(data)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(pdfBytes) == 0 {
		t.Fatal("generated PDF is empty")
	}
}

func TestQRContent(t *testing.T) {
	got := testCardData().QRContent()
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse %q: %v", got, err)
	}
	if u.Scheme != "https" || u.Host != "thingify.app" || u.Path != "/net" {
		t.Errorf("base URL changed: %q", got)
	}
	if u.RawQuery != "" {
		t.Errorf("settings leaked into the query: %q", u.RawQuery)
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if frag.Get("host") != "10.0.1.0" || frag.Get("port") != "22" {
		t.Errorf("fragment: %v", frag)
	}
}

func TestGenerateQRPNG(t *testing.T) {
	data, err := generateQRPNG(testCardData().QRContent())
	if err != nil {
		t.Fatalf("generateQRPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
		t.Errorf("size: %v", b)
	}
}

func TestTerminalQR(t *testing.T) {
	s, err := TerminalQR("https://thingify.app/net")
	if err != nil {
		t.Fatalf("TerminalQR: %v", err)
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) < 10 {
		t.Errorf("only %d lines", len(lines))
	}
}
