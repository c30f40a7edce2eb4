// Package card renders a printable connection card for a paired device.
package card

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/unicode/norm"
)

// CardData contains everything printed on the card.
type CardData struct {
	DeviceName          string
	InterfaceName       string
	AddressRange        string
	RemoteHost          string
	SSHPort             int
	PairingServerURL    string
	SignallingServerURL string
	WebClientURL        string
	PairingIDs          []string
	Version             string
	Created             time.Time
}

const (
	fontSans = "Helvetica"
	fontMono = "Courier"

	titleSize = 20.0
	bodySize  = 10.0
	monoSize  = 8.0

	qrSizeMM = 60.0
)

// accent is the colour of the strip across the top of the card.
var accent = [3]int{110, 145, 140}

// QRContent returns the string encoded in the QR code: the web client URL
// with the remote host and SSH port in the fragment, so they never reach
// the server hosting the client.
func (d CardData) QRContent() string {
	v := url.Values{}
	v.Set("host", d.RemoteHost)
	v.Set("port", strconv.Itoa(d.SSHPort))
	return d.WebClientURL + "#" + v.Encode()
}

// Generate creates the card as a one-page PDF.
func Generate(data CardData) ([]byte, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetMargins(20, 20, 20)
	p.SetAutoPageBreak(false, 20)

	// Core fonts are cp1252; translate so names with accents still print.
	tr := p.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(norm.NFC.String(s)) }

	p.AddPage()
	pageWidth, _ := p.GetPageSize()
	leftMargin, _, rightMargin, _ := p.GetMargins()
	contentWidth := pageWidth - leftMargin - rightMargin

	p.SetFillColor(accent[0], accent[1], accent[2])
	p.Rect(0, 0, pageWidth, 4, "F")

	p.Ln(8)
	p.SetFont(fontSans, "B", titleSize)
	p.SetTextColor(46, 42, 38)
	p.CellFormat(0, 10, "thingify-net", "", 1, "C", false, 0, "")
	p.SetFont(fontSans, "", 13)
	name := data.DeviceName
	if name == "" {
		name = "this device"
	}
	p.CellFormat(0, 8, text("Connection card for "+name), "", 1, "C", false, 0, "")
	p.Ln(6)

	qrPNG, err := generateQRPNG(data.QRContent())
	if err != nil {
		return nil, fmt.Errorf("generating QR code: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	p.RegisterImageOptionsReader("qrcode", opts, bytes.NewReader(qrPNG))
	qrX := (pageWidth - qrSizeMM) / 2
	p.ImageOptions("qrcode", qrX, p.GetY(), qrSizeMM, qrSizeMM, false, opts, 0, "")
	p.SetY(p.GetY() + qrSizeMM + 3)

	p.SetFont(fontMono, "", monoSize)
	p.MultiCell(0, 4, text(data.QRContent()), "", "C", false)
	p.Ln(4)

	addBody(p, text("Scan the code or open the address above in a browser, then enter the shortcode it shows with:"))
	p.Ln(1)
	p.SetFont(fontMono, "", bodySize)
	p.CellFormat(0, 6, "thingify-net pair --shortcode <CODE>", "", 1, "C", false, 0, "")
	p.Ln(4)

	addSection(p, "Device")
	addMeta(p, "Interface", text(fmt.Sprintf("%s (%s)", data.InterfaceName, data.AddressRange)))
	addMeta(p, "SSH", text(fmt.Sprintf("%s port %d", data.RemoteHost, data.SSHPort)))
	p.Ln(2)

	addSection(p, "Servers")
	addMeta(p, "Pairing", text(data.PairingServerURL))
	addMeta(p, "Signalling", text(data.SignallingServerURL))
	p.Ln(2)

	addSection(p, "Pairings")
	if len(data.PairingIDs) == 0 {
		addBody(p, "Not paired yet.")
	}
	p.SetFont(fontMono, "", monoSize)
	for _, id := range data.PairingIDs {
		p.CellFormat(contentWidth, 4, text(id), "", 1, "L", false, 0, "")
	}

	p.SetY(-20)
	p.SetFont(fontSans, "", 7)
	p.SetTextColor(150, 150, 150)
	footer := "Created " + data.Created.UTC().Format("2006-01-02 15:04 MST")
	if data.Version != "" {
		footer += " by thingify-net " + data.Version
	}
	p.CellFormat(0, 5, text(footer), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addSection(p *fpdf.Fpdf, title string) {
	p.SetFont(fontSans, "B", 12)
	p.SetFillColor(230, 230, 230)
	p.CellFormat(0, 7, " "+title, "", 1, "L", true, 0, "")
	p.Ln(1)
}

func addBody(p *fpdf.Fpdf, s string) {
	p.SetFont(fontSans, "", bodySize)
	p.MultiCell(0, 5, s, "", "L", false)
}

func addMeta(p *fpdf.Fpdf, key, value string) {
	p.SetFont(fontSans, "", bodySize)
	p.CellFormat(0, 5, fmt.Sprintf("%s: %s", key, value), "", 1, "L", false, 0, "")
}

// generateQRPNG creates a QR code PNG image for the given content string.
func generateQRPNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 512)
}

// TerminalQR renders content as a QR code made of block characters.
func TerminalQR(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encoding QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
