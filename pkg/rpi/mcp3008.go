package rpi

import "fmt"

// MCP3008Channels is the number of single-ended inputs of the converter.
const MCP3008Channels = 8

// txer is the part of spi.Conn the converter needs.
type txer interface {
	Tx(w, r []byte) error
}

// MCP3008 is a 10-bit SPI converter.
type MCP3008 struct {
	conn txer
}

// NewMCP3008 wraps an SPI connection configured for mode 0, 8 bits.
func NewMCP3008(conn txer) *MCP3008 {
	return &MCP3008{conn: conn}
}

// Read performs a single-ended conversion on ch.
func (m *MCP3008) Read(ch int) (int, error) {
	if ch < 0 || ch >= MCP3008Channels {
		return 0, fmt.Errorf("mcp3008: channel %d out of range", ch)
	}

	// start bit, single-ended + channel, padding
	w := []byte{0x01, byte(0x08|ch) << 4, 0x00}
	r := make([]byte, len(w))
	if err := m.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp3008: %w", err)
	}
	return int(r[1]&0x03)<<8 | int(r[2]), nil
}
