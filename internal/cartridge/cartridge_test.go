package cartridge

import (
	"bytes"
	"testing"
)

func TestLoadFromReaderParsesHeader(t *testing.T) {
	data := make([]byte, 0x150)
	copy(data[titleOffset:], []byte("TESTGAME"))
	data[startAddrLo] = 0x00
	data[startAddrHi] = 0x01
	data[cgbOffset] = 0x80
	data[checksumAddr] = 0x5A

	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cart.Header.Title != "TESTGAME" {
		t.Fatalf("Title = %q, want %q", cart.Header.Title, "TESTGAME")
	}
	if cart.Header.StartAddr != 0x0100 {
		t.Fatalf("StartAddr = $%04x, want $0100", cart.Header.StartAddr)
	}
	if cart.Header.CGBFlag != 0x80 {
		t.Fatalf("CGBFlag = $%02x, want $80", cart.Header.CGBFlag)
	}
	if cart.Header.Checksum != 0x5A {
		t.Fatalf("Checksum = $%02x, want $5A", cart.Header.Checksum)
	}
	if len(cart.Bytes) != len(data) {
		t.Fatalf("Bytes length = %d, want %d", len(cart.Bytes), len(data))
	}
}

func TestLoadFromReaderRejectsOversizedImage(t *testing.T) {
	data := make([]byte, maxROMSize+1)
	if _, err := LoadFromReader(bytes.NewReader(data)); err != ErrTooLarge {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestTitleTrimsTrailingZeroes(t *testing.T) {
	raw := make([]byte, titleLength)
	copy(raw, []byte("ABC"))
	if got := trimTitle(raw); got != "ABC" {
		t.Fatalf("trimTitle = %q, want %q", got, "ABC")
	}
}
