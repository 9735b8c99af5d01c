// Package cartridge loads a flat DMG ROM image and reads its header
// metadata: title, start address, CGB flag, and checksum, so a caller
// can get already-parsed metadata without re-deriving it from the raw
// bytes. Bank-switching cartridges are out of scope; only flat ROMs up
// to 32 KiB are supported.
package cartridge

import (
	"errors"
	"fmt"
	"io"
)

const (
	maxROMSize = 0x8000

	titleOffset  = 0x0134
	titleLength  = 16
	cgbOffset    = 0x0143
	startAddrLo  = 0x0102
	startAddrHi  = 0x0103
	checksumAddr = 0x014D
)

// ErrTooLarge is returned when a ROM image exceeds the flat 32 KiB
// scope this core covers; bank-switching cartridges are out of scope.
var ErrTooLarge = errors.New("cartridge: image exceeds 32 KiB flat ROM scope")

// Header is the subset of the DMG cartridge header this core parses.
type Header struct {
	Title     string
	StartAddr uint16
	CGBFlag   byte
	Checksum  byte
}

// Cartridge is a loaded, flat, read-only ROM image plus its parsed
// header.
type Cartridge struct {
	Bytes  []byte
	Header Header
}

// LoadFromReader reads an entire ROM image from r and parses its
// header. It does not alter the bytes; the caller may also choose to
// ignore Header and treat Bytes as opaque.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cartridge: read: %w", err)
	}
	if len(data) > maxROMSize {
		return nil, ErrTooLarge
	}
	return &Cartridge{Bytes: data, Header: parseHeader(data)}, nil
}

func parseHeader(data []byte) Header {
	var h Header
	if len(data) > titleOffset+titleLength {
		h.Title = trimTitle(data[titleOffset : titleOffset+titleLength])
	}
	if len(data) > startAddrHi {
		h.StartAddr = uint16(data[startAddrLo]) | uint16(data[startAddrHi])<<8
	}
	if len(data) > cgbOffset {
		h.CGBFlag = data[cgbOffset]
	}
	if len(data) > checksumAddr {
		h.Checksum = data[checksumAddr]
	}
	return h
}

func trimTitle(raw []byte) string {
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(raw[:end])
}
