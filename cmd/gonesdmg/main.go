// Package main implements a driver for the DMG CPU-and-memory core: a
// flag-based entry point that loads a ROM and boot image, then either
// runs a bounded headless stepping loop or opens a GUI window.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Osmose/gamegirl/internal/bus"
	"github.com/Osmose/gamegirl/internal/cartridge"
	"github.com/Osmose/gamegirl/internal/display"
)

func main() {
	romPath := flag.String("rom", "", "path to a flat DMG ROM image (<=32 KiB)")
	bootPath := flag.String("boot", "", "path to a 256-byte DMG boot ROM image")
	frames := flag.Int("frames", 60, "number of frames to step before exiting (headless mode only)")
	debug := flag.Bool("debug", false, "log each instruction's mnemonic")
	gui := flag.Bool("gui", false, "open a window and run live instead of the headless loop")
	flag.Parse()

	if *romPath == "" {
		log.Fatalf("gonesdmg: -rom is required")
	}

	romFile, err := os.Open(*romPath)
	if err != nil {
		log.Fatalf("gonesdmg: open ROM: %v", err)
	}
	defer romFile.Close()

	cart, err := cartridge.LoadFromReader(romFile)
	if err != nil {
		log.Fatalf("gonesdmg: load ROM: %v", err)
	}

	bootBytes := make([]byte, 256)
	if *bootPath != "" {
		bootFile, err := os.Open(*bootPath)
		if err != nil {
			log.Fatalf("gonesdmg: open boot ROM: %v", err)
		}
		defer bootFile.Close()
		if _, err := bootFile.Read(bootBytes); err != nil {
			log.Fatalf("gonesdmg: read boot ROM: %v", err)
		}
	}

	b := bus.PowerOn(cart.Bytes, bootBytes)
	b.SetDebug(*debug)

	if *gui {
		runGUI(b)
		return
	}
	runHeadless(b, *frames, *debug)
}

// runHeadless steps the bus a fixed number of frames with no window.
func runHeadless(b *bus.Bus, frames int, debug bool) {
	const stepsPerFrame = 17556 // ~70224 T-states/frame at ~4 cycles/instruction average

	for frame := 0; frame < frames; frame++ {
		for i := 0; i < stepsPerFrame; i++ {
			effect, err := b.Step()
			if err != nil {
				log.Fatalf("gonesdmg: step failed at PC=$%04x: %v", b.Registers().PC, err)
			}
			if debug && effect != nil {
				log.Printf("$%04x: %s (cycles=%d)", effect.PCBefore, effect.Mnemonic, effect.Cycles)
			}
		}
	}
}

// runGUI opens an ebiten window over the bus.
func runGUI(b *bus.Bus) {
	ebiten.SetWindowTitle("gonesdmg")
	ebiten.SetWindowSize(160*3, 144*3)
	if err := ebiten.RunGame(display.NewGame(b)); err != nil {
		log.Fatalf("gonesdmg: GUI mode failed: %v", err)
	}
}
