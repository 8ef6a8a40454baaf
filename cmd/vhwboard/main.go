// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

// vhwboard is a simulated board that talks to driver code over the vhw bus.
//
// GPIO events sent by the driver light LEDs, either in memory or on a
// gpio-sim chip, and interrupts are raised from the command line or from
// edges on watched gpiochip lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/warthog618/go-vhw"
	"github.com/warthog618/go-vhw/board"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "vhw.yaml", "configuration file")
	port := flag.Int("port", 0, "group port (overrides config)")
	group := flag.String("group", "", "multicast group (overrides config)")
	loopback := flag.Bool("loopback", false, "enable multicast loopback")
	numLEDs := flag.Int("leds", 8, "number of LEDs")
	simChip := flag.Bool("simchip", false, "present the LEDs as a gpio-sim chip")
	chip := flag.String("chip", "", "gpiochip with lines to watch")
	watch := flag.String("watch", "", "lines to watch, as offset=irq,...")
	raise := flag.String("raise", "", "interrupts to raise on start, as id=value,...")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := vhw.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatal("load config failed", zap.String("path", *cfgPath), zap.Error(err))
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "group":
			cfg.Group = *group
		case "loopback":
			cfg.Loopback = *loopback
		}
	})
	watches, err := parsePairs(*watch)
	if err != nil {
		log.Fatal("bad watch", zap.Error(err))
	}
	raises, err := parsePairs(*raise)
	if err != nil {
		log.Fatal("bad raise", zap.Error(err))
	}
	if len(watches) > 0 && *chip == "" {
		log.Fatal("watch requires a chip")
	}

	if err := run(log, cfg, *numLEDs, *simChip, *chip, watches, raises); err != nil {
		log.Fatal("board failed", zap.Stringer("config", cfg), zap.Error(err))
	}
}

// run operates the board until interrupted.
func run(log *zap.Logger, cfg vhw.Config, numLEDs int, simChip bool, chip string, watches, raises map[int]int) error {
	var sink board.LineSink
	if simChip {
		c, err := board.NewSimChip("vhwboard-leds", numLEDs)
		if err != nil {
			return err
		}
		defer c.Close()
		log.Info("leds on gpiochip", zap.String("chip", c.ChipName()), zap.String("path", c.DevPath()))
		sink = c
	} else {
		sink = board.NewLEDs(numLEDs, func(pin, state int) {
			log.Info("led", zap.Int("pin", pin), zap.Bool("on", state != 0))
		})
	}

	brd := board.New(sink, board.WithConfig(cfg), board.WithLogger(log))
	if err := brd.Start(); err != nil {
		return err
	}
	defer brd.Stop()
	if len(watches) > 0 {
		if err := brd.WatchLines(chip, watches); err != nil {
			return err
		}
	}
	for id, value := range raises {
		if err := brd.Raise(id, value); err != nil {
			log.Warn("raise failed", zap.Int("id", id), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
