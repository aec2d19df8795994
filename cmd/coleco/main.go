package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/tanagra/coleco"
	"github.com/tanagra/coleco/render"
	"github.com/tanagra/coleco/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "coleco"
	app.Description = "A ColecoVision emulator core"
	app.Usage = "coleco [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the cartridge ROM file",
		},
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to the BIOS ROM file",
		},
		cli.StringFlag{
			Name:  "region",
			Usage: "Television standard: ntsc or pal",
			Value: "ntsc",
		},
		cli.IntFlag{
			Name:  "sample-rate",
			Usage: "Host audio sample rate: 44100, 48000, 96000, or 192000",
			Value: 48000,
		},
		cli.IntFlag{
			Name:  "palette",
			Usage: "Palette index: 0 (teatime) or 1 (syoung)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal UI",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save framebuffer PNG snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save snapshots (default: current directory)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("coleco exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	region := coleco.RegionNTSC
	if c.String("region") == "pal" {
		region = coleco.RegionPAL
	}

	keys := &render.KeyState{}
	cpu := &placeholderCPU{}
	console, err := coleco.New(cpu, coleco.Config{
		Region:     region,
		SampleRate: c.Int("sample-rate"),
		Palette:    c.Int("palette"),
		Poller:     keys.Poll,
	})
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}

	if biosPath := c.String("bios"); biosPath != "" {
		if err := console.LoadBIOSFile(biosPath); err != nil {
			return fmt.Errorf("failed to load bios: %w", err)
		}
	}
	if err := console.LoadROMFile(romPath); err != nil {
		return fmt.Errorf("failed to load rom: %w", err)
	}

	if c.Bool("headless") {
		return runHeadless(console, c.Int("frames"), c.Int("snapshot-interval"), c.String("snapshot-dir"))
	}

	renderer, err := render.NewTerminalRenderer(console, keys)
	if err != nil {
		return err
	}
	return renderer.Run()
}

func runHeadless(console *coleco.Console, frames, snapshotInterval int, snapshotDir string) error {
	if frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	if snapshotInterval > 0 && snapshotDir != "" {
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %v", err)
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	slog.Info("running headless", "frames", frames, "snapshot_interval", snapshotInterval)

	signals := make(chan os.Signal, 1)
	notifyShutdown(signals)

	// Headless mode runs as fast as possible; NoOpLimiter documents that
	// choice instead of simply omitting any Limiter at all.
	limiter := timing.NewNoOpLimiter()

	for i := 0; i < frames; i++ {
		limiter.WaitForNextFrame()
		select {
		case <-signals:
			slog.Info("received shutdown signal, stopping early", "completed", i)
			return nil
		default:
		}

		console.RunFrame()

		if snapshotInterval > 0 && (i+1)%snapshotInterval == 0 {
			baseName := fmt.Sprintf("coleco_frame_%d", i+1)
			if err := render.SaveFramePNGToDir(console.FrameBuffer(), baseName, snapshotDir); err != nil {
				slog.Error("failed to save snapshot", "frame", i+1, "error", err)
			}
		}

		if i%60 == 0 {
			slog.Info("frame progress", "completed", i+1, "total", frames)
		}
	}

	slog.Info("headless execution completed", "frames", frames)
	return nil
}
