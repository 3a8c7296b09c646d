package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"psx-core/internal/debug"
	"psx-core/internal/system"
)

func main() {
	app := cli.NewApp()
	app.Name = "psx-core"
	app.Description = "A PlayStation emulator core"
	app.Usage = "psx-core [options] <bios-path> [disc-path]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a psxcore.toml config file",
			Value: "psxcore.toml",
		},
		cli.StringFlag{
			Name:  "memcard",
			Usage: "Path to the memory card 1 image",
		},
		cli.BoolFlag{
			Name:  "unlimited",
			Usage: "Run at unlimited speed (no frame limit)",
		},
		cli.BoolFlag{
			Name:  "log",
			Usage: "Enable logging for every component",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Run exactly N frames headless then exit (0 = run until interrupted)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "load-state",
			Usage: "Load a save-state slot at startup",
		},
		cli.IntFlag{
			Name:  "save-state-slot",
			Usage: "Save-state slot to write to on exit (-1 disables)",
			Value: -1,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "psx-core: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowAppHelp(c)
		os.Exit(1)
	}

	biosPath := c.Args().Get(0)
	discPath := c.Args().Get(1)

	cfg, err := system.LoadConfigFile(c.String("config"))
	if err != nil {
		return err
	}
	cfg.BIOSPath = biosPath
	if discPath != "" {
		cfg.DiscPath = discPath
	}
	if mc := c.String("memcard"); mc != "" {
		cfg.MemoryCardPath = mc
	}
	if c.Bool("unlimited") {
		cfg.FrameLimit = false
	}
	if c.Bool("log") {
		cfg.LogLevel = debug.LogLevelDebug
		cfg.LogComponents = system.AllComponents()
	}

	if _, err := os.Stat(biosPath); err != nil {
		return fmt.Errorf("BIOS file %q not found", biosPath)
	}

	sys, err := system.New(cfg)
	if err != nil {
		return err
	}
	sys.Reset()
	sys.SetFrameLimit(cfg.FrameLimit)

	if slot := c.String("load-state"); slot != "" {
		if err := loadStateFile(sys, cfg.StatesDir, discID(discPath), slot); err != nil {
			return fmt.Errorf("loading save state: %w", err)
		}
	}

	fmt.Println("psx-core")
	fmt.Println("========")
	fmt.Printf("BIOS: %s\n", biosPath)
	if discPath != "" {
		fmt.Printf("Disc: %s\n", discPath)
	} else {
		fmt.Println("Disc: none")
	}
	fmt.Printf("Frame limit: %v\n", cfg.FrameLimit)

	frames := c.Int("frames")
	for i := 0; frames == 0 || i < frames; i++ {
		if err := sys.RunFrame(); err != nil {
			return err
		}
	}

	if slot := c.Int("save-state-slot"); slot >= 0 {
		if err := saveStateFile(sys, cfg.StatesDir, discID(discPath), slot); err != nil {
			return fmt.Errorf("writing save state: %w", err)
		}
	}

	return nil
}

// discID derives the state-file stem from the disc image's base name,
// or "nodisc" when running without one.
func discID(discPath string) string {
	if discPath == "" {
		return "nodisc"
	}
	base := filepath.Base(discPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func statePath(statesDir, disc string, slot int) string {
	return filepath.Join(statesDir, fmt.Sprintf("%s_slot%d.state", disc, slot))
}

// saveStateFile writes a gzip-compressed save state, per spec's "host
// compresses and writes" framing.
func saveStateFile(sys *system.System, statesDir, disc string, slot int) error {
	data, err := sys.SaveState()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(statesDir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(statePath(statesDir, disc, slot))
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(data); err != nil {
		return err
	}
	return gw.Close()
}

func loadStateFile(sys *system.System, statesDir, disc, slot string) error {
	path := statePath(statesDir, disc, atoiOrZero(slot))

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return err
	}
	return sys.LoadState(data)
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
