package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"go-stepseq/config"
	"go-stepseq/debug"
	"go-stepseq/host"
	"go-stepseq/midi"
	"go-stepseq/render"
	"go-stepseq/sequencer"
	"go-stepseq/theme"
	"go-stepseq/tui"
)

func main() {
	cmd, args := "run", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = runCmd(args)
	case "render":
		err = renderCmd(args)
	case "ports":
		err = portsCmd()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-stepseq")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run     - Open the editor and play to a MIDI port (default)")
	fmt.Println("  render  - Render a preset to a Standard MIDI File")
	fmt.Println("  ports   - List MIDI output ports")
}

// loadConfig layers .env and STEPSEQ_* variables over the saved config.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file (default ~/.config/go-stepseq/config.json)")
	port := fs.String("port", "", "MIDI output port name (substring match)")
	preset := fs.String("preset", "", "pattern file to load (.json or .yaml)")
	noAudio := fs.Bool("no-audio", false, "clock from a ticker instead of the audio device")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.MIDI.PortName = *port
	}
	if *noAudio {
		cfg.Audio.UseDevice = false
	}

	if cfg.Debug {
		if dir, err := config.ConfigDir(); err == nil {
			if err := debug.Enable(dir); err != nil {
				fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
			}
		}
		defer debug.Disable()
	}

	params := sequencer.NewParams()
	params.Apply(cfg.Engine)
	store := sequencer.NewStore(params, nil)
	if *preset != "" {
		if err := store.LoadFile(*preset); err != nil {
			return err
		}
	}

	engine := sequencer.NewEngine(store, nil)
	engine.SetChannel(cfg.MIDI.Channel)

	h := host.New(engine, host.Options{
		SampleRate: cfg.Audio.SampleRate,
		BlockSize:  cfg.Audio.BlockSize,
	})
	h.SetTempo(float64(cfg.UI.LastTempo))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink midi.Sink = discard{}
	out, err := midi.OpenOutput(cfg.MIDI.PortName)
	switch {
	case err == nil:
		defer out.Close()
		sink = out
		fmt.Printf("MIDI out: %s (channel %d)\n", out.Name(), engine.Channel())
	case errors.Is(err, midi.ErrPortNotFound):
		fmt.Println("No MIDI output found - running silent")
		debug.Log("main", "%v", err)
	default:
		return err
	}
	go h.Dispatch(ctx, sink)

	if cfg.Audio.UseDevice {
		go func() {
			if err := h.RunAudio(ctx); err != nil {
				debug.Log("main", "audio clock failed, using ticker: %v", err)
				h.RunTicker(ctx)
			}
		}()
	} else {
		go h.RunTicker(ctx)
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
	}
	th := theme.New(palette)

	m := tui.NewModel(store, engine, h, th)
	if dir, err := config.ProjectsDir(); err == nil {
		m.Projects = sequencer.NewProjects(dir)
	}
	if cfg.UI.Project != "" {
		m.Project = cfg.UI.Project
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	// the dispatcher may not get to the queued stop before shutdown
	if err := sink.Send(midi.AllNotesOff(0, engine.Channel())); err != nil {
		debug.Log("main", "all notes off: %v", err)
	}

	cfg.UI.LastTempo = int(h.Tempo())
	cfg.Engine = params.Snapshot()
	if *cfgPath != "" {
		return cfg.SaveFile(*cfgPath)
	}
	return cfg.Save()
}

func renderCmd(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	preset := fs.String("preset", "", "pattern file to render (.json or .yaml)")
	outPath := fs.String("o", "out.mid", "output Standard MIDI File")
	bpm := fs.Float64("bpm", sequencer.DefaultBPM, "tempo")
	loops := fs.Int("loops", 1, "passes over the pattern")
	sampleRate := fs.Float64("sr", render.DefaultSampleRate, "sample rate the engine runs at")
	fs.Parse(args)

	store := sequencer.NewStore(nil, nil)
	if *preset != "" {
		if err := store.LoadFile(*preset); err != nil {
			return err
		}
	}

	opts := render.Options{
		SampleRate: *sampleRate,
		BPM:        *bpm,
		Loops:      *loops,
	}
	if err := render.WriteFile(*outPath, store, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *outPath)
	return nil
}

func portsCmd() error {
	fmt.Println("=== MIDI Output Ports ===")
	names, err := midi.OutPorts()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	for i, n := range names {
		fmt.Printf("  %d: %s\n", i, n)
	}
	return nil
}

type discard struct{}

func (discard) Send(e midi.Event) error {
	debug.LogEvery(100, "main", "no output: %s", e)
	return nil
}
