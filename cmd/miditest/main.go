package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-stepseq/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "note":
		testNote(os.Args[2:])
	case "panic":
		panicOff(os.Args[2:])
	case "poll":
		pollPorts()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List MIDI output ports")
	fmt.Println("  note [port] [ch]     - Play a C major arpeggio")
	fmt.Println("  panic [port] [ch]    - Send all notes off")
	fmt.Println("  poll                 - Poll for port changes")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Printf("(waiting up to %s...)\n", midi.ScanTimeout)

	names, err := midi.OutPorts()
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, n := range names {
		fmt.Printf("  %d: %s\n", i, n)
	}
}

// openArgs opens the port named by args[0] on the channel in args[1].
func openArgs(args []string) (*midi.Output, uint8, bool) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	ch := uint8(1)
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > 16 {
			fmt.Printf("Bad channel %q\n", args[1])
			return nil, 0, false
		}
		ch = uint8(n)
	}

	out, err := midi.OpenOutput(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return nil, 0, false
	}
	fmt.Printf("Using output: %s, channel %d\n", out.Name(), ch)
	return out, ch, true
}

func testNote(args []string) {
	out, ch, ok := openArgs(args)
	if !ok {
		return
	}
	defer out.Close()

	for _, note := range []uint8{60, 64, 67, 72} {
		fmt.Printf("  note %d\n", note)
		out.Send(midi.Event{Type: midi.NoteOn, Channel: ch, Note: note, Velocity: 100})
		time.Sleep(200 * time.Millisecond)
		out.Send(midi.Event{Type: midi.NoteOff, Channel: ch, Note: note})
	}
	fmt.Println("Done!")
}

func panicOff(args []string) {
	out, ch, ok := openArgs(args)
	if !ok {
		return
	}
	defer out.Close()

	if err := out.Send(midi.AllNotesOff(0, ch)); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Sent all notes off")
}

func pollPorts() {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	last := ""
	for {
		names, err := midi.OutPorts()
		if err != nil {
			fmt.Printf("\n[%s] %v\n", time.Now().Format("15:04:05"), err)
		} else if current := strings.Join(names, ","); current != last {
			fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Outputs: %v\n", names)
			last = current
		}
		time.Sleep(2 * time.Second)
	}
}
