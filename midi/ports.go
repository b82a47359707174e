package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-stepseq/debug"
)

// ErrPortNotFound is returned when no output port matches the requested name.
var ErrPortNotFound = errors.New("midi output port not found")

// ScanTimeout bounds port enumeration (CoreMIDI can hang).
var ScanTimeout = 3 * time.Second

// OutPorts lists the names of the available MIDI output ports.
func OutPorts() ([]string, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		names := make([]string, 0, len(outs))
		for _, p := range outs {
			names = append(names, p.String())
		}
		return names, nil
	case <-time.After(ScanTimeout):
		return nil, fmt.Errorf("listing midi ports: timed out after %s", ScanTimeout)
	}
}

// Sink receives events outside the audio thread.
type Sink interface {
	Send(e Event) error
}

// Output sends events to a hardware or virtual MIDI port.
type Output struct {
	name string
	mu   sync.Mutex
	send func(gomidi.Message) error
}

// OpenOutput opens the first output port whose name contains name
// (case-insensitive). An empty name picks the first port.
func OpenOutput(name string) (*Output, error) {
	var port drivers.Out
	want := strings.ToLower(name)
	for _, p := range gomidi.GetOutPorts() {
		if want == "" || strings.Contains(strings.ToLower(p.String()), want) {
			port = p
			break
		}
	}
	if port == nil {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
	}

	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("opening midi port %q: %w", port.String(), err)
	}
	debug.Log("midi", "opened output %q", port.String())
	return &Output{name: port.String(), send: send}, nil
}

// Name returns the opened port's name.
func (o *Output) Name() string {
	return o.name
}

// Send writes e to the port. Offsets are ignored; callers schedule.
func (o *Output) Send(e Event) error {
	msg := e.Message()
	if msg == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return nil
	}
	return o.send(msg)
}

// Close stops sending and releases the driver.
func (o *Output) Close() {
	o.mu.Lock()
	o.send = nil
	o.mu.Unlock()
	gomidi.CloseDriver()
	debug.Log("midi", "closed output %q", o.name)
}
