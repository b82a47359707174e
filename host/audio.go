package host

import (
	"context"
	"fmt"

	"github.com/ebitengine/oto/v3"

	"go-stepseq/debug"
)

// RunAudio opens the default audio device and lets its callback clock the
// engine until ctx is cancelled. The device plays silence.
func (h *Host) RunAudio(ctx context.Context) error {
	op := &oto.NewContextOptions{
		SampleRate:   h.opts.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(h)
	player.SetBufferSize(h.opts.BlockSize * frameBytes)
	player.Play()
	debug.Log("host", "audio clock, rate=%d block=%d", h.opts.SampleRate, h.opts.BlockSize)

	<-ctx.Done()
	if err := player.Close(); err != nil {
		return fmt.Errorf("cannot close player: %w", err)
	}
	return nil
}
