package hal

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	sampleFreq = 44100
	toneFreq   = 440

	// the sound timer can hold at most 255/60 s, so one queued buffer of
	// this length outlasts any tone.
	toneSeconds = 5
)

// beeper plays a square wave while the sound timer is running. The wave
// is queued once when the tone starts and dropped when it stops.
type beeper struct {
	id   sdl.AudioDeviceID
	wave []uint8
	on   bool
}

func newBeeper() (*beeper, error) {
	spec := &sdl.AudioSpec{
		Freq:     sampleFreq,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	var actualSpec sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actualSpec, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open sdl audio device: %w", err)
	}

	b := &beeper{
		id:   id,
		wave: squareWave(int(actualSpec.Freq), toneFreq, toneSeconds, actualSpec.Silence),
	}
	sdl.PauseAudioDevice(id, false)
	return b, nil
}

func (b *beeper) set(on bool) error {
	if on == b.on {
		return nil
	}
	b.on = on

	sdl.ClearQueuedAudio(b.id)
	if !on {
		return nil
	}
	if err := sdl.QueueAudio(b.id, b.wave); err != nil {
		return fmt.Errorf("failed to queue sdl audio: %w", err)
	}
	return nil
}

func (b *beeper) close() {
	sdl.ClearQueuedAudio(b.id)
	sdl.CloseAudioDevice(b.id)
}

// squareWave returns unsigned 8-bit mono samples swinging around silence.
func squareWave(rate, freq, seconds int, silence uint8) []uint8 {
	const amplitude = 32

	wave := make([]uint8, rate*seconds)
	half := rate / freq / 2
	if half == 0 {
		half = 1
	}
	for i := range wave {
		if (i/half)%2 == 0 {
			wave[i] = silence + amplitude
		} else {
			wave[i] = silence - amplitude
		}
	}
	return wave
}
