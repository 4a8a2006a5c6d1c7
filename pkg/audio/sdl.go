package audio

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlDevice struct {
	id sdl.AudioDeviceID
}

func sdlOpen(spec Spec) (device, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl audio: %w", err)
	}
	want := sdl.AudioSpec{
		Freq:     int32(spec.SampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: uint8(spec.Channels),
		Samples:  uint16(spec.Samples),
	}
	id, err := sdl.OpenAudioDevice("", false, &want, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("audio device: %w", err)
	}
	return &sdlDevice{id: id}, nil
}

func (d *sdlDevice) Queue(data []byte) error { return sdl.QueueAudio(d.id, data) }
func (d *sdlDevice) Pause(on bool)           { sdl.PauseAudioDevice(d.id, on) }
func (d *sdlDevice) Close()                  { sdl.CloseAudioDevice(d.id) }
