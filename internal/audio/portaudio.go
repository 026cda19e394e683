package audio

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/murmurlabs/murmur/internal/config"
)

// DeviceSource reads frames from a PortAudio input stream.
type DeviceSource struct {
	cfg    config.AudioConfig
	log    *slog.Logger
	stream *portaudio.Stream
	buf    []int16
	seq    int
	opened bool
}

func NewDeviceSource(cfg config.AudioConfig, log *slog.Logger) *DeviceSource {
	return &DeviceSource{cfg: cfg, log: log}
}

// Open initializes PortAudio and starts an input stream at the configured
// sample rate and frame size. The device is exclusively owned until Close.
func (d *DeviceSource) Open() error {
	if d.opened {
		return fmt.Errorf("%w: source already open", ErrDevice)
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize portaudio: %v", ErrDevice, err)
	}

	frameSize := d.cfg.SampleRate * d.cfg.FrameDurationMS / 1000
	d.buf = make([]int16, frameSize)

	stream, err := d.openStream()
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}

	d.stream = stream
	d.opened = true
	d.log.Info("microphone opened",
		slog.Int("sample_rate", d.cfg.SampleRate),
		slog.Int("frame_size", frameSize))
	return nil
}

func (d *DeviceSource) openStream() (*portaudio.Stream, error) {
	if d.cfg.Device == "" {
		stream, err := portaudio.OpenDefaultStream(
			d.cfg.Channels, 0, float64(d.cfg.SampleRate), len(d.buf), d.buf)
		if err != nil {
			return nil, fmt.Errorf("%w: open default input stream: %v", ErrDevice, err)
		}
		return stream, nil
	}

	info, err := findInputDevice(d.cfg.Device)
	if err != nil {
		return nil, err
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: d.cfg.Channels,
			Latency:  info.DefaultHighInputLatency,
		},
		SampleRate:      float64(d.cfg.SampleRate),
		FramesPerBuffer: len(d.buf),
	}
	stream, err := portaudio.OpenStream(params, d.buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open input stream %q: %v", ErrDevice, d.cfg.Device, err)
	}
	return stream, nil
}

// ReadFrame blocks until one frame of samples is available and returns a
// copy tagged with the next sequence index.
func (d *DeviceSource) ReadFrame() (Frame, error) {
	if !d.opened {
		return Frame{}, fmt.Errorf("%w: source not open", ErrDevice)
	}
	if err := d.stream.Read(); err != nil {
		return Frame{}, fmt.Errorf("%w: read stream: %v", ErrDevice, err)
	}
	samples := make([]int16, len(d.buf))
	copy(samples, d.buf)
	frame := Frame{Seq: d.seq, Samples: samples}
	d.seq++
	return frame, nil
}

// Close stops the stream and releases the device. Safe to call once per Open.
func (d *DeviceSource) Close() error {
	if !d.opened {
		return nil
	}
	d.opened = false
	var firstErr error
	if err := d.stream.Stop(); err != nil {
		firstErr = fmt.Errorf("%w: stop stream: %v", ErrDevice, err)
	}
	if err := d.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: close stream: %v", ErrDevice, err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: terminate portaudio: %v", ErrDevice, err)
	}
	d.log.Info("microphone closed")
	return firstErr
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrDevice, err)
	}
	for _, info := range devices {
		if info.MaxInputChannels > 0 && strings.Contains(strings.ToLower(info.Name), strings.ToLower(name)) {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: no input device matching %q", ErrDevice, name)
}

// ListDevices enumerates input-capable devices. It initializes and tears
// down PortAudio around the enumeration.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %v", ErrDevice, err)
	}
	defer portaudio.Terminate()

	defaultIn, _ := portaudio.DefaultInputDevice()
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrDevice, err)
	}

	var devices []Device
	for _, info := range infos {
		if info.MaxInputChannels == 0 {
			continue
		}
		devices = append(devices, Device{
			Name:       info.Name,
			Channels:   info.MaxInputChannels,
			SampleRate: info.DefaultSampleRate,
			Default:    defaultIn != nil && info.Name == defaultIn.Name,
		})
	}
	return devices, nil
}
