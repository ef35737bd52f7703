package driver

import (
	"bufio"
	"fmt"
	"io"
	"math/cmplx"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/mjibson/go-dsp/fft"
	"github.com/tarm/serial"

	"github.com/importglsl/glslpp"
)

// OptionSource supplies the current value of one namespaced uniform,
// generalising spec.md's option→uniform mapping beyond constant
// defaults: a source may derive its value from an audio stream, a
// serial peripheral, or any other live input.
type OptionSource interface {
	// Value returns the current glsl.UniformValue to push to the
	// uniform this source is bound to.
	Value() glsl.UniformValue
}

// StaticOptionSource always returns the same value, the common case for
// an option resolved once through the runtime registry's default or an
// explicit override.
type StaticOptionSource struct {
	V glsl.UniformValue
}

func (s StaticOptionSource) Value() glsl.UniformValue {
	return s.V
}

// AudioOptionSource drives a uniform from the magnitude spectrum of a
// PCM stream, grounded on the FFT-over-a-sliding-window approach the
// teacher's audio texture mapping uses, narrowed to a single scalar
// value instead of a texture: the mean magnitude of the latest window.
type AudioOptionSource struct {
	mu         sync.Mutex
	reader     io.Reader
	sampleRate int
	window     []float64
}

// NewAudioOptionSource opens a raw signed 16-bit little-endian mono PCM
// stream at sampleRate and returns a source that reports the mean FFT
// magnitude of the most recent 512 samples read.
func NewAudioOptionSource(reader io.Reader, sampleRate int) *AudioOptionSource {
	return &AudioOptionSource{
		reader:     reader,
		sampleRate: sampleRate,
		window:     make([]float64, 512),
	}
}

// Advance reads the samples corresponding to period from the stream and
// folds them into the sliding window Value reports against. Call this
// once per frame from the render loop before uploading options.
func (a *AudioOptionSource) Advance(period time.Duration) {
	n := a.sampleRate * int(period) / int(time.Second)
	if n <= 0 {
		return
	}
	buf := make([]byte, n*2)
	read, err := io.ReadAtLeast(a.reader, buf, len(buf))
	samples := make([]float64, read/2)
	for i := range samples {
		v := int16(buf[i*2]) | int16(buf[i*2+1])<<8
		samples[i] = float64(v) / float64(0x7fff)
	}
	if err != nil && len(samples) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = append(a.window, samples...)
	if len(a.window) > 512 {
		a.window = a.window[len(a.window)-512:]
	}
}

func (a *AudioOptionSource) Value() glsl.UniformValue {
	a.mu.Lock()
	window := append([]float64(nil), a.window...)
	a.mu.Unlock()

	if len(window) == 0 {
		return 0.0
	}
	freqs := fft.FFTReal(window)
	var sum float64
	for _, f := range freqs {
		sum += cmplx.Abs(f)
	}
	return sum / float64(len(freqs))
}

// SerialOptionSource drives a uniform from whitespace-separated floats
// read off a serial peripheral, one line per update, generalised from
// the teacher's fixed-shape mat4 peripheral mapping to whatever number
// of components the bound uniform's GLSL type needs.
type SerialOptionSource struct {
	mu      sync.Mutex
	current []float64

	closed chan struct{}
	done   chan struct{}
}

// NewSerialOptionSource opens a serial port and starts a background
// reader that parses each newline-terminated line as space-separated
// floats.
func NewSerialOptionSource(portName string, baud int, components int) (*SerialOptionSource, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        portName,
		Baud:        baud,
		ReadTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial peripheral %q: %w", portName, err)
	}

	s := &SerialOptionSource{
		current: make([]float64, components),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.readLoop(port, components)
	return s, nil
}

func (s *SerialOptionSource) readLoop(port io.ReadCloser, components int) {
	defer close(s.done)
	defer port.Close()
	br := bufio.NewReader(port)
	for {
		select {
		case <-s.closed:
			return
		default:
		}
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) != components {
			continue
		}
		values := make([]float64, components)
		ok := true
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}
		s.mu.Lock()
		copy(s.current, values)
		s.mu.Unlock()
	}
}

func (s *SerialOptionSource) Value() glsl.UniformValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.current) == 1 {
		return s.current[0]
	}
	return append([]float64(nil), s.current...)
}

// Close stops the background reader.
func (s *SerialOptionSource) Close() error {
	close(s.closed)
	<-s.done
	return nil
}

// UploadValue pushes v to the uniform at loc, dispatching on its
// dynamic shape. Supported shapes: float64, int64, int, bool, and
// []float64 with 2 to 4 components; any other value, including a
// []float64 of another length, uploads nothing.
func UploadValue(loc int32, v glsl.UniformValue) {
	switch val := v.(type) {
	case float64:
		gl.Uniform1f(loc, float32(val))
	case int64:
		gl.Uniform1i(loc, int32(val))
	case int:
		gl.Uniform1i(loc, int32(val))
	case bool:
		if val {
			gl.Uniform1i(loc, 1)
		} else {
			gl.Uniform1i(loc, 0)
		}
	case []float64:
		switch len(val) {
		case 2:
			gl.Uniform2f(loc, float32(val[0]), float32(val[1]))
		case 3:
			gl.Uniform3f(loc, float32(val[0]), float32(val[1]), float32(val[2]))
		case 4:
			gl.Uniform4f(loc, float32(val[0]), float32(val[1]), float32(val[2]), float32(val[3]))
		}
	}
}
