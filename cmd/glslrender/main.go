// Command glslrender compiles a GLSL fragment shader (resolving its
// #import directives) and renders it to an image or an animation.
package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/importglsl/glslpp"
	"github.com/importglsl/glslpp/driver"
	"github.com/importglsl/glslpp/encode"
)

func main() {
	inputFile := flag.String("i", "-", "The shader file to render. Reads from stdin by default")
	outputFile := flag.String("o", "-", "The file to write the rendered image to")
	width := flag.Uint("w", 512, "The width of the rendered image")
	height := flag.Uint("h", 512, "The height of the rendered image")
	outputFormat := flag.String("ofmt", "", "The encoding format to use. Detected from -o's extension by default")
	framerate := flag.Float64("framerate", 0, "Render an animation at the given frames per second instead of a single frame")
	numFrames := flag.Uint("numframes", 0, "Limit the number of frames in the animation. Unlimited by default")
	flag.Parse()

	if *numFrames != 0 && *framerate == 0 {
		printError(fmt.Errorf("-numframes requires -framerate to be set"))
		os.Exit(1)
	}

	runtime.LockOSThread()

	if err := run(*inputFile, *outputFile, *outputFormat, *width, *height, *framerate, *numFrames); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func run(inputFile, outputFile, outputFormat string, width, height uint, framerate float64, numFrames uint) error {
	format := resolveFormat(outputFormat, outputFile)
	if format == nil {
		return fmt.Errorf("unable to detect output format, set -ofmt")
	}

	source, err := readSource(inputFile)
	if err != nil {
		return err
	}

	sh := glsl.NewShader(source)
	compiled, err := sh.Compile()
	if err != nil {
		return err
	}

	cx, err := driver.NewContext(width, height)
	if err != nil {
		return err
	}
	defer cx.Close()

	prog, err := driver.NewProgram(compiled)
	if err != nil {
		return err
	}
	defer prog.Close()

	target := driver.NewPixelTarget(int(width), int(height))
	defer target.Close()

	clock := glsl.NewClock()
	loop := &driver.RenderLoop{
		Clock:      clock,
		Before:     glsl.NewHooks(),
		After:      glsl.NewHooks(),
		Program:    prog,
		Target:     target,
		Resolution: [2]float32{float32(width), float32(height)},
	}

	out, err := openWriter(outputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	if framerate <= 0 {
		var frame []byte
		loop.OnFrame = func(f []byte, w, h int) { frame = f }
		loop.RenderTick(0)
		img := pixelsToImage(frame, int(width), int(height))
		return format.Encode(out, img)
	}

	interval := time.Duration(float64(time.Second) / framerate)
	stream := make(chan image.Image, 1)
	done := make(chan error, 1)
	go func() {
		done <- format.EncodeAnimation(out, stream, interval)
	}()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	var rendered uint
	loop.OnFrame = func(f []byte, w, h int) {
		stream <- pixelsToImage(f, w, h)
		rendered++
	}
	dt := interval.Seconds()
	for numFrames == 0 || rendered < numFrames {
		select {
		case <-interrupted:
			close(stream)
			return <-done
		default:
		}
		loop.RenderTick(dt)
	}
	close(stream)
	return <-done
}

func resolveFormat(name, outputFile string) encode.Format {
	if name != "" {
		return encode.Formats[name]
	}
	f, _ := encode.DetectFormat(outputFile)
	return f
}

func pixelsToImage(pixels []byte, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srcRow := height - 1 - y // glReadPixels returns bottom-to-top rows.
		for x := 0; x < width; x++ {
			si := (srcRow*width + x) * 3
			di := img.PixOffset(x, y)
			img.Pix[di+0] = pixels[si+0]
			img.Pix[di+1] = pixels[si+1]
			img.Pix[di+2] = pixels[si+2]
			img.Pix[di+3] = 0xff
		}
	}
	return img
}

func readSource(filename string) (string, error) {
	r, err := openReader(filename)
	if err != nil {
		return "", err
	}
	defer r.Close()
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func openReader(filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(filename)
}

func openWriter(filename string) (io.WriteCloser, error) {
	if filename == "-" {
		return nopCloseWriter{Writer: os.Stdout}, nil
	}
	return os.Create(filename)
}

type nopCloseWriter struct {
	io.Writer
}

func (nopCloseWriter) Close() error {
	return nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, err)
}
