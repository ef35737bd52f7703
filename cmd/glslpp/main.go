// Command glslpp resolves #import directives in a GLSL fragment shader
// and writes the plain GLSL result. With -watch it recompiles whenever
// the input file changes.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/importglsl/glslpp"
)

func main() {
	inputFile := flag.String("i", "-", "The shader file to preprocess. Reads from stdin by default")
	outputFile := flag.String("o", "-", "The file to write the resolved GLSL to")
	watch := flag.Bool("watch", false, "Recompile whenever the input file changes")
	flag.Parse()

	if *watch && *inputFile == "-" {
		printError(fmt.Errorf("-watch requires -i to name a real file"))
		os.Exit(1)
	}

	if err := run(*inputFile, *outputFile, *watch); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func run(inputFile, outputFile string, watch bool) error {
	if err := compileOnce(inputFile, outputFile); err != nil {
		printError(err)
		if !watch {
			return err
		}
	}
	if !watch {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(inputFile); err != nil {
		return fmt.Errorf("watching %q: %w", inputFile, err)
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := compileOnce(inputFile, outputFile); err != nil {
				printError(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			printError(err)
		}
	}
}

func compileOnce(inputFile, outputFile string) error {
	source, err := readSource(inputFile)
	if err != nil {
		return err
	}

	sh := glsl.NewShader(source)
	compiled, err := sh.Compile()
	if err != nil {
		return err
	}

	out, err := openWriter(outputFile)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.WriteString(out, compiled)
	return err
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
