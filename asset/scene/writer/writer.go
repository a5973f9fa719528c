package writer

import (
	"archive/zip"
	"io"
	"os"
	"time"

	"github.com/achilleasa/gpubvh/asset/scene"
	"github.com/achilleasa/gpubvh/log"
)

// Write the packed scene buffers to a zip archive. Each buffer is stored
// as a separate entry so it can be uploaded to the GPU without any decoding.
func WriteScene(sc *scene.Scene, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err = Write(sc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write the packed scene buffers as a zip archive to w.
func Write(sc *scene.Scene, w io.Writer) error {
	logger := log.New("zip writer")
	start := time.Now()

	if err := sc.Validate(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, file := range scene.BufferFiles {
		data, _ := sc.Buffer(file)
		fw, err := zw.Create(file)
		if err != nil {
			return err
		}
		if _, err = fw.Write(*data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}

	logger.Noticef("wrote scene buffers in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
