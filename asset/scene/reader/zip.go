package reader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/gpubvh/asset"
	"github.com/achilleasa/gpubvh/asset/scene"
	"github.com/achilleasa/gpubvh/log"
)

// Read packed scene buffers from a zip archive created by the scene writer.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read packed scene buffers from a zip archive resource.
func Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	logger := log.New("zip reader")
	logger.Noticef(`loading packed scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	sc := &scene.Scene{}
	for _, f := range zr.File {
		target, known := sc.Buffer(f.Name)
		if !known {
			logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		*target, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip reader: failed to load %s: %w", f.Name, err)
		}
	}

	if sc.Metadata, err = scene.DecodeMetadata(sc.MetadataData); err != nil {
		return nil, fmt.Errorf("zip reader: %s: %w", scene.MetadataFile, err)
	}
	if err = sc.Validate(); err != nil {
		return nil, err
	}

	logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
