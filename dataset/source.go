package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the file extensions treated as images
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// IsImage reports if the file name has an image extension
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ReadImages returns the full paths of the image files in dir sorted by name.
// Sub directories are not descended into.
func ReadImages(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading image directory: %w", err)
	}

	paths := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}

		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	sort.Strings(paths)

	return paths, nil
}

// ReadImageArg returns the images to process for a command line argument
// that can name either a single image or a directory of images
func ReadImageArg(path string) ([]string, error) {

	info, err := os.Stat(path)

	if err != nil {
		return nil, fmt.Errorf("error reading image path: %w", err)
	}

	if info.IsDir() {
		return ReadImages(path)
	}

	return []string{path}, nil
}
