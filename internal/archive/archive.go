// Package archive bundles job outputs into a single zip collection.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"waveforge/internal/services"
)

// FileName returns the collection archive name for a title.
func FileName(title string) string {
	return title + "_audio_collection.zip"
}

// Build writes a zip under dir containing every listed file at the archive
// root, stored under its base name. Any missing or unreadable constituent
// aborts the build and removes the partial archive.
func Build(dir, title string, files []string) (string, error) {
	if len(files) == 0 {
		return "", services.Wrap(services.ErrPackaging, "archive", "build", "no files to package", nil)
	}

	path := filepath.Join(dir, FileName(title))
	out, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrPackaging, "archive", "create", path, err)
	}

	writer := zip.NewWriter(out)
	for _, file := range files {
		if err := addFile(writer, file); err != nil {
			_ = writer.Close()
			_ = out.Close()
			_ = os.Remove(path)
			return "", err
		}
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", services.Wrap(services.ErrPackaging, "archive", "finalize", path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", services.Wrap(services.ErrPackaging, "archive", "close", path, err)
	}
	return path, nil
}

func addFile(writer *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return services.Wrap(services.ErrPackaging, "archive", "add",
			fmt.Sprintf("open %s", file), err)
	}
	defer src.Close()

	entry, err := writer.Create(filepath.Base(file))
	if err != nil {
		return services.Wrap(services.ErrPackaging, "archive", "add",
			fmt.Sprintf("create entry for %s", file), err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return services.Wrap(services.ErrPackaging, "archive", "add",
			fmt.Sprintf("copy %s", file), err)
	}
	return nil
}
