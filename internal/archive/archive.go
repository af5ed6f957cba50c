// Package archive packages split parts into a zip file.
package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/polysplit/internal/job"
	"github.com/tidwall/pretty"
)

// BaseName returns the file name without its directory and extension.
func BaseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "output"
	}
	return name
}

// EntryName returns the name of the i'th part, counting from one.
func EntryName(base string, i int) string {
	return fmt.Sprintf("%s_part%d.geojson", base, i)
}

// FileName returns the name of the zip file for base.
func FileName(base string) string {
	return base + "_split_parts.zip"
}

// Write writes a zip holding one FeatureCollection document per part.
func Write(w io.Writer, base string, parts []job.Part) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for i, part := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     EntryName(base, i+1),
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(pretty.Pretty([]byte(part.JSON()))); err != nil {
			return err
		}
	}
	return zw.Close()
}
