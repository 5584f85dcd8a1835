package layout

import (
	"archive/tar"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/orcaman/writerseeker"
)

// ExportArtifacts copies (or hardlinks) files into destDir, preserving
// basenames, using the same hardlink-then-copy strategy as the in-tree
// linker step (spec.md §4.5 "Export artifacts to a user-specified
// directory when configured"), then precompresses each one so
// ServeArtifacts's gzipped.FileServer can serve the .gz sibling directly
// instead of compressing rlibs/binaries on every request.
func ExportArtifacts(files []string, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		dest := filepath.Join(destDir, filepath.Base(f))
		if err := LinkArtifact(f, dest); err != nil {
			return err
		}
		if err := PrecompressForServing(dest); err != nil {
			return err
		}
	}
	return nil
}

// PrecompressForServing writes path+".gz" using pgzip, which parallelizes
// across path's content for artifacts large enough (rlibs, release
// binaries) that single-threaded compress/gzip would dominate export time.
func PrecompressForServing(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	zw := pgzip.NewWriter(dest)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dest.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}

// BundleManifest describes a compressed export bundle's contents, written
// as a length-prefixed JSON header before the tar/zstd payload.
type BundleManifest struct {
	Files []string `json:"files"`
}

// WriteBundle archives files into w as a single zstd-compressed tar
// stream, preceded by a fixed-width length-prefixed JSON manifest. The
// manifest is assembled in an in-memory seekable buffer first (so its
// final length is known before the length prefix is written), the same
// buffer-then-seek shape github.com/orcaman/writerseeker exists for.
func WriteBundle(w io.Writer, files []string) error {
	var manifest BundleManifest
	for _, f := range files {
		manifest.Files = append(manifest.Files, filepath.Base(f))
	}

	ws := &writerseeker.WriterSeeker{}
	if err := json.NewEncoder(ws).Encode(manifest); err != nil {
		return err
	}
	manifestBytes, err := io.ReadAll(ws.Reader())
	if err != nil {
		return err
	}

	var lenPrefix [8]byte
	binary.BigEndian.PutUint64(lenPrefix[:], uint64(len(manifestBytes)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	for _, f := range files {
		if err := addToTar(tw, f); err != nil {
			return err
		}
	}
	return nil
}

func addToTar(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// ReadBundleManifest reads back the length-prefixed JSON header written by
// WriteBundle, without decompressing the tar/zstd payload that follows.
func ReadBundleManifest(r io.Reader) (BundleManifest, error) {
	var lenPrefix [8]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return BundleManifest{}, err
	}
	n := binary.BigEndian.Uint64(lenPrefix[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return BundleManifest{}, err
	}
	var m BundleManifest
	if err := json.Unmarshal(buf, &m); err != nil {
		return BundleManifest{}, err
	}
	return m, nil
}
