package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/golang/snappy"
)

// MagicBytes identifies a valid .wdx segment file ("WDX1").
const (
	MagicBytes    uint32 = 0x57445831
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FileExt              = ".wdx"
)

// Header is the 64-byte header written at the start of every segment.
type Header struct {
	Magic         uint32
	Version       uint32
	WordCount     uint32
	DistinctWords uint32
	CreatedAt     int64
	PayloadSize   int64
	Checksum      uint32
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.WordCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.DistinctWords)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.PayloadSize))
	binary.LittleEndian.PutUint32(buf[32:36], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:         binary.LittleEndian.Uint32(buf[0:4]),
		Version:       binary.LittleEndian.Uint32(buf[4:8]),
		WordCount:     binary.LittleEndian.Uint32(buf[8:12]),
		DistinctWords: binary.LittleEndian.Uint32(buf[12:16]),
		CreatedAt:     int64(binary.LittleEndian.Uint64(buf[16:24])),
		PayloadSize:   int64(binary.LittleEndian.Uint64(buf[24:32])),
		Checksum:      binary.LittleEndian.Uint32(buf[32:36]),
	}
}

// Writer serialises corpus snapshots into .wdx segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// FileName returns the segment file name for a corpus.
func FileName(name string) string {
	return name + FileExt
}

// Write atomically creates the segment for snap. It writes to a .tmp file,
// syncs, and renames on success.
func (w *Writer) Write(snap corpus.Snapshot) (string, error) {
	if snap.Name == "" {
		return "", fmt.Errorf("cannot write segment without a corpus name")
	}
	segmentName := FileName(snap.Name)
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot %q: %w", snap.Name, err)
	}
	payload := snappy.Encode(nil, raw)

	distinct := make(map[string]struct{}, len(snap.Words))
	for _, word := range snap.Words {
		distinct[word] = struct{}{}
	}
	header := Header{
		Magic:         MagicBytes,
		Version:       FormatVersion,
		WordCount:     uint32(len(snap.Words)),
		DistinctWords: uint32(len(distinct)),
		CreatedAt:     snap.CreatedAt.UnixNano(),
		PayloadSize:   int64(len(payload)),
		Checksum:      crc32.ChecksumIEEE(payload),
	}

	if err := writeFile(tmpPath, header.encode(), payload); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}

func writeFile(path string, header, payload []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing segment file: %w", err)
	}
	return f.Close()
}
