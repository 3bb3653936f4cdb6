package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/golang/snappy"
)

// ErrCorrupt is returned for segment files that fail structural checks.
var ErrCorrupt = errors.New("corrupt segment")

// Segment is a decoded .wdx file.
type Segment struct {
	Path     string
	Header   Header
	Snapshot corpus.Snapshot
}

// Read loads and verifies the segment at path.
func Read(path string) (*Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %s is shorter than its header", ErrCorrupt, path)
	}
	header := decodeHeader(data[:HeaderSize])
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %x", ErrCorrupt, header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header.Version)
	}
	payload := data[HeaderSize:]
	if int64(len(payload)) != header.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), header.PayloadSize)
	}
	if crc32.ChecksumIEEE(payload) != header.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing payload: %v", ErrCorrupt, err)
	}
	var snap corpus.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: parsing payload: %v", ErrCorrupt, err)
	}
	if uint32(len(snap.Words)) != header.WordCount {
		return nil, fmt.Errorf("%w: payload has %d words, header says %d", ErrCorrupt, len(snap.Words), header.WordCount)
	}
	return &Segment{
		Path:     path,
		Header:   header,
		Snapshot: snap,
	}, nil
}
