package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"publicgoods.sim/internal/sim/chronicle"
)

// fileVersion is bumped whenever the on-disk layout changes.
const fileVersion = 1

// header is the uncompressed-after-zstd first line of a chronicle file,
// so a file can be identified without parsing the whole document.
type header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Title   string `json:"title"`
	Rounds  int    `json:"rounds"`
}

func writeChronicleFile(path, runID string, c *chronicle.Chronicles) error {
	body, err := c.MarshalJSON()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	setup := c.Setup()
	hb, _ := json.Marshal(header{
		Version: fileVersion,
		RunID:   runID,
		Title:   setup.Title,
		Rounds:  len(c.Rounds()),
	})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func readChronicleFile(path string) (*chronicle.Chronicles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("chronicle file header: %w", err)
	}
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("chronicle file header: %w", err)
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("chronicle file version %d, want %d", h.Version, fileVersion)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	return chronicle.Decode(body)
}
