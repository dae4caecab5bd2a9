package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// MagicNumber and Version identify this repo's weight file format.
// Grounded on internal/nnue/weights.go's FileHeader/LoadWeights layout,
// extended with an xxhash checksum over the payload (promoted from the
// teacher's indirect dependency to a direct one per the project's
// dependency plan) so a truncated or corrupted weights file is caught
// before it silently produces nonsense evaluations.
const (
	MagicNumber = 0x53484F47 // "SHOG"
	Version     = 1
)

// FileHeader precedes the weight payload.
type FileHeader struct {
	Magic      uint32
	Version    uint32
	Dimensions uint32
	L1Size     uint32
	L2Size     uint32
	Checksum   uint64
}

// LoadNetwork reads a weights file produced by SaveNetwork, validating
// its header and xxhash checksum before trusting the payload.
func LoadNetwork(filename string) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("nnue: open weights: %w", err)
	}
	defer f.Close()
	return ReadNetwork(f)
}

// ReadNetwork loads a network from an already-open reader. The payload is
// hashed as it is read, so any io.Reader works; a nonzero header checksum
// must match that hash, and a zero checksum skips the comparison.
func ReadNetwork(r io.Reader) (*Network, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("nnue: read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("nnue: bad magic %x, expected %x", header.Magic, MagicNumber)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("nnue: unsupported version %d", header.Version)
	}
	if header.L1Size != L1Size || header.L2Size != L2Size {
		return nil, fmt.Errorf("nnue: layer size mismatch (got L1=%d L2=%d, want L1=%d L2=%d)",
			header.L1Size, header.L2Size, L1Size, L2Size)
	}

	n := NewNetwork(int(header.Dimensions))

	hasher := xxhash.New()
	tee := io.TeeReader(r, hasher)

	for i := range n.L1Weights {
		if err := binary.Read(tee, binary.LittleEndian, &n.L1Weights[i]); err != nil {
			return nil, fmt.Errorf("nnue: read L1 weights at %d: %w", i, err)
		}
	}
	if err := binary.Read(tee, binary.LittleEndian, &n.L1Bias); err != nil {
		return nil, fmt.Errorf("nnue: read L1 bias: %w", err)
	}
	if err := n.l2.ReadParameters(tee); err != nil {
		return nil, fmt.Errorf("nnue: read L2 layer: %w", err)
	}
	if err := n.output.ReadParameters(tee); err != nil {
		return nil, fmt.Errorf("nnue: read output layer: %w", err)
	}

	if header.Checksum != 0 && hasher.Sum64() != header.Checksum {
		return nil, fmt.Errorf("nnue: checksum mismatch: file is corrupt or truncated")
	}

	return n, nil
}

// SaveNetwork writes n to filename in the format ReadNetwork expects,
// including the xxhash checksum over the payload.
func SaveNetwork(n *Network, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("nnue: create weights file: %w", err)
	}
	defer f.Close()

	hasher := xxhash.New()
	if err := writePayload(n, hasher); err != nil {
		return err
	}

	header := FileHeader{
		Magic:      MagicNumber,
		Version:    Version,
		Dimensions: uint32(len(n.L1Weights)),
		L1Size:     L1Size,
		L2Size:     L2Size,
		Checksum:   hasher.Sum64(),
	}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("nnue: write header: %w", err)
	}
	return writePayload(n, f)
}

func writePayload(n *Network, w io.Writer) error {
	for i := range n.L1Weights {
		if err := binary.Write(w, binary.LittleEndian, &n.L1Weights[i]); err != nil {
			return fmt.Errorf("nnue: write L1 weights at %d: %w", i, err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, &n.L1Bias); err != nil {
		return fmt.Errorf("nnue: write L1 bias: %w", err)
	}
	if err := n.l2.WriteParameters(w); err != nil {
		return fmt.Errorf("nnue: write L2 layer: %w", err)
	}
	if err := n.output.WriteParameters(w); err != nil {
		return fmt.Errorf("nnue: write output layer: %w", err)
	}
	return nil
}
