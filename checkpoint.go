package sentgo

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
)

const checkpointMagic int32 = 20260830

// SaveCheckpoint writes the model to path: a 256-int32 header (magic, version,
// then the model dimensions) followed by the raw parameter arena, all
// little-endian.
func SaveCheckpoint(model *Classifier, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer f.Close()
	header := make([]int32, 256)
	header[0] = checkpointMagic
	header[1] = 1
	header[2] = int32(model.Config.V)
	header[3] = int32(model.Config.C)
	header[4] = int32(model.Config.H)
	header[5] = int32(model.Config.MaxSeqLen)
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write checkpoint header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, model.Params.Memory); err != nil {
		return fmt.Errorf("write checkpoint params: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a model written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	return loadFromReader(f)
}

func loadFromReader(f io.Reader) (*Classifier, error) {
	header := make([]int32, 256)
	if err := binary.Read(f, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("error reading checkpoint header: %w", err)
	}
	if header[0] != checkpointMagic || header[1] != 1 {
		return nil, fmt.Errorf("bad checkpoint file format")
	}
	model := &Classifier{
		Config: Config{
			V:         int(header[2]),
			C:         int(header[3]),
			H:         int(header[4]),
			MaxSeqLen: int(header[5]),
		},
		Rand: rand.New(rand.NewSource(21)),
	}
	model.Params.Init(model.Config.V, model.Config.C, model.Config.H)
	if err := binary.Read(f, binary.LittleEndian, model.Params.Memory); err != nil {
		return nil, fmt.Errorf("error reading checkpoint params: %w", err)
	}
	return model, nil
}
