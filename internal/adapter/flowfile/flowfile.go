// Package flowfile persists reference flow series as little-endian float32
// arrays, either raw or wrapped in a NumPy .npy (v1/v2, dtype <f4) envelope.
package flowfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
)

var npyMagic = []byte("\x93NUMPY")

var (
	descrPattern = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	orderPattern = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapePattern = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Load reads a flow array from path. A missing file yields
// domain.ErrMissingArtifact.
func Load(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reference flows %s: %w", path, domain.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("open reference flows: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return Decode(f)
}

// Decode reads a .npy stream when it starts with the NumPy magic, and a raw
// float32 stream otherwise.
func Decode(r io.Reader) ([]float64, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(npyMagic))
	if err == nil && bytes.Equal(head, npyMagic) {
		count, err := readNpyHeader(br)
		if err != nil {
			return nil, err
		}
		return readFloat32s(br, count)
	}
	return readFloat32s(br, -1)
}

// Save writes flows to path, as .npy when the extension is ".npy" and as raw
// float32 otherwise. Parent directories are created as needed.
func Save(path string, flows []float64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create reference directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create reference flows: %w", err)
	}

	bw := bufio.NewWriter(f)
	if strings.EqualFold(filepath.Ext(path), ".npy") {
		err = EncodeNpy(bw, flows)
	} else {
		err = EncodeRaw(bw, flows)
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write reference flows %s: %w", path, err)
	}
	return nil
}

// EncodeRaw writes flows as consecutive little-endian float32 values.
func EncodeRaw(w io.Writer, flows []float64) error {
	buf := make([]byte, 4*len(flows))
	for i, v := range flows {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	_, err := w.Write(buf)
	return err
}

// EncodeNpy writes flows as a one-dimensional version 1.0 .npy array.
func EncodeNpy(w io.Writer, flows []float64) error {
	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d,), }", len(flows))
	// magic(6) + version(2) + header length(2) + dict + newline, padded to 64.
	pre := len(npyMagic) + 4
	total := pre + len(dict) + 1
	if rem := total % 64; rem != 0 {
		dict += strings.Repeat(" ", 64-rem)
	}
	dict += "\n"

	header := make([]byte, 0, pre+len(dict))
	header = append(header, npyMagic...)
	header = append(header, 1, 0)
	header = binary.LittleEndian.AppendUint16(header, uint16(len(dict)))
	header = append(header, dict...)
	if _, err := w.Write(header); err != nil {
		return err
	}
	return EncodeRaw(w, flows)
}

func readNpyHeader(r io.Reader) (int, error) {
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return 0, fmt.Errorf("read npy preamble: %w", err)
	}

	var headerLen int
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return 0, fmt.Errorf("read npy header length: %w", err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return 0, fmt.Errorf("read npy header length: %w", err)
		}
		headerLen = int(n)
	default:
		return 0, fmt.Errorf("unsupported npy version %d: %w", major, domain.ErrInvalidInput)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("read npy header: %w", err)
	}
	return parseNpyHeader(string(header))
}

func parseNpyHeader(header string) (int, error) {
	descr := descrPattern.FindStringSubmatch(header)
	if descr == nil || (descr[1] != "<f4" && descr[1] != "f4") {
		return 0, fmt.Errorf("npy dtype must be <f4: %w", domain.ErrInvalidInput)
	}
	if order := orderPattern.FindStringSubmatch(header); order != nil && order[1] == "True" {
		return 0, fmt.Errorf("fortran-ordered npy arrays are not supported: %w", domain.ErrInvalidInput)
	}
	shape := shapePattern.FindStringSubmatch(header)
	if shape == nil {
		return 0, fmt.Errorf("npy header has no shape: %w", domain.ErrInvalidInput)
	}

	count := 1
	for _, dim := range strings.Split(shape[1], ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(dim, "%d", &n); err != nil || n < 0 {
			return 0, fmt.Errorf("npy shape %q: %w", shape[1], domain.ErrInvalidInput)
		}
		count *= n
	}
	return count, nil
}

// readFloat32s reads count values, or until EOF when count is negative.
func readFloat32s(r io.Reader, count int) ([]float64, error) {
	var data []byte
	var err error
	if count >= 0 {
		data = make([]byte, 4*count)
		_, err = io.ReadFull(r, data)
	} else {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		return nil, fmt.Errorf("read flow values: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("flow data length %d is not a multiple of 4: %w", len(data), domain.ErrInvalidInput)
	}

	flows := make([]float64, len(data)/4)
	for i := range flows {
		flows[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return flows, nil
}
