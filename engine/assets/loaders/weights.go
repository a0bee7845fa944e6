package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

type fieldTag uint8

const (
	fieldEnd fieldTag = iota
	fieldInfluenceWeights
	fieldBlendWeights
	fieldDeformerName
	fieldSkinningMethod
	fieldNormalizeWeights
)

func (t fieldTag) String() string {
	switch t {
	case fieldInfluenceWeights:
		return "influenceWeights"
	case fieldBlendWeights:
		return "blendWeights"
	case fieldDeformerName:
		return "deformerName"
	case fieldSkinningMethod:
		return "skinningMethod"
	case fieldNormalizeWeights:
		return "normalizeWeights"
	case fieldEnd:
		return "end"
	default:
		return fmt.Sprintf("field(%d)", uint8(t))
	}
}

var requiredFields = []fieldTag{
	fieldInfluenceWeights,
	fieldBlendWeights,
	fieldDeformerName,
	fieldSkinningMethod,
	fieldNormalizeWeights,
}

var byteOrder = binary.LittleEndian

// WeightLoader reads and writes skin weight records in the binary .weight format.
type WeightLoader struct{}

func (wl *WeightLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	if assetType != resources.ResourceTypeWeights {
		return nil, fmt.Errorf("weight loader cannot load resource type '%s'", assetType)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	record, err := DecodeWeightRecord(buf, path)
	if err != nil {
		return nil, err
	}

	return &resources.Resource{
		Type:     resources.ResourceTypeWeights,
		Name:     record.DeformerName,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     record,
	}, nil
}

func (wl *WeightLoader) Unload(resource *resources.Resource) error {
	if resource != nil {
		resource.Data = nil
		resource.DataSize = 0
	}
	return nil
}

// Save writes the record to path, appending the .weight suffix when missing.
// It returns the path actually written.
func (wl *WeightLoader) Save(path string, record *skin.WeightRecord) (string, error) {
	path = WithWeightExtension(path)
	if err := record.Validate(); err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	// encode next to the target and rename, so a failed write never leaves a truncated file
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	w := bufio.NewWriter(f)
	err = EncodeWeightRecord(w, record)
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// WithWeightExtension appends the reserved .weight suffix if path lacks it.
func WithWeightExtension(path string) string {
	if strings.HasSuffix(path, resources.WeightFileExtension) {
		return path
	}
	return path + resources.WeightFileExtension
}

// EncodeWeightRecord writes the header followed by every field of the record.
// Influences are written in name order.
func EncodeWeightRecord(w io.Writer, record *skin.WeightRecord) error {
	header := resources.ResourceHeader{
		MagicNumber:  resources.ResourceMagic,
		ResourceType: resources.ResourceTypeWeights,
		Version:      resources.ResourceVersion,
	}
	if err := binary.Write(w, byteOrder, header); err != nil {
		return err
	}

	var payload bytes.Buffer
	names := record.InfluenceNames()
	writeUint32(&payload, uint32(len(names)))
	for _, name := range names {
		writeString(&payload, name)
		writeFloats(&payload, record.InfluenceWeights[name])
	}
	if err := writeField(w, fieldInfluenceWeights, payload.Bytes()); err != nil {
		return err
	}

	payload.Reset()
	writeFloats(&payload, record.BlendWeights)
	if err := writeField(w, fieldBlendWeights, payload.Bytes()); err != nil {
		return err
	}

	payload.Reset()
	writeString(&payload, record.DeformerName)
	if err := writeField(w, fieldDeformerName, payload.Bytes()); err != nil {
		return err
	}

	payload.Reset()
	writeUint32(&payload, uint32(record.SkinningMethod))
	if err := writeField(w, fieldSkinningMethod, payload.Bytes()); err != nil {
		return err
	}

	payload.Reset()
	writeUint32(&payload, uint32(record.NormalizeWeights))
	if err := writeField(w, fieldNormalizeWeights, payload.Bytes()); err != nil {
		return err
	}

	_, err := w.Write([]byte{byte(fieldEnd)})
	return err
}

// DecodeWeightRecord parses a complete .weight file. Unknown, duplicate or missing
// fields, truncated data and trailing bytes are reported as core.MalformedRecordError.
func DecodeWeightRecord(data []byte, source string) (*skin.WeightRecord, error) {
	malformed := func(format string, args ...interface{}) error {
		return core.NewMalformedRecordError(source, fmt.Errorf(format, args...))
	}

	if len(data) < resources.ResourceHeaderSize {
		return nil, malformed("file is %d bytes, shorter than the header", len(data))
	}
	r := bytes.NewReader(data)
	var header resources.ResourceHeader
	if err := binary.Read(r, byteOrder, &header); err != nil {
		return nil, malformed("reading header: %v", err)
	}
	if header.MagicNumber != resources.ResourceMagic {
		return nil, malformed("bad magic number 0x%08x", header.MagicNumber)
	}
	if header.ResourceType != resources.ResourceTypeWeights {
		return nil, malformed("resource type '%s' is not a weight record", header.ResourceType)
	}
	if header.Version != resources.ResourceVersion {
		return nil, malformed("unsupported format version %d", header.Version)
	}

	record := &skin.WeightRecord{}
	seen := make(map[fieldTag]bool, len(requiredFields))
	var problems []error
	for {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, malformed("missing end marker")
		}
		if fieldTag(tag) == fieldEnd {
			break
		}
		var length uint32
		if err := binary.Read(r, byteOrder, &length); err != nil {
			return nil, malformed("truncated field %s", fieldTag(tag))
		}
		if int64(length) > int64(r.Len()) {
			return nil, malformed("field %s claims %d bytes, %d left", fieldTag(tag), length, r.Len())
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, malformed("truncated field %s", fieldTag(tag))
		}
		if seen[fieldTag(tag)] {
			problems = append(problems, fmt.Errorf("duplicate field %s", fieldTag(tag)))
			continue
		}
		seen[fieldTag(tag)] = true
		if err := decodeField(record, fieldTag(tag), payload); err != nil {
			problems = append(problems, err)
		}
	}
	if r.Len() > 0 {
		problems = append(problems, fmt.Errorf("%d bytes of trailing data", r.Len()))
	}
	for _, tag := range requiredFields {
		if !seen[tag] {
			problems = append(problems, fmt.Errorf("missing field %s", tag))
		}
	}
	if err := core.NewMalformedRecordError(source, problems...); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		var merr *core.MalformedRecordError
		if errors.As(err, &merr) {
			merr.Source = source
		}
		return nil, err
	}
	return record, nil
}

func decodeField(record *skin.WeightRecord, tag fieldTag, payload []byte) error {
	p := bytes.NewReader(payload)
	switch tag {
	case fieldInfluenceWeights:
		count, err := readUint32(p)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		record.InfluenceWeights = make(map[string][]float64)
		for i := uint32(0); i < count; i++ {
			name, err := readString(p)
			if err != nil {
				return fmt.Errorf("%s: influence %d name: %w", tag, i, err)
			}
			weights, err := readFloats(p)
			if err != nil {
				return fmt.Errorf("%s: influence '%s': %w", tag, name, err)
			}
			if _, ok := record.InfluenceWeights[name]; ok {
				return fmt.Errorf("%s: influence '%s' appears twice", tag, name)
			}
			record.InfluenceWeights[name] = weights
		}
	case fieldBlendWeights:
		weights, err := readFloats(p)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		record.BlendWeights = weights
	case fieldDeformerName:
		name, err := readString(p)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		record.DeformerName = name
	case fieldSkinningMethod:
		v, err := readUint32(p)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		record.SkinningMethod = skin.SkinningMethod(int32(v))
	case fieldNormalizeWeights:
		v, err := readUint32(p)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		record.NormalizeWeights = skin.NormalizeWeights(int32(v))
	default:
		return fmt.Errorf("unknown field %s", tag)
	}
	if p.Len() > 0 {
		return fmt.Errorf("%s: %d unexpected bytes", tag, p.Len())
	}
	return nil
}

func writeField(w io.Writer, tag fieldTag, payload []byte) error {
	var head [5]byte
	head[0] = byte(tag)
	byteOrder.PutUint32(head[1:], uint32(len(payload)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writeUint32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	byteOrder.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func writeString(b *bytes.Buffer, s string) {
	writeUint32(b, uint32(len(s)))
	b.WriteString(s)
}

func writeFloats(b *bytes.Buffer, values []float64) {
	writeUint32(b, uint32(len(values)))
	var tmp [8]byte
	for _, v := range values {
		byteOrder.PutUint64(tmp[:], math.Float64bits(v))
		b.Write(tmp[:])
	}
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, fmt.Errorf("truncated value")
	}
	return byteOrder.Uint32(tmp[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if int64(n) > int64(r.Len()) {
		return "", fmt.Errorf("string of %d bytes, %d left", n, r.Len())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("truncated string")
	}
	return string(buf), nil
}

func readFloats(r *bytes.Reader) ([]float64, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if int64(n)*8 > int64(r.Len()) {
		return nil, fmt.Errorf("%d values need %d bytes, %d left", n, int64(n)*8, r.Len())
	}
	values := make([]float64, n)
	var tmp [8]byte
	for i := range values {
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return nil, fmt.Errorf("truncated value")
		}
		values[i] = math.Float64frombits(byteOrder.Uint64(tmp[:]))
	}
	return values, nil
}
