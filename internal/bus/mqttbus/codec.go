package mqttbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/catt-bridge/internal/core"
)

// Meta encodings.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// MetaCodec serializes Meta documents for the meta topic.
type MetaCodec interface {
	Encode(m *core.Meta) ([]byte, error)
	Decode(data []byte) (*core.Meta, error)
	Name() string
}

// NewMetaCodec returns the codec for an encoding name. An empty name selects JSON.
func NewMetaCodec(name string) (MetaCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingJSON:
		return jsonCodec{}, nil
	case EncodingCBOR:
		return cborCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return EncodingJSON }

func (jsonCodec) Encode(m *core.Meta) ([]byte, error) {
	if m == nil {
		m = &core.Meta{}
	}
	return json.Marshal(m)
}

func (jsonCodec) Decode(data []byte) (*core.Meta, error) {
	var m core.Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding json meta: %w", err)
	}
	return &m, nil
}

// cborEncMode sorts map keys for deterministic output.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error

	cborEncMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	cborDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

type cborCodec struct{}

func (cborCodec) Name() string { return EncodingCBOR }

func (cborCodec) Encode(m *core.Meta) ([]byte, error) {
	if m == nil {
		m = &core.Meta{}
	}
	return cborEncMode.Marshal(m)
}

func (cborCodec) Decode(data []byte) (*core.Meta, error) {
	var m core.Meta
	if err := cborDecMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding cbor meta: %w", err)
	}
	return &m, nil
}
