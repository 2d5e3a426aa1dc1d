// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Codec turns values into wire bytes and back. Reply serializers and
// content-type parsers are both built on it.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

// jsonCodec writes JSON without HTML escaping or a trailing newline.
type jsonCodec struct{ strict bool }

// JSON is the default reply serializer and application/json body parser.
var JSON Codec = jsonCodec{}

// JSONStrict rejects unknown fields and trailing content; schema body checks use it.
var JSONStrict Codec = jsonCodec{strict: true}

func (jsonCodec) ContentType() string { return "application/json; charset=utf-8" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	if !c.strict {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("json decode: %w", err)
		}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("json trailing content")
	}
	return nil
}
