package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

type protobufCodec struct{}

// Protobuf encodes proto.Message values in the binary wire format.
var Protobuf Codec = protobufCodec{}

func (protobufCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf encode: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (protobufCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("protobuf decode: %T is not a proto.Message", v)
	}
	if err := proto.Unmarshal(data, m); err != nil {
		return fmt.Errorf("protobuf decode: %w", err)
	}
	return nil
}

func (protobufCodec) ContentType() string { return "application/x-protobuf" }
