// Package pb holds the ScheduleService wire messages and service
// descriptor. Messages encode themselves with protowire, so the package
// needs no generated code.
package pb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message is implemented by every request and response in this package.
type Message interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(b []byte) error
}

func Marshal(m Message) []byte { return m.AppendWire(nil) }

func Unmarshal(b []byte, m Message) error { return m.UnmarshalWire(b) }

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

func appendTimestamp(b []byte, num protowire.Number, ts *timestamppb.Timestamp) []byte {
	if ts == nil {
		return b
	}
	raw, err := proto.Marshal(ts)
	if err != nil {
		// a Timestamp has only scalar fields
		panic(err)
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, raw)
}

func parseTimestamp(v []byte) (*timestamppb.Timestamp, error) {
	ts := &timestamppb.Timestamp{}
	if err := proto.Unmarshal(v, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// walk calls visit for every length-delimited field and skips the rest.
func walk(b []byte, visit func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		if err := visit(num, v); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// stringFields maps field numbers to string destinations.
func stringFields(dst map[protowire.Number]*string) func(protowire.Number, []byte) error {
	return func(num protowire.Number, v []byte) error {
		if p, ok := dst[num]; ok {
			*p = string(v)
		}
		return nil
	}
}

// codec replaces the default "proto" codec: wire messages encode
// themselves, anything else goes to the stock protobuf codec.
type codec struct {
	fallback encoding.Codec
}

func (c codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(Message); ok {
		return m.AppendWire(nil), nil
	}
	if c.fallback == nil {
		return nil, fmt.Errorf("pb: cannot marshal %T", v)
	}
	return c.fallback.Marshal(v)
}

func (c codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(Message); ok {
		return m.UnmarshalWire(data)
	}
	if c.fallback == nil {
		return fmt.Errorf("pb: cannot unmarshal into %T", v)
	}
	return c.fallback.Unmarshal(data, v)
}

func (codec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(codec{fallback: encoding.GetCodec("proto")})
}
