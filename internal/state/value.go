// Package state implements the hierarchical, concurrency-safe value store
// shared by the capture workers, the HTTP control surface, and the process
// supervisor. Values are a tagged union over scalars, ordered sequences,
// string-keyed maps, and opaque image buffers; paths are separator-joined
// strings resolved one segment at a time.
package state

import (
	"fmt"

	"github.com/banshee-data/visionfusion/internal/imaging"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ImagePayload is the variant of an image-kind Value: either a raw decoded
// buffer or bytes already encoded on the wire (e.g. JPEG). Exactly one of
// Raw/Encoded is set.
type ImagePayload struct {
	Raw     *imaging.ByteImage
	Encoded []byte
}

// Value is the tagged union stored at every node of the state tree.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	String string
	Seq    []Value
	Map    map[string]Value
	Image  *ImagePayload
}

// Null is the absent value.
var Null = Value{Kind: KindNull}

func NewBool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func NewString(s string) Value { return Value{Kind: KindString, String: s} }

// NewSeq wraps an ordered sequence of values.
func NewSeq(items []Value) Value { return Value{Kind: KindSeq, Seq: items} }

// NewMap wraps a string-keyed mapping.
func NewMap(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{Kind: KindMap, Map: fields}
}

// NewRawImage wraps a decoded byte image buffer. The buffer is referenced,
// not copied; callers must not mutate it in place after publishing (§4.4).
func NewRawImage(img imaging.ByteImage) Value {
	return Value{Kind: KindImage, Image: &ImagePayload{Raw: &img}}
}

// NewEncodedImage wraps already-encoded image bytes (e.g. a JPEG buffer).
func NewEncodedImage(data []byte) Value {
	return Value{Kind: KindImage, Image: &ImagePayload{Encoded: data}}
}

// Sanitize produces a JSON-safe projection of v: scalars and containers pass
// through structurally, opaque image payloads are replaced with a
// human-readable type tag rather than their (potentially huge) pixel data.
func Sanitize(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.String
	case KindSeq:
		out := make([]interface{}, len(v.Seq))
		for i, item := range v.Seq {
			out[i] = Sanitize(item)
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = Sanitize(item)
		}
		return out
	case KindImage:
		if v.Image == nil {
			return "<image:empty>"
		}
		if v.Image.Raw != nil {
			img := v.Image.Raw
			return fmt.Sprintf("<image:%dx%dx%d>", img.Width, img.Height, img.Channels)
		}
		return fmt.Sprintf("<image:encoded %d bytes>", len(v.Image.Encoded))
	default:
		return fmt.Sprintf("<unknown kind %d>", v.Kind)
	}
}
