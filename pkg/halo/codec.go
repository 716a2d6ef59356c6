package halo

import (
	"encoding/binary"
	"encoding/gob"
	"io"
	"reflect"
)

// Encoder writes values to a link.
type Encoder interface {
	Encode(v any) error
}

// Decoder reads values written by the matching Encoder.
type Decoder interface {
	Decode(v any) error
}

// Codec serializes slices of cells and flows. A value encoded on one end of
// a link must decode to an equal value on the other.
type Codec interface {
	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
}

// Gob encodes with encoding/gob. It handles any type gob can, which means
// cell structs need exported fields. Type information is sent once per link.
var Gob Codec = gobCodec{}

type gobCodec struct{}

func (gobCodec) NewEncoder(w io.Writer) Encoder { return gob.NewEncoder(w) }
func (gobCodec) NewDecoder(r io.Reader) Decoder { return gob.NewDecoder(r) }

// Binary encodes fixed-size values with encoding/binary in the given byte
// order. Decode targets must already have the expected length.
func Binary(order binary.ByteOrder) Codec { return binaryCodec{order: order} }

type binaryCodec struct {
	order binary.ByteOrder
}

func (c binaryCodec) NewEncoder(w io.Writer) Encoder { return binaryEncoder{w: w, order: c.order} }
func (c binaryCodec) NewDecoder(r io.Reader) Decoder { return binaryDecoder{r: r, order: c.order} }

type binaryEncoder struct {
	w     io.Writer
	order binary.ByteOrder
}

func (e binaryEncoder) Encode(v any) error { return binary.Write(e.w, e.order, v) }

type binaryDecoder struct {
	r     io.Reader
	order binary.ByteOrder
}

func (d binaryDecoder) Decode(v any) error {
	// binary.Read fills slices in place but does not accept a pointer to one.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Slice {
		v = rv.Elem().Interface()
	}
	return binary.Read(d.r, d.order, v)
}
