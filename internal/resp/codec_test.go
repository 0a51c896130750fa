package resp

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecodeOne(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"bulk string", "$5\r\nhello\r\n", String("hello")},
		{"binary-safe bulk", "$3\r\na\r\n\r\n", BulkString([]byte("a\r\n"))},
		{"nil bulk", "$-1\r\n", Nil()},
		{"zero-length bulk", "$0\r\n", Nil()},
		{"simple string", "+PONG\r\n", String("PONG")},
		{"positive integer", ":42\r\n", Integer(42)},
		{"negative integer", ":-7\r\n", Integer(-7)},
		{"array header only", "*3\r\n", Array(3)},
		{"empty array", "*0\r\n", Array(0)},
		{"unknown tag decodes nil", "?rest", Nil()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader(tt.input))
			got, err := d.DecodeOne()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("DecodeOne() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeOneUnknownTagConsumesOnlyTagByte(t *testing.T) {
	d := NewDecoder(strings.NewReader("?:5\r\n"))

	v, err := d.DecodeOne()
	if err != nil || v.Kind() != KindNil {
		t.Fatalf("first unit = (%v, %v), want (nil, nil)", v, err)
	}

	// The bytes after the unknown tag are still on the stream.
	v, err = d.DecodeOne()
	if err != nil {
		t.Fatalf("second unit error: %v", err)
	}
	if !v.Equal(Integer(5)) {
		t.Errorf("second unit = %+v, want Integer(5)", v)
	}
}

func TestDecodeOneErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"non-numeric array length", "*abc\r\n", ErrProtocol},
		{"non-numeric bulk length", "$abc\r\n", ErrProtocol},
		{"non-numeric integer", ":abc\r\n", ErrProtocol},
		{"negative array length", "*-1\r\n", ErrProtocol},
		{"missing bulk terminator", "$5\r\nhelloXX", ErrProtocol},
		{"array over limit", "*99999\r\n", ErrLimitExceeded},
		{"bulk over limit", "$9999999\r\n", ErrLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader(tt.input))
			_, err := d.DecodeOne()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeOne() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeOneEOF(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	_, err := d.DecodeOne()
	if !errors.Is(err, io.EOF) {
		t.Errorf("DecodeOne() on empty stream = %v, want io.EOF", err)
	}
}

func TestDecodeOneTruncatedBulk(t *testing.T) {
	d := NewDecoder(strings.NewReader("$10\r\nshort"))
	_, err := d.DecodeOne()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("DecodeOne() on truncated bulk = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{
			"single bulk string root",
			"$4\r\nPING\r\n",
			String("PING"),
		},
		{
			"command array",
			"*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			ArrayOf(String("SET"), String("foo"), String("bar")),
		},
		{
			"array with mixed types",
			"*3\r\n$3\r\nSET\r\n:10\r\n$-1\r\n",
			ArrayOf(String("SET"), Integer(10), Nil()),
		},
		{
			"nested array",
			"*2\r\n*2\r\n$1\r\na\r\n$1\r\nb\r\n:3\r\n",
			ArrayOf(ArrayOf(String("a"), String("b")), Integer(3)),
		},
		{
			"empty array",
			"*0\r\n",
			Array(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader(tt.input))
			got, err := d.DecodeMessage()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("DecodeMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeMessageTruncatedArray(t *testing.T) {
	d := NewDecoder(strings.NewReader("*2\r\n$3\r\nGET\r\n"))
	_, err := d.DecodeMessage()
	if !errors.Is(err, io.EOF) {
		t.Errorf("DecodeMessage() on truncated array = %v, want io.EOF", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"nil", Nil(), "$-1\r\n"},
		{"integer", Integer(42), ":42\r\n"},
		{"negative integer", Integer(-3), ":-3\r\n"},
		{"bulk string", String("PONG"), "$4\r\nPONG\r\n"},
		{"empty bulk string", String(""), "$0\r\n\r\n"},
		{"binary bulk string", BulkString([]byte{0, '\r', '\n'}), "$3\r\n\x00\r\n\r\n"},
		{
			"array",
			ArrayOf(String("GET"), String("foo")),
			"*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n",
		},
		{"empty array", Array(0), "*0\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.value)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Round trip: decoding an encoded value reproduces it, with the one
// documented exception that "+" input collapses into bulk string shape.
func TestRoundTrip(t *testing.T) {
	values := []Value{
		Nil(),
		Integer(0),
		Integer(-123456789),
		String("hello world"),
		BulkString([]byte{1, 2, 3, '\r', '\n', 0}),
		ArrayOf(String("SET"), String("k"), Integer(99), Nil()),
		ArrayOf(ArrayOf(String("nested")), String("tail")),
	}

	for _, v := range values {
		encoded := Encode(v)
		d := NewDecoder(strings.NewReader(string(encoded)))
		got, err := d.DecodeMessage()
		if err != nil {
			t.Fatalf("decode of %q: %v", encoded, err)
		}
		if !got.Equal(v) {
			t.Errorf("round trip of %q changed value: got %+v want %+v", encoded, got, v)
		}
	}
}

func TestSimpleStringEquivalentToBulk(t *testing.T) {
	simple := NewDecoder(strings.NewReader("+PING\r\n"))
	bulk := NewDecoder(strings.NewReader("$4\r\nPING\r\n"))

	a, err := simple.DecodeMessage()
	if err != nil {
		t.Fatal(err)
	}
	b, err := bulk.DecodeMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("simple string %+v != bulk string %+v", a, b)
	}
}
