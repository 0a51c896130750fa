package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits to prevent a hostile peer from making the server
// allocate unbounded memory for a single frame.
const (
	// MaxArrayLen limits the number of elements in a RESP array.
	// Commands carry a handful of arguments; this is ample headroom.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// maxHeaderLen limits a length/integer header line: "<number>\r\n".
	maxHeaderLen = 64
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// Decoder reads RESP values incrementally off a byte stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// DecodeOne reads exactly one type-tagged unit from the stream.
//
// An array unit arrives empty: only its declared length is read here,
// its elements follow as separate units. An unrecognized tag byte
// decodes as Nil with nothing consumed beyond the tag itself; this
// leniency is deliberate and matches the documented wire contract.
// I/O errors, including EOF, propagate to the caller.
func (d *Decoder) DecodeOne() (Value, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return Nil(), err
	}

	switch b {
	case '*':
		n, err := d.readLength()
		if err != nil {
			return Nil(), err
		}
		if n < 0 {
			return Nil(), fmt.Errorf("%w: negative array length %d", ErrProtocol, n)
		}
		if n > MaxArrayLen {
			return Nil(), fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		return Array(int(n)), nil

	case '$':
		n, err := d.readLength()
		if err != nil {
			return Nil(), err
		}
		if n <= 0 {
			// "$-1" and "$0" both decode as Nil; no body follows.
			return Nil(), nil
		}
		if n > MaxBulkLen {
			return Nil(), fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return Nil(), err
		}
		if !bytes.HasSuffix(buf, []byte("\r\n")) {
			return Nil(), fmt.Errorf("%w: missing bulk terminator", ErrProtocol)
		}
		return BulkString(buf[:n]), nil

	case '+':
		line, err := d.readLine()
		if err != nil {
			return Nil(), err
		}
		return String(line), nil

	case ':':
		line, err := d.readLine()
		if err != nil {
			return Nil(), err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return Nil(), fmt.Errorf("%w: invalid integer %q", ErrProtocol, line)
		}
		return Integer(n), nil

	default:
		// Unknown tag byte decodes as Nil; only the tag is consumed.
		return Nil(), nil
	}
}

// DecodeMessage assembles one complete value tree from the stream.
//
// The first unit becomes the root; each following unit is appended to
// the first incomplete array found depth-first, until the root is
// complete. A non-array first unit is complete immediately.
func (d *Decoder) DecodeMessage() (Value, error) {
	root, err := d.DecodeOne()
	if err != nil {
		return Nil(), err
	}
	for !root.IsComplete() {
		next, err := d.DecodeOne()
		if err != nil {
			return Nil(), err
		}
		root.Append(next)
	}
	return root, nil
}

// readLength reads a header line and parses it as a decimal length.
func (d *Decoder) readLength() (int64, error) {
	line, err := d.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line)
	}
	return n, nil
}

// readLine reads a CRLF-terminated line (terminator stripped).
func (d *Decoder) readLine() (string, error) {
	var buf []byte
	for {
		frag, err := d.r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxHeaderLen {
				return "", fmt.Errorf("%w: header line exceeds limit %d", ErrLimitExceeded, maxHeaderLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxHeaderLen {
		return "", fmt.Errorf("%w: header line exceeds limit %d", ErrLimitExceeded, maxHeaderLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// Encode serializes a value to its wire form.
//
// Nil always encodes as the nil bulk string "$-1\r\n", never as a nil
// array. Array elements are concatenated with no extra separators.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeTo(&buf, v)
	return buf.Bytes()
}

func encodeTo(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindArray:
		buf.WriteByte('*')
		buf.WriteString(strconv.Itoa(v.declared))
		buf.WriteString("\r\n")
		for i := range v.elems {
			encodeTo(buf, v.elems[i])
		}
	case KindBulkString:
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(len(v.bulk)))
		buf.WriteString("\r\n")
		buf.Write(v.bulk)
		buf.WriteString("\r\n")
	case KindInteger:
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(v.integer, 10))
		buf.WriteString("\r\n")
	default:
		buf.WriteString("$-1\r\n")
	}
}

// Write encodes a value onto a buffered writer. The caller flushes.
func Write(w *bufio.Writer, v Value) error {
	_, err := w.Write(Encode(v))
	return err
}
