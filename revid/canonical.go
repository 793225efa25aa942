package revid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
)

// kind tags identify the JSON value type being encoded, so that encodings
// of e.g. the string "1" and the number 1 never collide.
const (
	kindNull   = byte(0)
	kindString = byte(1)
	kindBool   = byte(2)
	kindInt64  = byte(3)
	kindFloat  = byte(4)
	kindMap    = byte(5)
	kindList   = byte(6)
)

// encodeCanonical writes a deterministic binary encoding of a decoded JSON
// value (the output of encoding/json's Unmarshal into interface{}) to w.
//
// Map keys are sorted so that two bodies that are equal as JSON objects
// always encode identically regardless of field order. This is the
// canonical form hashed by New to mint a RevID; see the package doc.
func encodeCanonical(w io.Writer, value interface{}) error {
	bw := bufio.NewWriter(w)
	if err := encodeValue(bw, value); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeValue(w *bufio.Writer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return w.WriteByte(kindNull)
	case string:
		return encodeString(w, v)
	case bool:
		return encodeBool(w, v)
	case float64:
		return encodeFloat(w, v)
	case int:
		return encodeFloat(w, float64(v))
	case int64:
		return encodeFloat(w, float64(v))
	case map[string]interface{}:
		return encodeMap(w, v)
	case []interface{}:
		return encodeList(w, v)
	default:
		return fmt.Errorf("revid: cannot canonicalize value of type %T", value)
	}
}

func encodeString(w *bufio.Writer, value string) error {
	if err := w.WriteByte(kindString); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(value))); err != nil {
		return err
	}
	_, err := w.WriteString(value)
	return err
}

func encodeBool(w *bufio.Writer, value bool) error {
	if err := w.WriteByte(kindBool); err != nil {
		return err
	}
	if value {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func encodeFloat(w *bufio.Writer, value float64) error {
	if err := w.WriteByte(kindFloat); err != nil {
		return err
	}
	bits := math.Float64bits(value)
	for i := 7; i >= 0; i-- {
		if err := w.WriteByte(byte(bits >> (i * 8))); err != nil {
			return err
		}
	}
	return nil
}

func encodeList(w *bufio.Writer, value []interface{}) error {
	if err := w.WriteByte(kindList); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(value))); err != nil {
		return err
	}
	for _, v := range value {
		if err := encodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeMap(w *bufio.Writer, value map[string]interface{}) error {
	if err := w.WriteByte(kindMap); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(value))); err != nil {
		return err
	}
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := encodeString(w, k); err != nil {
			return err
		}
		if err := encodeValue(w, value[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeUvarint(w *bufio.Writer, v uint64) error {
	var buf [10]byte
	n := 0
	for v >= 0x80 {
		buf[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	buf[n] = byte(v)
	n++
	_, err := w.Write(buf[:n])
	return err
}

// canonicalBytes returns the canonical encoding of value as a standalone
// byte slice.
func canonicalBytes(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
