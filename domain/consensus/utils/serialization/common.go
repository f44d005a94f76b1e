package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

// errNonCanonicalVarInt is the common format string used for non-canonically
// encoded variable length integer errors.
var errNonCanonicalVarInt = "non-canonical varint %x - discriminant %x must " +
	"encode a value greater than %x"

var littleEndian = binary.LittleEndian

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case int32:
		littleEndian.PutUint32(buf[:4], uint32(e))
		return write(w, buf[:4])

	case uint32:
		littleEndian.PutUint32(buf[:4], e)
		return write(w, buf[:4])

	case int64:
		littleEndian.PutUint64(buf[:], uint64(e))
		return write(w, buf[:])

	case uint64:
		littleEndian.PutUint64(buf[:], e)
		return write(w, buf[:])

	case uint8:
		buf[0] = e
		return write(w, buf[:1])

	case bool:
		if e {
			buf[0] = 0x01
		}
		return write(w, buf[:1])

	case externalapi.DomainHash:
		return write(w, e[:])

	case *externalapi.DomainHash:
		return write(w, e[:])

	case externalapi.DomainTransactionID:
		return write(w, e[:])

	case *externalapi.DomainTransactionID:
		return write(w, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case *int32:
		if err := read(r, buf[:4]); err != nil {
			return err
		}
		*e = int32(littleEndian.Uint32(buf[:4]))
		return nil

	case *uint32:
		if err := read(r, buf[:4]); err != nil {
			return err
		}
		*e = littleEndian.Uint32(buf[:4])
		return nil

	case *int64:
		if err := read(r, buf[:]); err != nil {
			return err
		}
		*e = int64(littleEndian.Uint64(buf[:]))
		return nil

	case *uint64:
		if err := read(r, buf[:]); err != nil {
			return err
		}
		*e = littleEndian.Uint64(buf[:])
		return nil

	case *uint8:
		if err := read(r, buf[:1]); err != nil {
			return err
		}
		*e = buf[0]
		return nil

	case *bool:
		if err := read(r, buf[:1]); err != nil {
			return err
		}
		switch buf[0] {
		case 0x00:
			*e = false
		case 0x01:
			*e = true
		default:
			return errors.Wrapf(errMalformed, "in order to keep serialization canonical, true has to"+
				" always be 0x01")
		}
		return nil

	case *externalapi.DomainHash:
		return read(r, e[:])

	case *externalapi.DomainTransactionID:
		return read(r, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64. Encodings that could have been shorter are rejected.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	if err := ReadElement(r, &discriminant); err != nil {
		return 0, err
	}

	var rv uint64
	var min uint64
	switch discriminant {
	case 0xff:
		if err := ReadElement(r, &rv); err != nil {
			return 0, err
		}
		min = 0x100000000

	case 0xfe:
		var sv uint32
		if err := ReadElement(r, &sv); err != nil {
			return 0, err
		}
		rv = uint64(sv)
		min = 0x10000

	case 0xfd:
		var buf [2]byte
		if err := read(r, buf[:]); err != nil {
			return 0, err
		}
		rv = uint64(littleEndian.Uint16(buf[:]))
		min = 0xfd

	default:
		return uint64(discriminant), nil
	}

	if rv < min {
		return 0, errors.Wrapf(errMalformed, errNonCanonicalVarInt, rv, discriminant, min)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return write(w, []byte{uint8(val)})
	}

	if val <= math.MaxUint16 {
		var buf [3]byte
		buf[0] = 0xfd
		littleEndian.PutUint16(buf[1:], uint16(val))
		return write(w, buf[:])
	}

	if val <= math.MaxUint32 {
		var buf [5]byte
		buf[0] = 0xfe
		littleEndian.PutUint32(buf[1:], uint32(val))
		return write(w, buf[:])
	}

	var buf [9]byte
	buf[0] = 0xff
	littleEndian.PutUint64(buf[1:], val)
	return write(w, buf[:])
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a variable length byte array. The count is bounded by
// maxAllowed to keep a malicious length from exhausting memory.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, errors.Wrapf(errMalformed, "%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
	}
	b := make([]byte, count)
	if err := read(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varint
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	if err := WriteVarInt(w, uint64(len(bytes))); err != nil {
		return err
	}
	return write(w, bytes)
}

// VarBytesSerializeSize returns the serialized size of bytes written by
// WriteVarBytes.
func VarBytesSerializeSize(bytes []byte) int {
	return VarIntSerializeSize(uint64(len(bytes))) + len(bytes)
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}

func malformedf(format string, args ...interface{}) error {
	return errors.Wrap(errMalformed, fmt.Sprintf(format, args...))
}

func write(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return errors.WithStack(err)
}

func read(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	return errors.WithStack(err)
}
