package codec

import (
	"encoding/binary"
	"errors"

	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// errIncomplete is an internal sentinel: the scanner ran off the end of the
// currently-buffered bytes while walking a value. It never escapes this
// file — scanFrameLength turns it into "need more data" (nil, nil).
var errIncomplete = errors.New("codec: incomplete value")

// scanner walks MessagePack type tags to find value boundaries without
// decoding payloads. This hand-rolled structural walk plays exactly the role
// the teacher's protocol.Decode hand-rolls for its 14-byte header: a small,
// self-contained piece of framing logic sitting in front of the real
// (de)serializer, which is left to the MessagePack library.
type scanner struct {
	data []byte
	pos  int
}

func (s *scanner) need(n int) bool { return s.pos+n <= len(s.data) }

func (s *scanner) skipN(n int) error {
	if !s.need(n) {
		return errIncomplete
	}
	s.pos += n
	return nil
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	default:
		panic("codec: readUint: unsupported width")
	}
}

// skipLenPrefixed handles str8/16/32 and bin8/16/32: tag, then a length of
// lenBytes, then that many raw bytes.
func (s *scanner) skipLenPrefixed(lenBytes int) error {
	if !s.need(1 + lenBytes) {
		return errIncomplete
	}
	lenStart := s.pos + 1
	length := readUint(s.data[lenStart : lenStart+lenBytes])
	s.pos = lenStart + lenBytes
	return s.skipN(int(length))
}

// skipExt handles ext8/16/32: tag, length of lenBytes, one type byte, then
// that many raw bytes.
func (s *scanner) skipExt(lenBytes int) error {
	if !s.need(1 + lenBytes + 1) {
		return errIncomplete
	}
	lenStart := s.pos + 1
	length := readUint(s.data[lenStart : lenStart+lenBytes])
	s.pos = lenStart + lenBytes + 1
	return s.skipN(int(length))
}

// skipFixExt handles fixext1/2/4/8/16: tag, one type byte, then dataLen
// raw bytes.
func (s *scanner) skipFixExt(dataLen int) error {
	if err := s.skipN(2); err != nil {
		return err
	}
	return s.skipN(dataLen)
}

// skipValue advances past exactly one MessagePack value starting at s.pos,
// recursing into arrays/maps. Returns errIncomplete if the buffered bytes
// run out before the value ends, or a status.InvalidMessage-flavored error
// for a tag this implementation doesn't recognize.
func (s *scanner) skipValue() error {
	if !s.need(1) {
		return errIncomplete
	}
	tag := s.data[s.pos]
	switch {
	case tag <= 0x7f, tag >= 0xe0: // positive/negative fixint
		s.pos++
		return nil
	case tag >= 0x80 && tag <= 0x8f: // fixmap
		n := int(tag & 0x0f)
		s.pos++
		return s.skipValues(2 * n)
	case tag >= 0x90 && tag <= 0x9f: // fixarray
		n := int(tag & 0x0f)
		s.pos++
		return s.skipValues(n)
	case tag >= 0xa0 && tag <= 0xbf: // fixstr
		n := int(tag & 0x1f)
		s.pos++
		return s.skipN(n)
	case tag == 0xc0: // nil
		s.pos++
		return nil
	case tag == 0xc2, tag == 0xc3: // false, true
		s.pos++
		return nil
	case tag == 0xc4: // bin8
		return s.skipLenPrefixed(1)
	case tag == 0xc5: // bin16
		return s.skipLenPrefixed(2)
	case tag == 0xc6: // bin32
		return s.skipLenPrefixed(4)
	case tag == 0xc7: // ext8
		return s.skipExt(1)
	case tag == 0xc8: // ext16
		return s.skipExt(2)
	case tag == 0xc9: // ext32
		return s.skipExt(4)
	case tag == 0xca: // float32
		s.pos++
		return s.skipN(4)
	case tag == 0xcb: // float64
		s.pos++
		return s.skipN(8)
	case tag == 0xcc: // uint8
		s.pos++
		return s.skipN(1)
	case tag == 0xcd: // uint16
		s.pos++
		return s.skipN(2)
	case tag == 0xce: // uint32
		s.pos++
		return s.skipN(4)
	case tag == 0xcf: // uint64
		s.pos++
		return s.skipN(8)
	case tag == 0xd0: // int8
		s.pos++
		return s.skipN(1)
	case tag == 0xd1: // int16
		s.pos++
		return s.skipN(2)
	case tag == 0xd2: // int32
		s.pos++
		return s.skipN(4)
	case tag == 0xd3: // int64
		s.pos++
		return s.skipN(8)
	case tag == 0xd4: // fixext1
		return s.skipFixExt(1)
	case tag == 0xd5: // fixext2
		return s.skipFixExt(2)
	case tag == 0xd6: // fixext4
		return s.skipFixExt(4)
	case tag == 0xd7: // fixext8
		return s.skipFixExt(8)
	case tag == 0xd8: // fixext16
		return s.skipFixExt(16)
	case tag == 0xd9: // str8
		return s.skipLenPrefixed(1)
	case tag == 0xda: // str16
		return s.skipLenPrefixed(2)
	case tag == 0xdb: // str32
		return s.skipLenPrefixed(4)
	case tag == 0xdc: // array16
		return s.skipArray(2)
	case tag == 0xdd: // array32
		return s.skipArray(4)
	case tag == 0xde: // map16
		return s.skipMap(2)
	case tag == 0xdf: // map32
		return s.skipMap(4)
	default:
		return status.Newf(status.InvalidMessage, "unrecognized msgpack tag 0x%02x", tag)
	}
}

func (s *scanner) skipValues(n int) error {
	for i := 0; i < n; i++ {
		if err := s.skipValue(); err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) skipArray(lenBytes int) error {
	if !s.need(1 + lenBytes) {
		return errIncomplete
	}
	lenStart := s.pos + 1
	n := readUint(s.data[lenStart : lenStart+lenBytes])
	s.pos = lenStart + lenBytes
	return s.skipValues(int(n))
}

func (s *scanner) skipMap(lenBytes int) error {
	if !s.need(1 + lenBytes) {
		return errIncomplete
	}
	lenStart := s.pos + 1
	n := readUint(s.data[lenStart : lenStart+lenBytes])
	s.pos = lenStart + lenBytes
	return s.skipValues(2 * int(n))
}

// scanFrameLength reports how many leading bytes of data make up one
// complete top-level MessagePack value. It returns (0, nil) when data holds
// a valid but incomplete prefix ("need more bytes", §4.1's try_parse
// contract), and a status.InvalidMessage error for malformed tags.
func scanFrameLength(data []byte) (int, error) {
	s := &scanner{data: data}
	err := s.skipValue()
	if err == nil {
		return s.pos, nil
	}
	if errors.Is(err, errIncomplete) {
		return 0, nil
	}
	return 0, err
}

// arrayElementCount reports the tag's declared array arity and the offset
// just past the length header, or ok=false if the tag isn't an array at all.
func arrayElementCount(data []byte) (n int, headerLen int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	tag := data[0]
	switch {
	case tag >= 0x90 && tag <= 0x9f:
		return int(tag & 0x0f), 1, true
	case tag == 0xdc:
		if len(data) < 3 {
			return 0, 0, false
		}
		return int(binary.BigEndian.Uint16(data[1:3])), 3, true
	case tag == 0xdd:
		if len(data) < 5 {
			return 0, 0, false
		}
		return int(binary.BigEndian.Uint32(data[1:5])), 5, true
	default:
		return 0, 0, false
	}
}

// splitTopLevelArray decomposes a complete, already-length-known MessagePack
// array frame into the Raw byte ranges of each of its elements, without
// decoding their contents.
func splitTopLevelArray(frame []byte) ([][]byte, error) {
	n, headerLen, ok := arrayElementCount(frame)
	if !ok {
		return nil, status.New(status.InvalidMessage, "top-level msgpack-rpc frame must be an array")
	}
	s := &scanner{data: frame, pos: headerLen}
	elems := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		start := s.pos
		if err := s.skipValue(); err != nil {
			if errors.Is(err, errIncomplete) {
				return nil, status.New(status.InvalidMessage, "frame array element truncated")
			}
			return nil, err
		}
		elems = append(elems, frame[start:s.pos])
	}
	if s.pos != len(frame) {
		return nil, status.New(status.InvalidMessage, "trailing bytes after frame array")
	}
	return elems, nil
}
