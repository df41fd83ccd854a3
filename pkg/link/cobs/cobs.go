package cobs

// Delimiter terminates every encoded frame.
const Delimiter byte = 0

// MaxEncodedLen returns the worst case size of an encoded frame for
// n bytes of payload, including the delimiter.
func MaxEncodedLen(n int) int {
	return n + n/254 + 2
}

// Encode encodes payload and appends the delimiter.
func Encode(payload []byte) []byte {
	dst := make([]byte, 1, MaxEncodedLen(len(payload)))
	codeAt, code := 0, byte(1)
	for _, b := range payload {
		if b != 0 {
			dst = append(dst, b)
			if code++; code != 0xff {
				continue
			}
		}
		dst[codeAt] = code
		codeAt, code = len(dst), 1
		dst = append(dst, 0)
	}
	dst[codeAt] = code
	return append(dst, Delimiter)
}

// Decode decodes a single frame. The trailing delimiter is optional.
func Decode(frame []byte) ([]byte, error) {
	if n := len(frame); n > 0 && frame[n-1] == Delimiter {
		frame = frame[:n-1]
	}
	if len(frame) == 0 {
		return nil, ErrEmpty
	}
	dst := make([]byte, 0, len(frame))
	for pos := 0; pos < len(frame); {
		code := frame[pos]
		if code == 0 {
			return nil, ErrUnexpectedZero
		}
		pos++
		end := pos + int(code) - 1
		if end > len(frame) {
			return nil, ErrTruncated
		}
		for ; pos < end; pos++ {
			if frame[pos] == 0 {
				return nil, ErrUnexpectedZero
			}
			dst = append(dst, frame[pos])
		}
		if code != 0xff && pos < len(frame) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}
