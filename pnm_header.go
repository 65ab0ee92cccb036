package bitmap

import (
	"fmt"
	"strconv"
)

// pnmHeader is the parsed intermediate for every PNM-family variant. Only
// the fields relevant to the variant in Magic are populated.
type pnmHeader struct {
	Magic      string
	Width      uint32
	Height     uint32
	Maxval     uint32
	Scale      float32
	TupleType  string
	Depth      uint32
	bodyOffset int
}

var pamCanonicalDepth = map[string]uint32{
	"BLACKANDWHITE":   1,
	"GRAYSCALE":       1,
	"GRAYSCALE_ALPHA": 2,
	"RGB":             3,
	"RGB_ALPHA":       4,
}

func isPNMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// skipSpaceAndComments advances past whitespace and '#'-to-end-of-line
// comments, which the grammar permits anywhere between tokens.
func skipSpaceAndComments(r *byteReader) error {
	for {
		b, err := r.peekU8()
		if err != nil {
			return err
		}
		switch {
		case isPNMSpace(b):
			r.skip(1)
		case b == '#':
			for {
				c, err := r.readU8()
				if err != nil {
					return err
				}
				if c == '\n' {
					break
				}
			}
		default:
			return nil
		}
	}
}

// readToken skips leading whitespace/comments then returns the run of
// non-whitespace bytes that follows. It does not consume the delimiter
// that ends the token.
func readToken(r *byteReader) ([]byte, error) {
	if err := skipSpaceAndComments(r); err != nil {
		return nil, err
	}
	start := r.pos
	for {
		b, err := r.peekU8()
		if err != nil {
			if start == r.pos {
				return nil, err
			}
			break
		}
		if isPNMSpace(b) || b == '#' {
			break
		}
		r.skip(1)
	}
	if start == r.pos {
		return nil, newError(KindBadHeader, "empty token")
	}
	return r.b[start:r.pos], nil
}

func parseUintToken(r *byteReader) (uint32, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(tok), 10, 32)
	if err != nil {
		return 0, wrapError(KindBadHeader, err, fmt.Sprintf("invalid integer %q", tok))
	}
	return uint32(v), nil
}

func parseFloatToken(r *byteReader) (float32, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(tok), 32)
	if err != nil {
		return 0, wrapError(KindBadHeader, err, fmt.Sprintf("invalid float %q", tok))
	}
	return float32(v), nil
}

// consumeSingleWS consumes exactly one byte, which must be whitespace: the
// maxval/scale terminator is specified as a single byte consumed exactly
// once, not a whitespace run.
func consumeSingleWS(r *byteReader) error {
	b, err := r.readU8()
	if err != nil {
		return err
	}
	if !isPNMSpace(b) {
		return newError(KindBadHeader, "expected single whitespace terminator")
	}
	return nil
}

// parsePNMHeader dispatches on the 2-byte magic and returns the parsed
// header along with nothing else; the caller re-slices the input at
// header.bodyOffset to reach the pixel payload.
func parsePNMHeader(data []byte) (pnmHeader, error) {
	r := newByteReader(data)
	magic, err := r.readSlice(2)
	if err != nil {
		return pnmHeader{}, newError(KindTruncated, "not enough bytes for PNM magic")
	}
	switch string(magic) {
	case "P5", "P6":
		return parsePPMHeader(r, string(magic))
	case "P7":
		return parsePAMHeader(r)
	case "Pf", "PF":
		return parsePFMHeader(r, string(magic))
	default:
		return pnmHeader{}, newError(KindBadMagic, "not a PNM file")
	}
}

func parsePPMHeader(r *byteReader, magic string) (pnmHeader, error) {
	width, err := parseUintToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	height, err := parseUintToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	maxval, err := parseUintToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	if err := consumeSingleWS(r); err != nil {
		return pnmHeader{}, err
	}
	if width < 1 || height < 1 {
		return pnmHeader{}, newError(KindBadHeader, "width and height must be >= 1")
	}
	if maxval < 1 || maxval > 65535 {
		return pnmHeader{}, newError(KindBadHeader, "maxval out of range")
	}
	return pnmHeader{Magic: magic, Width: width, Height: height, Maxval: maxval, bodyOffset: r.position()}, nil
}

func parsePFMHeader(r *byteReader, magic string) (pnmHeader, error) {
	width, err := parseUintToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	height, err := parseUintToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	scale, err := parseFloatToken(r)
	if err != nil {
		return pnmHeader{}, err
	}
	if err := consumeSingleWS(r); err != nil {
		return pnmHeader{}, err
	}
	if width < 1 || height < 1 {
		return pnmHeader{}, newError(KindBadHeader, "width and height must be >= 1")
	}
	if scale == 0 {
		return pnmHeader{}, newError(KindBadHeader, "PFM scale must be non-zero")
	}
	return pnmHeader{Magic: magic, Width: width, Height: height, Scale: scale, bodyOffset: r.position()}, nil
}

func readPAMLine(r *byteReader) ([]byte, error) {
	start := r.pos
	for {
		b, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if b == '\n' {
			return r.b[start : r.pos-1], nil
		}
	}
}

func trimPAMSpace(b []byte) []byte {
	for len(b) > 0 && isPNMSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isPNMSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func parsePAMHeader(r *byteReader) (pnmHeader, error) {
	nl, err := r.readU8()
	if err != nil {
		return pnmHeader{}, err
	}
	if nl != '\n' {
		return pnmHeader{}, newError(KindBadHeader, "P7 magic must be followed by newline")
	}
	h := pnmHeader{Magic: "P7"}
	var haveWidth, haveHeight, haveDepth, haveMaxval bool
	for {
		line, err := readPAMLine(r)
		if err != nil {
			return pnmHeader{}, err
		}
		line = trimPAMSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if string(line) == "ENDHDR" {
			break
		}
		key, val := splitPAMKV(line)
		switch key {
		case "WIDTH":
			v, err := strconv.ParseUint(string(val), 10, 32)
			if err != nil {
				return pnmHeader{}, wrapError(KindBadHeader, err, "invalid WIDTH")
			}
			h.Width, haveWidth = uint32(v), true
		case "HEIGHT":
			v, err := strconv.ParseUint(string(val), 10, 32)
			if err != nil {
				return pnmHeader{}, wrapError(KindBadHeader, err, "invalid HEIGHT")
			}
			h.Height, haveHeight = uint32(v), true
		case "DEPTH":
			v, err := strconv.ParseUint(string(val), 10, 32)
			if err != nil {
				return pnmHeader{}, wrapError(KindBadHeader, err, "invalid DEPTH")
			}
			h.Depth, haveDepth = uint32(v), true
		case "MAXVAL":
			v, err := strconv.ParseUint(string(val), 10, 32)
			if err != nil {
				return pnmHeader{}, wrapError(KindBadHeader, err, "invalid MAXVAL")
			}
			h.Maxval, haveMaxval = uint32(v), true
		case "TUPLTYPE":
			h.TupleType = string(val)
		}
	}
	if !haveWidth || !haveHeight || !haveDepth || !haveMaxval {
		return pnmHeader{}, newError(KindBadHeader, "P7 header missing required key")
	}
	if h.Width < 1 || h.Height < 1 {
		return pnmHeader{}, newError(KindBadHeader, "width and height must be >= 1")
	}
	if h.Maxval < 1 || h.Maxval > 65535 {
		return pnmHeader{}, newError(KindBadHeader, "maxval out of range")
	}
	if want, ok := pamCanonicalDepth[h.TupleType]; ok && want != h.Depth {
		return pnmHeader{}, newErrorf(KindBadHeader, "TUPLTYPE %s requires DEPTH %d, got %d", h.TupleType, want, h.Depth)
	}
	h.bodyOffset = r.position()
	return h, nil
}

func splitPAMKV(line []byte) (string, []byte) {
	i := 0
	for i < len(line) && !isPNMSpace(line[i]) {
		i++
	}
	key := string(line[:i])
	for i < len(line) && isPNMSpace(line[i]) {
		i++
	}
	return key, line[i:]
}
