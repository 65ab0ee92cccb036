package bitmap

// decodeRLE implements the RLE4/RLE8 opcode state machine: encoded runs
// (count, value), and escape codes 0=EOL, 1=EOF, 2=Delta(dx,dy), and
// absolute mode (literal run, byte/nibble-padded to a word boundary).
// It returns one palette index per pixel, addressed top-down regardless
// of the source's row order.
func decodeRLE(body []byte, width, height, bpp int, topDown bool, perm BmpPermissiveness) ([]byte, error) {
	canvas := make([]byte, width*height)
	r := newByteReader(body)
	x, y := 0, 0

	putRow := func(yy int) int {
		if topDown {
			return yy
		}
		return height - 1 - yy
	}
	writeRun := func(count int, val byte) error {
		if y >= height {
			return nil
		}
		row := putRow(y)
		for i := 0; i < count; i++ {
			if x >= width {
				if perm == BmpStrict {
					return newError(KindBadRLE, "encoded run overruns row width")
				}
				break
			}
			var idx byte
			if bpp == 8 {
				idx = val
			} else if i%2 == 0 {
				idx = val >> 4
			} else {
				idx = val & 0x0F
			}
			canvas[row*width+x] = idx
			x++
		}
		return nil
	}

	for {
		count, err := r.readU8()
		if err != nil {
			if perm == BmpStrict {
				return nil, newError(KindTruncated, "RLE stream truncated without EOF marker")
			}
			break
		}
		if count > 0 {
			val, err := r.readU8()
			if err != nil {
				return nil, newError(KindTruncated, "RLE encoded run truncated")
			}
			if err := writeRun(int(count), val); err != nil {
				return nil, err
			}
			continue
		}
		marker, err := r.readU8()
		if err != nil {
			return nil, newError(KindTruncated, "RLE escape code truncated")
		}
		switch marker {
		case 0: // EOL
			x = 0
			y++
		case 1: // EOF
			return canvas, nil
		case 2: // Delta
			dx, err := r.readU8()
			if err != nil {
				return nil, newError(KindTruncated, "RLE delta truncated")
			}
			dy, err := r.readU8()
			if err != nil {
				return nil, newError(KindTruncated, "RLE delta truncated")
			}
			x += int(dx)
			y += int(dy)
		default: // absolute mode: marker literal indices follow
			n := int(marker)
			var nbytes int
			if bpp == 8 {
				nbytes = n
			} else {
				nbytes = (n + 1) / 2
			}
			if nbytes%2 != 0 {
				nbytes++
			}
			lit, err := r.readSlice(nbytes)
			if err != nil {
				return nil, newError(KindTruncated, "RLE absolute run truncated")
			}
			if y < height {
				row := putRow(y)
				for i := 0; i < n; i++ {
					if x >= width {
						if perm == BmpStrict {
							return nil, newError(KindBadRLE, "absolute run overruns row width")
						}
						break
					}
					var idx byte
					if bpp == 8 {
						idx = lit[i]
					} else if i%2 == 0 {
						idx = lit[i/2] >> 4
					} else {
						idx = lit[i/2] & 0x0F
					}
					canvas[row*width+x] = idx
					x++
				}
			}
		}
		if y > height {
			if perm == BmpStrict {
				return nil, newError(KindBadRLE, "RLE stream advances past declared height")
			}
			return canvas, nil
		}
	}
	return canvas, nil
}
