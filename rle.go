package psd

// unpackBits decodes one PackBits scanline from src into dst and returns the number of
// bytes written. Output stops when dst is full; truncated input leaves the rest zero.
func unpackBits(dst, src []byte) int {
	pos, idx := 0, 0
	for pos < len(dst) && idx < len(src) {
		n := int(src[idx])
		idx++

		switch {
		case n < 128:
			// Copy next n+1 bytes literally
			n++
			for i := 0; i < n && pos < len(dst) && idx < len(src); i++ {
				dst[pos] = src[idx]
				pos++
				idx++
			}
		case n > 128:
			// Repeat next byte 257-n times
			n = 257 - n
			if idx >= len(src) {
				return pos
			}
			val := src[idx]
			idx++
			for i := 0; i < n && pos < len(dst); i++ {
				dst[pos] = val
				pos++
			}
		}
		// 128 is a no-op
	}
	return pos
}

// decodeRLEChannel decodes a layer channel: a table of per-row byte counts followed by
// the packed rows.
func decodeRLEChannel(data []byte, width, height int) []byte {
	if width <= 0 || height <= 0 {
		return []byte{}
	}

	counts := make([]int, height)
	offset := 0
	for i := 0; i < height && offset+1 < len(data); i++ {
		counts[i] = int(data[offset])<<8 | int(data[offset+1])
		offset += 2
	}

	result := make([]byte, width*height)
	for row := 0; row < height; row++ {
		if counts[row] == 0 {
			continue
		}
		end := offset + counts[row]
		if end > len(data) {
			end = len(data)
		}
		if offset < end {
			unpackBits(result[row*width:(row+1)*width], data[offset:end])
		}
		offset = end
	}
	return result
}
