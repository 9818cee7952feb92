package psd

import (
	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BE      = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	utf16WithBOM = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
)

// decodeUTF16BE decodes big-endian UTF-16, handling surrogate pairs. Trailing NUL
// terminators written by Photoshop are dropped.
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	out, err := utf16BE.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return trimNUL(string(out))
}

// decodeEngineString decodes an engine data string literal. Literals starting with a
// FE FF byte order mark are UTF-16, anything else is taken as-is.
func decodeEngineString(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		out, err := utf16WithBOM.NewDecoder().Bytes(raw)
		if err != nil {
			return ""
		}
		return trimNUL(string(out))
	}
	return string(raw)
}

func trimNUL(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}
