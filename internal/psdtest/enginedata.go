package psdtest

import (
	"bytes"
	"fmt"
	"strconv"
)

// TextStyle describes the single style run written by EngineData
type TextStyle struct {
	Font string
	Size float64
	// ARGB, components in [0,1]
	Color         [4]float64
	FauxBold      bool
	FauxItalic    bool
	Underline     bool
	Strikethrough bool
	Tracking      float64
	// Leading of zero writes AutoLeading
	Leading float64
	// Scale ratios; zero omits the key
	HorizontalScale float64
	VerticalScale   float64
	Justification   int
}

// EngineData renders a text engine block with one paragraph run and one style run
func EngineData(text string, style TextStyle) []byte {
	n := len([]rune(text)) + 1

	var buf bytes.Buffer
	buf.WriteString("\n\n<<\n\t/EngineDict\n\t<<\n")
	fmt.Fprintf(&buf, "\t\t/Editor\n\t\t<<\n\t\t\t/Text %s\n\t\t>>\n", EngineString(text+"\r"))
	fmt.Fprintf(&buf, "\t\t/ParagraphRun\n\t\t<<\n\t\t\t/RunArray [\n\t\t\t<<\n\t\t\t\t/ParagraphSheet\n\t\t\t\t<<\n\t\t\t\t\t/DefaultStyleSheet 0\n\t\t\t\t\t/Properties\n\t\t\t\t\t<<\n\t\t\t\t\t\t/Justification %d\n\t\t\t\t\t>>\n\t\t\t\t>>\n\t\t\t>>\n\t\t\t]\n\t\t\t/RunLengthArray [ %d ]\n\t\t>>\n", style.Justification, n)

	buf.WriteString("\t\t/StyleRun\n\t\t<<\n\t\t\t/DefaultRunData\n\t\t\t<<\n\t\t\t\t/StyleSheet\n\t\t\t\t<<\n\t\t\t\t\t/StyleSheetData\n\t\t\t\t\t<<\n\t\t\t\t\t>>\n\t\t\t\t>>\n\t\t\t>>\n")
	buf.WriteString("\t\t\t/RunArray [\n\t\t\t<<\n\t\t\t\t/StyleSheet\n\t\t\t\t<<\n\t\t\t\t\t/StyleSheetData\n\t\t\t\t\t<<\n")
	fmt.Fprintf(&buf, "\t\t\t\t\t\t/Font 0\n\t\t\t\t\t\t/FontSize %s\n", num(style.Size))
	fmt.Fprintf(&buf, "\t\t\t\t\t\t/FauxBold %t\n\t\t\t\t\t\t/FauxItalic %t\n", style.FauxBold, style.FauxItalic)
	if style.Leading > 0 {
		fmt.Fprintf(&buf, "\t\t\t\t\t\t/AutoLeading false\n\t\t\t\t\t\t/Leading %s\n", num(style.Leading))
	} else {
		buf.WriteString("\t\t\t\t\t\t/AutoLeading true\n")
	}
	if style.HorizontalScale > 0 {
		fmt.Fprintf(&buf, "\t\t\t\t\t\t/HorizontalScale %s\n", num(style.HorizontalScale))
	}
	if style.VerticalScale > 0 {
		fmt.Fprintf(&buf, "\t\t\t\t\t\t/VerticalScale %s\n", num(style.VerticalScale))
	}
	fmt.Fprintf(&buf, "\t\t\t\t\t\t/Tracking %s\n", num(style.Tracking))
	fmt.Fprintf(&buf, "\t\t\t\t\t\t/Underline %t\n\t\t\t\t\t\t/Strikethrough %t\n", style.Underline, style.Strikethrough)
	fmt.Fprintf(&buf, "\t\t\t\t\t\t/FillColor\n\t\t\t\t\t\t<<\n\t\t\t\t\t\t\t/Type 1\n\t\t\t\t\t\t\t/Values [ %s %s %s %s ]\n\t\t\t\t\t\t>>\n",
		num(style.Color[0]), num(style.Color[1]), num(style.Color[2]), num(style.Color[3]))
	buf.WriteString("\t\t\t\t\t>>\n\t\t\t\t>>\n\t\t\t>>\n\t\t\t]\n")
	fmt.Fprintf(&buf, "\t\t\t/RunLengthArray [ %d ]\n\t\t\t/IsJoinable 1\n\t\t>>\n\t>>\n", n)

	fmt.Fprintf(&buf, "\t/ResourceDict\n\t<<\n\t\t/FontSet [\n\t\t<<\n\t\t\t/Name %s\n\t\t\t/Script 0\n\t\t\t/FontType 1\n\t\t\t/Synthetic 0\n\t\t>>\n\t\t]\n", EngineString(style.Font))
	buf.WriteString("\t\t/StyleSheetSet [\n\t\t<<\n\t\t\t/Name (Normal RGB)\n\t\t\t/StyleSheetData\n\t\t\t<<\n\t\t\t\t/Font 0\n\t\t\t\t/FontSize 12.0\n\t\t\t>>\n\t\t>>\n\t\t]\n\t>>\n>>")

	return buf.Bytes()
}

// EngineString encodes s as a UTF-16 string literal with a byte order mark
func EngineString(s string) string {
	raw := append([]byte{0xFE, 0xFF}, utf16BE(s)...)

	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, b := range raw {
		if b == '(' || b == ')' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	buf.WriteByte(')')
	return buf.String()
}

func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f == float64(int64(f)) {
		s += ".0"
	}
	return s
}
