package report

import (
	"fmt"
	"strings"
)

// HexDump renders b sixteen bytes per line, indented by two spaces, with an
// extra space before every eighth byte and the printable ASCII after the
// hex. Every line ends in a newline.
func HexDump(b []byte) string {
	var sb strings.Builder
	for off := 0; off < len(b); off += 16 {
		end := off + 16
		if end > len(b) {
			end = len(b)
		}
		sb.WriteString("  ")
		sb.WriteString(hexLine(b[off:end]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func hexLine(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i%8 == 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x ", v)
	}
	for _, v := range b {
		if v >= 0x20 && v <= 0x7e {
			sb.WriteByte(v)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
