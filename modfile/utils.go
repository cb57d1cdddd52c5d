package modfile

import (
	"bytes"
)

func convertCstring(data []byte) string {
	i := bytes.IndexByte(data, 0)
	if i == -1 {
		return string(data)
	}
	return string(data[:i])
}

// putCstring writes s into a fixed-size zero-padded field.
// Strings longer than the field are truncated.
func putCstring(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
