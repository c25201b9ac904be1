package conv

// AppendDeci appends a deci-unit value (tenths) as a fixed one-decimal
// string: 261 -> "26.1", -5 -> "-0.5", 0 -> "0.0".
func AppendDeci(dst []byte, deci int32) []byte {
	if deci < 0 {
		dst = append(dst, '-')
		deci = -deci
	}
	var tmp [20]byte
	dst = append(dst, Itoa(tmp[:], int64(deci/10))...)
	return append(dst, '.', byte('0'+deci%10))
}

// FormatDeci is the allocating convenience form of AppendDeci.
func FormatDeci(deci int32) string {
	return string(AppendDeci(nil, deci))
}
