package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Build string from right to left
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// fixedPoint renders v with the given number of fractional digits,
// zero-padding so there is always at least one integer digit.
func fixedPoint(v int64, decimals int) string {
	negative := v < 0
	if negative {
		v = -v
	}

	var buf [24]byte
	pos := len(buf)
	for i := 0; v > 0 || i <= decimals; i++ {
		if i == decimals && decimals > 0 {
			pos--
			buf[pos] = '.'
		}
		pos--
		buf[pos] = byte('0' + v%10)
		v /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
