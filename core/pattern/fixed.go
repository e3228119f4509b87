package pattern

// FixedLength returns the number of characters every match of pattern has,
// or false as soon as any component can match a variable number of them.
//
// Literal characters, ?, one bracket expression, an escaped character and
// @(...) groups whose alternatives all share one fixed length are fixed.
func FixedLength(pattern string, extglob bool) (int, bool) {
	return fixedLength([]rune(pattern), extglob)
}

func fixedLength(p []rune, extglob bool) (int, bool) {
	n := 0
	for i := 0; i < len(p); i++ {
		c := p[i]

		if extglob && isExtOp(c) && i+1 < len(p) && p[i+1] == '(' {
			if end := closeParen(p, i+1); end >= 0 {
				if c != '@' {
					return 0, false
				}
				length, ok := fixedAlternatives(splitAlternatives(p[i+2:end]), extglob)
				if !ok {
					return 0, false
				}
				n += length
				i = end
				continue
			}
		}

		switch c {
		case '*':
			return 0, false
		case '[':
			if _, end, ok := bracket(p, i); ok {
				i = end
			}
		case '\\':
			if i+1 < len(p) {
				i++
			}
		}
		n++
	}
	return n, true
}

// fixedAlternatives returns the shared fixed length of all alternatives.
func fixedAlternatives(alts [][]rune, extglob bool) (int, bool) {
	length := -1
	for _, alt := range alts {
		n, ok := fixedLength(alt, extglob)
		if !ok {
			return 0, false
		}
		if length >= 0 && n != length {
			return 0, false
		}
		length = n
	}
	if length < 0 {
		return 0, true
	}
	return length, true
}
