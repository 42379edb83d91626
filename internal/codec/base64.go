package codec

import "strings"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const padding = '='

var decodeTable = func() [256]byte {
	var table [256]byte
	for i := 0; i < len(alphabet); i++ {
		table[alphabet[i]] = byte(i)
	}
	return table
}()

// Encode returns the standard padded Base64 form of data.
func Encode(data []byte) string {
	var b strings.Builder
	b.Grow((len(data) + 2) / 3 * 4)
	for i := 0; i < len(data); i += 3 {
		remaining := len(data) - i
		var n uint32
		n = uint32(data[i]) << 16
		if remaining > 1 {
			n |= uint32(data[i+1]) << 8
		}
		if remaining > 2 {
			n |= uint32(data[i+2])
		}
		b.WriteByte(alphabet[n>>18&0x3f])
		b.WriteByte(alphabet[n>>12&0x3f])
		if remaining > 1 {
			b.WriteByte(alphabet[n>>6&0x3f])
		} else {
			b.WriteByte(padding)
		}
		if remaining > 2 {
			b.WriteByte(alphabet[n&0x3f])
		} else {
			b.WriteByte(padding)
		}
	}
	return b.String()
}

// EncodeString is Encode over the bytes of s.
func EncodeString(s string) string {
	return Encode([]byte(s))
}

// Decode never fails. Characters outside the alphabet count as zero and
// trailing padding positions produce no output. A final group shorter than
// four characters is treated as if it were padded.
func Decode(s string) []byte {
	out := make([]byte, 0, len(s)/4*3+3)
	for i := 0; i < len(s); i += 4 {
		group := s[i:min(i+4, len(s))]
		var n uint32
		emit := 3
		for j := 0; j < 4; j++ {
			var c byte = padding
			if j < len(group) {
				c = group[j]
			}
			if c == padding {
				if emit > j-1 {
					emit = j - 1
				}
				n <<= 6
				continue
			}
			n = n<<6 | uint32(decodeTable[c])
		}
		if emit < 0 {
			emit = 0
		}
		bytes := [3]byte{byte(n >> 16), byte(n >> 8), byte(n)}
		out = append(out, bytes[:emit]...)
	}
	return out
}

// DecodeString is Decode returning a string.
func DecodeString(s string) string {
	return string(Decode(s))
}

// LooksEncoded reports whether every character of s is in the alphabet or is
// padding and the length is a multiple of four.
func LooksEncoded(s string) bool {
	if s == "" || len(s)%4 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != padding && strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
