// Package identity validates Turkish identity and financial formats.
// All functions are pure and safe for concurrent use.
package identity

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^(05\d{9}|0[2-4]\d{8})$`)
	ibanPattern  = regexp.MustCompile(`^TR\d{24}$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

// IsValidTCKN validates a Turkish national identity number: exactly 11
// digits, no leading zero, and a two-stage checksum over the digits.
func IsValidTCKN(s string) bool {
	if len(s) != 11 {
		return false
	}
	if s[0] == '0' {
		return false
	}

	var d [11]int
	for i := 0; i < 11; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d[i] = int(c - '0')
	}

	// Stage one: weighted difference of the first nine digits. The
	// subtraction can go negative, so reduce with a Euclidean modulo
	// rather than Go's truncating remainder.
	sumOdd := d[0] + d[2] + d[4] + d[6] + d[8]
	sumEven := d[1] + d[3] + d[5] + d[7]
	check10 := ((sumOdd*7-sumEven)%10 + 10) % 10
	if check10 != d[9] {
		return false
	}

	// Stage two: plain digit sum of the first ten digits.
	sumAll := 0
	for i := 0; i < 10; i++ {
		sumAll += d[i]
	}
	return sumAll%10 == d[10]
}

// IsValidTurkishPhone validates a Turkish phone number after stripping
// formatting: 05 plus nine digits for mobile, or 0 plus an area code
// starting with 2, 3 or 4 and eight digits for landline.
func IsValidTurkishPhone(s string) bool {
	cleaned := nonDigits.ReplaceAllString(s, "")
	return phonePattern.MatchString(cleaned)
}

// IsValidTurkishIBAN validates a Turkish IBAN: TR followed by 24
// digits, and the ISO 7064 MOD 97-10 checksum over the rearranged
// account string.
func IsValidTurkishIBAN(s string) bool {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if !ibanPattern.MatchString(cleaned) {
		return false
	}
	return ibanChecksum(cleaned) == 1
}

// ibanChecksum computes the MOD 97-10 remainder: the first four
// characters move to the end, letters map to 10..35, and the resulting
// digit string is reduced mod 97 incrementally.
func ibanChecksum(iban string) int {
	rearranged := iban[4:] + iban[:4]

	rem := 0
	for _, r := range rearranged {
		if r >= '0' && r <= '9' {
			rem = (rem*10 + int(r-'0')) % 97
		} else {
			// A=10 .. Z=35, two digits each
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		}
	}
	return rem
}
