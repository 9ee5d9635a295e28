package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Short code space: A001..A999, B001..B999, ... Z999.
const (
	codeLetters = 26
	codeNumbers = 999
	CodeSpace   = codeLetters * codeNumbers
)

var ErrCodeSpaceExhausted = errors.New("short code space exhausted")

var codePattern = regexp.MustCompile(`^[A-Z][0-9]{3}$`)

// CodeAt returns the code at position idx of the A001..Z999 sequence.
func CodeAt(idx int) (string, error) {
	if idx < 0 || idx >= CodeSpace {
		return "", fmt.Errorf("code index %d out of range", idx)
	}
	letter := rune('A' + idx/codeNumbers)
	number := idx%codeNumbers + 1
	return fmt.Sprintf("%c%03d", letter, number), nil
}

// CodeIndex is the inverse of CodeAt.
func CodeIndex(code string) (int, bool) {
	if !IsValidCode(code) {
		return 0, false
	}
	number, err := strconv.Atoi(code[1:])
	if err != nil {
		return 0, false
	}
	return int(code[0]-'A')*codeNumbers + number - 1, true
}

// IsValidCode reports whether code has the letter+3 digits form (000 is not issued).
func IsValidCode(code string) bool {
	return codePattern.MatchString(code) && code[1:] != "000"
}

// FirstFreeCode scans the whole space in order and returns the first code not in used.
func FirstFreeCode(used map[string]struct{}) (string, error) {
	return NextFreeCode(0, func(code string) bool {
		_, ok := used[code]
		return ok
	})
}

// NextFreeCode walks the space starting at start (wrapping once) and returns
// the first code for which taken is false.
func NextFreeCode(start int, taken func(code string) bool) (string, error) {
	if start < 0 || start >= CodeSpace {
		start = 0
	}
	for i := 0; i < CodeSpace; i++ {
		code, _ := CodeAt((start + i) % CodeSpace)
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
