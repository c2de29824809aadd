package utils

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// JoinUrl trims the surrounding slashes of every element and joins them with "/".
func JoinUrl(elements ...string) string {
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		e = strings.Trim(e, "/")
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}

// Stamp is the compact local time used in export directory and file names.
func Stamp(t time.Time) string {
	return t.Format("20060102-150405")
}

// LogTimestamp renders the progress line prefix, e.g. [2016-Jun-07 19:50:19].
func LogTimestamp(t time.Time) string {
	return "[" + t.Format("2006-Jan-02 15:04:05") + "]"
}

// ElapsedToHHMMSS renders a duration as HH:MM:SS.mmm.
func ElapsedToHHMMSS(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms / 60000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func FastHashHex(b []byte) string {
	h := xxhash.New()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

func Obfuscate(str string, clearLen int) string {
	l := len(str)
	if l < clearLen {
		return strings.Repeat("*", utf8.RuneCountInString(str))
	}
	toObfuscate := str[0 : l-clearLen]
	return strings.Repeat("*", utf8.RuneCountInString(toObfuscate)) + str[l-clearLen:l]
}

const passwordLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomPassword returns a string of 12 to 18 letters.
func RandomPassword() string {
	n := 12 + rand.IntN(7)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(passwordLetters[rand.IntN(len(passwordLetters))])
	}
	return sb.String()
}

func DedupStringSlice(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	var result []string
	for _, item := range s {
		if _, ok := seen[item]; !ok {
			seen[item] = struct{}{}
			result = append(result, item)
		}
	}
	return result
}
