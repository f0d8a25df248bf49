package formula

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/vegasq/tabular/data"
)

func init() {
	register(FunctionUppercase, "UPPERCASE", Fixed(1), true, applyUppercase)
	register(FunctionLowercase, "LOWERCASE", Fixed(1), true, applyLowercase)
	register(FunctionLeft, "LEFT", Fixed(2), true, applyLeft)
	register(FunctionRight, "RIGHT", Fixed(2), true, applyRight)
	register(FunctionMid, "MID", Fixed(3), true, applyMid)
	register(FunctionLength, "LENGTH", Fixed(1), true, applyLength)
	register(FunctionTrim, "TRIM", Fixed(1), true, applyTrim)
	register(FunctionCapitalize, "CAPITALIZE", Fixed(1), true, applyCapitalize)
	register(FunctionSubstitute, "SUBSTITUTE", Fixed(3), true, applySubstitute)
	register(FunctionRegexSubstitute, "REGEX.SUBSTITUTE", Fixed(3), true, applyRegexSubstitute)
	register(FunctionSplit, "SPLIT", Between(1, 2), true, applySplit)
	register(FunctionNth, "NTH", Fixed(2), true, applyNth)
	register(FunctionItems, "ITEMS", Fixed(1), true, applyItems)
	register(FunctionConcat, "CONCAT", AtLeast(1), true, applyConcat)
	register(FunctionURLEncode, "URL.ENCODE", Fixed(1), true, applyURLEncode)
	register(FunctionLevenshtein, "LEVENSHTEIN", Fixed(2), true, applyLevenshtein)
}

func applyUppercase(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	return data.String(strings.ToUpper(s))
}

func applyLowercase(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	return data.String(strings.ToLower(s))
}

// applyLeft takes the first n characters. A span longer than the string
// is Invalid, not a clamp: only Mid clamps, and only on the far side.
func applyLeft(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	n, nok := args[1].IntValue()
	if !sok || !nok || n < 0 {
		return data.Invalid
	}
	runes := []rune(s)
	if int(n) > len(runes) {
		return data.Invalid
	}
	return data.String(string(runes[:n]))
}

func applyRight(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	n, nok := args[1].IntValue()
	if !sok || !nok || n < 0 {
		return data.Invalid
	}
	runes := []rune(s)
	if int(n) > len(runes) {
		return data.Invalid
	}
	return data.String(string(runes[len(runes)-int(n):]))
}

// applyMid extracts length characters starting at the 0-based start
// offset. A start beyond the string is Invalid; the far side clamps.
func applyMid(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	start, stok := args[1].IntValue()
	length, lok := args[2].IntValue()
	if !sok || !stok || !lok || start < 0 || length < 0 {
		return data.Invalid
	}
	runes := []rune(s)
	if int(start) > len(runes) {
		return data.Invalid
	}
	end := int(start + length)
	if end > len(runes) {
		end = len(runes)
	}
	return data.String(string(runes[start:end]))
}

func applyLength(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	return data.Int(int64(len([]rune(s))))
}

func applyTrim(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	return data.String(strings.TrimSpace(s))
}

func applyCapitalize(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return data.String(strings.Join(words, " "))
}

func applySubstitute(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	find, fok := args[1].StringValue()
	repl, rok := args[2].StringValue()
	if !sok || !fok || !rok {
		return data.Invalid
	}
	return data.String(strings.ReplaceAll(s, find, repl))
}

func applyRegexSubstitute(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	pattern, pok := args[1].StringValue()
	repl, rok := args[2].StringValue()
	if !sok || !pok || !rok {
		return data.Invalid
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return data.Invalid
	}
	return data.String(re.ReplaceAllString(s, repl))
}

func applySplit(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	sep := " "
	if len(args) > 1 {
		var sok bool
		sep, sok = args[1].StringValue()
		if !sok {
			return data.Invalid
		}
	}
	parts := strings.Split(s, sep)
	values := make([]data.Value, len(parts))
	for i, p := range parts {
		values[i] = data.String(p)
	}
	return packValues(values)
}

// applyNth looks up a 1-based item in a pack.
func applyNth(args []data.Value) data.Value {
	s, sok := args[0].StringValue()
	idx, iok := args[1].IntValue()
	if !sok || !iok {
		return data.Invalid
	}
	items := unpack(s)
	if idx < 1 || int(idx) > len(items) {
		return data.Invalid
	}
	return data.String(items[idx-1])
}

func applyItems(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	if s == "" {
		return data.Int(0)
	}
	return data.Int(int64(len(unpack(s))))
}

func applyConcat(args []data.Value) data.Value {
	var b strings.Builder
	for _, a := range args {
		s, ok := a.StringValue()
		if !ok {
			return data.Invalid
		}
		b.WriteString(s)
	}
	return data.String(b.String())
}

func applyURLEncode(args []data.Value) data.Value {
	s, ok := args[0].StringValue()
	if !ok {
		return data.Invalid
	}
	return data.String(url.QueryEscape(s))
}

func applyLevenshtein(args []data.Value) data.Value {
	a, aok := args[0].StringValue()
	b, bok := args[1].StringValue()
	if !aok || !bok {
		return data.Invalid
	}
	return data.Int(int64(levenshtein([]rune(a), []rune(b))))
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// packEscaper encodes values into the pack string form: items joined by
// commas, with "$" escaped as "$0" and "," as "$1" inside an item.
var packEscaper = strings.NewReplacer("$", "$0", ",", "$1")
var packUnescaper = strings.NewReplacer("$1", ",", "$0", "$")

func packValues(values []data.Value) data.Value {
	parts := make([]string, len(values))
	for i, v := range values {
		s, ok := v.StringValue()
		if !ok {
			return data.Invalid
		}
		parts[i] = packEscaper.Replace(s)
	}
	return data.String(strings.Join(parts, ","))
}

func unpack(pack string) []string {
	if pack == "" {
		return nil
	}
	parts := strings.Split(pack, ",")
	for i, p := range parts {
		parts[i] = packUnescaper.Replace(p)
	}
	return parts
}
