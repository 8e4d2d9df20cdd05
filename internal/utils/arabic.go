package utils

import (
	"strings"
)

const bareAlef = 'ا'

// 四种 alef 写法视为等价
var alefForms = []rune{'ا', 'أ', 'إ', 'آ'}

// maxAlefPositions bounds the variant count to len(alefForms)^2.
const maxAlefPositions = 2

var alefNormalizer = strings.NewReplacer("أ", "ا", "إ", "ا", "آ", "ا")

// NormalizeAlef folds hamza and madda alef forms into the bare alef.
func NormalizeAlef(s string) string {
	return alefNormalizer.Replace(s)
}

// AlefVariants lists every spelling of prefix obtained by substituting the
// four alef forms at its first two alef positions. The normalized spelling
// comes first and the list has no duplicates. A prefix without alef is
// returned unchanged.
func AlefVariants(prefix string) []string {
	normalized := []rune(NormalizeAlef(prefix))

	var positions []int
	for i, r := range normalized {
		if r == bareAlef {
			positions = append(positions, i)
			if len(positions) == maxAlefPositions {
				break
			}
		}
	}
	if len(positions) == 0 {
		return []string{prefix}
	}

	seen := make(map[string]struct{})
	var out []string
	var expand func(text []rune, idx int)
	expand = func(text []rune, idx int) {
		if idx == len(positions) {
			s := string(text)
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
			return
		}
		for _, form := range alefForms {
			next := append([]rune(nil), text...)
			next[positions[idx]] = form
			expand(next, idx+1)
		}
	}
	expand(normalized, 0)
	return out
}

// HasAlefPrefix reports whether title starts with any alef spelling of prefix.
func HasAlefPrefix(title, prefix string) bool {
	for _, v := range AlefVariants(prefix) {
		if strings.HasPrefix(title, v) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes LIKE metacharacters; pair with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
