package ops

import "testing"

type ReverseSuite struct {
	t *testing.T
}

func (s *ReverseSuite) TestReverse() {
	if got := reverse("abc"); got != "cba" {
		s.t.Fatalf("reverse(%q) = %q", "abc", got)
	}
}

func reverse(in string) string {
	runes := []rune(in)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
