package communicate

import (
	"bytes"
	"strings"
	"testing"
)

func TestSplitTextByByteLength_Invariants(t *testing.T) {
	inputs := []string{
		"",
		"hi",
		"the quick brown fox jumps over the lazy dog",
		strings.Repeat("word ", 100),
		strings.Repeat("x", 257),
		"foo &amp; bar &lt;tag&gt; baz",
		"no-spaces-" + strings.Repeat("y", 64),
	}
	budgets := []int{1, 2, 7, 16, 64, 1000}

	for _, input := range inputs {
		for _, budget := range budgets {
			chunks, err := splitTextByByteLength([]byte(input), budget)
			if err != nil {
				t.Fatalf("budget %d input %q: %v", budget, input, err)
			}

			var joined []byte
			for _, chunk := range chunks {
				if len(chunk) == 0 {
					t.Errorf("budget %d input %q: empty chunk emitted", budget, input)
				}
				if len(chunk) > budget {
					t.Errorf("budget %d input %q: chunk %q exceeds budget", budget, input, chunk)
				}
				joined = append(joined, chunk...)
			}
			if !bytes.Equal(joined, []byte(input)) {
				t.Errorf("budget %d input %q: chunks do not concatenate to input: %q", budget, input, joined)
			}
		}
	}
}

func TestSplitTextByByteLength_ExactBudget(t *testing.T) {
	input := []byte(strings.Repeat("a", 32))
	chunks, err := splitTextByByteLength(input, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("input of exactly budget bytes should produce one chunk, got %d", len(chunks))
	}
}

func TestSplitTextByByteLength_BudgetPlusOne(t *testing.T) {
	// With a space present the split lands after it.
	chunks, err := splitTextByByteLength([]byte("aaaa bbbb"), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if string(chunks[0]) != "aaaa " || string(chunks[1]) != "bbbb" {
		t.Errorf("unexpected split: %q", chunks)
	}

	// Without any boundary the split falls at the hard limit.
	chunks, err = splitTextByByteLength([]byte("aaaabbbbc"), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 || string(chunks[0]) != "aaaabbbb" || string(chunks[1]) != "c" {
		t.Errorf("unexpected hard split: %q", chunks)
	}
}

func TestSplitTextByByteLength_EntityNotSevered(t *testing.T) {
	// Budget chosen so the window ends between "&" and ";".
	input := []byte("foo &amp; bar")
	chunks, err := splitTextByByteLength(input, 7)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunks[0]) != "foo " {
		t.Errorf("first chunk should end before the entity, got %q", chunks[0])
	}
	if !strings.HasPrefix(string(chunks[1]), "&amp;") {
		t.Errorf("second chunk should begin with the intact entity, got %q", chunks[1])
	}
	for _, chunk := range chunks {
		s := string(chunk)
		if idx := strings.LastIndexByte(s, '&'); idx != -1 && !strings.Contains(s[idx:], ";") {
			t.Errorf("chunk %q severs an entity", s)
		}
	}
}

func TestSplitTextByByteLength_EntityWalkback(t *testing.T) {
	// No space in the window; the split retreats to the ampersand.
	input := []byte("abc&amp;xyz")
	chunks, err := splitTextByByteLength(input, 6)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunks[0]) != "abc" {
		t.Errorf("expected first chunk %q, got %q", "abc", chunks[0])
	}
	if string(chunks[1])[0] != '&' {
		t.Errorf("second chunk should start at the entity, got %q", chunks[1])
	}
}

func TestSplitTextByByteLength_LeadingUnterminatedEntity(t *testing.T) {
	// An unterminated entity wider than the whole window cannot yield a
	// non-zero split point, so the hard limit applies.
	input := []byte("&aaaaaaaaaaaa")
	chunks, err := splitTextByByteLength(input, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(chunks[0]) != "&aaa" {
		t.Errorf("expected hard split %q, got %q", "&aaa", chunks[0])
	}
}

func TestSplitTextByByteLength_InvalidBudget(t *testing.T) {
	for _, budget := range []int{0, -1} {
		if _, err := splitTextByByteLength([]byte("text"), budget); err == nil {
			t.Errorf("budget %d should be rejected", budget)
		}
	}
}
