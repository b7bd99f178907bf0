package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"supportagent/internal/domain"
)

const sampleFAQ = `ACCOUNT ISSUES

Problem: Cannot log in
Solution:
1. Reset your password by clicking Forgot Password on the login page.
2. Clear your browser cache and cookies.
3. Try a different browser.

Problem: Email verification not received
Solution:
1. Check spam/junk folder
2. Add support@company.com to contacts
3. Request new verification email

BILLING ISSUES

Problem: Unexpected charges on my account
Solution:
1. Check invoice details in Billing section
2. Compare to your subscription plan
3. Email billing@company.com with concern`

func TestNewRecursiveChunkerValidation(t *testing.T) {
	if _, err := NewRecursiveChunker(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewRecursiveChunker(100, 100); err == nil {
		t.Error("expected error when overlap equals chunk size")
	}
	if _, err := NewRecursiveChunker(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
	c, err := NewRecursiveChunker(1000, 200)
	if err != nil {
		t.Fatal(err)
	}
	if c.ChunkSize() != 1000 || c.Overlap() != 200 {
		t.Errorf("unexpected settings %d/%d", c.ChunkSize(), c.Overlap())
	}
}

func TestSplitTextExactOverlap(t *testing.T) {
	texts := map[string]string{
		"faq":        sampleFAQ,
		"no-breaks":  strings.Repeat("abcdefghij", 40),
		"words-only": strings.Repeat("lorem ipsum dolor sit amet ", 30),
		"unicode":    strings.Repeat("héllo wörld ñandú ", 25),
	}
	settings := [][2]int{{50, 10}, {80, 0}, {120, 30}, {64, 63}, {200, 50}, {30, 29}}

	for name, text := range texts {
		for _, s := range settings {
			size, overlap := s[0], s[1]
			chunks := SplitText(text, size, overlap)
			if len(chunks) < 2 {
				t.Fatalf("%s %v: expected multiple chunks, got %d", name, s, len(chunks))
			}

			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > size {
					t.Errorf("%s %v: chunk %d has %d chars, exceeds %d", name, s, i, n, size)
				}
			}

			for i := 0; i < len(chunks)-1; i++ {
				cur := []rune(chunks[i])
				next := []rune(chunks[i+1])
				if len(cur) < overlap || len(next) < overlap {
					t.Fatalf("%s %v: chunk %d too short for overlap", name, s, i)
				}
				tail := string(cur[len(cur)-overlap:])
				head := string(next[:overlap])
				if tail != head {
					t.Errorf("%s %v: chunks %d/%d overlap mismatch: %q vs %q", name, s, i, i+1, tail, head)
				}
			}

			if !strings.HasPrefix(text, chunks[0]) {
				t.Errorf("%s %v: first chunk should start at document start", name, s)
			}
			if !strings.HasSuffix(text, chunks[len(chunks)-1]) {
				t.Errorf("%s %v: last chunk should end at document end", name, s)
			}

			if rebuilt := reassemble(chunks, overlap); rebuilt != text {
				t.Errorf("%s %v: chunks do not reassemble to the original text", name, s)
			}
		}
	}
}

func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func TestSplitTextPrefersParagraphs(t *testing.T) {
	para1 := "Reset your password by clicking Forgot Password on the login page.\n\n"
	para2 := "Invoices are emailed on the first business day of every month."
	chunks := SplitText(para1+para2, 100, 0)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != para1 {
		t.Errorf("expected first chunk to be the first paragraph, got %q", chunks[0])
	}
	if chunks[1] != para2 {
		t.Errorf("expected second chunk to be the second paragraph, got %q", chunks[1])
	}
}

func TestSplitTextFallsBackToCharacters(t *testing.T) {
	text := strings.Repeat("x", 95)
	chunks := SplitText(text, 40, 10)
	for i, c := range chunks {
		if len(c) > 40 {
			t.Errorf("chunk %d too long: %d", i, len(c))
		}
	}
	if rebuilt := reassemble(chunks, 10); rebuilt != text {
		t.Error("character-level chunks should reassemble")
	}
}

func TestSplitTextShortAndEmpty(t *testing.T) {
	if chunks := SplitText("", 100, 10); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
	if chunks := SplitText(" \n\n\t ", 100, 10); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace, got %d", len(chunks))
	}
	chunks := SplitText("Just a single line", 100, 10)
	if len(chunks) != 1 || chunks[0] != "Just a single line" {
		t.Errorf("expected the text unchanged, got %q", chunks)
	}
}

func TestSplitTextIsPure(t *testing.T) {
	a := SplitText(sampleFAQ, 90, 20)
	b := SplitText(sampleFAQ, 90, 20)
	if len(a) != len(b) {
		t.Fatal("repeated calls disagree on chunk count")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated calls disagree at chunk %d", i)
		}
	}
}

func TestRecursiveChunkerMetadata(t *testing.T) {
	c, err := NewRecursiveChunker(120, 30)
	if err != nil {
		t.Fatal(err)
	}

	doc := domain.Document{Source: "troubleshooting.pdf", Page: 3, Text: sampleFAQ}
	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	ids := make(map[string]bool)
	for i, chunk := range chunks {
		if chunk.Metadata.Source != "troubleshooting.pdf" || chunk.Metadata.Page != 3 {
			t.Errorf("chunk %d has wrong provenance: %+v", i, chunk.Metadata)
		}
		if chunk.Metadata.ChunkIndex != i {
			t.Errorf("expected ChunkIndex %d, got %d", i, chunk.Metadata.ChunkIndex)
		}
		if ids[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		ids[chunk.ID] = true
	}

	again, _ := c.Chunk(doc)
	for i := range chunks {
		if chunks[i].ID != again[i].ID {
			t.Errorf("chunk %d id is not stable across runs", i)
		}
	}
}

func TestChunkIDDependsOnProvenance(t *testing.T) {
	text := "same text"
	a := ChunkID(domain.Metadata{Source: "a.pdf", Page: 1}, text)
	b := ChunkID(domain.Metadata{Source: "b.pdf", Page: 1}, text)
	c := ChunkID(domain.Metadata{Source: "a.pdf", Page: 2}, text)
	if a == b || a == c {
		t.Error("ids should differ across sources and pages")
	}
	if a != ChunkID(domain.Metadata{Source: "a.pdf", Page: 1, ChunkIndex: 7}, text) {
		t.Error("id should not depend on chunk position")
	}
}
