package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"supportagent/internal/domain"
)

// DefaultSeparators is the split preference, coarsest first. The empty
// separator means character-level splitting.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits documents into overlapping character windows.
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursiveChunker(chunkSize, overlap int) (*RecursiveChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &RecursiveChunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}, nil
}

func (c *RecursiveChunker) ChunkSize() int { return c.chunkSize }

func (c *RecursiveChunker) Overlap() int { return c.overlap }

// Chunk splits a document and attaches provenance to every piece.
func (c *RecursiveChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	texts := SplitText(doc.Text, c.chunkSize, c.overlap)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		md := domain.Metadata{
			Source:     doc.Source,
			Page:       doc.Page,
			ChunkIndex: i,
		}
		chunks = append(chunks, domain.Chunk{
			ID:       ChunkID(md, text),
			Text:     text,
			Metadata: md,
		})
	}
	return chunks, nil
}

// ChunkID derives a stable id from provenance and content, so re-ingesting
// the same text upserts instead of duplicating.
func ChunkID(md domain.Metadata, text string) string {
	h := sha256.New()
	h.Write([]byte(md.Source))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(md.Page)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// SplitText splits text into chunks of at most chunkSize characters where
// chunk i+1 starts with the last overlap characters of chunk i.
//
// The text is first cut into contiguous segments of at most
// chunkSize-overlap characters, preferring the coarsest separator that
// works. Each chunk is then its segment prefixed with the overlap window
// that precedes it. Whitespace-only text yields no chunks.
func SplitText(text string, chunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" || chunkSize <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}

	budget := chunkSize - overlap
	pieces := splitRecursive(text, budget, DefaultSeparators)
	segments := mergePieces(pieces, budget)
	segments = growLeadingSegment(segments, chunkSize, overlap)

	runes := []rune(text)
	chunks := make([]string, 0, len(segments))
	start := 0
	for i, seg := range segments {
		end := start + utf8.RuneCountInString(seg)
		from := start
		if i > 0 {
			from = start - overlap
			if from < 0 {
				from = 0
			}
		}
		chunks = append(chunks, string(runes[from:end]))
		start = end
	}
	return chunks
}

// splitRecursive cuts text into pieces no longer than budget. Separators
// stay attached to the end of the piece they terminate so the pieces
// concatenate back to the original text.
func splitRecursive(text string, budget int, separators []string) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}

	sep, rest := "", []string(nil)
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, separators[i+1:]
			break
		}
	}
	if sep == "" {
		return splitRunes(text, budget)
	}

	var out []string
	for _, part := range splitKeep(text, sep) {
		if utf8.RuneCountInString(part) <= budget {
			out = append(out, part)
			continue
		}
		out = append(out, splitRecursive(part, budget, rest)...)
	}
	return out
}

func splitKeep(text, sep string) []string {
	var parts []string
	for {
		idx := strings.Index(text, sep)
		if idx < 0 {
			break
		}
		parts = append(parts, text[:idx+len(sep)])
		text = text[idx+len(sep):]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func splitRunes(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergePieces greedily packs adjacent pieces into segments up to budget.
func mergePieces(pieces []string, budget int) []string {
	var segments []string
	var current strings.Builder
	currentLen := 0

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if currentLen > 0 && currentLen+n > budget {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
		current.WriteString(p)
		currentLen += n
	}
	if currentLen > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

// growLeadingSegment folds following segments into the first one while it
// is shorter than the overlap, so the second chunk always has a full
// overlap window behind it. The first chunk carries no leading overlap, so
// it may use the whole chunk size.
func growLeadingSegment(segments []string, chunkSize, overlap int) []string {
	for len(segments) > 1 {
		first := utf8.RuneCountInString(segments[0])
		if first >= overlap {
			break
		}
		next := utf8.RuneCountInString(segments[1])
		if first+next > chunkSize {
			break
		}
		merged := segments[0] + segments[1]
		segments = append([]string{merged}, segments[2:]...)
	}
	return segments
}
