package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashingEmbedder_RelatedTextsAreClose(t *testing.T) {
	e := NewHashingEmbedder(512)

	vecs, err := e.Embed(context.Background(), []string{
		"how do I reset my password",
		"Reset your password by clicking Forgot Password on the login page.",
		"Invoices are emailed on the first business day of each month.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}

	related := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	if related < 0.4 {
		t.Errorf("expected related similarity >= 0.4, got %.3f", related)
	}
	if unrelated >= related {
		t.Errorf("unrelated text scored %.3f, related %.3f", unrelated, related)
	}
}

func TestHashingEmbedder_NormalizedAndDeterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()

	a, _ := e.Embed(ctx, []string{"billing refund request"})
	b, _ := e.Embed(ctx, []string{"billing refund request"})

	var norm float64
	for i, v := range a[0] {
		if v != b[0][i] {
			t.Fatal("embedding is not deterministic")
		}
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", norm)
	}
	if e.Dimension() != 64 || len(a[0]) != 64 {
		t.Errorf("unexpected dimension %d", len(a[0]))
	}
}

func TestHashingEmbedder_EmptyText(t *testing.T) {
	e := NewHashingEmbedder(16)
	vecs, err := e.Embed(context.Background(), []string{"the a of"})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vecs[0] {
		if v != 0 {
			t.Fatal("stopword-only text should embed to the zero vector")
		}
	}
}

func TestHashingEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashingEmbedder(8).Embed(ctx, []string{"x"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := embeddingResponse{}
		// Reply out of order to check index mapping.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{
				Embedding: []float32{float32(i), 1, 0},
				Index:     i,
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "secret")
	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "custom-model", srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
	if e.Dimension() != 3 {
		t.Errorf("expected dimension learned from response, got %d", e.Dimension())
	}
	if e.ModelName() != "custom-model" {
		t.Errorf("unexpected model %q", e.ModelName())
	}
}

func TestOpenAIEmbedder_ConcurrentEmbedAndDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingData{Embedding: []float32{1, 0, 0, 0}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := newEmbedder("k", "custom-model", srv.URL, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Embed(context.Background(), []string{"reset password"}); err != nil {
				errs <- err
				return
			}
			_ = e.Dimension()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if e.Dimension() != 4 {
		t.Errorf("expected dimension 4, got %d", e.Dimension())
	}
}

func TestOpenAIEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := newEmbedder("k", "m", srv.URL, 0)
	_, err := e.Embed(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_MISSING", "")
	if _, err := NewOpenAIEmbedder("TEST_EMBED_MISSING", "text-embedding-3-small"); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestOllamaEmbedderDefaults(t *testing.T) {
	e := NewOllamaEmbedder("nomic-embed-text", "")
	if e.baseURL != "http://localhost:11434/v1" {
		t.Errorf("unexpected base URL %s", e.baseURL)
	}
	if e.Dimension() != 768 {
		t.Errorf("expected 768, got %d", e.Dimension())
	}
}
