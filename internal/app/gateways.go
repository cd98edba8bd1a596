package app

import (
	"context"
	"hash/fnv"
	"io"
	"net/http"
	"strings"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/domain/taxonomy"
	"neo-alexandria/internal/errorkit"
	"neo-alexandria/internal/ingestion"
	"neo-alexandria/internal/search/dense"
	"neo-alexandria/internal/search/lexical"
)

// hashEmbeddingDim matches the 384-dim family of small sentence encoders
// (e.g. minilm-l6-v2, config.EmbeddingModelName's default), so a real model
// gateway can be swapped in later without resizing any stored vector.
const hashEmbeddingDim = 384

// HashEmbeddingGateway is a feature-hashing embedding stand-in for the
// embedded/local deployment target, where no external model-serving
// client library is available in the dependency graph.
// It is deterministic, so repeated ingestion of the same text reproduces
// the same vector, and it is good enough to exercise the dense/sparse
// search paths end to end without a network dependency.
type HashEmbeddingGateway struct{}

func NewHashEmbeddingGateway() *HashEmbeddingGateway { return &HashEmbeddingGateway{} }

func (g *HashEmbeddingGateway) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashEmbeddingDim)
	for _, term := range lexical.Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		bucket := h.Sum32() % hashEmbeddingDim
		vec[bucket]++
	}
	return dense.Normalize(vec), nil
}

func (g *HashEmbeddingGateway) EmbedSparse(_ context.Context, text string) (map[string]float32, error) {
	terms := make(map[string]float32)
	for _, term := range lexical.Tokenize(text) {
		terms[term]++
	}
	return terms, nil
}

// HTTPFetchGateway retrieves a resource's bytes over plain net/http: no
// ecosystem HTTP client is part of the dependency graph (the teacher and
// pack only bring SDK-specific clients), so a direct stdlib GET is used.
type HTTPFetchGateway struct {
	client *http.Client
}

func NewHTTPFetchGateway(client *http.Client) *HTTPFetchGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetchGateway{client: client}
}

func (g *HTTPFetchGateway) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errorkit.Wrap(errorkit.Validation, "bad_url", "invalid fetch URL", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, "", errorkit.Wrap(errorkit.Upstream, "fetch_failed", "fetch request failed", err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, "", errorkit.New(errorkit.Upstream, "fetch_failed", "upstream returned "+resp.Status).WithRetryable(true)
	}
	if resp.StatusCode >= 400 {
		return nil, "", errorkit.New(errorkit.Upstream, "fetch_failed", "upstream returned "+resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errorkit.Wrap(errorkit.Upstream, "fetch_read_failed", "failed reading response body", err).WithRetryable(true)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// LexicalOverlapReranker is a dependency-free cross-encoder stand-in: it
// scores (query, document) pairs by weighted term overlap rather than a
// real transformer, so stage X is exercised without a reranker model
// client (no such client exists in the pack).
type LexicalOverlapReranker struct{}

func NewLexicalOverlapReranker() *LexicalOverlapReranker { return &LexicalOverlapReranker{} }

func (r *LexicalOverlapReranker) Rerank(_ context.Context, query string, documents []string) ([]float32, error) {
	queryTerms := make(map[string]struct{})
	for _, t := range lexical.Tokenize(query) {
		queryTerms[t] = struct{}{}
	}
	scores := make([]float32, len(documents))
	for i, doc := range documents {
		docTerms := lexical.Tokenize(doc)
		if len(docTerms) == 0 {
			continue
		}
		var hits int
		seen := make(map[string]struct{})
		for _, t := range docTerms {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := queryTerms[t]; ok {
				hits++
			}
		}
		scores[i] = float32(hits) / float32(len(queryTerms)+1)
	}
	return scores, nil
}

// PlainTextExtractor is the minimal extractor used for text/* and text/html
// content types (no readability/PDF pack dependency exists): HTML tags
// are stripped crudely, everything else passes
// through unchanged. Title is taken from the first non-blank line.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

func (e *PlainTextExtractor) Extract(_ context.Context, body []byte, contentType string) (ingestion.ExtractedContent, error) {
	text := string(body)
	if strings.Contains(contentType, "html") {
		text = stripTags(text)
	}
	text = strings.TrimSpace(text)

	title := ""
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			title = trimmed
			break
		}
	}
	if len(title) > 120 {
		title = title[:120]
	}

	return ingestion.ExtractedContent{Text: text, Title: title}, nil
}

// KeywordClassifierGateway is a keyword-overlap stand-in for classifier.
// ModelGateway: no model-serving client exists in the pack, so a taxonomy
// node's own keyword list stands in for a trained classifier's
// confidence, scaled into (0,1] by overlap ratio.
type KeywordClassifierGateway struct {
	nodes func(ctx context.Context) ([]*taxonomy.Node, error)
}

func NewKeywordClassifierGateway(nodes func(ctx context.Context) ([]*taxonomy.Node, error)) *KeywordClassifierGateway {
	return &KeywordClassifierGateway{nodes: nodes}
}

const classifierModelVersion = "keyword-overlap-v1"

func (g *KeywordClassifierGateway) Predict(ctx context.Context, text string) (map[shared.ID]float64, string, error) {
	nodes, err := g.nodes(ctx)
	if err != nil {
		return nil, "", err
	}
	terms := make(map[string]struct{})
	for _, t := range lexical.Tokenize(text) {
		terms[t] = struct{}{}
	}
	scores := make(map[shared.ID]float64, len(nodes))
	for _, n := range nodes {
		if !n.AllowResources() || len(n.Keywords()) == 0 {
			continue
		}
		var hits int
		for _, kw := range n.Keywords() {
			if _, ok := terms[strings.ToLower(kw)]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		scores[n.ID()] = float64(hits) / float64(len(n.Keywords()))
	}
	return scores, classifierModelVersion, nil
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
