// Package search is keyword search over every class and member of the
// current documentation snapshot, backed by an in-memory bleve index that is
// rebuilt whenever the snapshot changes.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/jcdickinson/docview/internal/doccache"
	"github.com/jcdickinson/docview/internal/model"
	"github.com/jcdickinson/docview/internal/topic"
)

const (
	defaultLimit = 20
	maxLimit     = 200
	batchSize    = 1000
)

type Provider interface {
	Get() (*model.Snapshot, error)
}

type Options struct {
	Limit int
	// Kind restricts hits to one kind: "class" or a member kind name.
	Kind string
}

type Result struct {
	Topic   string  `json:"topic"`
	Class   string  `json:"class"`
	Kind    string  `json:"kind"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type Searcher struct {
	docs Provider

	mu      sync.Mutex
	index   bleve.Index
	version uint64
}

func NewSearcher(docs Provider) *Searcher {
	return &Searcher{docs: docs}
}

// Search runs a bleve query-string query ("texture", "kind:signal draw",
// "+name:get_*") against the current snapshot.
func (s *Searcher) Search(ctx context.Context, q string, opts *Options) ([]Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	slog.Info("search", "query", q, "kind", opts.Kind, "limit", limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	var final query.Query = bleve.NewQueryStringQuery(q)
	if !strings.ContainsAny(q, " :+-\"*?~^") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(q))
		prefix.SetField("name")
		prefix.SetBoost(2)
		final = bleve.NewDisjunctionQuery(final, prefix)
	}
	if opts.Kind != "" {
		kind := bleve.NewMatchQuery(opts.Kind)
		kind.SetField("kind")
		final = bleve.NewConjunctionQuery(final, kind)
	}

	req := bleve.NewSearchRequestOptions(final, limit, 0, false)
	req.Fields = []string{"class", "kind", "name", "text"}
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching docs: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		class, _ := hit.Fields["class"].(string)
		kind, _ := hit.Fields["kind"].(string)
		name, _ := hit.Fields["name"].(string)
		text, _ := hit.Fields["text"].(string)
		results = append(results, Result{
			Topic:   hit.ID,
			Class:   class,
			Kind:    kind,
			Name:    name,
			Score:   hit.Score,
			Snippet: snippet(text, 160),
		})
	}
	slog.Debug("search done", "query", q, "hits", res.Total, "returned", len(results))
	return results, nil
}

func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// refresh rebuilds the index when the snapshot version moved on.
func (s *Searcher) refresh(ctx context.Context) error {
	snap, err := s.docs.Get()
	if err != nil {
		var partial *doccache.PartialError
		if !errors.As(err, &partial) || snap == nil {
			return fmt.Errorf("loading documentation: %w", err)
		}
	}
	if s.index != nil && s.version == snap.Version {
		return nil
	}

	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}
	n, err := indexSnapshot(ctx, index, snap)
	if err != nil {
		index.Close()
		return fmt.Errorf("indexing docs: %w", err)
	}
	if s.index != nil {
		s.index.Close()
	}
	s.index, s.version = index, snap.Version
	slog.Info("search index built", "version", snap.Version, "documents", n)
	return nil
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	name := bleve.NewTextFieldMapping()
	name.Analyzer = "standard"
	name.Store = true
	name.Index = true

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("name", name)
	doc.AddFieldMappingsAt("class", keyword)
	doc.AddFieldMappingsAt("kind", keyword)

	indexMapping.DefaultMapping = doc
	return indexMapping
}

func indexSnapshot(ctx context.Context, index bleve.Index, snap *model.Snapshot) (int, error) {
	batch := index.NewBatch()
	seen := make(map[string]bool)
	count := 0

	add := func(ref topic.Ref, kind, name, text string) error {
		id := ref.String()
		if seen[id] {
			return nil
		}
		seen[id] = true
		doc := map[string]interface{}{
			"class": ref.Class,
			"kind":  kind,
			"name":  name,
			"text":  text,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("adding %s to batch: %w", id, err)
		}
		count++
		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("executing batch: %w", err)
			}
			batch = index.NewBatch()
		}
		return nil
	}

	for _, name := range snap.Names() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rec, _ := snap.Class(name)
		desc := strings.TrimSpace(rec.BriefDescription + "\n" + rec.Description)
		if err := add(topic.Ref{Kind: topic.ClassRef, Class: name}, "class", name, desc); err != nil {
			return 0, err
		}
		for _, m := range rec.Members {
			ref := topic.Ref{Kind: topic.MemberRef, Class: name, Member: m.Kind, Name: m.Name}
			if err := add(ref, m.Kind.String(), m.Name, m.Description); err != nil {
				return 0, err
			}
			for _, v := range m.Values {
				ref := topic.Ref{Kind: topic.EnumValueRef, Class: name, Enum: m.Name, Name: v.Name}
				if err := add(ref, model.KindEnumValue.String(), v.Name, v.Description); err != nil {
					return 0, err
				}
			}
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return 0, fmt.Errorf("executing final batch: %w", err)
		}
	}
	return count, nil
}

func snippet(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
