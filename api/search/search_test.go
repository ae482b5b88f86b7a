package search_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/api/search"
	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/eventstream"
	"github.com/inkwellco/inkwell/pkg/storage/inmemory"
	testutils "github.com/inkwellco/inkwell/pkg/utils/test"
	"github.com/inkwellco/inkwell/pkg/vector"
)

func TestSearch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Search Suite")
}

var _ = Describe("Searcher", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		index    *testutils.MockVectorDriver
		store    *inmemory.Driver
		events   *testutils.MockPublisher
		searcher *search.Searcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		index = testutils.NewMockVectorDriver()
		store = inmemory.NewDriver()
		events = testutils.NewMockPublisher()
		searcher = search.NewSearcher(embedder, index, store, events, zap.NewNop())
	})

	storePost := func(id, title, content string) *blog.Post {
		post := &blog.Post{
			ID:        id,
			Title:     title,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		Expect(store.Upsert(ctx, post)).To(Succeed())
		return post
	}

	Describe("Sync", func() {
		It("embeds the post and upserts it into the index", func() {
			post := storePost("p1", "Hello", "World")
			embedder.Embeddings[post.EmbeddingText()] = []float32{0.5, 0.5, 0.5}

			searcher.Sync(ctx, post)

			Expect(index.Upserted).To(HaveLen(1))
			Expect(index.Upserted[0].ID).To(Equal("p1"))
			Expect(index.Upserted[0].Title).To(Equal("Hello"))
			Expect(index.Upserted[0].Embedding).To(Equal([]float32{0.5, 0.5, 0.5}))
		})

		It("publishes an indexed event on success", func() {
			post := storePost("p1", "Hello", "World")

			searcher.Sync(ctx, post)

			Expect(events.Events).To(HaveLen(1))
			Expect(events.Events[0].EventType).To(Equal(eventstream.EventTypePostIndexed))
			Expect(events.Events[0].PostID).To(Equal("p1"))
			Expect(events.Events[0].Title).To(Equal("Hello"))
		})

		It("swallows embedding failures and records an index_failed event", func() {
			post := storePost("p1", "Hello", "World")
			embedder.FailOn = post.EmbeddingText()

			searcher.Sync(ctx, post)

			Expect(index.Upserted).To(BeEmpty())
			Expect(events.Events).To(HaveLen(1))
			Expect(events.Events[0].EventType).To(Equal(eventstream.EventTypePostIndexFailed))
			Expect(events.Events[0].PostID).To(Equal("p1"))
			Expect(events.Events[0].Reason).NotTo(BeEmpty())
		})

		It("swallows index upsert failures and records an index_failed event", func() {
			post := storePost("p1", "Hello", "World")
			index.FailUpsert = true

			searcher.Sync(ctx, post)

			Expect(events.Events).To(HaveLen(1))
			Expect(events.Events[0].EventType).To(Equal(eventstream.EventTypePostIndexFailed))
		})

		It("does not panic when event publishing fails", func() {
			post := storePost("p1", "Hello", "World")
			events.FailPublish = true

			Expect(func() { searcher.Sync(ctx, post) }).NotTo(Panic())
		})
	})

	Describe("Remove", func() {
		It("deletes the post from the index and publishes a removed event", func() {
			searcher.Remove(ctx, "p1")

			Expect(index.Deleted).To(Equal([]string{"p1"}))
			Expect(events.Events).To(HaveLen(1))
			Expect(events.Events[0].EventType).To(Equal(eventstream.EventTypePostRemoved))
			Expect(events.Events[0].PostID).To(Equal("p1"))
		})

		It("still publishes a removed event when the index delete fails", func() {
			index.FailDelete = true

			searcher.Remove(ctx, "p1")

			Expect(events.Events).To(HaveLen(1))
			Expect(events.Events[0].EventType).To(Equal(eventstream.EventTypePostRemoved))
		})
	})

	Describe("Search", func() {
		It("rejects an empty query", func() {
			results, err := searcher.Search(ctx, "", 5)
			Expect(err).To(MatchError(search.ErrEmptyQuery))
			Expect(results).To(BeNil())
		})

		It("returns hydrated results ordered by descending score", func() {
			storePost("a", "First", "alpha")
			storePost("b", "Second", "beta")
			storePost("c", "Third", "gamma")

			index.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "b"}, Score: 0.9},
				{Document: vector.Document{ID: "a"}, Score: 0.7},
				{Document: vector.Document{ID: "c"}, Score: 0.4},
			}

			results, err := searcher.Search(ctx, "greek letters", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("b"))
			Expect(results[0].Title).To(Equal("Second"))
			Expect(results[0].Score).To(Equal(float32(0.9)))
			Expect(results[1].ID).To(Equal("a"))
			Expect(results[2].ID).To(Equal("c"))
		})

		It("filters out index entries whose post is missing from the store", func() {
			storePost("a", "First", "alpha")
			storePost("c", "Third", "gamma")

			index.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "a"}, Score: 0.8},
				{Document: vector.Document{ID: "gone"}, Score: 0.6},
				{Document: vector.Document{ID: "c"}, Score: 0.3},
			}

			results, err := searcher.Search(ctx, "letters", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[1].ID).To(Equal("c"))
		})

		It("applies the default result count when topK is not positive", func() {
			matches := make([]vector.QueryResult, 0, search.DefaultTopK+5)
			for i := 0; i < search.DefaultTopK+5; i++ {
				id := fmt.Sprintf("p%d", i)
				storePost(id, id, "content")
				matches = append(matches, vector.QueryResult{
					Document: vector.Document{ID: id},
					Score:    float32(search.DefaultTopK+5-i) / 100,
				})
			}
			index.Results = matches

			results, err := searcher.Search(ctx, "content", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(search.DefaultTopK))
		})

		It("returns empty results when the index has no matches", func() {
			results, err := searcher.Search(ctx, "anything", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("propagates embedding failures", func() {
			embedder.FailOn = "bad query"

			_, err := searcher.Search(ctx, "bad query", 5)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to embed query"))
		})

		It("propagates index query failures", func() {
			index.FailQuery = true

			_, err := searcher.Search(ctx, "anything", 5)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to query vector index"))
		})
	})
})
