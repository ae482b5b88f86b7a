package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/vector"
)

var _ = Describe("handleSearch", func() {
	var (
		ts  *testServer
		ctx context.Context
	)

	BeforeEach(func() {
		ts = newTestServer(false)
		ctx = context.Background()
	})

	It("returns 400 when q is missing", func() {
		req, err := http.NewRequest(http.MethodGet, "/search", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

		var body ErrorResponse
		decodeBody(resp, &body)
		Expect(body.Error).To(ContainSubstring("q parameter"))
	})

	It("returns 400 for a non-numeric top_k", func() {
		req, err := http.NewRequest(http.MethodGet, "/search?q=test&top_k=banana", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("returns 400 for a non-positive top_k", func() {
		req, err := http.NewRequest(http.MethodGet, "/search?q=test&top_k=0", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
	})

	It("returns an empty list when nothing matches", func() {
		req, err := http.NewRequest(http.MethodGet, "/search?q=anything", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var results []blog.SearchResult
		decodeBody(resp, &results)
		Expect(results).To(BeEmpty())
	})

	It("returns scored results ordered by descending score", func() {
		for _, id := range []string{"a", "b"} {
			Expect(ts.store.Upsert(ctx, &blog.Post{
				ID:        id,
				Title:     "Post " + id,
				Content:   "content",
				CreatedAt: time.Now().UTC(),
			})).To(Succeed())
		}

		ts.index.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "a"}, Score: 0.4},
			{Document: vector.Document{ID: "b"}, Score: 0.8},
		}

		req, err := http.NewRequest(http.MethodGet, "/search?q=content", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var results []blog.SearchResult
		decodeBody(resp, &results)
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("b"))
		Expect(results[1].ID).To(Equal("a"))
	})

	It("never returns a deleted post even when its index entry lingers", func() {
		Expect(ts.store.Upsert(ctx, &blog.Post{
			ID:        "kept",
			Title:     "Kept",
			Content:   "content",
			CreatedAt: time.Now().UTC(),
		})).To(Succeed())

		// Simulate a failed index delete: the entry for "ghost" is still
		// in the index but the post is gone from the store.
		ts.index.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "ghost"}, Score: 0.9},
			{Document: vector.Document{ID: "kept"}, Score: 0.5},
		}

		req, err := http.NewRequest(http.MethodGet, "/search?q=content", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())

		var results []blog.SearchResult
		decodeBody(resp, &results)
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("kept"))
	})

	It("returns 500 when the embedder fails", func() {
		ts.embedder.FailOn = "doomed"

		req, err := http.NewRequest(http.MethodGet, "/search?q=doomed", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
	})

	It("returns 500 when the index query fails", func() {
		ts.index.FailQuery = true

		req, err := http.NewRequest(http.MethodGet, "/search?q=test", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := ts.server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
	})
})
