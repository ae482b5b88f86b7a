package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/storage"
	"github.com/inkwellco/inkwell/pkg/vector"
)

func postJSON(path string, payload any) *http.Request {
	body, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeBody(resp *http.Response, target any) {
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(data, target)).To(Succeed())
}

var _ = Describe("post handlers", func() {
	var (
		ts  *testServer
		ctx context.Context
	)

	BeforeEach(func() {
		ts = newTestServer(false)
		ctx = context.Background()
	})

	seedPost := func(id, title, content string, createdAt time.Time) {
		Expect(ts.store.Upsert(ctx, &blog.Post{
			ID:        id,
			Title:     title,
			Content:   content,
			CreatedAt: createdAt,
		})).To(Succeed())
	}

	bearerFor := func() string {
		token, err := ts.tokens.Issue()
		Expect(err).NotTo(HaveOccurred())
		return "Bearer " + token
	}

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("GET /posts", func() {
		It("returns an empty list when no posts exist", func() {
			req, err := http.NewRequest(http.MethodGet, "/posts", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var summaries []blog.PostSummary
			decodeBody(resp, &summaries)
			Expect(summaries).To(BeEmpty())
		})

		It("returns summaries newest first", func() {
			now := time.Now().UTC()
			seedPost("old", "Old post", "body", now.Add(-time.Hour))
			seedPost("new", "New post", "body", now)

			req, err := http.NewRequest(http.MethodGet, "/posts", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			var summaries []blog.PostSummary
			decodeBody(resp, &summaries)
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].ID).To(Equal("new"))
			Expect(summaries[1].ID).To(Equal("old"))
		})

		It("does not include post content in summaries", func() {
			seedPost("p1", "Title", "secret body", time.Now().UTC())

			req, err := http.NewRequest(http.MethodGet, "/posts", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("secret body"))
		})
	})

	Describe("GET /posts/:id", func() {
		It("returns the full post", func() {
			seedPost("p1", "Title", "full content", time.Now().UTC())

			req, err := http.NewRequest(http.MethodGet, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var post blog.Post
			decodeBody(resp, &post)
			Expect(post.ID).To(Equal("p1"))
			Expect(post.Content).To(Equal("full content"))
		})

		It("returns 404 for an unknown id", func() {
			req, err := http.NewRequest(http.MethodGet, "/posts/missing", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("POST /posts", func() {
		It("rejects unauthenticated writes and persists nothing", func() {
			req := postJSON("/posts", CreatePostRequest{Title: "T", Content: "C"})

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))

			summaries, err := ts.store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(BeEmpty())
		})

		It("accepts a valid bearer token", func() {
			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var success SuccessResponse
			decodeBody(resp, &success)
			Expect(success.Success).To(BeTrue())
			Expect(success.ID).To(Equal("p1"))

			post, err := ts.store.Get(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(post.Title).To(Equal("T"))
		})

		It("accepts the trusted identity header", func() {
			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(DefaultTrustedHeader, "perimeter-says-ok")

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("rejects an invalid bearer token even from a local origin", func() {
			local := newTestServer(true)

			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
			req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")

			resp, err := local.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("authorizes credential-less local origins when the escape hatch is on", func() {
			local := newTestServer(true)

			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")

			resp, err := local.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("generates an id when none is provided", func() {
			req := postJSON("/posts", CreatePostRequest{Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			var success SuccessResponse
			decodeBody(resp, &success)
			Expect(success.ID).NotTo(BeEmpty())

			_, err = ts.store.Get(ctx, success.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a missing title or content", func() {
			req := postJSON("/posts", CreatePostRequest{Title: "", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			req, err := http.NewRequest(http.MethodPost, "/posts", bytes.NewReader([]byte("{not json")))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("syncs the post into the vector index", func() {
			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			_, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			Expect(ts.index.Upserted).To(HaveLen(1))
			Expect(ts.index.Upserted[0].ID).To(Equal("p1"))
		})

		It("still persists the post when embedding fails", func() {
			ts.embedder.FailOn = "T C"

			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			_, err = ts.store.Get(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.index.Upserted).To(BeEmpty())
		})

		It("still succeeds when the index upsert fails", func() {
			ts.index.FailUpsert = true

			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "T", Content: "C"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("updates an existing post in place", func() {
			seedPost("p1", "Before", "old", time.Now().UTC())

			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "After", Content: "new"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			post, err := ts.store.Get(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(post.Title).To(Equal("After"))
			Expect(post.Content).To(Equal("new"))
		})
	})

	Describe("DELETE /posts/:id", func() {
		BeforeEach(func() {
			seedPost("p1", "Title", "content", time.Now().UTC())
		})

		It("rejects unauthenticated deletes", func() {
			req, err := http.NewRequest(http.MethodDelete, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))

			_, err = ts.store.Get(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes the post and its index entry", func() {
			req, err := http.NewRequest(http.MethodDelete, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			_, err = ts.store.Get(ctx, "p1")
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(ts.index.Deleted).To(Equal([]string{"p1"}))
		})

		It("succeeds for an unknown id", func() {
			req, err := http.NewRequest(http.MethodDelete, "/posts/never-existed", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("succeeds even when the index delete fails", func() {
			ts.index.FailDelete = true

			req, err := http.NewRequest(http.MethodDelete, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			_, err = ts.store.Get(ctx, "p1")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("subsequent GET returns 404", func() {
			req, err := http.NewRequest(http.MethodDelete, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			_, err = ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			getReq, err := http.NewRequest(http.MethodGet, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(getReq)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("unknown routes", func() {
		It("returns 404", func() {
			req, err := http.NewRequest(http.MethodGet, "/nope", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("full write, read, search scenario", func() {
		It("makes a created post visible by id, in the list, and via search", func() {
			req := postJSON("/posts", CreatePostRequest{ID: "p1", Title: "Go tips", Content: "practical Go"})
			req.Header.Set(fiber.HeaderAuthorization, bearerFor())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			getReq, err := http.NewRequest(http.MethodGet, "/posts/p1", nil)
			Expect(err).NotTo(HaveOccurred())
			getResp, err := ts.server.app.Test(getReq)
			Expect(err).NotTo(HaveOccurred())
			Expect(getResp.StatusCode).To(Equal(fiber.StatusOK))

			listReq, err := http.NewRequest(http.MethodGet, "/posts", nil)
			Expect(err).NotTo(HaveOccurred())
			listResp, err := ts.server.app.Test(listReq)
			Expect(err).NotTo(HaveOccurred())

			var summaries []blog.PostSummary
			decodeBody(listResp, &summaries)
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].ID).To(Equal("p1"))

			// The index upserted the post; surface it as a match so the
			// search endpoint can find it.
			Expect(ts.index.Upserted).To(HaveLen(1))
			ts.index.Results = []vector.QueryResult{
				{Document: ts.index.Upserted[0], Score: 0.9},
			}

			searchReq, err := http.NewRequest(http.MethodGet, "/search?q=go", nil)
			Expect(err).NotTo(HaveOccurred())
			searchResp, err := ts.server.app.Test(searchReq)
			Expect(err).NotTo(HaveOccurred())
			Expect(searchResp.StatusCode).To(Equal(fiber.StatusOK))

			var results []blog.SearchResult
			decodeBody(searchResp, &results)
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("p1"))
			Expect(results[0].Title).To(Equal("Go tips"))
		})
	})
})
