package api

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("auth handlers", func() {
	var ts *testServer

	BeforeEach(func() {
		ts = newTestServer(false)
	})

	Describe("GET /auth/me", func() {
		It("reports unauthorized for a bare request", func() {
			req, err := http.NewRequest(http.MethodGet, "/auth/me", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var body AuthCheckResponse
			decodeBody(resp, &body)
			Expect(body.Authorized).To(BeFalse())
		})

		It("reports authorized for a valid bearer token", func() {
			token, err := ts.tokens.Issue()
			Expect(err).NotTo(HaveOccurred())

			req, err := http.NewRequest(http.MethodGet, "/auth/me", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			var body AuthCheckResponse
			decodeBody(resp, &body)
			Expect(body.Authorized).To(BeTrue())
		})

		It("reports authorized when the trusted header is present", func() {
			req, err := http.NewRequest(http.MethodGet, "/auth/me", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(DefaultTrustedHeader, "perimeter-says-ok")

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			var body AuthCheckResponse
			decodeBody(resp, &body)
			Expect(body.Authorized).To(BeTrue())
		})

		It("reports authorized for local origins when the escape hatch is on", func() {
			local := newTestServer(true)

			req, err := http.NewRequest(http.MethodGet, "/auth/me", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderOrigin, "http://127.0.0.1:3000")

			resp, err := local.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			var body AuthCheckResponse
			decodeBody(resp, &body)
			Expect(body.Authorized).To(BeTrue())
		})
	})

	Describe("GET /login", func() {
		It("returns 400 when redirect is missing", func() {
			req, err := http.NewRequest(http.MethodGet, "/login", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 401 without a perimeter assertion", func() {
			req, err := http.NewRequest(http.MethodGet, "/login?redirect=https://blog.example.com/", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("redirects with the token in the fragment for a trusted request", func() {
			req, err := http.NewRequest(http.MethodGet, "/login?redirect=https://blog.example.com/", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(DefaultTrustedHeader, "perimeter-says-ok")

			resp, err := ts.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusFound))

			location := resp.Header.Get(fiber.HeaderLocation)
			Expect(location).To(HavePrefix("https://blog.example.com/#access_token="))

			// The issued token must verify against the same service.
			token := strings.TrimPrefix(location, "https://blog.example.com/#access_token=")
			_, err = ts.tokens.Verify(token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("issues a token for local origins when the escape hatch is on", func() {
			local := newTestServer(true)

			req, err := http.NewRequest(http.MethodGet, "/login?redirect=http://localhost:3000/", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")

			resp, err := local.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusFound))
		})
	})
})
