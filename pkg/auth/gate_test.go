package auth_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/pkg/auth"
)

var _ = Describe("Gate", func() {
	var (
		tokens *auth.TokenService
		logger *zap.Logger
	)

	BeforeEach(func() {
		var err error
		tokens, err = auth.NewTokenService("gate-secret")
		Expect(err).NotTo(HaveOccurred())
		logger = zap.NewNop()
	})

	newGate := func(cfg auth.GateConfig) *auth.Gate {
		return auth.NewGate(tokens, cfg, logger)
	}

	Describe("Authorized", func() {
		It("accepts a valid bearer token", func() {
			token, err := tokens.Issue()
			Expect(err).NotTo(HaveOccurred())

			gate := newGate(auth.GateConfig{})
			Expect(gate.Authorized(auth.Credentials{Bearer: token})).To(BeTrue())
		})

		It("accepts a trusted-identity assertion even with an invalid bearer", func() {
			gate := newGate(auth.GateConfig{})
			creds := auth.Credentials{Bearer: "garbage", TrustedAssertion: true}
			Expect(gate.Authorized(creds)).To(BeTrue())
		})

		It("rejects an invalid bearer with no other credential", func() {
			gate := newGate(auth.GateConfig{TrustLocalOrigins: true})
			creds := auth.Credentials{Bearer: "garbage", Origin: "http://localhost:3000"}
			Expect(gate.Authorized(creds)).To(BeFalse())
		})

		It("accepts local origins only when the escape hatch is enabled", func() {
			creds := auth.Credentials{Origin: "http://localhost:3000"}

			enabled := newGate(auth.GateConfig{TrustLocalOrigins: true})
			Expect(enabled.Authorized(creds)).To(BeTrue())

			disabled := newGate(auth.GateConfig{TrustLocalOrigins: false})
			Expect(disabled.Authorized(creds)).To(BeFalse())
		})

		It("matches 127.0.0.1 as a local origin", func() {
			gate := newGate(auth.GateConfig{TrustLocalOrigins: true})
			creds := auth.Credentials{Origin: "http://127.0.0.1:8080"}
			Expect(gate.Authorized(creds)).To(BeTrue())
		})

		It("rejects non-local origins without credentials", func() {
			gate := newGate(auth.GateConfig{TrustLocalOrigins: true})
			creds := auth.Credentials{Origin: "https://example.com"}
			Expect(gate.Authorized(creds)).To(BeFalse())
		})

		It("rejects empty credentials", func() {
			gate := newGate(auth.GateConfig{TrustLocalOrigins: true})
			Expect(gate.Authorized(auth.Credentials{})).To(BeFalse())
		})

		It("honors custom local origin markers", func() {
			gate := newGate(auth.GateConfig{
				TrustLocalOrigins: true,
				LocalOrigins:      []string{"dev.internal"},
			})

			Expect(gate.Authorized(auth.Credentials{Origin: "http://dev.internal:9000"})).To(BeTrue())
			Expect(gate.Authorized(auth.Credentials{Origin: "http://localhost:3000"})).To(BeFalse())
		})
	})

	Describe("Login", func() {
		It("issues a verifiable token for a trusted assertion", func() {
			gate := newGate(auth.GateConfig{})
			token, err := gate.Login(auth.Credentials{TrustedAssertion: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Split(token, ".")).To(HaveLen(3))

			claims, err := tokens.Verify(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal(auth.DefaultSubject))
		})

		It("issues a token for a local origin when the escape hatch is enabled", func() {
			gate := newGate(auth.GateConfig{TrustLocalOrigins: true})
			token, err := gate.Login(auth.Credentials{Origin: "http://localhost:5173"})
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
		})

		It("refuses to issue a token without a trusted perimeter", func() {
			gate := newGate(auth.GateConfig{})
			_, err := gate.Login(auth.Credentials{Origin: "https://example.com"})
			Expect(err).To(MatchError(auth.ErrUnauthorized))
		})
	})
})
