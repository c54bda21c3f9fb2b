// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

//go:build integration

package auth_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dbdock/dbdock/internal/auth"
)

var _ = Describe("Session lifecycle", func() {
	BeforeEach(func() {
		resetTables(env.ctx, env.pool)
	})

	login := func(email, password string) (*http.Response, string) {
		var body struct {
			Token string `json:"token"`
		}
		resp := doJSON(http.MethodPost, "/login", "", map[string]string{
			"email":    email,
			"password": password,
		}, &body)
		return resp, body.Token
	}

	It("walks login, me, logout, me", func() {
		registerUser("operator", "op@example.com", "hunter2222")

		resp, token := login("op@example.com", "hunter2222")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(token).NotTo(BeEmpty())

		var me map[string]any
		resp = doJSON(http.MethodGet, "/me", token, nil, &me)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(me["email"]).To(Equal("op@example.com"))

		resp = doJSON(http.MethodPost, "/logout", token, nil, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp = doJSON(http.MethodGet, "/me", token, nil, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("rejects wrong passwords and unknown accounts identically", func() {
		registerUser("operator", "op@example.com", "hunter2222")

		var wrongBody, unknownBody map[string]any
		wrongResp := doJSON(http.MethodPost, "/login", "", map[string]string{
			"email": "op@example.com", "password": "wrong-password",
		}, &wrongBody)
		unknownResp := doJSON(http.MethodPost, "/login", "", map[string]string{
			"email": "ghost@example.com", "password": "wrong-password",
		}, &unknownBody)

		Expect(wrongResp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(unknownResp.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(wrongBody).To(Equal(unknownBody))
	})

	It("rejects expired sessions", func() {
		user := registerUser("operator", "op@example.com", "hunter2222")

		session, err := auth.NewSession(user.ID, time.Now().Add(-auth.SessionDuration-time.Hour), auth.SessionDuration)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Sessions.Create(env.ctx, session)).To(Succeed())

		resp := doJSON(http.MethodGet, "/me", session.Token.String(), nil, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("repeats logout idempotently", func() {
		registerUser("operator", "op@example.com", "hunter2222")
		resp, token := login("op@example.com", "hunter2222")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		first := doJSON(http.MethodPost, "/logout", token, nil, nil)
		second := doJSON(http.MethodPost, "/logout", token, nil, nil)
		Expect(first.StatusCode).To(Equal(http.StatusOK))
		Expect(second.StatusCode).To(Equal(http.StatusOK))

		// Revocation timestamp does not move on the second call.
		parsed, err := auth.ParseToken(token)
		Expect(err).NotTo(HaveOccurred())
		stored, err := env.Sessions.GetWithUser(env.ctx, parsed)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Session.RevokedAt).NotTo(BeNil())
	})

	It("rejects sessions whose owner was deleted", func() {
		registerUser("admin", "admin@example.com", "hunter2222")
		victim := registerUser("victim", "victim@example.com", "hunter2222")

		resp, victimToken := login("victim@example.com", "hunter2222")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		_, err := env.UserService.Delete(env.ctx, victim.ID)
		Expect(err).NotTo(HaveOccurred())

		// The session row survives the account but no longer authenticates.
		parsed, parseErr := auth.ParseToken(victimToken)
		Expect(parseErr).NotTo(HaveOccurred())
		stored, getErr := env.Sessions.GetWithUser(env.ctx, parsed)
		Expect(getErr).NotTo(HaveOccurred())
		Expect(stored.User).To(BeNil())

		resp = doJSON(http.MethodGet, "/me", victimToken, nil, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("keeps registration open only until the first account", func() {
		var created map[string]any
		resp := doJSON(http.MethodPost, "/users", "", map[string]string{
			"name": "root", "email": "root@example.com", "password": "hunter2222",
		}, &created)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		resp = doJSON(http.MethodPost, "/users", "", map[string]string{
			"name": "mallory", "email": "mallory@example.com", "password": "hunter2222",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		_, token := login("root@example.com", "hunter2222")
		resp = doJSON(http.MethodPost, "/users", token, map[string]string{
			"name": "alice", "email": "alice@example.com", "password": "hunter2222",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
	})
})
