// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/bureau-foundation/mcqd/lib/identity"
	"github.com/bureau-foundation/mcqd/lib/username"
)

// Context keys for state carried from auth callbacks into the session
// handler. All values live on the per-connection ssh.Context.
type contextKey string

const (
	// offeredKeyContext holds the first public key the client
	// offered on this connection (gossh.PublicKey).
	offeredKeyContext contextKey = "mcqd.offered-key"

	// claimOnlyContext marks a connection authenticated by the claim
	// secret without any offered key. It may run onboarding commands
	// but never reaches the questionnaire.
	claimOnlyContext contextKey = "mcqd.claim-only"
)

// Authenticator evaluates the per-connection claim/verify policy
// against the identity store.
type Authenticator struct {
	identities *identity.Store
	secret     string
	logger     *slog.Logger
}

// NewAuthenticator builds the connection gate. An empty secret
// disables claiming: only already-claimed usernames can connect.
func NewAuthenticator(identities *identity.Store, secret string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{identities: identities, secret: secret, logger: logger}
}

// PublicKey is the SSH public-key auth callback. Every offered key is
// remembered (first one wins) so a later password attempt on the same
// connection can claim with it. The attempt itself succeeds only for
// a claimed username whose stored key matches.
func (auth *Authenticator) PublicKey(ctx ssh.Context, key ssh.PublicKey) bool {
	user := ctx.User()
	if err := username.Validate(user); err != nil {
		auth.logger.Warn("rejecting invalid username", "username", user, "error", err)
		return false
	}

	if ctx.Value(offeredKeyContext) == nil {
		ctx.SetValue(offeredKeyContext, gossh.PublicKey(key))
	}

	err := auth.identities.Verify(user, key)
	switch {
	case err == nil:
		auth.logger.Info("public key accepted",
			"username", user, "fingerprint", gossh.FingerprintSHA256(key), "remote", ctx.RemoteAddr())
		return true
	case errors.Is(err, identity.ErrUnknownUser):
		// Unclaimed: the key is recorded above; the client will fall
		// back to password auth if it has the claim secret.
		return false
	case errors.Is(err, identity.ErrKeyMismatch):
		auth.logger.Info("public key rejected",
			"username", user, "fingerprint", gossh.FingerprintSHA256(key), "remote", ctx.RemoteAddr())
		return false
	default:
		auth.logger.Error("identity verification failed",
			"username", user, "error", err)
		return false
	}
}

// Password is the SSH password auth callback. Only the claim secret
// is ever accepted, and only for unclaimed usernames.
func (auth *Authenticator) Password(ctx ssh.Context, password string) bool {
	user := ctx.User()
	if err := username.Validate(user); err != nil {
		auth.logger.Warn("rejecting invalid username", "username", user, "error", err)
		return false
	}
	if auth.secret == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(auth.secret)) != 1 {
		auth.logger.Info("claim secret mismatch", "username", user, "remote", ctx.RemoteAddr())
		return false
	}
	if auth.identities.IsClaimed(user) {
		// The secret is a one-time onboarding path; once claimed,
		// only the bound key opens this username.
		auth.logger.Info("claim secret refused for claimed username",
			"username", user, "remote", ctx.RemoteAddr())
		return false
	}

	offered, _ := ctx.Value(offeredKeyContext).(gossh.PublicKey)
	if offered == nil {
		// Claim secret but no credential to bind. Admit to the
		// onboarding screen only; no store is touched.
		ctx.SetValue(claimOnlyContext, true)
		auth.logger.Info("claim secret accepted without key, onboarding only",
			"username", user, "remote", ctx.RemoteAddr())
		return true
	}

	err := auth.identities.TryClaim(user, offered)
	switch {
	case err == nil:
		auth.logger.Info("username claimed",
			"username", user, "fingerprint", gossh.FingerprintSHA256(offered), "remote", ctx.RemoteAddr())
		return true
	case errors.Is(err, identity.ErrAlreadyClaimed):
		// Lost a concurrent claim race. The winner's binding stands;
		// this connection is refused with no side effects.
		auth.logger.Info("lost claim race", "username", user, "remote", ctx.RemoteAddr())
		return false
	default:
		auth.logger.Error("claim failed", "username", user, "error", err)
		return false
	}
}

// Claim binds user to key on behalf of an onboarding connection. Only
// connections admitted through the claim secret without a key may
// claim this way; everything else already carries a binding.
func (auth *Authenticator) Claim(ctx ssh.Context, user string, key gossh.PublicKey) error {
	if ctx.Value(claimOnlyContext) == nil {
		return errors.New("this connection is already bound to a key")
	}
	err := auth.identities.TryClaim(user, key)
	switch {
	case err == nil:
		auth.logger.Info("username claimed via key upload",
			"username", user, "fingerprint", gossh.FingerprintSHA256(key), "remote", ctx.RemoteAddr())
		return nil
	case errors.Is(err, identity.ErrAlreadyClaimed):
		return errors.New("username is already claimed")
	default:
		auth.logger.Error("claim failed", "username", user, "error", err)
		return errors.New("storing the key failed")
	}
}
