// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/bureau-foundation/mcqd/lib/identity"
)

// testContext is a minimal ssh.Context for exercising the auth
// callbacks without a live connection.
type testContext struct {
	context.Context
	sync.Mutex

	user   string
	values map[any]any
}

func newTestContext(user string) *testContext {
	return &testContext{
		Context: context.Background(),
		user:    user,
		values:  make(map[any]any),
	}
}

func (ctx *testContext) User() string          { return ctx.user }
func (ctx *testContext) SessionID() string     { return "testsession" }
func (ctx *testContext) ClientVersion() string { return "SSH-2.0-test" }
func (ctx *testContext) ServerVersion() string { return "SSH-2.0-test" }

func (ctx *testContext) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}
}

func (ctx *testContext) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8022}
}

func (ctx *testContext) Permissions() *ssh.Permissions {
	return &ssh.Permissions{Permissions: &gossh.Permissions{}}
}

func (ctx *testContext) SetValue(key, value any) {
	ctx.Lock()
	defer ctx.Unlock()
	ctx.values[key] = value
}

func (ctx *testContext) Value(key any) any {
	ctx.Lock()
	defer ctx.Unlock()
	if value, ok := ctx.values[key]; ok {
		return value
	}
	return ctx.Context.Value(key)
}

func generateKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	public, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	sshKey, err := gossh.NewPublicKey(public)
	if err != nil {
		t.Fatalf("converting key: %v", err)
	}
	return sshKey
}

func newTestAuthenticator(t *testing.T, secret string) (*Authenticator, *identity.Store) {
	t.Helper()
	identities, err := identity.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthenticator(identities, secret, nil), identities
}

func TestClaimViaPassword(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")
	key := generateKey(t)

	ctx := newTestContext("alice")
	if auth.PublicKey(ctx, key) {
		t.Fatal("public key accepted before the username was claimed")
	}
	if !auth.Password(ctx, "hunter2") {
		t.Fatal("claim secret with an offered key was refused")
	}
	if ctx.Value(claimOnlyContext) != nil {
		t.Fatal("connection marked claim-only despite binding a key")
	}
	if err := identities.Verify("alice", key); err != nil {
		t.Fatalf("claimed key does not verify: %v", err)
	}

	// Reconnecting with the bound key alone now succeeds.
	if !auth.PublicKey(newTestContext("alice"), key) {
		t.Fatal("bound key rejected on reconnect")
	}
}

func TestClaimRecordsFirstOfferedKey(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")
	first := generateKey(t)
	second := generateKey(t)

	ctx := newTestContext("bob")
	auth.PublicKey(ctx, first)
	auth.PublicKey(ctx, second)
	if !auth.Password(ctx, "hunter2") {
		t.Fatal("claim refused")
	}

	if err := identities.Verify("bob", first); err != nil {
		t.Fatalf("first offered key should be the bound one: %v", err)
	}
	if err := identities.Verify("bob", second); !errors.Is(err, identity.ErrKeyMismatch) {
		t.Fatalf("second key verified, want mismatch, got %v", err)
	}
}

func TestWrongSecretRefused(t *testing.T) {
	auth, _ := newTestAuthenticator(t, "hunter2")
	ctx := newTestContext("alice")
	auth.PublicKey(ctx, generateKey(t))
	if auth.Password(ctx, "wrong") {
		t.Fatal("wrong secret accepted")
	}
}

func TestEmptySecretDisablesClaiming(t *testing.T) {
	auth, _ := newTestAuthenticator(t, "")
	ctx := newTestContext("alice")
	auth.PublicKey(ctx, generateKey(t))
	if auth.Password(ctx, "") {
		t.Fatal("empty password accepted with claiming disabled")
	}
}

func TestSecretRefusedOnceClaimed(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")
	if err := identities.TryClaim("alice", generateKey(t)); err != nil {
		t.Fatal(err)
	}

	ctx := newTestContext("alice")
	auth.PublicKey(ctx, generateKey(t))
	if auth.Password(ctx, "hunter2") {
		t.Fatal("claim secret accepted for an already claimed username")
	}
}

func TestMismatchedKeyRefused(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")
	if err := identities.TryClaim("alice", generateKey(t)); err != nil {
		t.Fatal(err)
	}
	if auth.PublicKey(newTestContext("alice"), generateKey(t)) {
		t.Fatal("unrelated key accepted for a claimed username")
	}
}

func TestClaimOnlyWithoutKey(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")

	ctx := newTestContext("carol")
	if !auth.Password(ctx, "hunter2") {
		t.Fatal("claim secret without a key was refused")
	}
	if ctx.Value(claimOnlyContext) == nil {
		t.Fatal("keyless claim connection not marked claim-only")
	}
	if identities.IsClaimed("carol") {
		t.Fatal("keyless claim connection touched the identity store")
	}
}

func TestInvalidUsernameRefused(t *testing.T) {
	auth, _ := newTestAuthenticator(t, "hunter2")
	for _, name := range []string{"", "bad name", "a/b", ".hidden"} {
		if auth.PublicKey(newTestContext(name), generateKey(t)) {
			t.Errorf("public key accepted for username %q", name)
		}
		if auth.Password(newTestContext(name), "hunter2") {
			t.Errorf("claim secret accepted for username %q", name)
		}
	}
}

func TestClaimUpload(t *testing.T) {
	auth, identities := newTestAuthenticator(t, "hunter2")
	key := generateKey(t)

	ctx := newTestContext("dave")
	if !auth.Password(ctx, "hunter2") {
		t.Fatal("claim secret refused")
	}
	if err := auth.Claim(ctx, "dave", key); err != nil {
		t.Fatalf("uploading a key on a claim-only connection: %v", err)
	}
	if err := identities.Verify("dave", key); err != nil {
		t.Fatalf("uploaded key does not verify: %v", err)
	}

	// A second upload on a fresh claim-only connection loses to the
	// existing binding. The username is claimed now, so the secret
	// no longer admits; simulate the stale connection directly.
	stale := newTestContext("dave")
	stale.SetValue(claimOnlyContext, true)
	if err := auth.Claim(stale, "dave", generateKey(t)); err == nil {
		t.Fatal("second key upload overwrote an existing claim")
	}
}

func TestClaimUploadRequiresClaimOnlyConnection(t *testing.T) {
	auth, _ := newTestAuthenticator(t, "hunter2")
	if err := auth.Claim(newTestContext("alice"), "alice", generateKey(t)); err == nil {
		t.Fatal("key upload allowed on a connection that is not claim-only")
	}
}
