// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/mcqd/lib/answer"
	"github.com/bureau-foundation/mcqd/lib/config"
	"github.com/bureau-foundation/mcqd/lib/document"
	"github.com/bureau-foundation/mcqd/lib/quizui"
)

// maxKeyUpload bounds the add-authorized-keys stdin read. Real public
// keys are well under a kilobyte.
const maxKeyUpload = 16 * 1024

// shutdownGrace is how long Shutdown waits for live sessions before
// closing their connections.
const shutdownGrace = 10 * time.Second

// connectionLevel maps a slog level onto the charmbracelet/log scale
// used by wish's connection middleware.
func connectionLevel(level slog.Level) log.Level {
	switch {
	case level <= slog.LevelDebug:
		return log.DebugLevel
	case level <= slog.LevelInfo:
		return log.InfoLevel
	case level <= slog.LevelWarn:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

// Server accepts SSH connections, gates them through the claim
// authenticator, and runs one questionnaire session per connection.
type Server struct {
	doc        *document.Document
	answers    *answer.Store
	auth       *Authenticator
	registry   *Registry
	logger     *slog.Logger
	advertised string
	ssh        *ssh.Server
}

// New assembles the server. The document is shared read-only by every
// session; the stores must already be open.
func New(configuration config.Config, doc *document.Document, auth *Authenticator, answers *answer.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	advertised := configuration.ExternalAddress
	if advertised == "" {
		advertised = configuration.Listen
	}

	server := &Server{
		doc:        doc,
		answers:    answers,
		auth:       auth,
		registry:   NewRegistry(),
		logger:     logger,
		advertised: advertised,
	}

	// Wish's connection middleware logs through charmbracelet/log;
	// give it a logger at the configured verbosity.
	level, err := configuration.SlogLevel()
	if err != nil {
		return nil, err
	}
	connectionLog := log.NewWithOptions(os.Stderr, log.Options{
		Level:           connectionLevel(level),
		ReportTimestamp: true,
	})

	sshServer, err := wish.NewServer(
		wish.WithAddress(configuration.Listen),
		wish.WithHostKeyPath(configuration.HostKeyPath()),
		wish.WithPublicKeyAuth(auth.PublicKey),
		wish.WithPasswordAuth(auth.Password),
		wish.WithMiddleware(
			server.sessionMiddleware,
			logging.StructuredMiddlewareWithLogger(connectionLog, log.InfoLevel),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building SSH server: %w", err)
	}
	server.ssh = sshServer
	return server, nil
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down, giving live sessions a grace period.
func (server *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", server.ssh.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.ssh.Addr, err)
	}
	return server.Serve(ctx, listener)
}

// Serve runs the server on an existing listener until ctx is
// cancelled. The listener is closed on return.
func (server *Server) Serve(ctx context.Context, listener net.Listener) error {
	server.logger.Info("listening", "address", listener.Addr().String())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := server.ssh.Serve(listener)
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.ssh.Shutdown(shutdownCtx); err != nil {
			// Grace period expired with sessions still up; drop them.
			return server.ssh.Close()
		}
		return nil
	})
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sessionMiddleware is the terminal middleware: it dispatches every
// authenticated connection and never calls next.
func (server *Server) sessionMiddleware(ssh.Handler) ssh.Handler {
	return func(session ssh.Session) {
		if command := session.Command(); len(command) > 0 {
			server.runCommand(session, command)
			return
		}
		if session.Context().Value(claimOnlyContext) != nil {
			wish.Print(session, claimHelp(session.User(), server.advertised))
			session.Exit(1)
			return
		}
		server.runQuiz(session)
	}
}

// runQuiz drives one interactive questionnaire session. Errors here
// are local to the connection: they end this session and nothing
// else.
func (server *Server) runQuiz(session ssh.Session) {
	user := session.User()
	logger := server.logger.With("username", user, "remote", session.RemoteAddr())

	pty, windowChanges, hasPTY := session.Pty()
	if !hasPTY {
		wish.Println(session, "mcqd needs an interactive terminal; reconnect with a PTY (no command).")
		session.Exit(1)
		return
	}

	release, ok := server.registry.Acquire(user)
	if !ok {
		wish.Printf(session, "another session for %q is already active; close it first.\n", user)
		session.Exit(1)
		return
	}
	defer release()

	// Load the saved snapshot; a failed read degrades to an empty
	// set rather than refusing the connection.
	set, err := server.answers.Load(user)
	if err != nil {
		logger.Warn("loading answers failed, starting empty", "error", err)
		set = answer.Set{}
	}

	recorder := quizui.RecorderFunc(func(set answer.Set) error {
		return server.answers.Save(user, set)
	})
	model := quizui.New(server.doc, recorder, user, set, bm.MakeRenderer(session), logger)

	// Seed the terminal size; resizes stream in afterwards.
	sized, _ := model.Update(tea.WindowSizeMsg{Width: pty.Window.Width, Height: pty.Window.Height})
	model = sized.(quizui.Model)

	program := tea.NewProgram(model,
		tea.WithInput(session),
		tea.WithOutput(session),
		tea.WithAltScreen(),
		tea.WithContext(session.Context()),
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case window := <-windowChanges:
				program.Send(tea.WindowSizeMsg{Width: window.Width, Height: window.Height})
			}
		}
	}()

	logger.Info("session started", "questions", len(server.doc.Questions))
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Warn("session ended with error", "error", err)
	}

	// Flush whatever was typed but not committed when the program
	// ended. Covers abrupt disconnects; for clean quits this is an
	// idempotent re-save.
	if finalModel, ok := final.(quizui.Model); ok {
		if err := finalModel.FlushPending(); err != nil {
			logger.Warn("final save failed", "error", err)
		}
	}
	logger.Info("session ended")
	session.Exit(0)
}

// runCommand handles non-interactive exec requests. The only
// supported command is add-authorized-keys, the onboarding path for
// clients that had no key during auth.
func (server *Server) runCommand(session ssh.Session, command []string) {
	user := session.User()
	if command[0] != "add-authorized-keys" {
		wish.Printf(session, "command %q is not supported.\n", command[0])
		if session.Context().Value(claimOnlyContext) != nil {
			wish.Print(session, "\n"+claimHelp(user, server.advertised))
		}
		session.Exit(1)
		return
	}

	data, err := io.ReadAll(io.LimitReader(session, maxKeyUpload))
	if err != nil {
		wish.Println(session, "reading public key from stdin failed.")
		session.Exit(1)
		return
	}
	key, _, _, _, err := gossh.ParseAuthorizedKey(data)
	if err != nil {
		wish.Println(session, "stdin does not contain a valid public key; pipe in ~/.ssh/id_ed25519.pub or similar.")
		session.Exit(1)
		return
	}

	if err := server.auth.Claim(session.Context(), user, key); err != nil {
		wish.Printf(session, "claiming %q failed: %v\n", user, err)
		session.Exit(1)
		return
	}
	wish.Printf(session, "username %q is now bound to %s; reconnect with that key.\n",
		user, gossh.FingerprintSHA256(key))
	session.Exit(0)
}
