// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// mcqd serves a multiple-choice questionnaire over SSH. The SSH
// username is the respondent's identity: the first connection claims
// it with a shared claim secret and binds the client's public key,
// every later connection must present that key. Each respondent's
// answers live in one JSON file under the data directory, rewritten
// on every change, so a crash or dropped connection never loses more
// than the keystroke in flight.
//
// Usage:
//
//	mcqd --document survey.md --claim-secret SECRET [--listen :8022]
//
// All flags can also come from a YAML config file (--config); flags
// given on the command line win.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/mcqd/lib/answer"
	"github.com/bureau-foundation/mcqd/lib/clock"
	"github.com/bureau-foundation/mcqd/lib/config"
	"github.com/bureau-foundation/mcqd/lib/document"
	"github.com/bureau-foundation/mcqd/lib/identity"
	"github.com/bureau-foundation/mcqd/lib/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcqd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("mcqd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file")
	listen := flagSet.String("listen", "", "address to bind the SSH server (host:port)")
	documentPath := flagSet.String("document", "", "questionnaire markdown file")
	dataDir := flagSet.String("data", "", "directory for identities, answers and the host key")
	claimSecret := flagSet.String("claim-secret", "", "shared secret that lets a new user claim a username (empty disables claiming)")
	externalAddress := flagSet.String("external-address", "", "address to advertise in onboarding instructions (default: the listen address)")
	hostKey := flagSet.String("host-key", "", "host key path (default: <data>/host_key_ed25519, generated on first start)")
	logLevel := flagSet.String("log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	configuration := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		configuration = loaded
	}
	// Command-line flags override the file, but only when given.
	overrides := map[string]*string{
		"listen":           &configuration.Listen,
		"document":         &configuration.Document,
		"data":             &configuration.DataDir,
		"claim-secret":     &configuration.ClaimSecret,
		"external-address": &configuration.ExternalAddress,
		"host-key":         &configuration.HostKey,
		"log-level":        &configuration.LogLevel,
	}
	values := map[string]string{
		"listen":           *listen,
		"document":         *documentPath,
		"data":             *dataDir,
		"claim-secret":     *claimSecret,
		"external-address": *externalAddress,
		"host-key":         *hostKey,
		"log-level":        *logLevel,
	}
	for name, target := range overrides {
		if flagSet.Changed(name) {
			*target = values[name]
		}
	}
	if err := configuration.Validate(); err != nil {
		return err
	}

	level, err := configuration.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	doc, err := document.Load(configuration.Document)
	if err != nil {
		var parseErr *document.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("questionnaire %s is malformed: %w", configuration.Document, parseErr)
		}
		return fmt.Errorf("loading questionnaire: %w", err)
	}
	logger.Info("questionnaire loaded",
		"path", configuration.Document,
		"title", doc.Title,
		"questions", len(doc.Questions),
	)
	if configuration.ClaimSecret == "" {
		logger.Warn("claim secret is empty, new usernames cannot be claimed")
	}

	identities, err := identity.NewStore(configuration.AuthorizedKeysDir())
	if err != nil {
		return fmt.Errorf("opening identity store: %w", err)
	}
	answers, err := answer.NewStore(configuration.ResultsDir(), clock.Real(), logger)
	if err != nil {
		return fmt.Errorf("opening answer store: %w", err)
	}

	auth := server.NewAuthenticator(identities, configuration.ClaimSecret, logger)
	srv, err := server.New(configuration, doc, auth, answers, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Print(`mcqd - serve a multiple-choice questionnaire over SSH

Respondents connect with:

    ssh -p <port> <username>@<host>

The first connection claims the username: the client offers its public
key, then authenticates with the claim secret as the password, and the
key is bound to the username permanently. Later connections need only
the key.

Flags:
`)
	fmt.Print(flagSet.FlagUsages())
}
