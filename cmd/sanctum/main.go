// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

// Command sanctum is the command-line client for the sanctum credential
// vault daemon. It authenticates as an agent with an Ed25519 key file
// and exposes the daemon's operations as subcommands: get, list, use,
// release, and keygen for producing key files.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/jwgale/sanctum-go/cmd/sanctum/cli"
	"github.com/jwgale/sanctum-go/lib/config"
	"github.com/jwgale/sanctum-go/lib/keyfile"
	"github.com/jwgale/sanctum-go/lib/version"
	"github.com/jwgale/sanctum-go/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cli.Command{
		Name:    "sanctum",
		Summary: "client for the sanctum credential vault",
		Description: "sanctum is the command-line client for the sanctum credential\n" +
			"vault daemon. Agents authenticate with an Ed25519 key file and\n" +
			"operate on credentials by path.",
		Subcommands: []*cli.Command{
			getCommand(),
			listCommand(),
			useCommand(),
			releaseCommand(),
			keygenCommand(),
			versionCommand(),
		},
	}
	return root.Execute(os.Args[1:])
}

// sessionFlags are the connection flags shared by every subcommand
// that talks to the daemon. Flag values override the config file.
type sessionFlags struct {
	configPath string
	socketPath string
	host       string
	port       int
	agentName  string
	keyPath    string
	keyDir     string
	encrypted  bool
	timeout    time.Duration
	verbose    bool
}

func (f *sessionFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "config file (default $SANCTUM_CONFIG)")
	flagSet.StringVar(&f.socketPath, "socket", "", "daemon Unix socket path")
	flagSet.StringVar(&f.host, "host", "", "daemon TCP host (with --port)")
	flagSet.IntVar(&f.port, "port", 0, "daemon TCP port (with --host)")
	flagSet.StringVar(&f.agentName, "agent", "", "agent name to authenticate as")
	flagSet.StringVar(&f.keyPath, "key", "", "signing key file (overrides --key-dir lookup)")
	flagSet.StringVar(&f.keyDir, "key-dir", "", "directory holding agent key files")
	flagSet.BoolVar(&f.encrypted, "encrypted", false, "key file is passphrase-protected; prompt for the passphrase")
	flagSet.DurationVar(&f.timeout, "timeout", 0, "per-call timeout (default 30s)")
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
}

// sessionConfig merges the config file and the flags into a session
// configuration. Flags win over file values.
func (f *sessionFlags) sessionConfig() (vault.SessionConfig, error) {
	var fileConfig config.Config
	var err error
	if f.configPath != "" {
		fileConfig, err = config.LoadFile(f.configPath)
	} else {
		fileConfig, err = config.Load()
	}
	if err != nil {
		return vault.SessionConfig{}, err
	}

	sessionConfig := vault.SessionConfig{
		AgentName:  f.agentName,
		SocketPath: fileConfig.SocketPath,
		Host:       fileConfig.Host,
		Port:       fileConfig.Port,
		KeyPath:    fileConfig.KeyPath,
		KeyDir:     fileConfig.KeyDir,
		Logger:     cli.NewCommandLogger(f.verbose),
	}
	if fileConfig.CallTimeoutSeconds > 0 {
		sessionConfig.CallTimeout = time.Duration(fileConfig.CallTimeoutSeconds) * time.Second
	}

	if f.socketPath != "" || f.host != "" {
		sessionConfig.SocketPath = f.socketPath
		sessionConfig.Host = f.host
		sessionConfig.Port = f.port
	}
	if f.keyPath != "" {
		sessionConfig.KeyPath = f.keyPath
	}
	if f.keyDir != "" {
		sessionConfig.KeyDir = f.keyDir
	}
	if f.timeout > 0 {
		sessionConfig.CallTimeout = f.timeout
	}

	if sessionConfig.AgentName == "" {
		return vault.SessionConfig{}, fmt.Errorf("--agent is required")
	}
	if f.encrypted {
		passphrase, err := cli.ReadPassphrase("Key passphrase: ")
		if err != nil {
			return vault.SessionConfig{}, fmt.Errorf("reading passphrase: %w", err)
		}
		sessionConfig.Passphrase = passphrase
	}
	return sessionConfig, nil
}

// withSession runs fn inside a connected session built from the flags.
func (f *sessionFlags) withSession(fn func(context.Context, *vault.Session) error) error {
	sessionConfig, err := f.sessionConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	return vault.WithSession(ctx, sessionConfig, func(session *vault.Session) error {
		return fn(ctx, session)
	})
}

func getCommand() *cli.Command {
	flags := &sessionFlags{}
	var ttl int
	var raw bool

	return &cli.Command{
		Name:    "get",
		Summary: "retrieve a credential value",
		Usage:   "sanctum get <path> [flags]",
		Examples: []cli.Example{
			{Description: "fetch a credential as a string", Command: "sanctum get --agent ci-deploy svc/api-key"},
			{Description: "fetch with lease metadata", Command: "sanctum get --agent ci-deploy --raw svc/api-key"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.IntVar(&ttl, "ttl", 0, "requested lease ttl in seconds (0 = server default)")
			flagSet.BoolVar(&raw, "raw", false, "print the full retrieve result as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one credential path")
			}
			return flags.withSession(func(ctx context.Context, session *vault.Session) error {
				if raw {
					result, err := session.RetrieveRaw(ctx, args[0], ttl)
					if err != nil {
						return err
					}
					return printJSON(result)
				}
				value, err := session.Retrieve(ctx, args[0], ttl)
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			})
		},
	}
}

func listCommand() *cli.Command {
	flags := &sessionFlags{}
	var asJSON bool

	return &cli.Command{
		Name:    "list",
		Summary: "list accessible credentials",
		Usage:   "sanctum list [flags]",
		Examples: []cli.Example{
			{Description: "list credentials the agent can access", Command: "sanctum list --agent ci-deploy"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&asJSON, "json", false, "print as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			return flags.withSession(func(ctx context.Context, session *vault.Session) error {
				credentials, err := session.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(credentials)
				}
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "PATH\tTAGS")
				for _, credential := range credentials {
					fmt.Fprintf(tw, "%s\t%s\n", credential.Path, strings.Join(credential.Tags, ","))
				}
				return tw.Flush()
			})
		},
	}
}

func useCommand() *cli.Command {
	flags := &sessionFlags{}
	var params []string

	return &cli.Command{
		Name:    "use",
		Summary: "run a server-side operation with a credential",
		Usage:   "sanctum use <path> <operation> [flags]",
		Description: "use asks the daemon to apply a credential to an operation\n" +
			"server-side. The secret never crosses the wire and no lease is\n" +
			"created.",
		Examples: []cli.Example{
			{Description: "sign a payload with a held key", Command: "sanctum use --agent ci-deploy svc/signer sign --param payload=deadbeef"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("use", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringArrayVar(&params, "param", nil, "operation parameter as key=value (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a credential path and an operation")
			}
			operationParams := make(map[string]any, len(params))
			for _, pair := range params {
				key, value, found := strings.Cut(pair, "=")
				if !found || key == "" {
					return fmt.Errorf("malformed --param %q, want key=value", pair)
				}
				operationParams[key] = value
			}
			return flags.withSession(func(ctx context.Context, session *vault.Session) error {
				result, err := session.Use(ctx, args[0], args[1], operationParams)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
}

func releaseCommand() *cli.Command {
	flags := &sessionFlags{}

	return &cli.Command{
		Name:    "release",
		Summary: "release a credential lease",
		Usage:   "sanctum release <lease-id> [flags]",
		Examples: []cli.Example{
			{Description: "release a lease left by a crashed process", Command: "sanctum release --agent ci-deploy lease-42"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("release", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one lease id")
			}
			return flags.withSession(func(ctx context.Context, session *vault.Session) error {
				return session.ForceReleaseLease(ctx, args[0])
			})
		},
	}
}

func keygenCommand() *cli.Command {
	var keyDir string
	var encrypted bool

	return &cli.Command{
		Name:    "keygen",
		Summary: "generate an agent signing key",
		Usage:   "sanctum keygen <agent-name> [flags]",
		Description: "keygen writes a new Ed25519 signing key for an agent and prints\n" +
			"the public key for registration with the vault daemon. With\n" +
			"--encrypted the key file is sealed with a passphrase.",
		Examples: []cli.Example{
			{Description: "generate a plaintext key file", Command: "sanctum keygen ci-deploy"},
			{Description: "generate a passphrase-protected key file", Command: "sanctum keygen ci-deploy --encrypted"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVar(&keyDir, "key-dir", "", "directory for the key file (default ~/.sanctum/keys)")
			flagSet.BoolVar(&encrypted, "encrypted", false, "seal the key file with a passphrase")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one agent name")
			}
			agentName := args[0]

			dir := keyDir
			if dir == "" {
				var err error
				dir, err = keyfile.DefaultDir()
				if err != nil {
					return err
				}
			}

			if encrypted {
				passphrase, err := cli.ReadPassphrase("New key passphrase: ")
				if err != nil {
					return fmt.Errorf("reading passphrase: %w", err)
				}
				confirm, err := cli.ReadPassphrase("Confirm passphrase: ")
				if err != nil {
					return fmt.Errorf("reading passphrase: %w", err)
				}
				if passphrase != confirm {
					return fmt.Errorf("passphrases do not match")
				}
				path := filepath.Join(dir, agentName+".key.enc")
				publicKey, err := keyfile.GenerateEncrypted(path, passphrase)
				if err != nil {
					return err
				}
				fmt.Printf("wrote %s\npublic key: %s\n", path, hex.EncodeToString(publicKey))
				return nil
			}

			path := filepath.Join(dir, agentName+".key")
			publicKey, err := keyfile.Generate(path)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\npublic key: %s\n", path, hex.EncodeToString(publicKey))
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "print version information",
		Run: func(args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
