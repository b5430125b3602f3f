package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/starford/notetoself/internal"
)

const passphraseEnv = "NOTETOSELF_PASSPHRASE"

// loadOptions reads the config and collects the options every command shares.
func loadOptions(cmd *cli.Command, needPassphrase bool) ([]internal.Option, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if url := cmd.String("remote"); url != "" {
		cfg.Client.RemoteURL = url
	}
	if dir := cmd.String("dir"); dir != "" {
		cfg.Client.DraftsPath = dir
	}

	opts := []internal.Option{internal.WithConfig(cfg)}
	if needPassphrase {
		pass, err := passphrase(cmd)
		if err != nil {
			return nil, err
		}
		opts = append(opts, internal.WithPassphrase(pass))
	}
	return opts, nil
}

// passphrase comes from the flag or its environment variable, else from a
// hidden terminal prompt. Piped stdin is read up to the first newline.
func passphrase(cmd *cli.Command) (string, error) {
	if cmd.IsSet("passphrase") {
		return cmd.String("passphrase"), nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimRight(line, "\r"), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func login(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	return internal.Login(ctx, opts...)
}

func open(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if cmd.Args().Len() != 1 {
		return errors.New("usage: open <title>")
	}
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	return internal.Open(ctx, title, opts...)
}

func save(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return errors.New("usage: save <title> [body]")
	}
	title := cmd.Args().Get(0)
	body := cmd.Args().Get(1)
	if cmd.Args().Len() == 1 {
		if !cmd.IsSet("passphrase") {
			return errors.New("save: reading the body from stdin needs --passphrase or " + passphraseEnv)
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		body = string(b)
	}
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	return internal.Save(ctx, title, body, opts...)
}

func watch(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	return internal.Watch(ctx, opts...)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("passphrase") {
		return errors.New("mcp: stdin carries the protocol; set --passphrase or " + passphraseEnv)
	}
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func passphraseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "passphrase",
		Aliases: []string{"p"},
		Usage:   "Notebook passphrase (prompted when omitted)",
		Sources: cli.EnvVars(passphraseEnv),
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "notetoself",
		Usage: "Passphrase-addressed notes kept in a signed key-value registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "Registry API URL; overrides client.remote_url",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the registry server",
				Action: serve,
			},
			{
				Name:   "login",
				Usage:  "Derive the notebook key and list its titles",
				Flags:  []cli.Flag{passphraseFlag()},
				Action: login,
			},
			{
				Name:      "open",
				Usage:     "Print a note",
				ArgsUsage: "<title>",
				Flags:     []cli.Flag{passphraseFlag()},
				Action:    open,
			},
			{
				Name:      "save",
				Usage:     "Create or overwrite a note; the body is read from stdin when omitted",
				ArgsUsage: "<title> [body]",
				Flags:     []cli.Flag{passphraseFlag()},
				Action:    save,
			},
			{
				Name:  "watch",
				Usage: "Save drafts from a directory as they change",
				Flags: []cli.Flag{
					passphraseFlag(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Drafts directory; overrides client.drafts_path",
					},
				},
				Action: watch,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the notebook to an MCP client over stdio",
				Flags:  []cli.Flag{passphraseFlag()},
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
