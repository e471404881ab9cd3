// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bvk/indexmon/cli"
	"github.com/bvk/indexmon/ctxutil"
	"github.com/bvk/indexmon/metrics"
	"github.com/bvk/indexmon/pushover"
	"github.com/bvk/indexmon/server"
	"github.com/bvk/indexmon/telegram"
	"github.com/bvkgo/kv/kvmemdb"
	"golang.org/x/term"
)

type Setup struct {
	dataDir     string
	secretsPath string
	skipTesting bool
}

func (c *Setup) Synopsis() string {
	return "Setup prints and/or configures indexmon daemon"
}

func (c *Setup) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("setup", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *Setup) CommandHelp() string {
	return `

Command "setup" helps users configure the metrics backend keys and
notification keys for the Pushover and Telegram services. Command prints
current config when run without any arguments.

METRICS PARAMETERS

Metrics keys are optional. They are required to publish the percentage change
gauge to the metrics backend. They can be configured as follows:

  $ indexmon setup metrics-kid=key-uuid metrics-pem="-----BEGIN EC PRIVATE ... PRIVATE KEY-----\n" metrics-url=https://metrics.example.com/ingest

PUSHOVER PARAMETERS

Pushover keys are optional. They are required to receive notifications to the
mobile phones. They can be configured as follows:

  $ indexmon setup pushover-app=awja5ue...ito7svf pushover-user=uscjs2...tvp4kv

TELEGRAM PARAMETERS

Telegram keys are optional. They are required to receive alerts and interact
with the daemon over a telegram bot. They can be configured as follows:

  $ indexmon setup telegram-token=110201543:AAH...dew11o telegram-owner=myusername
`
}

func (c *Setup) run(ctx context.Context, args []string) error {
	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".indexmon")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if len(args) == 0 {
			return fmt.Errorf("indexmon is not configured")
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if len(args) == 0 {
			return fmt.Errorf("indexmon is not configured")
		}
	}

	if len(args) == 0 {
		js, _ := json.MarshalIndent(secrets, "", "  ")
		fmt.Printf("%s\n", js)
		return nil
	}

	if secrets == nil {
		secrets = &server.Secrets{}
	}

	validKeys := []string{
		"metrics-kid", "metrics-pem", "metrics-url",
		"pushover-app", "pushover-user",
		"telegram-token", "telegram-owner", "telegram-admin",
	}
	kvMap := make(map[string]string)
	// Parse config values from the command-line.
	for _, arg := range args {
		before, after, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("invalid config argument %q", arg)
		}
		if !slices.Contains(validKeys, before) {
			return fmt.Errorf("invalid/unrecognized config item key %q", before)
		}
		if v, ok := kvMap[before]; ok && v != after {
			return fmt.Errorf("config item key %q is found with different values", before)
		}
		kvMap[before] = after
	}

	metricsKid := kvMap["metrics-kid"]
	metricsPem := kvMap["metrics-pem"]
	metricsURL := kvMap["metrics-url"]
	if len(metricsKid) != 0 || len(metricsPem) != 0 || len(metricsURL) != 0 {
		if len(metricsKid) == 0 || len(metricsPem) == 0 || len(metricsURL) == 0 {
			return fmt.Errorf(`all of "metrics-kid", "metrics-pem" and "metrics-url" parameters are required`)
		}
		// Replace escaped newline characters with newlines.
		metricsPem = strings.ReplaceAll(metricsPem, `\\n`, "\n")
		metricsPem = strings.ReplaceAll(metricsPem, `\n`, "\n")
		secrets.Metrics = &metrics.Keys{
			KeyID:         metricsKid,
			PrivateKeyPEM: metricsPem,
			IngestURL:     metricsURL,
		}
		if !c.skipTesting {
			// Attempt to sign a token to validate the keys.
			client, err := metrics.New(secrets.Metrics)
			if err != nil {
				return err
			}
			client.Close()
		}
	}

	pushoverApp := kvMap["pushover-app"]
	pushoverUser := kvMap["pushover-user"]
	if len(pushoverUser) != 0 || len(pushoverApp) != 0 {
		if len(pushoverApp) == 0 || len(pushoverUser) == 0 {
			return fmt.Errorf(`both "pushover-app" and "pushover-user" parameters are required`)
		}
		secrets.Pushover = &pushover.Keys{
			ApplicationKey: pushoverApp,
			UserKey:        pushoverUser,
		}
		if !c.skipTesting {
			// Attempt to authenticate with pushover to validate the keys.
			client, err := pushover.New(secrets.Pushover)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, time.Now(), "Test message from Pushover config setup; please ignore."); err != nil {
				return err
			}
		}
	}

	telegramToken := kvMap["telegram-token"]
	telegramOwner := kvMap["telegram-owner"]
	telegramAdmin := kvMap["telegram-admin"]
	if len(telegramToken) != 0 || len(telegramOwner) != 0 {
		if len(telegramToken) == 0 || len(telegramOwner) == 0 {
			return fmt.Errorf(`both "telegram-token" and "telegram-owner" parameters are required`)
		}
		secrets.Telegram = &telegram.Secrets{
			BotToken: telegramToken,
			OwnerID:  telegramOwner,
			AdminID:  telegramAdmin,
		}
		if err := secrets.Telegram.Check(); err != nil {
			return err
		}
		if !c.skipTesting {
			func() {
				fmt.Println("Start a chat with telegram bot and then press any key")
				// switch stdin into 'raw' mode
				oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
				if err != nil {
					log.Fatal(err)
				}
				defer term.Restore(int(os.Stdin.Fd()), oldState)

				b := make([]byte, 1)
				_, err = os.Stdin.Read(b)
				if err != nil {
					log.Fatal(err)
				}
			}()

			// Attempt to authenticate with telegram to validate the keys.
			client, err := telegram.New(ctx, kvmemdb.New(), secrets.Telegram)
			if err != nil {
				return err
			}
			ctxutil.Sleep(ctx, time.Second)
			if err := client.SendMessage(ctx, time.Now(), "Test message from Telegram config setup; please ignore."); err != nil {
				return err
			}
			client.Close()
		}
	}

	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}
