package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/bonechkabonechka/tgauth/pkg/initdata"
)

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs, server := newFlagSet(e, "login")
	interval := fs.Duration("interval", authsdk.DefaultPollInterval, "poll interval")
	out := fs.StringP("out", "o", "", "write credentials to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := authsdk.NewClient(*server)
	hs, err := client.BeginHandshake(ctx)
	if err != nil {
		return fmt.Errorf("begin handshake: %w", err)
	}

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	fmt.Fprint(e.stderr, "Open this link in Telegram: ")
	cyan.Fprintln(e.stderr, hs.ExternalActionURL)
	yellow.Fprintf(e.stderr, "Waiting until %s ...\n", time.UnixMilli(hs.ExpiresAt).Format(time.Kitchen))

	creds, err := client.WaitForHandshake(ctx, hs.Token, *interval)
	if err != nil {
		return fmt.Errorf("wait for handshake: %w", err)
	}

	color.New(color.FgGreen).Fprintln(e.stderr, "Signed in.")
	return writeCredentials(e, *out, creds)
}

func cmdComplete(ctx context.Context, e *env, args []string) error {
	fs, server := newFlagSet(e, "complete")
	secret := fs.String("secret", e.getenv("AUTH_BOT_CALLBACK_SECRET"), "bot callback secret (env AUTH_BOT_CALLBACK_SECRET)")
	token := fs.String("token", "", "pairing token, deep link or start parameter")
	identity := identityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" && fs.NArg() > 0 {
		*token = fs.Arg(0)
	}
	if *token == "" {
		return errors.New("--token is required")
	}

	res, err := authsdk.NewClient(*server).CompleteHandshake(ctx, *secret, pairingToken(*token), identity())
	if err != nil {
		return fmt.Errorf("complete handshake: %w", err)
	}

	color.New(color.FgGreen).Fprintln(e.stderr, "Handshake completed.")
	fmt.Fprintln(e.stdout, res.ContinuationURL)
	return nil
}

func cmdSignIn(ctx context.Context, e *env, args []string) error {
	fs, server := newFlagSet(e, "signin")
	raw := fs.String("init-data", "", "raw initData; read from stdin when empty")
	out := fs.StringP("out", "o", "", "write credentials to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data := *raw
	if data == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		data = strings.TrimSpace(string(b))
	}

	res, err := authsdk.NewClient(*server).SignIn(ctx, data)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	color.New(color.FgGreen).Fprintf(e.stderr, "Signed in as %s (%s).\n", res.Profile.FirstName, res.Profile.ID)
	return writeCredentials(e, *out, &res.Credentials)
}

func cmdMe(ctx context.Context, e *env, args []string) error {
	fs, server := newFlagSet(e, "me")
	file := fs.StringP("credentials", "c", "", "credentials file written by login or signin")
	access := fs.String("access", "", "access token")
	refresh := fs.String("refresh", "", "refresh token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds := authsdk.Credentials{AccessToken: *access, RefreshToken: *refresh}
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, &creds); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	}

	me, err := authsdk.NewClient(*server).Me(ctx, creds)
	if err != nil {
		return fmt.Errorf("me: %w", err)
	}

	if me.Rotated != nil {
		color.New(color.FgYellow).Fprintln(e.stderr, "Access token was rotated.")
		if *file != "" {
			if err := writeCredentials(e, *file, me.Rotated); err != nil {
				return err
			}
		}
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(me.Profile)
}

func cmdSignInitData(_ context.Context, e *env, args []string) error {
	fs, _ := newFlagSet(e, "sign-initdata")
	botToken := fs.String("bot-token", e.getenv("TELEGRAM_BOT_TOKEN"), "bot token (env TELEGRAM_BOT_TOKEN)")
	authDate := fs.Int64("auth-date", 0, "auth_date as unix seconds (default now)")
	identity := identityFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *botToken == "" {
		return errors.New("--bot-token is required")
	}

	id := identity()
	user, err := json.Marshal(initdata.User{
		ID:        id.TelegramID,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Username:  id.Username,
		PhotoURL:  id.PhotoURL,
	})
	if err != nil {
		return err
	}

	when := *authDate
	if when == 0 {
		when = time.Now().Unix()
	}

	v := url.Values{}
	v.Set("user", string(user))
	v.Set("auth_date", strconv.FormatInt(when, 10))
	fmt.Fprintln(e.stdout, initdata.Encode(v, *botToken))
	return nil
}

// identityFlags registers the Telegram user flags shared by complete and
// sign-initdata.
func identityFlags(fs *pflag.FlagSet) func() authsdk.Identity {
	id := fs.Int64("tg-id", 1, "Telegram user id")
	first := fs.String("first-name", "Dev", "first name")
	last := fs.String("last-name", "", "last name")
	username := fs.String("username", "", "username")
	photo := fs.String("photo-url", "", "photo URL")
	return func() authsdk.Identity {
		return authsdk.Identity{
			TelegramID: *id,
			FirstName:  *first,
			LastName:   *last,
			Username:   *username,
			PhotoURL:   *photo,
		}
	}
}

// pairingToken accepts a bare token, the "auth_<token>" start parameter or
// the whole deep link.
func pairingToken(s string) string {
	if u, err := url.Parse(s); err == nil && u.Query().Get("start") != "" {
		s = u.Query().Get("start")
	}
	return strings.TrimPrefix(s, service.StartParamPrefix)
}

func writeCredentials(e *env, path string, creds *authsdk.Credentials) error {
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if path == "" {
		_, err := e.stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "Credentials written to %s\n", path)
	return nil
}
