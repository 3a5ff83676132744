// Command pushctl is an operator tool for a pushdispatch deployment.
//
//	pushctl send -user u1 -title "Hello" -body "World"
//	pushctl token -user u1 -ttl 24h
//	pushctl vapid
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/oliverisaac/goli"
	"github.com/oliverisaac/pushdispatch/lib/guard"
	"github.com/oliverisaac/pushdispatch/lib/pushclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	goli.InitLogrus(logrus.InfoLevel)
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		logrus.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Debug(errors.Wrap(err, "Failed to load .env"))
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: pushctl <send|token|vapid> [flags]")
	}

	switch args[0] {
	case "send":
		return send(args[1:], out)
	case "token":
		return token(args[1:], out)
	case "vapid":
		return vapid(out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func send(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	server := fs.String("server", goli.DefaultEnv("PUSH_SERVER", "http://localhost:8080"), "pushdispatch base url")
	key := fs.String("key", os.Getenv("PUSH_SERVICE_KEY"), "service credential")
	push := pushclient.Push{}
	fs.StringVar(&push.UserID, "user", "", "user id to notify")
	fs.StringVar(&push.Title, "title", "", "notification title")
	fs.StringVar(&push.Body, "body", "", "notification body")
	fs.StringVar(&push.ContentID, "content", "", "optional content id")
	fs.StringVar(&push.Category, "category", "", "optional category")
	fs.StringVar(&push.URL, "url", "", "optional click-through url")
	timeout := fs.Duration("timeout", time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := pushclient.New(*server, *key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := client.SendPush(ctx, push)
	if err != nil {
		return errors.Wrap(err, "sending push")
	}

	fmt.Fprintf(out, "notification %s: sent=%d failed=%d\n", res.NotificationID, res.Sent, res.Failed)
	return nil
}

func token(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id (token subject)")
	email := fs.String("email", "", "optional email claim")
	issuer := fs.String("issuer", os.Getenv("PUSH_JWT_ISSUER"), "issuer claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret := os.Getenv("PUSH_JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("You must define env PUSH_JWT_SECRET")
	}
	if *userID == "" {
		return fmt.Errorf("-user is required")
	}

	signed, err := guard.SignUserToken([]byte(secret), *issuer, *userID, *email, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, signed)
	return nil
}

func vapid(out io.Writer) error {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return errors.Wrap(err, "generating VAPID keys")
	}
	fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
	return nil
}
