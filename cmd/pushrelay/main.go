package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/pushrelay/internal/client"
)

var (
	app = kingpin.New("pushrelay", "Relay application messages to a browser over Web Push")

	serveCmd = app.Command("serve", "Run the relay HTTP server").Default()

	vapidKeysCmd = app.Command("vapid-keys", "Generate a VAPID key pair")

	subscribeCmd    = app.Command("subscribe", "Register a subscription file with a running relay")
	subscribeServer = subscribeCmd.Flag("server", "Relay base URL").Default("http://localhost:8000").Envar("PUSHRELAY_SERVER").String()
	subscribeFile   = subscribeCmd.Flag("file", "Subscription file (YAML or JSON)").Short('f').Required().ExistingFile()

	notifyCmd     = app.Command("notify", "Ask a running relay to push a message")
	notifyServer  = notifyCmd.Flag("server", "Relay base URL").Default("http://localhost:8000").Envar("PUSHRELAY_SERVER").String()
	notifyTimeout = notifyCmd.Flag("timeout", "Request timeout").Default("30s").Duration()
	notifyMessage = notifyCmd.Arg("message", "Message body; the relay default is used when omitted").String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case serveCmd.FullCommand():
		err = runServe(ctx)
	case vapidKeysCmd.FullCommand():
		err = runVAPIDKeys(os.Stdout)
	case subscribeCmd.FullCommand():
		err = runSubscribe(ctx, os.Stdout, *subscribeServer, *subscribeFile)
	case notifyCmd.FullCommand():
		tctx, cancel := context.WithTimeout(ctx, *notifyTimeout)
		err = runNotify(tctx, os.Stdout, *notifyServer, *notifyMessage)
		cancel()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runVAPIDKeys(w io.Writer) error {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	fmt.Fprintf(w, "PUSHRELAY_VAPID_PUBLIC_KEY=%s\n", publicKey)
	fmt.Fprintf(w, "PUSHRELAY_VAPID_PRIVATE_KEY=%s\n", privateKey)
	return nil
}

func runSubscribe(ctx context.Context, w io.Writer, server, file string) error {
	sub, err := client.LoadSubscriptionFile(file)
	if err != nil {
		return err
	}
	resp, err := client.NewRelayClient(server, &http.Client{Timeout: 30 * time.Second}).Subscribe(ctx, sub)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, resp.Message)
	if resp.Error != "" {
		return fmt.Errorf("greeting failed: %s", resp.Error)
	}
	return nil
}

func runNotify(ctx context.Context, w io.Writer, server, message string) error {
	resp, err := client.NewRelayClient(server, nil).Notify(ctx, message)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	fmt.Fprintln(w, resp.Message)
	return nil
}
