package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/server"
)

func cmdServe(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "serve", &g)
	addr := fs.String("addr", "", "UDP listen address (default from config)")
	certFile := fs.String("cert", "", "TLS certificate file")
	keyFile := fs.String("key", "", "TLS key file")
	selfSigned := fs.Bool("self-signed", false, "use a throwaway self-signed certificate")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.Serve.Addr
	}
	if *certFile == "" {
		*certFile = cfg.Serve.Cert
	}
	if *keyFile == "" {
		*keyFile = cfg.Serve.Key
	}

	var tlsCfg *tls.Config
	switch {
	case *selfSigned:
		host, _, splitErr := net.SplitHostPort(*addr)
		if splitErr != nil || host == "" {
			host = "localhost"
		}
		tlsCfg, err = server.SelfSignedTLS([]string{host}, 24*time.Hour)
		if err != nil {
			return err
		}
		log.Warn("serving with a self-signed certificate")
	case *certFile != "" && *keyFile != "":
		tlsCfg, err = server.LoadTLS(*certFile, *keyFile)
		if err != nil {
			return errors.ReadFailed(*certFile, err)
		}
	default:
		return errors.InvalidUsage("serve needs -cert and -key, or -self-signed")
	}

	h := server.NewHandler(server.Options{Parser: cfg.ParserOptions(), Logger: log})
	srv := server.NewHTTP3Server(*addr, tlsCfg, h)
	bound, err := srv.Start()
	if err != nil {
		return err
	}
	defer srv.Stop()
	fmt.Fprintf(e.stderr, "serving HTTP/3 on %s\n", bound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.Stop()
	case err := <-srv.Done():
		return err
	}
}
