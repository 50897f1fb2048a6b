// Command main is the headless entry point for the Ember client core: it
// wires the runtime, tails the live post feed, and handles push messages.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"ember/internal/bootstrap"
	"ember/internal/config"
	"ember/internal/observability"
	"ember/internal/push"
	"ember/internal/viewmodel"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	logger := observability.Component("main")

	authVM := viewmodel.NewAuthViewModel(rt.Auth)
	authVM.Start()
	defer authVM.Stop()

	feedVM := viewmodel.NewFeedViewModel(rt.PostRepo)
	feedVM.Start(ctx)
	go func() {
		for st := range feedVM.State().Watch(ctx) {
			if st.Err != nil {
				logger.Error("feed stream failed", "error", st.Err)
				continue
			}
			logger.Info("feed updated", "posts", len(st.Posts))
		}
	}()

	go func() {
		for st := range authVM.State().Watch(ctx) {
			logger.Info("auth state", "phase", st.Phase.String())
		}
	}()

	token, err := push.EnsureToken(rt.DB)
	if err != nil {
		logger.Warn("device token unavailable", "error", err)
	} else if err := push.ForwardToken(ctx, cfg.TokenEndpoint, token); err != nil {
		logger.Warn("device token registration failed", "error", err)
	}

	if cfg.PushURL != "" {
		receiver := push.NewReceiver(cfg.PushURL, rt.Prefs, func(msg push.Message) {
			logger.Info("notification", "title", msg.Title, "body", msg.Body)
		})
		go func() {
			if err := receiver.Run(ctx); err != nil {
				logger.Error("push receiver stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
}
