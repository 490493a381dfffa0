package session

import (
	"net/http"

	"tweetdash/internal/config"
	"tweetdash/internal/gateway"
	"tweetdash/internal/utils"
)

// OptionsFromConfig maps loaded configuration onto session options.
func OptionsFromConfig(cfg *config.Config, svc gateway.ContentService, sampler HostSampler, logger *utils.Logger) Options {
	opts := Options{
		Role:              cfg.Session.Role,
		Actor:             cfg.Session.Actor,
		Service:           svc,
		RealtimeURL:       cfg.Realtime.URL,
		MaxBackoff:        cfg.Realtime.MaxReconnectGap,
		RefreshInterval:   cfg.Session.RefreshInterval,
		HealthInterval:    cfg.Session.HealthInterval,
		NotificationTTL:   cfg.Session.NotificationTTL,
		HighlightDuration: cfg.Session.HighlightDuration,
		Sampler:           sampler,
		Logger:            logger,
	}
	if cfg.Content.AuthHeader != "" || cfg.Content.Cookie != "" {
		opts.RealtimeHeader = http.Header{}
		if cfg.Content.AuthHeader != "" {
			opts.RealtimeHeader.Set("Authorization", cfg.Content.AuthHeader)
		}
		if cfg.Content.Cookie != "" {
			opts.RealtimeHeader.Set("Cookie", cfg.Content.Cookie)
		}
	}
	return opts
}
