// Package api exposes the planning engine over HTTP.
package api

import (
	"fmt"
	"net/url"

	"walkroute/internal/config"
	"walkroute/internal/distmx"
	"walkroute/internal/elevation"
	"walkroute/internal/geocache"
	"walkroute/internal/geocode"
	"walkroute/internal/httpx"
	"walkroute/internal/planner"
	"walkroute/internal/poi"
)

type Server struct {
	Cfg      *config.Config
	Planner  *planner.Planner
	POIs     *poi.Service
	Resolver *geocode.Resolver
	Broker   EventBroker
}

// NewServer wires every pipeline component from configuration. The geocode
// cache backend and the event broker are selected by config: memory by
// default, Redis or Postgres when configured.
func NewServer(cfg *config.Config) (*Server, error) {
	client := httpx.New(cfg.HTTPTimeout, cfg.RetryMax, cfg.UserAgent)
	if u, err := url.Parse(cfg.NominatimURL); err == nil && u.Host != "" {
		// Public Nominatim usage policy: stay at or under cfg.GeocodeRPS.
		client.Limit(u.Host, cfg.GeocodeRPS)
	}

	var cache geocache.Store
	switch cfg.CacheBackend {
	case "", "memory":
		cache = geocache.NewMemory()
	case "redis":
		c, err := geocache.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("geocache redis: %w", err)
		}
		cache = c
	case "postgres":
		c, err := geocache.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("geocache postgres: %w", err)
		}
		cache = c
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		broker = rb
	} else {
		broker = NewBroker()
	}

	resolver := geocode.NewResolver(
		&geocode.Nominatim{BaseURL: cfg.NominatimURL, HTTP: client},
		&geocode.Photon{BaseURL: cfg.PhotonURL, HTTP: client},
		cache, cfg.Region, cfg.Country,
	)
	router := &distmx.OSRM{BaseURL: cfg.OSRMURL, HTTP: client}

	return &Server{
		Cfg:      cfg,
		Resolver: resolver,
		POIs:     poi.NewService(&poi.Client{BaseURL: cfg.OverpassURL, HTTP: client}),
		Broker:   broker,
		Planner: &planner.Planner{
			Resolver:         resolver,
			Matrix:           &distmx.Builder{OSRM: router},
			Router:           router,
			Elevation:        &elevation.Client{BaseURL: cfg.ElevationURL, HTTP: client},
			DefaultStrategy:  cfg.DefaultStrategy,
			DefaultTimeLimit: cfg.DefaultTimeLimitDuration(),
		},
	}, nil
}
