package cache

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	BackendRedis = "redis"
	BackendREST  = "rest"
	BackendNone  = "none"
)

type BackendOptions struct {
	RedisURL  string
	RESTURL   string
	RESTToken string
	Timeout   time.Duration
}

// NewBackend picks the backing store from an explicit configuration value.
func NewBackend(kind string, opts BackendOptions, log zerolog.Logger) (Backend, error) {
	switch kind {
	case BackendRedis, "":
		return NewRedisBackend(opts.RedisURL, log), nil
	case BackendREST:
		if opts.RESTURL == "" || opts.RESTToken == "" {
			return nil, fmt.Errorf("rest cache backend requires url and token")
		}
		return NewRESTBackend(opts.RESTURL, opts.RESTToken, opts.Timeout, log), nil
	case BackendNone:
		return NopBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}
