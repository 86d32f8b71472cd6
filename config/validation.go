package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grovetools/teamboard/errors"
)

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.ConfigInvalid(fmt.Sprintf("port %d out of range", c.Port)).
			WithDetail("field", "port")
	}
	if c.Stream.MaxClients <= 0 {
		return errors.ConfigInvalid("stream.max_clients must be positive").
			WithDetail("field", "stream.max_clients")
	}
	if err := positive("stream.heartbeat_interval", int64(c.Stream.HeartbeatInterval)); err != nil {
		return err
	}
	if err := positive("stream.reap_interval", int64(c.Stream.ReapInterval)); err != nil {
		return err
	}
	if err := positive("watch.stability_threshold", int64(c.Watch.StabilityThreshold)); err != nil {
		return err
	}
	if err := positive("watch.poll_interval", int64(c.Watch.PollInterval)); err != nil {
		return err
	}
	if c.Watch.MessageLimit <= 0 {
		return errors.ConfigInvalid("watch.message_limit must be positive").
			WithDetail("field", "watch.message_limit")
	}
	if c.Lock.Retries < 0 {
		return errors.ConfigInvalid("lock.retries cannot be negative").
			WithDetail("field", "lock.retries")
	}
	if err := positive("lock.min_backoff", int64(c.Lock.MinBackoff)); err != nil {
		return err
	}
	if c.Lock.MaxBackoff < c.Lock.MinBackoff {
		return errors.ConfigInvalid("lock.max_backoff must not be below lock.min_backoff").
			WithDetail("field", "lock.max_backoff")
	}
	return nil
}

func positive(field string, v int64) error {
	if v <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("%s must be positive", field)).
			WithDetail("field", field)
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
