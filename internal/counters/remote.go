package counters

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/puzpuzpuz/xsync/v3"
)

// RemoteSample is published by the device-side agent for every reading.
type RemoteSample struct {
	Counter string  `json:"counter"`
	Value   float64 `json:"value"`
}

// remoteSampler keeps the latest reading per counter. Each reading is
// returned by Sample at most once.
type remoteSampler struct {
	wanted map[string]struct{}
	latest *xsync.MapOf[string, float64]
	sub    *nats.Subscription
	once   sync.Once
	logger *slog.Logger
}

// RemoteFactory subscribes to counter readings pushed over NATS by an
// agent running next to the browser on the device.
func RemoteFactory(nc *nats.Conn, subject string, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(_ string, names []string) (Sampler, error) {
		s := newRemoteSampler(names, logger)
		sub, err := nc.Subscribe(subject, s.handle)
		if err != nil {
			return nil, err
		}
		s.sub = sub
		return s, nil
	}
}

func newRemoteSampler(names []string, logger *slog.Logger) *remoteSampler {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	return &remoteSampler{
		wanted: wanted,
		latest: xsync.NewMapOf[string, float64](),
		logger: logger,
	}
}

func (s *remoteSampler) handle(msg *nats.Msg) {
	var rs RemoteSample
	if err := json.Unmarshal(msg.Data, &rs); err != nil {
		s.logger.Debug("dropping malformed counter sample", "error", err)
		return
	}
	if _, ok := s.wanted[rs.Counter]; !ok {
		return
	}
	s.latest.Store(rs.Counter, rs.Value)
}

func (s *remoteSampler) Sample(name string) (float64, bool) {
	return s.latest.LoadAndDelete(name)
}

func (s *remoteSampler) Stop() {
	s.once.Do(func() {
		if s.sub == nil {
			return
		}
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Warn("failed to unsubscribe counter stream", "error", err)
		}
	})
}
