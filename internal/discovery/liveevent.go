package discovery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/tokenscout/internal/model"
)

// LiveEventFeed subscribes to a websocket token-event stream and converts
// each event into a discovery record tagged source=live_event. It buffers
// records until the host drains them for the next cycle.
type LiveEventFeed struct {
	url     string
	records chan Record
}

// NewLiveEventFeed prepares a feed for the given websocket endpoint.
func NewLiveEventFeed(url string, buffer int) *LiveEventFeed {
	if buffer <= 0 {
		buffer = 256
	}
	return &LiveEventFeed{url: url, records: make(chan Record, buffer)}
}

// liveEvent is the minimal wire shape of a stream event.
type liveEvent struct {
	Mint      string  `json:"mint"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
	Liquidity float64 `json:"liquidity"`
}

// Run connects and pumps events until the context is cancelled, reconnecting
// with backoff on stream errors.
func (f *LiveEventFeed) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		if err := f.pump(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("live event stream dropped, reconnecting")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
	}
}

func (f *LiveEventFeed) pump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev liveEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}
		if ev.Mint == "" || ev.Symbol == "" {
			continue
		}
		rec := Record{
			TokenKey:      ev.Mint,
			Symbol:        ev.Symbol,
			DisplayName:   ev.Name,
			Source:        model.SourceLiveEvent,
			DiscoveryTime: time.Now().UTC(),
			MarketCap:     ev.MarketCap,
			Liquidity:     ev.Liquidity,
		}
		select {
		case f.records <- rec:
		default:
			// Buffer full; newest events win by dropping the oldest.
			select {
			case <-f.records:
			default:
			}
			select {
			case f.records <- rec:
			default:
			}
		}
	}
}

// Drain returns everything buffered since the last drain.
func (f *LiveEventFeed) Drain() []Record {
	var out []Record
	for {
		select {
		case rec := <-f.records:
			out = append(out, rec)
		default:
			return out
		}
	}
}
