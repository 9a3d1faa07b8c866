package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// BookDepth is the number of levels per side summed into the volume figure.
const BookDepth = 5

// VenueSource reads the order book of one market from the venue gateway's
// REST API.
type VenueSource struct {
	BaseURL string
	Market  string
	Client  *http.Client
	now     func() time.Time
}

// NewVenueSource creates a new source with optional proxy support.
func NewVenueSource(baseURL, market, proxyURL string) *VenueSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &VenueSource{
		BaseURL: baseURL,
		Market:  market,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		now: time.Now,
	}
}

func (s *VenueSource) Name() string { return "venue" }

// bookLevel is the expected JSON shape of one order book level.
type bookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

type orderBook struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

// Snapshot fetches the top of the book and derives mid price, spread and
// the summed size of the best BookDepth levels on both sides.
func (s *VenueSource) Snapshot(ctx context.Context) (model.MarketSnapshot, error) {
	endpoint := fmt.Sprintf("%s/markets/%s/orderbook?depth=%d", s.BaseURL, url.PathEscape(s.Market), BookDepth)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return model.MarketSnapshot{}, fmt.Errorf("fetch order book: %w: %w", model.ErrNoMarketData, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.MarketSnapshot{}, fmt.Errorf("fetch order book: %w: status %d, body: %s",
			model.ErrNoMarketData, resp.StatusCode, string(body))
	}
	var book orderBook
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return model.MarketSnapshot{}, fmt.Errorf("decode order book: %w: %w", model.ErrNoMarketData, err)
	}
	return snapshotFromBook(book.Bids, book.Asks, s.now())
}

// snapshotFromBook derives a MarketSnapshot from raw book levels. Levels may
// arrive in any order.
func snapshotFromBook(bids, asks []bookLevel, at time.Time) (model.MarketSnapshot, error) {
	if len(bids) == 0 || len(asks) == 0 {
		return model.MarketSnapshot{}, fmt.Errorf("%w: %d bids, %d asks", model.ErrNoMarketData, len(bids), len(asks))
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	bestBid, bestAsk := bids[0].Price, asks[0].Price
	snap := model.MarketSnapshot{
		MidPrice: bestBid.Add(bestAsk).Div(decimal.NewFromInt(2)),
		Spread:   bestAsk.Sub(bestBid),
		Volume:   depthSize(bids).Add(depthSize(asks)),
		At:       at,
	}
	if err := snap.Validate(); err != nil {
		return model.MarketSnapshot{}, err
	}
	return snap, nil
}

func depthSize(levels []bookLevel) decimal.Decimal {
	total := decimal.Zero
	for i, l := range levels {
		if i == BookDepth {
			break
		}
		total = total.Add(l.Size)
	}
	return total
}
