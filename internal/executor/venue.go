package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

const (
	DefaultConfirmAttempts = 30
	DefaultConfirmDelay    = 2 * time.Second
	DefaultConfirmTimeout  = 60 * time.Second
)

// VenueOptions configures a VenueExecutor.
type VenueOptions struct {
	Endpoint        string
	Market          string
	ProgramID       string
	ProxyURL        string
	ConfirmAttempts int
	ConfirmDelay    time.Duration
	ConfirmTimeout  time.Duration
}

// VenueExecutor places limit orders through the venue gateway's REST API and
// polls until the order settles.
type VenueExecutor struct {
	opts   VenueOptions
	Client *http.Client
	now    func() time.Time
}

// NewVenueExecutor creates an executor with optional proxy support.
func NewVenueExecutor(opts VenueOptions) *VenueExecutor {
	if opts.ConfirmAttempts <= 0 {
		opts.ConfirmAttempts = DefaultConfirmAttempts
	}
	if opts.ConfirmDelay <= 0 {
		opts.ConfirmDelay = DefaultConfirmDelay
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &VenueExecutor{
		opts: opts,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		now: time.Now,
	}
}

func (v *VenueExecutor) Name() string { return "venue" }

type orderRequest struct {
	ClientID  string          `json:"client_id"`
	Market    string          `json:"market"`
	ProgramID string          `json:"program_id,omitempty"`
	Side      model.Side      `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Type      string          `json:"type"`
}

type orderStatus struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Signature string `json:"signature"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusExpired   = "expired"
	statusFailed    = "failed"
)

// Submit posts the order and waits for its confirmation. The whole exchange is
// bounded by ConfirmTimeout.
func (v *VenueExecutor) Submit(ctx context.Context, order model.Order) (model.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.ConfirmTimeout)
	defer cancel()

	if order.ClientID == "" {
		order.ClientID = uuid.NewString()
	}
	if order.Market == "" {
		order.Market = v.opts.Market
	}

	placed, err := v.place(ctx, order)
	if err != nil {
		return model.Confirmation{}, model.NewExecutionError(order.Side, err)
	}
	log.Debug().
		Str("order_id", placed.OrderID).
		Str("side", string(order.Side)).
		Str("notional", order.Notional().String()).
		Msg("order placed, awaiting confirmation")

	st, err := v.awaitConfirmation(ctx, placed)
	if err != nil {
		return model.Confirmation{}, model.NewExecutionError(order.Side, err)
	}
	return model.Confirmation{
		OrderID:     st.OrderID,
		Signature:   st.Signature,
		ConfirmedAt: v.now(),
	}, nil
}

func (v *VenueExecutor) place(ctx context.Context, order model.Order) (orderStatus, error) {
	body, err := json.Marshal(orderRequest{
		ClientID:  order.ClientID,
		Market:    order.Market,
		ProgramID: v.opts.ProgramID,
		Side:      order.Side,
		Price:     order.Price,
		Size:      order.Size,
		Type:      "limit",
	})
	if err != nil {
		return orderStatus{}, fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.opts.Endpoint+"/orders", bytes.NewReader(body))
	if err != nil {
		return orderStatus{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	st, err := v.do(req)
	if err != nil {
		return orderStatus{}, fmt.Errorf("place order: %w", err)
	}
	if st.OrderID == "" {
		st.OrderID = order.ClientID
	}
	return st, nil
}

func (v *VenueExecutor) awaitConfirmation(ctx context.Context, st orderStatus) (orderStatus, error) {
	for attempt := 1; ; attempt++ {
		switch st.Status {
		case statusConfirmed:
			return st, nil
		case statusExpired:
			return st, fmt.Errorf("order %s: %w", st.OrderID, model.ErrOrderExpired)
		case statusFailed:
			return st, fmt.Errorf("order %s: %s: %w", st.OrderID, st.Message, errorForCode(st.Code))
		}
		if attempt > v.opts.ConfirmAttempts {
			return st, fmt.Errorf("order %s unconfirmed after %d attempts: %w",
				st.OrderID, v.opts.ConfirmAttempts, model.ErrOrderExpired)
		}

		select {
		case <-ctx.Done():
			return st, fmt.Errorf("order %s: confirmation %v: %w", st.OrderID, ctx.Err(), model.ErrOrderExpired)
		case <-time.After(v.opts.ConfirmDelay):
		}

		next, err := v.status(ctx, st.OrderID)
		if err != nil {
			if ctx.Err() != nil {
				return st, fmt.Errorf("order %s: confirmation %v: %w", st.OrderID, ctx.Err(), model.ErrOrderExpired)
			}
			log.Warn().Err(err).Str("order_id", st.OrderID).Int("attempt", attempt).Msg("order status poll failed")
			continue
		}
		st = next
	}
}

func (v *VenueExecutor) status(ctx context.Context, orderID string) (orderStatus, error) {
	endpoint := fmt.Sprintf("%s/orders/%s", v.opts.Endpoint, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return orderStatus{}, err
	}
	st, err := v.do(req)
	if err != nil {
		return orderStatus{}, err
	}
	if st.OrderID == "" {
		st.OrderID = orderID
	}
	return st, nil
}

// do executes req and decodes an orderStatus. Venue-side rejections come back
// as 4xx with a code field and are mapped onto the failure taxonomy.
func (v *VenueExecutor) do(req *http.Request) (orderStatus, error) {
	resp, err := v.Client.Do(req)
	if err != nil {
		return orderStatus{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return orderStatus{}, err
	}
	var st orderStatus
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil && resp.StatusCode < 400 {
			return orderStatus{}, fmt.Errorf("decode order status: %w", err)
		}
	}
	switch {
	case resp.StatusCode >= 500:
		return orderStatus{}, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(raw))
	case resp.StatusCode >= 400:
		return orderStatus{}, fmt.Errorf("status %d: %s: %w", resp.StatusCode, st.Message, errorForCode(st.Code))
	}
	if st.Status == "" {
		st.Status = statusPending
	}
	return st, nil
}

func errorForCode(code string) error {
	switch code {
	case "expired", "blockhash_expired", "block_height_exceeded":
		return model.ErrOrderExpired
	case "insufficient_funds":
		return model.ErrInsufficientFunds
	default:
		return model.ErrOrderRejected
	}
}
