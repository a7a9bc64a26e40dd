package connector

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mkelly/billgate/internal/model"
	"github.com/shopspring/decimal"
)

// Session is a live, accepted connection to the billing service.
type Session interface {
	// Query fetches catalog details for the given product specs.
	Query(ctx context.Context, specs []model.ProductSpec) ([]model.Product, error)
}

// session implements Session over a single WebSocket connection.
type session struct {
	cfg    Config
	conn   *websocket.Conn
	logger *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	// Command/response correlation
	pendingMu sync.Mutex
	pending   map[string]chan Response

	// Lifecycle
	closeOnce sync.Once
	done      chan struct{}
	errs      chan error
}

func newSession(cfg Config, conn *websocket.Conn, logger *slog.Logger) *session {
	return &session{
		cfg:     cfg,
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
		errs:    make(chan error, 1),
	}
}

// close releases the underlying socket. Safe to call multiple times;
// the release itself runs exactly once.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
		s.logger.Debug("connection released")
	})
}

// readLoop reads responses from the socket and routes them to waiting
// commands. It exits on the first read error, reporting it unless the
// session was closed locally.
func (s *session) readLoop() {
	for {
		var resp Response
		if err := s.conn.ReadJSON(&resp); err != nil {
			select {
			case <-s.done:
			default:
				select {
				case s.errs <- err:
				default:
				}
			}
			return
		}
		s.routeResponse(resp)
	}
}

// routeResponse delivers a response to the command waiting on its ID.
func (s *session) routeResponse(resp Response) {
	s.pendingMu.Lock()
	ch, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.pendingMu.Unlock()

	if !ok {
		s.logger.Debug("unmatched response", "id", resp.ID, "type", resp.Type)
		return
	}

	select {
	case ch <- resp:
	default:
	}
}

// roundTrip sends a command and waits for its correlated response.
func (s *session) roundTrip(ctx context.Context, cmd Command, timeout time.Duration) (Response, error) {
	respCh := make(chan Response, 1)

	s.pendingMu.Lock()
	s.pending[cmd.ID] = respCh
	s.pendingMu.Unlock()

	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, cmd.ID)
		s.pendingMu.Unlock()
	}()

	if err := s.send(cmd); err != nil {
		return Response{}, err
	}

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-s.done:
		return Response{}, ErrNotConnected
	case <-time.After(timeout):
		return Response{}, ErrTimeout
	case resp := <-respCh:
		return resp, nil
	}
}

// send writes a command to the socket.
func (s *session) send(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return ErrNotConnected
	default:
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// A failed write means the link is gone. Report it so the
		// attempt winds down, and let the caller see a disconnect.
		select {
		case s.errs <- err:
		default:
		}
		return ErrNotConnected
	}
	return nil
}

// hello performs the handshake command and returns the service's answer.
func (s *session) hello(ctx context.Context, clientID, version string) (Response, error) {
	cmd := Command{
		ID:  uuid.NewString(),
		Cmd: "hello",
		Params: HelloParams{
			ClientID: clientID,
			Version:  version,
		},
	}
	return s.roundTrip(ctx, cmd, s.cfg.HandshakeTimeout)
}

// Query fetches catalog details for the given product specs.
func (s *session) Query(ctx context.Context, specs []model.ProductSpec) ([]model.Product, error) {
	if len(specs) == 0 {
		return nil, ErrNoProducts
	}

	params := GetProductsParams{
		Products: make([]ProductSpecMsg, 0, len(specs)),
	}
	for _, spec := range specs {
		params.Products = append(params.Products, ProductSpecMsg{
			ProductID: spec.ID,
			Type:      string(spec.Type),
		})
	}

	cmd := Command{
		ID:     uuid.NewString(),
		Cmd:    "get_products",
		Params: params,
	}

	resp, err := s.roundTrip(ctx, cmd, s.cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case "error":
		var errMsg ErrorMsg
		if err := json.Unmarshal(resp.Msg, &errMsg); err != nil {
			return nil, err
		}
		return nil, &model.BillingError{Code: errMsg.Code, Message: errMsg.Message}

	case "products":
		var msg ProductsMsg
		if err := json.Unmarshal(resp.Msg, &msg); err != nil {
			return nil, err
		}
		return convertProducts(msg.Products)

	default:
		return nil, &model.BillingError{
			Code:    model.CodeDeveloperError,
			Message: "unexpected response type " + resp.Type,
		}
	}
}

// convertProducts maps wire products to domain products.
func convertProducts(msgs []ProductMsg) ([]model.Product, error) {
	products := make([]model.Product, 0, len(msgs))
	for _, m := range msgs {
		price, err := decimal.NewFromString(m.Price)
		if err != nil {
			return nil, &model.BillingError{
				Code:    model.CodeDeveloperError,
				Message: "bad price for " + m.ProductID + ": " + m.Price,
			}
		}
		products = append(products, model.Product{
			ID:          m.ProductID,
			Type:        model.ProductType(m.Type),
			Title:       m.Title,
			Description: m.Description,
			Price:       price,
			Currency:    m.Currency,
			UpdatedAt:   m.UpdatedTS,
		})
	}
	return products, nil
}
