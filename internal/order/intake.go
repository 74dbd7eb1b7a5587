package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mercadinho-be/internal/logger"

	"go.uber.org/zap"
)

// ErrIntakeFailed means the order-intake collaborator did not accept the
// submission. The session stays where it was; nothing is lost.
var ErrIntakeFailed = errors.New("order intake submission failed")

// Intake delivers finalized orders to the store's order panel.
type Intake interface {
	Submit(ctx context.Context, o *Order) error
	Amend(ctx context.Context, o *Order) error
}

type intakeClient struct {
	baseURL    string
	httpClient *http.Client
	backoff    time.Duration
}

func NewIntake(baseURL string, timeout time.Duration) Intake {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &intakeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		backoff:    300 * time.Millisecond,
	}
}

// intakePayload is the wire shape the order panel expects.
type intakePayload struct {
	NomeCliente string  `json:"nome_cliente"`
	Telefone    string  `json:"telefone"`
	Endereco    string  `json:"endereco"`
	Forma       string  `json:"forma"`
	Observacao  string  `json:"observacao"`
	Itens       []Item  `json:"itens"`
	TaxaEntrega float64 `json:"taxa_entrega"`
	Total       float64 `json:"total"`
}

func toPayload(o *Order) intakePayload {
	endereco := o.Address
	if o.Neighborhood != "" {
		endereco = fmt.Sprintf("%s, %s", o.Address, o.Neighborhood)
	}

	obs := o.Note
	if o.PaymentTiming == "ON_DELIVERY" {
		if obs != "" {
			obs += ". "
		}
		obs += "Pagamento na entrega"
	}
	if o.ProofRef != "" {
		if obs != "" {
			obs += ". "
		}
		obs += "Comprovante: " + o.ProofRef
	}

	return intakePayload{
		NomeCliente: o.Recipient,
		Telefone:    o.CustomerID,
		Endereco:    endereco,
		Forma:       o.PaymentMethod,
		Observacao:  obs,
		Itens:       o.Items,
		TaxaEntrega: o.DeliveryFee,
		Total:       o.Total,
	}
}

func (c *intakeClient) Submit(ctx context.Context, o *Order) error {
	return c.post(ctx, c.baseURL+"/api/pedidos", o)
}

// Amend updates an order already on the panel, for changes inside the
// continuation window.
func (c *intakeClient) Amend(ctx context.Context, o *Order) error {
	return c.post(ctx, c.baseURL+"/api/pedidos/alterar", o)
}

func (c *intakeClient) post(ctx context.Context, endpoint string, o *Order) error {
	body, err := json.Marshal(toPayload(o))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntakeFailed, err)
	}

	log := logger.FromCtx(ctx).With(
		zap.String("order_id", o.ID.String()),
		zap.String("endpoint", endpoint),
	)

	err = c.doPost(ctx, endpoint, body)
	if err != nil {
		log.Warn("intake call failed, retrying once", zap.Error(err))
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrIntakeFailed, ctx.Err())
		}
		err = c.doPost(ctx, endpoint, body)
	}
	if err != nil {
		log.Error("intake submission failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIntakeFailed, err)
	}

	log.Info("order delivered to intake", zap.Float64("total", o.Total))
	return nil
}

func (c *intakeClient) doPost(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("intake returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
