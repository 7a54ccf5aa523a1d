package polymarket

// trading.go — Real order execution via the Polymarket CLOB API.
//
// Implements ports.OrderExecutor on top of AuthClient. A venue rejection
// (CLOB says no) is data in the OrderResult; only transport, signing and
// auth failures surface as Go errors.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// clobOrderRequest es el JSON body del POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderID"`
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
}

const usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

var balanceOfABI abi.ABI

func init() {
	var err error
	balanceOfABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

// TradingClient implementa ports.OrderExecutor.
type TradingClient struct {
	auth      *AuthClient
	rpcClient *ethclient.Client

	// Cache de neg-risk por token: el verifying contract del firmado
	// depende de si el mercado usa el NegRisk adapter, y no cambia.
	mu      sync.Mutex
	negRisk map[string]bool
}

// NewTradingClient crea un TradingClient. rpcURL se usa para consultar el
// balance USDC.e on-chain.
func NewTradingClient(auth *AuthClient, rpcURL string) (*TradingClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("trading: dial rpc: %w", err)
	}
	return &TradingClient{
		auth:      auth,
		rpcClient: rpc,
		negRisk:   make(map[string]bool),
	}, nil
}

// PlaceOrder firma y envía una orden BUY al CLOB.
//
// El precio se redondea hacia arriba al tick de 0.01 antes de firmar: la
// orden es un límite, y un límite por debajo del precio efectivo calculado
// mataría el fill sin necesidad. El slippage guard del engine ya acotó
// cuánto podemos llegar a pagar.
func (tc *TradingClient) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.OrderResult, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.OrderResult{}, fmt.Errorf("trading.PlaceOrder: creds: %w", err)
	}

	negRisk := req.NegRisk
	if !negRisk {
		negRisk = tc.negRiskFor(ctx, req.TokenID)
	}

	limitPrice := math.Ceil(req.Price*100) / 100
	if limitPrice >= 1 {
		limitPrice = 0.99
	}

	signed, err := tc.auth.buildSignedOrder(req.TokenID, limitPrice, req.Size, negRisk)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("trading.PlaceOrder: sign: %w", err)
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = domain.OrderTypeFOK
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.creds.APIKey,
		OrderType: orderType,
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			// El CLOB rechazó la orden (balance, tick, mercado cerrado...).
			// Es un branch normal del pipeline, no un error de Go.
			return domain.OrderResult{
				Success:      false,
				ErrorMessage: apiErr.Body,
				Status:       fmt.Sprintf("rejected_%d", apiErr.Status),
			}, nil
		}
		return domain.OrderResult{}, fmt.Errorf("trading.PlaceOrder: post: %w", err)
	}

	if !resp.Success || resp.ErrorMsg != "" {
		return domain.OrderResult{
			Success:      false,
			OrderID:      resp.OrderID,
			Status:       resp.Status,
			ErrorMessage: resp.ErrorMsg,
		}, nil
	}

	// Para un BUY: making = USDC gastado, taking = shares recibidas.
	shares := parseMicroUnits(resp.TakingAmount)
	spent := parseMicroUnits(resp.MakingAmount)

	result := domain.OrderResult{
		Success:    true,
		OrderID:    resp.OrderID,
		Status:     resp.Status,
		FilledSize: shares,
	}
	if shares > 0 {
		result.FilledPrice = spent / shares
	}
	return result, nil
}

// CancelOrder cancela una orden por su CLOB order ID.
func (tc *TradingClient) CancelOrder(ctx context.Context, clobOrderID string) error {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return fmt.Errorf("trading.CancelOrder: creds: %w", err)
	}

	if err := tc.auth.doL2(ctx, http.MethodDelete, "/order/"+clobOrderID, nil, nil); err != nil {
		return fmt.Errorf("trading.CancelOrder %s: %w", clobOrderID, err)
	}
	return nil
}

// GetBalance devuelve el balance USDC.e on-chain de la wallet.
func (tc *TradingClient) GetBalance(ctx context.Context) (float64, error) {
	callData, err := balanceOfABI.Pack("balanceOf", tc.auth.address)
	if err != nil {
		return 0, fmt.Errorf("trading.GetBalance: pack: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := tc.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("trading.GetBalance: rpc call: %w", err)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("trading.GetBalance: unpack: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return bal, nil
}

// negRiskFor consulta (con cache) si un token usa el NegRisk adapter.
// Ante error asume false y deja que el CLOB rechace si nos equivocamos.
func (tc *TradingClient) negRiskFor(ctx context.Context, tokenID string) bool {
	tc.mu.Lock()
	if v, ok := tc.negRisk[tokenID]; ok {
		tc.mu.Unlock()
		return v
	}
	tc.mu.Unlock()

	url := fmt.Sprintf("%s/neg-risk?token_id=%s", tc.auth.clobBase, tokenID)

	var resp clobNegRiskResponse
	if err := tc.auth.get(ctx, tc.auth.clobLimiter, url, &resp); err != nil {
		slog.Warn("neg-risk check failed, assuming standard exchange", "token", tokenID, "err", err)
		return false
	}

	tc.mu.Lock()
	tc.negRisk[tokenID] = resp.NegRisk
	tc.mu.Unlock()
	return resp.NegRisk
}

// parseMicroUnits convierte un string en micro-unidades ("1000000") a float.
func parseMicroUnits(s string) float64 {
	if s == "" {
		return 0
	}
	n := new(big.Int)
	if _, ok := n.SetString(s, 10); !ok {
		return 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f / 1_000_000
}
