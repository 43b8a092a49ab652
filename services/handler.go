package services

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flashbots/escrownet/auction"
	"github.com/flashbots/escrownet/metrics"
	"github.com/flashbots/escrownet/protocol"
)

// AdvanceLedgerRequest advances the ledger-height clock by N.
type AdvanceLedgerRequest struct {
	By uint64 `json:"by"`
}

// LedgerHeightResponse reports the ledger-height clock.
type LedgerHeightResponse struct {
	Height uint64 `json:"height"`
}

// AuctionHandler exposes the auction engine over HTTP.
type AuctionHandler struct {
	engine     *auction.Engine
	log        *slog.Logger
	adminToken string
}

// NewAuctionHandler creates a handler for the engine. adminToken (user:pass)
// protects the close trigger; an empty token disables the admin routes.
func NewAuctionHandler(engine *auction.Engine, log *slog.Logger, adminToken string) *AuctionHandler {
	return &AuctionHandler{
		engine:     engine,
		log:        log,
		adminToken: adminToken,
	}
}

// RegisterRoutes registers the auction endpoints with the router.
func (h *AuctionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auction/setup", h.setup)
	r.Post("/auction/bid", h.bid)
	r.Post("/auction/claim", h.claim)
	r.Get("/auction/{id}", h.get)

	r.Post("/ledger/increment", h.incrementLedger)
	r.Post("/ledger/advance", h.advanceLedger)
	r.Get("/ledger/height", h.ledgerHeight)

	if h.adminToken != "" {
		r.With(h.requireAdmin).Post("/admin/close/{id}", h.close)
	}
}

// statusForError maps engine errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, auction.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, auction.ErrAuthenticationFailure):
		return http.StatusForbidden
	case errors.Is(err, auction.ErrWrongMessageType):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrAuctionAlreadyExists),
		errors.Is(err, auction.ErrEscrowNotFunded),
		errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrAuctionClosed),
		errors.Is(err, auction.ErrAuctionNotClosed),
		errors.Is(err, auction.ErrAlreadyClaimed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *AuctionHandler) abort(w http.ResponseWriter, op string, err error) {
	metrics.IncOperation(op, false)
	h.log.Info("Operation rejected", "op", op, "err", err)
	http.Error(w, err.Error(), statusForError(err))
}

func (h *AuctionHandler) respond(w http.ResponseWriter, op string, body any) {
	metrics.IncOperation(op, true)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

func (h *AuctionHandler) setup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	signed, err := protocol.DecodeMessage[auction.SignedMessage](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	// The envelope decodes fine with a null or absent object.
	msg := signed.UnsafeObject()
	if msg == nil {
		http.Error(w, "Invalid message: no object", http.StatusBadRequest)
		return
	}

	auctionID, err := msg.AuctionID()
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid message: %v", err), http.StatusBadRequest)
		return
	}

	created, err := h.engine.Setup(r.Context(), auctionID, signed)
	if err != nil {
		h.abort(w, "setup", err)
		return
	}

	h.log.Info("Auction created", "auctionID", created.AuctionID, "reserve", created.TopBid)
	h.respond(w, "setup", created)
}

func (h *AuctionHandler) bid(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	signed, err := protocol.DecodeMessage[auction.SignedMessage](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := h.engine.Bid(r.Context(), signed)
	if err != nil {
		h.abort(w, "bid", err)
		return
	}

	h.log.Info("Bid accepted", "auctionID", updated.AuctionID, "topBid", updated.TopBid)
	h.respond(w, "bid", updated)
}

func (h *AuctionHandler) claim(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	signed, err := protocol.DecodeMessage[auction.SignedMessage](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	receipt, err := h.engine.Claim(r.Context(), signed)
	if err != nil {
		h.abort(w, "claim", err)
		return
	}

	h.log.Info("Auction settled", "auctionID", receipt.AuctionID, "receiptID", receipt.ReceiptID)
	h.respond(w, "claim", receipt)
}

func (h *AuctionHandler) get(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid auction id: %v", err), http.StatusBadRequest)
		return
	}

	found, err := h.engine.Get(auctionID)
	if err != nil {
		h.abort(w, "get", err)
		return
	}

	h.respond(w, "get", found)
}

func (h *AuctionHandler) close(w http.ResponseWriter, r *http.Request) {
	auctionID, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid auction id: %v", err), http.StatusBadRequest)
		return
	}

	closed, err := h.engine.Close(r.Context(), auctionID)
	if err != nil {
		h.abort(w, "close", err)
		return
	}

	h.log.Info("Auction closed", "auctionID", closed.AuctionID, "status", closed.Status)
	h.respond(w, "close", closed)
}

func (h *AuctionHandler) incrementLedger(w http.ResponseWriter, r *http.Request) {
	height, err := h.engine.IncrementLedger()
	if err != nil {
		h.abort(w, "incr_led", err)
		return
	}
	h.respond(w, "incr_led", &LedgerHeightResponse{Height: height})
}

func (h *AuctionHandler) advanceLedger(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req AdvanceLedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	height, err := h.engine.AdvanceLedger(req.By)
	if err != nil {
		h.abort(w, "adv_led", err)
		return
	}
	h.respond(w, "adv_led", &LedgerHeightResponse{Height: height})
}

func (h *AuctionHandler) ledgerHeight(w http.ResponseWriter, r *http.Request) {
	height, err := h.engine.LedgerHeight()
	if err != nil {
		h.abort(w, "led_height", err)
		return
	}
	h.respond(w, "led_height", &LedgerHeightResponse{Height: height})
}

// requireAdmin enforces HTTP basic auth against the configured admin token.
func (h *AuctionHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantUser, wantPass := parseAdminToken(h.adminToken)
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="escrownet admin"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseAdminToken(token string) (user, pass string) {
	idx := strings.Index(token, ":")
	if idx < 0 {
		return token, ""
	}
	return token[:idx], token[idx+1:]
}

func parseAuctionID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
