package transport

import (
	"encoding/json"
	"net/http"

	"mercadinho-be/internal/logger"
	"mercadinho-be/internal/policy"
	"mercadinho-be/internal/resolver"
	"mercadinho-be/internal/session"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the decision engine to the conversational collaborator as a
// JSON API. It holds no state of its own; everything lives in the services.
type Handler struct {
	resolver resolver.Service
	sessions session.Service
}

func NewHandler(res resolver.Service, sessions session.Service) *Handler {
	return &Handler{resolver: res, sessions: sessions}
}

// Routes assembles the router. auth and limit are applied to the /v1 surface
// only, so health probes stay unauthenticated.
func (h *Handler) Routes(mws ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		for _, mw := range mws {
			r.Use(mw)
		}

		r.Post("/resolve", h.resolve)
		r.Post("/resolve-batch", h.resolveBatch)

		r.Route("/sessions/{customerID}", func(r chi.Router) {
			r.Use(customerContext)

			r.Post("/items", h.addItem)
			r.Delete("/items/{lineID}", h.removeItem)
			r.Delete("/items", h.clearCart)
			r.Get("/summary", h.summary)
			r.Put("/delivery", h.setDelivery)
			r.Put("/payment", h.selectPayment)
			r.Post("/payment/confirm", h.confirmPayment)
			r.Post("/submit", h.submit)
			r.Delete("/", h.cancel)
		})
	})

	return r
}

// customerContext stamps the customer onto the request logger.
func customerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithCustomerID(r.Context(), chi.URLParam(r, "customerID"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func customerID(r *http.Request) string {
	return chi.URLParam(r, "customerID")
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

type resolveRequest struct {
	Query string `json:"query"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	res, err := h.resolver.Resolve(r.Context(), req.Query)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

type resolveBatchRequest struct {
	Queries []string `json:"queries"`
}

func (h *Handler) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req resolveBatchRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	results, err := h.resolver.ResolveMany(r.Context(), req.Queries)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"results": results})
}

type addItemRequest struct {
	EAN    string  `json:"ean"`
	Units  int     `json:"units"`
	MassKg float64 `json:"mass_kg"`
	Note   string  `json:"note"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	qty := session.Quantity{Units: req.Units, MassKg: req.MassKg}
	sum, err := h.sessions.AddItem(r.Context(), customerID(r), req.EAN, qty, req.Note)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	sum, err := h.sessions.RemoveItem(r.Context(), customerID(r), chi.URLParam(r, "lineID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sum, err := h.sessions.ClearCart(r.Context(), customerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.sessions.Summary(r.Context(), customerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

type deliveryRequest struct {
	Recipient    string `json:"recipient"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
}

func (h *Handler) setDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	sum, err := h.sessions.SetDeliveryInfo(r.Context(), customerID(r), req.Recipient, req.Address, req.Neighborhood)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

type paymentRequest struct {
	Method          string `json:"method"`
	DeferToDelivery bool   `json:"defer_to_delivery"`
}

func (h *Handler) selectPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	outcome, err := h.sessions.SelectPayment(r.Context(), customerID(r), policy.Method(req.Method), req.DeferToDelivery)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, outcome)
}

type confirmRequest struct {
	ProofRef string `json:"proof_ref"`
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		respond(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body", Code: "BAD_REQUEST"})
		return
	}

	result, err := h.sessions.ConfirmPayment(r.Context(), customerID(r), req.ProofRef)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.Submit(r.Context(), customerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Cancel(r.Context(), customerID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
