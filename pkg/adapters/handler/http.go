package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	log     *slog.Logger
}

func NewHTTPHandler(service ports.LinkService, log *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// ShortenRequest payload
type ShortenRequest struct {
	OriginalURL     string `json:"originalUrl"`
	CustomShortLink string `json:"customShortLink,omitempty"`
	Domain          string `json:"domain,omitempty"`
}

// LinkSummary is one entry of the user/links listing
type LinkSummary struct {
	OriginalURL string `json:"originalUrl"`
	ShortLink   string `json:"shortLink"`
	Domain      string `json:"domain"`
	Clicks      int64  `json:"clicks"`
	Owner       string `json:"owner"`
}

// Shorten creates a link for the authenticated caller
func (h *HTTPHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	owner, ok := Username(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req ShortenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	link, err := h.service.Shorten(r.Context(), owner, domain.ShortenRequest{
		TargetURL:   req.OriginalURL,
		CustomToken: req.CustomShortLink,
		DomainTag:   req.Domain,
	})
	if err != nil {
		h.log.InfoContext(r.Context(), "shorten rejected", "owner", owner, "error", err)
		writeError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "link created", "owner", owner, "token", link.Token)
	writeJSON(w, http.StatusCreated, envelope{
		"success":      true,
		"short_Link":   link.Token,
		"original_url": link.TargetURL,
		"domain":       link.DomainTag,
	})
}

// Redirect counts a click and sends the caller to the target URL
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	target, err := h.service.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// Stats returns click statistics to the link's owner
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := Username(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	token := r.PathValue("token")
	link, err := h.service.Stats(r.Context(), caller, token)
	if err != nil {
		h.log.InfoContext(r.Context(), "stats rejected", "caller", caller, "token", token, "error", err)
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"original_url": link.TargetURL,
		"short_link":   link.Token,
		"domain":       link.DomainTag,
		"clicks":       link.Clicks,
	})
}

// ListLinks returns every link the caller created, oldest first
func (h *HTTPHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	owner, ok := Username(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	links, err := h.service.ListByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	urls := make([]LinkSummary, 0, len(links))
	for _, l := range links {
		urls = append(urls, LinkSummary{
			OriginalURL: l.TargetURL,
			ShortLink:   l.Token,
			Domain:      l.DomainTag,
			Clicks:      l.Clicks,
			Owner:       l.Owner,
		})
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"urls":    urls,
	})
}
