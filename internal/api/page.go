package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/parley-dev/parley/internal/chat"
)

// PageTitle is the heading of the chat page.
const PageTitle = "Ollama Chatbot with ChromaDB"

//go:embed templates/page.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/page.html"))

// pageData is everything the chat page renders. Ask and Search are set only
// on the request that ran them.
type pageData struct {
	Title    string
	History  *chat.History
	Question string
	Ask      *chat.AskResult
	Query    string
	Search   *chat.SearchResult
}

// Page handles GET / requests
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, &pageData{})
}

// PageAsk handles POST /ask form submissions. Blank input re-renders the
// page without calling the model.
func (h *Handler) PageAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := &pageData{Question: r.PostForm.Get("question")}

	result, err := h.service.Ask(r.Context(), data.Question)
	switch {
	case err == nil:
		data.Ask = result
	case errors.Is(err, chat.ErrEmptyInput):
	default:
		h.writePageError(w, err)
		return
	}
	h.renderPage(w, r, data)
}

// PageSearch handles POST /search form submissions
func (h *Handler) PageSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := &pageData{Query: r.PostForm.Get("query")}

	result, err := h.service.Search(r.Context(), data.Query)
	switch {
	case err == nil:
		data.Search = result
	case errors.Is(err, chat.ErrEmptyInput):
	default:
		h.writePageError(w, err)
		return
	}
	h.renderPage(w, r, data)
}

// renderPage loads the history and writes the page. History is read after
// the action so a new exchange shows up immediately.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, data *pageData) {
	history, err := h.service.History(r.Context())
	if err != nil {
		h.writePageError(w, err)
		return
	}
	data.Title = PageTitle
	data.History = history

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) writePageError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		http.Error(w, ErrRequestTimeout.Message, http.StatusGatewayTimeout)
		return
	}
	h.logger.Error("page request failed", "error", err)
	http.Error(w, ErrInternal.Message, http.StatusInternalServerError)
}
