package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/ragchat/internal/adapter"
	"github.com/akolanti/ragchat/internal/adapter/utils"
	"github.com/akolanti/ragchat/internal/api"
	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/rag"
	"github.com/akolanti/ragchat/internal/rag/ingest"
	"github.com/akolanti/ragchat/internal/usage"
	"github.com/akolanti/ragchat/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

// Handler holds the services behind the HTTP routes.
type Handler struct {
	ingest       *ingest.Service
	chat         *rag.Service
	usage        *usage.Service
	providers    []string
	enforceQuota bool
}

type Deps struct {
	Ingest       *ingest.Service
	Chat         *rag.Service
	Usage        *usage.Service
	Providers    []string
	EnforceQuota bool
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		ingest:       deps.Ingest,
		chat:         deps.Chat,
		usage:        deps.Usage,
		providers:    deps.Providers,
		enforceQuota: deps.EnforceQuota,
	}
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logRH.Error("Couldn't close the request body", "error", err)
	}
}

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok", Providers: h.providers})
}

// IngestHandler godoc
// @Summary      Ingest a document
// @Description  Decodes a base64 data URL, splits the text into sentence groups, embeds and stores them.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      api.IngestRequest     true  "User id and file as object or bare data URL"
// @Success      200      {object}  api.IngestResponse
// @Failure      400      {object}  api.ErrorResponse     "Missing fields, bad data URL or unsupported type"
// @Failure      413      {object}  api.ErrorResponse     "Body over the ingest size limit"
// @Failure      500      {object}  api.ErrorResponse
// @Router       /ingest/process [post]
func (h *Handler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	defer closeBody(r.Body)

	var req api.IngestRequest
	body := http.MaxBytesReader(w, r.Body, config.MaxIngestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad ingest request", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid file format")
		return
	}
	if req.File == nil {
		WriteErrorResponse(w, http.StatusBadRequest, "No file provided")
		return
	}
	if req.File.Data == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid file format")
		return
	}

	result, err := h.ingest.Process(r.Context(), adapter.ToUpload(req))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToIngestResponse(result))
}

// IngestStatusHandler godoc
// @Summary      Document processing status
// @Tags         Ingestion
// @Produce      json
// @Param        documentId  path      string  true  "Document ID"
// @Success      200         {object}  api.DocumentStatusResponse
// @Failure      404         {object}  api.ErrorResponse  "Document not found"
// @Router       /ingest/status/{documentId} [get]
func (h *Handler) IngestStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "documentId")
	status, err := h.ingest.Status(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "Document not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentStatusResponse(status))
}

// ChatStreamHandler godoc
// @Summary      Stream a chat answer
// @Description  Streams server-sent events: content deltas with citations, a terminal usage chunk, then an end or error event.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      api.ChatStreamRequest  true  "Conversation, user, session and optional provider"
// @Success      200      {string}  string                 "event stream"
// @Failure      400      {object}  api.ErrorResponse      "Missing messages, user or session"
// @Failure      429      {object}  api.ErrorResponse      "Quota exceeded"
// @Router       /chat/stream [post]
func (h *Handler) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !validateContext(ctx) {
		return
	}
	defer closeBody(r.Body)
	log := logRH.WithTrace(ctx)

	var req api.ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Bad chat request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	chatReq := adapter.ToChatRequest(req)
	if err := rag.ValidateChatRequest(chatReq); err != nil {
		writeServiceError(w, err)
		return
	}

	if h.enforceQuota && h.usage != nil {
		status, err := h.usage.CheckQuota(ctx, req.UserId)
		if err != nil {
			log.Warn("quota check failed, letting the turn through", "error", err)
		} else if status.AnyExceeded {
			WriteErrorResponse(w, http.StatusTooManyRequests, "Quota exceeded")
			return
		}
	}

	sink := newSSEWriter(w)
	if err := h.chat.StreamChat(ctx, chatReq, sink); err != nil {
		if sink.started {
			_ = sink.Error(err.Error())
			return
		}
		writeServiceError(w, err)
	}
}
