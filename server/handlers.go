package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ccreator/generator"
	"ccreator/orchestrator"
	"ccreator/render"
)

// --- Requests ---

type contentReq struct {
	InputType string `json:"input_type" validate:"required,oneof=url text"`
	Value     string `json:"value" validate:"max=200000"`
}

type imagePromptReq struct {
	Text string `json:"text" validate:"max=200000"`
}

type imageReq struct {
	Prompt string `json:"prompt" validate:"max=4000"`
}

type sessionResp struct {
	SessionID string             `json:"session_id"`
	State     orchestrator.State `json:"state"`
	View      orchestrator.View  `json:"view"`
	// ImageURI is the displayed image as a data: URI with its sniffed type.
	ImageURI string `json:"image_uri,omitempty"`
	Error    string `json:"error,omitempty"`
}

type errorResp struct {
	Error string `json:"error"`
}

// --- Handlers ---

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	id := newSessionID()
	orch, err := orchestrator.New(s.svc,
		orchestrator.WithLogger(s.logger.With("session_id", id)),
		orchestrator.WithMessages(s.msgs))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess := &session{id: id, orch: orch}
	if n := s.store.set(sess); n > 0 {
		s.logger.InfoContext(r.Context(), "expired sessions evicted", "count", n)
	}
	s.logger.InfoContext(r.Context(), "session created", "session_id", id)
	writeJSON(w, http.StatusCreated, snapshot(sess, ""))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshot(sess, ""))
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var req contentReq
	if !s.decode(w, r, &req) {
		return
	}
	s.trigger(w, r, orchestrator.OpContent, func(o *orchestrator.Orchestrator) (orchestrator.Flow, error) {
		return o.StartContent(generator.InputType(req.InputType), req.Value)
	})
}

func (s *Server) handleImagePrompt(w http.ResponseWriter, r *http.Request) {
	var req imagePromptReq
	if !s.decode(w, r, &req) {
		return
	}
	s.trigger(w, r, orchestrator.OpTextToPrompt, func(o *orchestrator.Orchestrator) (orchestrator.Flow, error) {
		return o.StartTextToImagePrompt(req.Text)
	})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req imageReq
	if !s.decode(w, r, &req) {
		return
	}
	s.trigger(w, r, orchestrator.OpPromptToImage, func(o *orchestrator.Orchestrator) (orchestrator.Flow, error) {
		return o.StartPromptToImage(req.Prompt)
	})
}

// handleImageDownload serves the image on display: the content image when
// there is content, the prompt-only image otherwise.
func (s *Server) handleImageDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	st := sess.orch.State()
	b64 := st.PromptOnlyImage
	if st.Content != nil && st.Content.GeneratedImage != "" {
		b64 = st.Content.GeneratedImage
	}
	if b64 == "" {
		writeError(w, http.StatusNotFound, "no image generated yet")
		return
	}
	data, mime, err := render.DecodeImage(b64)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "decode image failed", "session_id", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "stored image is not valid base64")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.DownloadName(mime)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// trigger starts a flow on the session. With ?wait=true it blocks until the
// flow ends; otherwise the flow runs in the background and the loading
// snapshot is returned with 202.
func (s *Server) trigger(w http.ResponseWriter, r *http.Request, op orchestrator.Operation, start func(*orchestrator.Orchestrator) (orchestrator.Flow, error)) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	sess.trigger.Lock()
	if !sess.orch.State().CanStart(op) {
		sess.trigger.Unlock()
		writeJSON(w, http.StatusConflict, snapshot(sess, "operation "+string(op)+" is blocked by a running flow"))
		return
	}
	flow, err := start(sess.orch)
	sess.trigger.Unlock()

	if err != nil {
		var verr *orchestrator.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, snapshot(sess, verr.Message))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 流程不随请求取消
	ctx := context.WithoutCancel(r.Context())
	if wait {
		if err := s.run(ctx, flow); err != nil {
			writeJSON(w, http.StatusBadGateway, snapshot(sess, err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, snapshot(sess, ""))
		return
	}

	s.flows.Add(1)
	s.flowsInFlight.Inc()
	go func() {
		defer s.flows.Done()
		defer s.flowsInFlight.Dec()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.ErrorContext(ctx, "background flow panicked",
					"session_id", sess.id,
					"operation", string(op),
					"panic", rec)
			}
		}()
		// 失败已记录在 state 中并由 orchestrator 打日志
		_ = s.run(ctx, flow)
	}()
	writeJSON(w, http.StatusAccepted, snapshot(sess, ""))
}

func (s *Server) run(ctx context.Context, flow orchestrator.Flow) error {
	if s.flowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.flowTimeout)
		defer cancel()
	}
	return flow(ctx)
}

// --- Helpers ---

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func snapshot(sess *session, errMsg string) sessionResp {
	st, view := sess.orch.Snapshot()
	resp := sessionResp{SessionID: sess.id, State: st, View: view, Error: errMsg}
	if view.Image != "" {
		resp.ImageURI = render.DataURI(render.ImageMIME(view.Image), view.Image)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}
