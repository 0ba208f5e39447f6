package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"controlepix/internal/chart"
	"controlepix/internal/core"
	applog "controlepix/internal/log"
	"controlepix/internal/services"
)

const (
	msgStoreError  = "Erro ao acessar o banco de dados. Tente novamente."
	msgRenderError = "Erro ao montar a página."
)

// pageData is what index.html and the dashboard fragment render.
type pageData struct {
	services.Page
	ChartSVG template.HTML
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboard.Dispatch(r.Context(), services.LoadAction{})
	if err != nil {
		s.structLog.LogError(r.Context(), "Dashboard load failed", err, applog.OpLoad, applog.ErrorTypeDatabase)
		InternalServerError(msgStoreError).Write(w)
		return
	}

	// Plain form posts land here after a redirect.
	switch r.URL.Query().Get("notice") {
	case "added":
		page.State, page.Notice = services.StateTransactionAdded, services.NoticeAdded
	case "deleted":
		page.State, page.Notice = services.StateTransactionDeleted, services.NoticeDeleted
	}

	s.render(w, r, "index.html", page, http.StatusOK)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	action, err := ParseAddForm(r)
	if err != nil {
		s.rejectForm(w, r, err)
		return
	}

	page, err := s.dashboard.Dispatch(r.Context(), action)
	if err != nil {
		if errors.Is(err, core.ErrNegativeAmount) {
			UnprocessableEntityError(fieldMessages["amount"]).Write(w)
			return
		}
		s.structLog.LogError(r.Context(), "Add transaction failed", err, applog.OpCreate, applog.ErrorTypeDatabase)
		InternalServerError(msgStoreError).Write(w)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/?notice=added", http.StatusSeeOther)
		return
	}
	s.writeFragment(w, r, page, func(b *HTMXResponseBuilder) {
		b.TriggerTransactionAdded(len(page.Rows)).TriggerFormReset()
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	action, err := ParseDeleteForm(r)
	if err != nil {
		s.rejectForm(w, r, err)
		return
	}

	page, err := s.dashboard.Dispatch(r.Context(), action)
	if err != nil {
		s.structLog.LogError(r.Context(), "Delete transaction failed", err, applog.OpDelete, applog.ErrorTypeDatabase)
		InternalServerError(msgStoreError).Write(w)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/?notice=deleted", http.StatusSeeOther)
		return
	}
	s.writeFragment(w, r, page, func(b *HTMXResponseBuilder) {
		b.TriggerTransactionDeleted(action.ID)
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboard.Dispatch(r.Context(), services.LoadAction{})
	if err != nil {
		s.structLog.LogError(r.Context(), "Chart load failed", err, applog.OpLoad, applog.ErrorTypeDatabase)
		http.Error(w, msgStoreError, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf, page.Chart); err != nil {
		s.structLog.LogError(r.Context(), "Chart render failed", err, applog.OpRender, applog.ErrorTypeInternal)
		http.Error(w, msgRenderError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

type summaryResponse struct {
	TotalIn  string `json:"total_in"`
	TotalOut string `json:"total_out"`
	Balance  string `json:"balance"`
	Count    int    `json:"count"`
	Skipped  int    `json:"skipped"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboard.Dispatch(r.Context(), services.LoadAction{})
	if err != nil {
		s.structLog.LogError(r.Context(), "Summary load failed", err, applog.OpLoad, applog.ErrorTypeDatabase)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		TotalIn:  page.Summary.TotalIn.StringFixed(2),
		TotalOut: page.Summary.TotalOut.StringFixed(2),
		Balance:  page.Summary.Balance.StringFixed(2),
		Count:    len(page.Rows),
		Skipped:  page.Summary.Skipped,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}

	if s.store == nil {
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":         status,
		"timestamp":      time.Now().Format(time.RFC3339),
		"checks":         checks,
		"active_clients": s.limiter.ActiveClients(),
	})
}

func (s *Server) rejectForm(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FormError
	if !errors.As(err, &fe) {
		fe = &FormError{Messages: []string{err.Error()}}
	}
	applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP).WarnContext(r.Context(), "Form rejected",
		applog.FieldPath, r.URL.Path,
		applog.FieldOperation, applog.OpValidate,
		applog.FieldErrorType, applog.ErrorTypeValidation,
		applog.FieldError, fe.Error())
	UnprocessableEntityError(fe.Error()).Write(w)
}

// render buffers the template output; a template error becomes a 500 rather
// than a truncated page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, page services.Page, status int) {
	body, err := s.execute(name, page)
	if err != nil {
		s.tmplLog.LogError(r.Context(), "Template execution failed", err, applog.OpRender, applog.ErrorTypeInternal)
		InternalServerError(msgRenderError).Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(body).Write(w)
}

func (s *Server) writeFragment(w http.ResponseWriter, r *http.Request, page services.Page, triggers func(*HTMXResponseBuilder)) {
	body, err := s.execute("dashboard", page)
	if err != nil {
		s.tmplLog.LogError(r.Context(), "Template execution failed", err, applog.OpRender, applog.ErrorTypeInternal)
		InternalServerError(msgRenderError).Write(w)
		return
	}
	b := NewHTMXResponse().TriggerSuccessNotification(page.Notice).BodyHTML(body)
	triggers(b)
	b.Write(w)
}

func (s *Server) execute(name string, page services.Page) ([]byte, error) {
	svg, err := chart.Inline(page.Chart)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, pageData{Page: page, ChartSVG: svg}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
