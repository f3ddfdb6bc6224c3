package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/pipeline"
	"github.com/dgallion1/skelgen/internal/render"
	"github.com/dgallion1/skelgen/internal/store"
	"github.com/dgallion1/skelgen/internal/vnode"
)

// renderRequest holds the query options shared by the synchronous endpoints.
type renderRequest struct {
	format  string
	loading bool
	output  string
}

func parseRenderQuery(r *http.Request, format string) (renderRequest, error) {
	q := r.URL.Query()
	req := renderRequest{format: format, loading: true, output: "html"}
	if v := q.Get("format"); v != "" {
		req.format = v
	}
	if v := q.Get("loading"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("loading must be true or false, got %q", v)
		}
		req.loading = b
	}
	if v := q.Get("output"); v != "" {
		req.output = strings.ToLower(v)
	}
	if req.output != "html" && req.output != "json" {
		return req, fmt.Errorf("output must be html or json, got %q", req.output)
	}
	return req, nil
}

// handleSkeleton renders the request body. The format comes from ?format or
// the Content-Type header.
func (s *Server) handleSkeleton(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderQuery(r, parser.FormatForContentType(r.Header.Get("Content-Type")))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	s.renderDocument(w, r, req, "body", data)
}

// handleSkeletonFile renders a multipart upload. The format comes from the
// file extension unless ?format is set.
func (s *Server) handleSkeletonFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	req, err := parseRenderQuery(r, strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	s.renderDocument(w, r, req, filename, data)
}

// renderDocument parses data, renders its view and caches the output by
// content hash.
func (s *Server) renderDocument(w http.ResponseWriter, r *http.Request, req renderRequest, filename string, data []byte) {
	p, err := parser.ForFormat(req.format, s.parserOpts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	st := s.orchestrator.Store()
	hash := pipeline.ContentHashHex(fmt.Appendf(nil, "%s|%s|%s", s.renderSalt, req.format, data))
	key := store.RenderKey(hash, req.loading, req.output)

	cached, err := st.Get(ctx, key)
	switch {
	case err == nil:
		writeRendered(w, req.output, "hit", cached)
		return
	case !errors.Is(err, store.ErrNotFound):
		s.log.Warn("render cache read failed", "error", err)
	}

	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	out, err := encodeView(s.orchestrator.Transformer().Render(req.loading, tree), req.output)
	if err != nil {
		jsonError(w, "render: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := st.Put(ctx, key, out, s.cfg.ResultTTL); err != nil {
		s.log.Warn("render cache write failed", "error", err)
	}
	writeRendered(w, req.output, "miss", out)
}

func encodeView(view *vnode.Node, output string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if output == "json" {
		err = render.JSON(&buf, view)
	} else {
		err = render.HTML(&buf, view)
	}
	return buf.Bytes(), err
}

func writeRendered(w http.ResponseWriter, output, cache string, body []byte) {
	if output == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if cache != "" {
		w.Header().Set("X-Skelgen-Cache", cache)
	}
	w.Write(body)
}
