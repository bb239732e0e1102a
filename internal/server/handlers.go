package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

type imageRequest struct {
	Prompt           string   `json:"prompt"`
	Primary          string   `json:"primary,omitempty"`
	Extras           []string `json:"extras,omitempty"`
	Style            string   `json:"style,omitempty"`
	AspectRatio      string   `json:"aspectRatio,omitempty"`
	Tier             string   `json:"tier,omitempty"`
	PreserveIdentity bool     `json:"preserveIdentity"`
	Count            int      `json:"count,omitempty"`
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	Source      string `json:"source,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type assetResponse struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

func newAssetResponse(a *domain.MediaAsset) *assetResponse {
	if a == nil {
		return nil
	}
	return &assetResponse{MIMEType: a.MIMEType, Data: base64.StdEncoding.EncodeToString(a.Data)}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	params, err := s.imageParams(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	asset, err := s.studio.GenerateImage(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	params := generator.VideoParams{Prompt: req.Prompt, AspectRatio: req.AspectRatio}
	if req.Source != "" {
		src, err := s.loader.Load(r.Context(), req.Source, domain.RolePrimarySubject)
		if err != nil {
			writeError(w, r, err)
			return
		}
		params.Source = src
	}

	asset, err := s.studio.GenerateVideo(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	asset, err := s.studio.GenerateSpeech(r.Context(), req.Text, req.Voice)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssetResponse(asset))
}

// imageParams はリクエスト中の添付参照を読み込み、ImageParams を組み立てます。
func (s *Server) imageParams(r *http.Request, req imageRequest) (generator.ImageParams, error) {
	p := generator.ImageParams{
		Prompt:           req.Prompt,
		AspectRatio:      req.AspectRatio,
		Tier:             domain.ResolutionTier(req.Tier),
		PreserveIdentity: req.PreserveIdentity,
	}
	ctx := r.Context()

	if req.Primary != "" {
		att, err := s.loader.Load(ctx, req.Primary, domain.RolePrimarySubject)
		if err != nil {
			return p, err
		}
		p.Primary = att
	}
	for _, src := range req.Extras {
		att, err := s.loader.Load(ctx, src, domain.RoleExtraSubject)
		if err != nil {
			return p, err
		}
		p.Extras = append(p.Extras, *att)
	}
	if req.Style != "" {
		att, err := s.loader.Load(ctx, req.Style, domain.RoleStyleReference)
		if err != nil {
			return p, err
		}
		p.Style = att
	}
	return p, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return domain.NewValidationError("body", fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
