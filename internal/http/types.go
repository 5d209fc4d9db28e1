// Package http provides the HTTP API for the complaint service.
package http

import (
	"github.com/lvivdigital/zvernennia/internal/appeal"
	"github.com/lvivdigital/zvernennia/internal/classify"
	"github.com/lvivdigital/zvernennia/internal/orchestrator"
	"github.com/lvivdigital/zvernennia/internal/resolver"
)

// MinComplaintRunes is the shortest accepted complaint text.
const MinComplaintRunes = 5

// ComplaintRequest is the request body for classify, resolve and solve.
type ComplaintRequest struct {
	ProblemText string `json:"problem_text"`
}

// ClassifyResponse is the response body for POST /api/v1/classify.
type ClassifyResponse struct {
	Result *classify.Result `json:"result"`
}

// ResolveResponse is the response body for POST /api/v1/resolve.
type ResolveResponse struct {
	Classification *classify.Result     `json:"classification"`
	Resolution     *resolver.Resolution `json:"resolution,omitempty"`
}

// AppealRequest is the request body for POST /api/v1/appeal.
type AppealRequest struct {
	ProblemText  string `json:"problem_text"`
	ServiceName  string `json:"service_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Address      string `json:"address,omitempty"`
}

// AppealResponse is the response body for POST /api/v1/appeal.
type AppealResponse struct {
	Letter *appeal.Letter `json:"letter"`
}

// SolveResponse is the response body for POST /api/v1/solve.
type SolveResponse struct {
	Solution *orchestrator.Solution `json:"solution"`
}

// TranscribeResponse is the response body for POST /api/v1/voice/transcribe.
type TranscribeResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
}

// PingResponse is the response body for GET /health/ping.
type PingResponse struct {
	Status string `json:"status"`
}
