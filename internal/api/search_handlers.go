package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchByISBN",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search all library systems",
		Description: "Fans the ISBN out to every enabled library system and waits for the consolidated result.",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitSearch",
		Method:        http.MethodPost,
		Path:          "/api/v1/search",
		Summary:       "Submit a background search",
		Description:   "Starts the search in the background and returns an id to poll.",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleSubmitSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/{searchId}",
		Summary:     "Poll a background search",
		Tags:        []string{"Search"},
	}, s.handleGetSearch)
}

// === DTOs ===

// SearchInput is the Huma input for a synchronous search.
type SearchInput struct {
	ISBN string `query:"isbn" required:"true" doc:"ISBN-10 or ISBN-13, hyphens and spaces allowed"`
}

// SearchOutput is the Huma output for a synchronous search.
type SearchOutput struct {
	Body *domain.SearchResult
}

// SubmitSearchRequest is the request body for a background search.
type SubmitSearchRequest struct {
	ISBN string `json:"isbn" required:"true" doc:"ISBN-10 or ISBN-13, hyphens and spaces allowed"`
}

// SubmitSearchInput is the Huma input for submitting a background search.
type SubmitSearchInput struct {
	Body SubmitSearchRequest
}

// SubmitSearchResponse acknowledges a background search.
type SubmitSearchResponse struct {
	SearchID string      `json:"searchId" doc:"Id to poll at GET /api/v1/search/{searchId}"`
	Status   AsyncStatus `json:"status"`
}

// SubmitSearchOutput is the Huma output for submitting a background search.
type SubmitSearchOutput struct {
	Body SubmitSearchResponse
}

// GetSearchInput is the Huma input for polling a background search.
type GetSearchInput struct {
	SearchID string `path:"searchId" doc:"Id returned by POST /api/v1/search"`
}

// SearchErrorResponse describes why a background search failed.
type SearchErrorResponse struct {
	Code    string `json:"type"`
	Message string `json:"message"`
}

// GetSearchResponse is the poll response for a background search.
type GetSearchResponse struct {
	SearchID    string               `json:"searchId"`
	Status      AsyncStatus          `json:"status"`
	SubmittedAt time.Time            `json:"submittedAt"`
	Result      *domain.SearchResult `json:"result,omitempty"`
	Error       *SearchErrorResponse `json:"error,omitempty"`
}

// GetSearchOutput is the Huma output for polling a background search.
type GetSearchOutput struct {
	Body GetSearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	parsed, err := isbn.Parse(input.ISBN)
	if err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	result, err := s.coordinator.Search(ctx, input.ISBN, parsed.ISBN13, searchID)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}

func (s *Server) handleSubmitSearch(_ context.Context, input *SubmitSearchInput) (*SubmitSearchOutput, error) {
	parsed, err := isbn.Parse(input.Body.ISBN)
	if err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	entry := s.async.Begin(searchID)

	// The search outlives the submit request on purpose; the coordinator
	// enforces its own global deadline.
	go func() {
		result, err := s.coordinator.Search(context.Background(), input.Body.ISBN, parsed.ISBN13, searchID)
		if err != nil {
			entry.fail(err)
			s.logger.WithError(err).Warn("background search failed", "searchId", searchID)
			return
		}
		entry.complete(result)
	}()

	return &SubmitSearchOutput{Body: SubmitSearchResponse{
		SearchID: searchID,
		Status:   AsyncPending,
	}}, nil
}

func (s *Server) handleGetSearch(_ context.Context, input *GetSearchInput) (*GetSearchOutput, error) {
	if _, err := uuid.Parse(input.SearchID); err != nil {
		return nil, domainerrors.Validation("searchId must be a UUID")
	}

	entry, ok := s.async.Get(input.SearchID)
	if !ok {
		return nil, huma.Error404NotFound("no search with id " + input.SearchID)
	}

	view := entry.View()
	resp := GetSearchResponse{
		SearchID:    view.SearchID,
		Status:      view.Status,
		SubmittedAt: view.SubmittedAt,
		Result:      view.Result,
	}
	if view.Status == AsyncFailed {
		resp.Error = &SearchErrorResponse{Code: view.ErrorCode, Message: view.ErrorMessage}
	}
	return &GetSearchOutput{Body: resp}, nil
}
