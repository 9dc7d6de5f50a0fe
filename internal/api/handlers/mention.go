package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contact-crm/internal/api"
	"contact-crm/internal/auth"
	"contact-crm/internal/db"
	"contact-crm/internal/repository"
	"contact-crm/internal/resolver"
	"contact-crm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type mentionResolver interface {
	ResolveMentions(ctx context.Context, ownerID, sourceContactID uuid.UUID, mentions []resolver.MentionInput) ([]service.ResolvedMention, error)
}

type mentionReader interface {
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*repository.Mention, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params repository.ListMentionsParams) ([]repository.Mention, error)
	ListBySourceContact(ctx context.Context, ownerID, sourceContactID uuid.UUID, limit, offset int32) ([]repository.Mention, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID, status *repository.MentionStatus) (int64, error)
	UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status repository.MentionStatus) (*repository.Mention, error)
}

// MentionHandler handles mention resolution and review HTTP requests
type MentionHandler struct {
	resolverSvc  mentionResolver
	mentions     mentionReader
	validator    *validator.Validate
	maxBatchSize int
}

// NewMentionHandler creates a new mention handler
func NewMentionHandler(resolverSvc mentionResolver, mentions mentionReader, maxBatchSize int) *MentionHandler {
	return &MentionHandler{
		resolverSvc:  resolverSvc,
		mentions:     mentions,
		validator:    validator.New(),
		maxBatchSize: maxBatchSize,
	}
}

// MentionInputRequest is one extracted mention in a resolution request
type MentionInputRequest struct {
	Name            string            `json:"name" validate:"required,min=1,max=255" example:"Scott"`
	NormalizedName  string            `json:"normalized_name" validate:"required,min=1,max=255" example:"scott"`
	Context         string            `json:"context" validate:"required,min=1,max=2000" example:"Scott from Stripe talked pricing"`
	InferredDetails map[string]string `json:"inferred_details,omitempty" validate:"omitempty,max=32"`
}

// ResolveMentionsRequest is the resolution request body
// @Description Batch of extracted mentions to resolve against the owner's contacts
type ResolveMentionsRequest struct {
	Mentions []MentionInputRequest `json:"mentions" validate:"required,min=1,dive"`
}

// ContactSummaryResponse is the candidate contact projection in responses
type ContactSummaryResponse struct {
	ID              string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FirstName       string  `json:"first_name" example:"Scott"`
	LastName        *string `json:"last_name,omitempty" example:"Lee"`
	Title           *string `json:"title,omitempty" example:"Head of Sales"`
	Company         *string `json:"company,omitempty" example:"Stripe"`
	PrimaryEmail    *string `json:"primary_email,omitempty" example:"scott@stripe.com"`
	EnrichmentScore float64 `json:"enrichment_score" example:"0.8"`
}

// AlternativeMatchResponse is a non-selected candidate in responses
type AlternativeMatchResponse struct {
	Candidate  ContactSummaryResponse `json:"candidate"`
	Confidence float64                `json:"confidence" example:"0.45"`
	Reasons    []string               `json:"reasons"`
}

// MentionMatchResponse is one resolved mention in the resolution response
type MentionMatchResponse struct {
	MentionID          *string                    `json:"mention_id"`
	Name               string                     `json:"name" example:"Scott"`
	NormalizedName     string                     `json:"normalized_name" example:"scott"`
	Context            string                     `json:"context"`
	InferredDetails    map[string]string          `json:"inferred_details,omitempty"`
	MatchType          string                     `json:"match_type" example:"FUZZY" enums:"EXACT,FUZZY,NONE"`
	Confidence         float64                    `json:"confidence" example:"0.95"`
	MatchedContact     *ContactSummaryResponse    `json:"matched_contact,omitempty"`
	MatchReasons       []string                   `json:"match_reasons"`
	AlternativeMatches []AlternativeMatchResponse `json:"alternative_matches"`
	ResolutionFailed   bool                       `json:"resolution_failed,omitempty"`
	PersistenceWarning bool                       `json:"persistence_warning,omitempty"`
}

// ResolveMentionsResponse is the resolution response body
type ResolveMentionsResponse struct {
	Matches []MentionMatchResponse `json:"matches"`
}

// MentionResponse is a persisted mention audit record in responses
type MentionResponse struct {
	ID                 string                     `json:"id"`
	SourceContactID    string                     `json:"source_contact_id"`
	MentionedContactID *string                    `json:"mentioned_contact_id,omitempty"`
	Name               string                     `json:"name"`
	NormalizedName     string                     `json:"normalized_name"`
	Context            string                     `json:"context"`
	InferredDetails    map[string]string          `json:"inferred_details,omitempty"`
	MatchType          string                     `json:"match_type"`
	Confidence         float64                    `json:"confidence"`
	MatchedContact     *ContactSummaryResponse    `json:"matched_contact,omitempty"`
	MatchReasons       []string                   `json:"match_reasons"`
	AlternativeMatches []AlternativeMatchResponse `json:"alternative_matches"`
	Status             string                     `json:"status"`
	CreatedAt          string                     `json:"created_at"`
	UpdatedAt          string                     `json:"updated_at"`
}

// UpdateMentionStatusRequest is the reviewer decision body
type UpdateMentionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED REJECTED confirmed rejected" example:"CONFIRMED"`
}

// ResolveMentions resolves a batch of extracted mentions for a source contact
// @Summary Resolve mentions
// @Description Resolve free-text people references from an enrichment transcript against the owner's contacts
// @Tags mentions
// @Accept json
// @Produce json
// @Param id path string true "Source contact ID"
// @Param request body ResolveMentionsRequest true "Extracted mentions"
// @Success 200 {object} api.APIResponse{data=ResolveMentionsResponse}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Router /contacts/{id}/mentions/resolve [post]
func (h *MentionHandler) ResolveMentions(c *gin.Context) {
	ownerID, ok := auth.OwnerID(c)
	if !ok {
		api.SendError(c, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Missing caller identity", "")
		return
	}

	sourceContactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid contact ID", "contact ID must be a valid UUID")
		return
	}

	var req ResolveMentionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}
	if len(req.Mentions) > h.maxBatchSize {
		api.SendValidationError(c, "Too many mentions",
			"a resolution batch accepts at most "+strconv.Itoa(h.maxBatchSize)+" mentions")
		return
	}

	mentions := make([]resolver.MentionInput, len(req.Mentions))
	for i, m := range req.Mentions {
		mentions[i] = resolver.MentionInput{
			Name:            m.Name,
			NormalizedName:  m.NormalizedName,
			Context:         m.Context,
			InferredDetails: m.InferredDetails,
		}
	}

	results, err := h.resolverSvc.ResolveMentions(c.Request.Context(), ownerID, sourceContactID, mentions)
	if err != nil {
		if errors.Is(err, service.ErrSourceContactNotFound) {
			api.SendNotFound(c, "Contact")
			return
		}
		api.SendInternalError(c, "Failed to resolve mentions")
		return
	}

	response := ResolveMentionsResponse{Matches: make([]MentionMatchResponse, len(results))}
	for i, result := range results {
		response.Matches[i] = resolvedMentionToResponse(result)
	}

	api.SendSuccess(c, http.StatusOK, response, nil)
}

// ListMentions lists the owner's mention audit records
// @Summary List mentions
// @Description List persisted mention audit records, optionally filtered by review status
// @Tags mentions
// @Produce json
// @Param status query string false "Status filter" Enums(PENDING, CONFIRMED, REJECTED)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} api.APIResponse{data=[]MentionResponse}
// @Router /mentions [get]
func (h *MentionHandler) ListMentions(c *gin.Context) {
	ownerID, ok := auth.OwnerID(c)
	if !ok {
		api.SendError(c, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Missing caller identity", "")
		return
	}

	page, limit := parsePagination(c)

	var status *repository.MentionStatus
	if raw := c.Query("status"); raw != "" {
		parsed := repository.MentionStatus(strings.ToUpper(raw))
		switch parsed {
		case repository.MentionStatusPending, repository.MentionStatusConfirmed, repository.MentionStatusRejected:
			status = &parsed
		default:
			api.SendValidationError(c, "Invalid status filter", "status must be PENDING, CONFIRMED, or REJECTED")
			return
		}
	}

	mentions, err := h.mentions.ListByOwner(c.Request.Context(), ownerID, repository.ListMentionsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		api.SendInternalError(c, "Failed to list mentions")
		return
	}

	total, err := h.mentions.CountByOwner(c.Request.Context(), ownerID, status)
	if err != nil {
		api.SendInternalError(c, "Failed to count mentions")
		return
	}

	responses := make([]MentionResponse, len(mentions))
	for i := range mentions {
		responses[i] = mentionToResponse(&mentions[i])
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	api.SendSuccess(c, http.StatusOK, responses, &api.Meta{
		Pagination: &api.PaginationMeta{Page: page, Limit: limit, Total: total, Pages: pages},
	})
}

// GetMention retrieves one mention audit record
// @Summary Get mention
// @Tags mentions
// @Produce json
// @Param id path string true "Mention ID"
// @Success 200 {object} api.APIResponse{data=MentionResponse}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Router /mentions/{id} [get]
func (h *MentionHandler) GetMention(c *gin.Context) {
	ownerID, ok := auth.OwnerID(c)
	if !ok {
		api.SendError(c, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Missing caller identity", "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid mention ID", "mention ID must be a valid UUID")
		return
	}

	mention, err := h.mentions.GetByID(c.Request.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			api.SendNotFound(c, "Mention")
			return
		}
		api.SendInternalError(c, "Failed to get mention")
		return
	}

	api.SendSuccess(c, http.StatusOK, mentionToResponse(mention), nil)
}

// UpdateMentionStatus applies a reviewer decision to a pending mention
// @Summary Review mention
// @Description Confirm or reject a PENDING mention-to-contact link
// @Tags mentions
// @Accept json
// @Produce json
// @Param id path string true "Mention ID"
// @Param request body UpdateMentionStatusRequest true "Reviewer decision"
// @Success 200 {object} api.APIResponse{data=MentionResponse}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 409 {object} api.APIResponse{error=api.APIError}
// @Router /mentions/{id}/status [patch]
func (h *MentionHandler) UpdateMentionStatus(c *gin.Context) {
	ownerID, ok := auth.OwnerID(c)
	if !ok {
		api.SendError(c, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Missing caller identity", "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid mention ID", "mention ID must be a valid UUID")
		return
	}

	var req UpdateMentionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.SendValidationError(c, "Validation failed", err.Error())
		return
	}

	status := repository.MentionStatus(strings.ToUpper(req.Status))
	mention, err := h.mentions.UpdateStatus(c.Request.Context(), id, ownerID, status)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			api.SendNotFound(c, "Mention")
		case errors.Is(err, db.ErrInvalidTransition):
			api.SendConflict(c, "Mention has already been reviewed")
		default:
			api.SendInternalError(c, "Failed to update mention status")
		}
		return
	}

	api.SendSuccess(c, http.StatusOK, mentionToResponse(mention), nil)
}

// ListMentionsForContact lists mentions produced while enriching one contact
// @Summary List mentions for a source contact
// @Tags mentions
// @Produce json
// @Param id path string true "Source contact ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} api.APIResponse{data=[]MentionResponse}
// @Router /contacts/{id}/mentions [get]
func (h *MentionHandler) ListMentionsForContact(c *gin.Context) {
	ownerID, ok := auth.OwnerID(c)
	if !ok {
		api.SendError(c, http.StatusUnauthorized, api.ErrCodeUnauthorized, "Missing caller identity", "")
		return
	}

	sourceContactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid contact ID", "contact ID must be a valid UUID")
		return
	}

	page, limit := parsePagination(c)

	mentions, err := h.mentions.ListBySourceContact(c.Request.Context(), ownerID, sourceContactID,
		int32(limit), int32((page-1)*limit))
	if err != nil {
		api.SendInternalError(c, "Failed to list mentions")
		return
	}

	responses := make([]MentionResponse, len(mentions))
	for i := range mentions {
		responses[i] = mentionToResponse(&mentions[i])
	}

	api.SendSuccess(c, http.StatusOK, responses, nil)
}

// parsePagination reads page/limit query params with defaults and bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// Conversion helpers

func contactSummaryToResponse(contact *resolver.CandidateContact) *ContactSummaryResponse {
	if contact == nil {
		return nil
	}
	return &ContactSummaryResponse{
		ID:              contact.ID.String(),
		FirstName:       contact.FirstName,
		LastName:        contact.LastName,
		Title:           contact.Title,
		Company:         contact.Company,
		PrimaryEmail:    contact.PrimaryEmail,
		EnrichmentScore: contact.EnrichmentScore,
	}
}

func alternativesToResponse(alternatives []resolver.AlternativeMatch) []AlternativeMatchResponse {
	out := make([]AlternativeMatchResponse, len(alternatives))
	for i, alt := range alternatives {
		candidate := alt.Candidate
		out[i] = AlternativeMatchResponse{
			Candidate:  *contactSummaryToResponse(&candidate),
			Confidence: alt.Confidence,
			Reasons:    alt.Reasons,
		}
	}
	return out
}

func resolvedMentionToResponse(result service.ResolvedMention) MentionMatchResponse {
	response := MentionMatchResponse{
		Name:               result.Name,
		NormalizedName:     result.NormalizedName,
		Context:            result.Context,
		InferredDetails:    result.InferredDetails,
		MatchType:          string(result.MatchType),
		Confidence:         result.Confidence,
		MatchedContact:     contactSummaryToResponse(result.MatchedContact),
		MatchReasons:       result.MatchReasons,
		AlternativeMatches: alternativesToResponse(result.AlternativeMatches),
		ResolutionFailed:   result.ResolutionFailed,
		PersistenceWarning: result.PersistenceWarning,
	}
	if result.MentionID != nil {
		id := result.MentionID.String()
		response.MentionID = &id
	}
	return response
}

func mentionToResponse(mention *repository.Mention) MentionResponse {
	response := MentionResponse{
		ID:                 mention.ID.String(),
		SourceContactID:    mention.SourceContactID.String(),
		Name:               mention.Name,
		NormalizedName:     mention.NormalizedName,
		Context:            mention.Context,
		InferredDetails:    mention.InferredDetails,
		MatchType:          string(mention.MatchType),
		Confidence:         mention.Confidence,
		MatchedContact:     contactSummaryToResponse(mention.MatchedContact),
		MatchReasons:       mention.MatchReasons,
		AlternativeMatches: alternativesToResponse(mention.AlternativeMatches),
		Status:             string(mention.Status),
		CreatedAt:          mention.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          mention.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if mention.MentionedContactID != nil {
		id := mention.MentionedContactID.String()
		response.MentionedContactID = &id
	}
	return response
}
