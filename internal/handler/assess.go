package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindguard/internal/detector"
	"mindguard/internal/escalation"
	"mindguard/internal/models"
	"mindguard/internal/repository"
	"mindguard/internal/reviewstore"
)

type AssessHandler interface {
	Assess(c *gin.Context)
	Chat(c *gin.Context)
}

// ReplyProvider generates supportive chat replies. Satisfied by
// *llm.Client; nil disables reply generation.
type ReplyProvider interface {
	Reply(ctx context.Context, message string) (string, error)
}

type assessHandler struct {
	engine         *detector.Engine
	policy         *escalation.Policy
	dispatcher     *escalation.Dispatcher
	incidentRepo   repository.IncidentRepository
	assessmentRepo repository.AssessmentRepository
	reviewStore    *reviewstore.Store
	replies        ReplyProvider
	reportingTier  detector.Tier
	logger         *zap.Logger
}

func NewAssessHandler(
	engine *detector.Engine,
	policy *escalation.Policy,
	dispatcher *escalation.Dispatcher,
	incidentRepo repository.IncidentRepository,
	assessmentRepo repository.AssessmentRepository,
	reviewStore *reviewstore.Store,
	replies ReplyProvider,
	reportingTier detector.Tier,
	logger *zap.Logger,
) AssessHandler {
	return &assessHandler{
		engine:         engine,
		policy:         policy,
		dispatcher:     dispatcher,
		incidentRepo:   incidentRepo,
		assessmentRepo: assessmentRepo,
		reviewStore:    reviewStore,
		replies:        replies,
		reportingTier:  reportingTier,
		logger:         logger,
	}
}

// AssessRequest carries one message to screen. Empty text is accepted
// and assesses to tier NONE rather than erroring.
type AssessRequest struct {
	Text string `json:"text"`
}

// Assess handles POST /api/assess: screen one message and return the
// risk assessment without generating a reply.
func (h *assessHandler) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment := h.engine.Assess(req.Text)
	directive := h.policy.Escalate(assessment)
	h.record(c.Request.Context(), req.Text, assessment, directive)

	c.JSON(http.StatusOK, gin.H{
		"assessment": assessment,
		"directive":  directive,
	})
}

type ChatResponse struct {
	Assessment detector.Assessment  `json:"assessment"`
	Directive  escalation.Directive `json:"directive"`
	Reply      string               `json:"reply,omitempty"`
}

// Chat handles POST /api/chat: screen the message, escalate if needed,
// and answer. Crisis-tier messages always get the crisis-protocol
// message; the language model is only consulted for lower tiers.
func (h *assessHandler) Chat(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment := h.engine.Assess(req.Text)
	directive := h.policy.Escalate(assessment)
	h.record(c.Request.Context(), req.Text, assessment, directive)

	resp := ChatResponse{Assessment: assessment, Directive: directive}

	switch {
	case directive.Action == escalation.ActionTriggerCrisisProtocol:
		resp.Reply = directive.Message
	case h.replies != nil:
		ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
		defer cancel()
		reply, err := h.replies.Reply(ctx, req.Text)
		if err != nil {
			h.logger.Error("Failed to generate chat reply", zap.Error(err))
			resp.Reply = directive.Message
		} else {
			resp.Reply = reply
		}
	default:
		resp.Reply = directive.Message
	}

	c.JSON(http.StatusOK, resp)
}

// record dispatches the escalation event and persists incident,
// assessment log and review sample. Persistence failures are logged,
// never surfaced to the user mid-conversation.
func (h *assessHandler) record(ctx context.Context, text string, assessment detector.Assessment, directive escalation.Directive) {
	if directive.Action != escalation.ActionNone {
		ev := escalation.NewEvent(assessment, directive, text)
		h.dispatcher.Dispatch(ctx, ev)

		if assessment.Tier >= h.reportingTier {
			incident := &models.Incident{
				EventID:    ev.ID,
				Excerpt:    ev.Excerpt,
				Score:      assessment.Score,
				Tier:       assessment.Tier.String(),
				Categories: strings.Join(assessment.Categories, ","),
				Action:     string(directive.Action),
				Status:     models.IncidentOpen,
			}
			if err := h.incidentRepo.SaveIncident(incident); err != nil {
				h.logger.Error("Failed to save incident", zap.Error(err))
			}

			if h.reviewStore != nil {
				sample := &reviewstore.Sample{
					Text:       text,
					Tier:       assessment.Tier.String(),
					Score:      assessment.Score,
					Categories: strings.Join(assessment.Categories, ","),
				}
				if err := h.reviewStore.Save(sample); err != nil {
					h.logger.Error("Failed to queue review sample", zap.Error(err))
				}
			}
		}
	}

	rec := &models.AssessmentRecord{
		Score:      assessment.Score,
		Tier:       assessment.Tier.String(),
		MatchCount: len(assessment.Matches),
		Degraded:   assessment.Degraded,
	}
	if err := h.assessmentRepo.SaveAssessment(rec); err != nil {
		h.logger.Error("Failed to save assessment record", zap.Error(err))
	}
}
