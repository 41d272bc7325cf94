package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"review-insights-be/internal/constant"
	"review-insights-be/internal/dto"
	"review-insights-be/internal/entity"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/embedding"
	"review-insights-be/pkg/insight/evidence"
	"review-insights-be/pkg/insight/history"
	"review-insights-be/pkg/insight/prompt"
	"review-insights-be/pkg/insight/retrieve"
	"review-insights-be/pkg/insight/stream"
	"review-insights-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	statusRetrieving = "retrieving"
	statusGenerating = "generating"

	historyLimit    = 10
	sessionTitleMax = 60
)

// IInsightService is the grounded chat assistant over indexed report
// sections.
type IInsightService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	// SendChat answers one question. When emit is non-nil every stream
	// unit is forwarded to it as it is produced.
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest, emit func(stream.Unit) error) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
	SearchSections(ctx context.Context, request *dto.SearchSectionsRequest) ([]*dto.SectionSearchResult, error)
}

type insightService struct {
	uowFactory    unitofwork.RepositoryFactory
	embedder      *embedding.Retryer
	llmProvider   llm.LLMProvider
	retriever     *retrieve.Retriever
	historyLoader *history.Loader
	retrieveCfg   retrieve.Config
	logger        logger.ILogger
}

func NewInsightService(
	uowFactory unitofwork.RepositoryFactory,
	embedder *embedding.Retryer,
	llmProvider llm.LLMProvider,
	retrieveCfg retrieve.Config,
	appLogger logger.ILogger,
) IInsightService {
	ragLogger := initRagLogger()

	return &insightService{
		uowFactory:    uowFactory,
		embedder:      embedder,
		llmProvider:   llmProvider,
		retriever:     retrieve.NewRetriever(embedder, ragLogger),
		historyLoader: history.NewLoader(uowFactory),
		retrieveCfg:   retrieveCfg,
		logger:        appLogger,
	}
}

func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "insight_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[INSIGHT-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (s *insightService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: now,
	}

	greeting := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          "Hi, ask me anything about your reports.",
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	rawUser := entity.ChatMessageRaw{
		Id:            uuid.New(),
		Chat:          constant.ChatMessageRawInitialUserPromptV1,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}

	rawModel := entity.ChatMessageRaw{
		Id:            uuid.New(),
		Chat:          constant.ChatMessageRawInitialModelPromptV1,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now.Add(1 * time.Second),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &greeting); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRawRepository().Create(ctx, &rawUser); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRawRepository().Create(ctx, &rawModel); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

func (s *insightService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, sess := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        sess.Id,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}

	return response, nil
}

func (s *insightService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(chatMessages))
	for i, msg := range chatMessages {
		messageIds[i] = msg.Id
	}

	citations, err := uow.ChatMessageRepository().FindCitationsByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}

	citationsByMsgId := make(map[uuid.UUID][]dto.CitationDTO)
	for _, c := range citations {
		title := ""
		if c.Report != nil {
			title = c.Report.Title
		}
		citationsByMsgId[c.ChatMessageId] = append(citationsByMsgId[c.ChatMessageId], dto.CitationDTO{
			ReportId:    c.ReportId,
			Title:       title,
			SectionSlug: c.SectionSlug,
			Excerpt:     c.Excerpt,
			Similarity:  c.Similarity,
		})
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
			Citations: citationsByMsgId[msg.Id],
		})
	}

	return resp, nil
}

func (s *insightService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest, emit func(stream.Unit) error) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}

	existingRawChats, err := uow.ChatMessageRawRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
	)
	if err != nil {
		return nil, err
	}
	// Only the two priming prompts so far means this is the first question.
	updateSessionTitle := existingRawChats == 2

	turn := stream.NewTurn()
	send := func(u stream.Unit) error {
		if err := turn.Apply(u); err != nil {
			return err
		}
		if emit != nil {
			return emit(u)
		}
		return nil
	}

	ev, groundedPrompt, err := s.gatherEvidence(ctx, uow, request.Chat, send)
	if err != nil {
		return nil, err
	}

	if err := s.generate(ctx, request.ChatSessionId, groundedPrompt, ev, turn, send); err != nil {
		// An interrupted turn is abandoned, never stored as a completed
		// answer.
		turn.Cancel()
		s.logger.Error("insight", "answer generation aborted", map[string]interface{}{
			"session_id": request.ChatSessionId.String(),
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := turn.Finalize(); err != nil {
		return nil, err
	}
	answer, citations, err := turn.Result()
	if err != nil {
		return nil, err
	}

	return s.persistTurn(ctx, chatSession, request, answer, citations, groundedPrompt, ev, updateSessionTitle)
}

// gatherEvidence runs retrieval and assembly. A nil evidence return means
// the canned answer inside the turn is final and generation is skipped.
func (s *insightService) gatherEvidence(ctx context.Context, uow unitofwork.UnitOfWork, question string, send func(stream.Unit) error) (*evidence.Evidence, string, error) {
	if err := send(stream.Unit{Kind: stream.UnitStatus, Status: statusRetrieving}); err != nil {
		return nil, "", err
	}

	queryRes, err := s.embedder.GenerateContext(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, "", fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.retriever.Retrieve(ctx, uow, queryRes.Embedding.Values, s.retrieveCfg)
	if err != nil {
		if errors.Is(err, retrieve.ErrNoRelevantEvidence) {
			return nil, "", sendCanned(send, constant.NoRelevantEvidenceAnswer)
		}
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, "", sendCanned(send, constant.EmptyEvidenceAnswer)
	}

	ev := evidence.Assemble(matches, assemblyFloor(s.retrieveCfg))
	if err := send(stream.Unit{Kind: stream.UnitCitations, Citations: ev.Citations}); err != nil {
		return nil, "", err
	}

	groundedPrompt := prompt.NewGroundedBuilder(ev, question).Build()
	return ev, groundedPrompt, nil
}

// assemblyFloor never sits below the section threshold, so evidence
// assembly can only tighten what retrieval admitted.
func assemblyFloor(cfg retrieve.Config) float64 {
	if cfg.ConfidenceFloor > cfg.SectionThreshold {
		return cfg.ConfidenceFloor
	}
	return cfg.SectionThreshold
}

// sendCanned emits a complete fallback answer as a single fragment.
func sendCanned(send func(stream.Unit) error, answer string) error {
	return send(stream.Unit{Kind: stream.UnitFragment, Text: answer})
}

func (s *insightService) generate(ctx context.Context, sessionId uuid.UUID, groundedPrompt string, ev *evidence.Evidence, turn *stream.Turn, send func(stream.Unit) error) error {
	if ev == nil {
		// Canned answer already in the turn.
		return nil
	}

	if err := send(stream.Unit{Kind: stream.UnitStatus, Status: statusGenerating}); err != nil {
		return err
	}

	msgs, err := s.historyLoader.LoadConversationHistory(ctx, sessionId, historyLimit)
	if err != nil {
		return err
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: groundedPrompt})

	return llm.ChatStream(ctx, s.llmProvider, msgs, func(chunk string) error {
		return send(stream.Unit{Kind: stream.UnitFragment, Text: chunk})
	})
}

func (s *insightService) persistTurn(
	ctx context.Context,
	chatSession *entity.ChatSession,
	request *dto.SendChatRequest,
	answer string,
	citations []*evidence.Citation,
	groundedPrompt string,
	ev *evidence.Evidence,
	updateSessionTitle bool,
) (*dto.SendChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          request.Chat,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}
	modelMessage := entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          answer,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now.Add(1 * time.Second),
	}

	// The raw log stores what the model actually saw, grounded prompt and
	// all, so follow-up turns carry the evidence context.
	rawUserChat := request.Chat
	if groundedPrompt != "" {
		rawUserChat = groundedPrompt
	}
	rawUser := entity.ChatMessageRaw{
		Id:            uuid.New(),
		Chat:          rawUserChat,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now,
	}
	rawModel := entity.ChatMessageRaw{
		Id:            uuid.New(),
		Chat:          answer,
		Role:          constant.ChatMessageRoleModel,
		ChatSessionId: chatSession.Id,
		CreatedAt:     now.Add(1 * time.Second),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, &modelMessage); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRawRepository().Create(ctx, &rawUser); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRawRepository().Create(ctx, &rawModel); err != nil {
		return nil, err
	}

	citationDTOs := make([]dto.CitationDTO, 0, len(citations))
	if len(citations) > 0 {
		rows := make([]*entity.ChatCitation, 0, len(citations))
		for _, c := range citations {
			rows = append(rows, &entity.ChatCitation{
				Id:            uuid.New(),
				ChatMessageId: modelMessage.Id,
				ReportId:      c.ReportId,
				SectionSlug:   c.SectionSlug,
				Excerpt:       c.Excerpt,
				Similarity:    c.Similarity,
				CreatedAt:     now,
			})
			citationDTOs = append(citationDTOs, dto.CitationDTO{
				ReportId:    c.ReportId,
				Title:       c.ReportTitle,
				SectionSlug: c.SectionSlug,
				Excerpt:     c.Excerpt,
				Similarity:  c.Similarity,
			})
		}
		if err := uow.ChatMessageRepository().CreateCitations(ctx, rows); err != nil {
			return nil, err
		}
	}

	if updateSessionTitle {
		chatSession.Title = truncateTitle(request.Chat)
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	lowEvidence := ev != nil && ev.LowEvidence
	return &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		LowEvidence:      lowEvidence,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Chat:      userMessage.Chat,
			Role:      userMessage.Role,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        modelMessage.Id,
			Chat:      modelMessage.Chat,
			Role:      modelMessage.Role,
			CreatedAt: modelMessage.CreatedAt,
			Citations: citationDTOs,
		},
	}, nil
}

func truncateTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= sessionTitleMax {
		return question
	}
	return string(runes[:sessionTitleMax]) + "..."
}

func (s *insightService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: request.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRawRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *insightService) SearchSections(ctx context.Context, request *dto.SearchSectionsRequest) ([]*dto.SectionSearchResult, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	limit := request.Limit
	if limit <= 0 {
		limit = s.retrieveCfg.TopK
	}

	queryRes, err := s.embedder.GenerateContext(ctx, request.Query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := uow.SectionEmbeddingRepository().SearchSimilarWithScore(
		ctx, queryRes.Embedding.Values, limit, s.retrieveCfg.SectionThreshold,
	)
	if err != nil {
		return nil, err
	}

	reportIds := make([]uuid.UUID, 0, len(scored))
	seen := make(map[uuid.UUID]bool)
	for _, res := range scored {
		if !seen[res.Section.ReportId] {
			seen[res.Section.ReportId] = true
			reportIds = append(reportIds, res.Section.ReportId)
		}
	}
	reports, err := uow.ReportRepository().FindAll(ctx, specification.ByIDs{IDs: reportIds})
	if err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(reports))
	for _, r := range reports {
		titles[r.Id] = r.Title
	}

	results := make([]*dto.SectionSearchResult, 0, len(scored))
	for _, res := range scored {
		results = append(results, &dto.SectionSearchResult{
			ReportId:    res.Section.ReportId,
			ReportTitle: titles[res.Section.ReportId],
			Slug:        res.Section.Slug,
			Heading:     res.Section.Heading,
			Excerpt:     sectionExcerpt(res.Section.Content),
			Similarity:  res.Similarity,
		})
	}
	return results, nil
}

func sectionExcerpt(content string) string {
	const max = 240
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
