package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/pipeline"
	"github.com/ppiankov/factlens/internal/telemetry"
	"go.uber.org/zap"
)

const (
	msgTextRequired    = "text 필드가 필요합니다."
	msgTextTooLong     = "텍스트는 5000자를 초과할 수 없습니다."
	msgKeywordsFailed  = "키워드 추출 중 오류가 발생했습니다."
	msgContentRequired = "content 필드가 필요합니다."
	msgInvalidBody     = "잘못된 요청 형식입니다."
	msgTimeout         = "분석 시간이 초과되었습니다."
)

// chatRequest accepts both the form-style body and the message list body
type chatRequest struct {
	Content      string        `json:"content"`
	AnalysisType string        `json:"analysis_type"`
	URL          []string      `json:"url"`
	Messages     []chatMessage `json:"messages"`
	Mode         string        `json:"mode"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Parts   []chatPart `json:"parts"`
}

type chatPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type keywordsRequest struct {
	Text *string `json:"text"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// streamChunk is the payload of one SSE data line
type streamChunk struct {
	Text string `json:"text"`
}

// lastUserMessage returns the text of the most recent user message, preferring
// its first text part over the plain content field
func lastUserMessage(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != "user" {
			continue
		}
		for _, part := range msg.Parts {
			if part.Type == "text" {
				return part.Text
			}
		}
		if msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	if len(req.Messages) > 0 {
		q := model.RawQuery{Text: lastUserMessage(req.Messages), Mode: model.ParseMode(req.Mode), URLs: req.URL}
		if err := s.validateText(q.Text, msgContentRequired); err != nil {
			return err
		}
		return s.stream(c, q)
	}

	mode := req.AnalysisType
	if mode == "" {
		mode = req.Mode
	}
	q := model.RawQuery{Text: req.Content, Mode: model.ParseMode(mode), URLs: req.URL}
	if err := s.validateText(q.Text, msgContentRequired); err != nil {
		return err
	}

	result, err := s.analyze(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result.ToChatResponse())
}

// analyze runs the pipeline under the wall-clock ceiling
func (s *Server) analyze(ctx context.Context, q model.RawQuery) (model.AnalysisResult, error) {
	ctx, cancel := s.withCeiling(ctx)
	defer cancel()

	type outcome struct {
		result model.AnalysisResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("analysis panicked: %v", r)}
			}
		}()
		done <- outcome{result: s.analyzer.Analyze(ctx, q)}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.AnalysisResult{}, echo.NewHTTPError(http.StatusGatewayTimeout, msgTimeout)
		}
		return model.AnalysisResult{}, ctx.Err()
	}
}

// stream forwards completion chunks as server-sent events. Headers are
// written with the first chunk so early failures still get a status code.
func (s *Server) stream(c echo.Context, q model.RawQuery) error {
	ctx, cancel := s.withCeiling(c.Request().Context())
	defer cancel()

	logger := telemetry.LoggerFrom(ctx, s.logger)
	resp := c.Response()

	emit := func(chunk string) error {
		if !resp.Committed {
			resp.Header().Set(echo.HeaderContentType, "text/event-stream")
			resp.Header().Set(echo.HeaderCacheControl, "no-cache")
			resp.Header().Set("Connection", "keep-alive")
			resp.WriteHeader(http.StatusOK)
		}
		data, err := json.Marshal(streamChunk{Text: chunk})
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}

	err := s.analyzer.AnalyzeStream(ctx, q, emit)
	if err == nil {
		_, _ = resp.Write([]byte("data: [DONE]\n\n"))
		resp.Flush()
		return nil
	}

	if resp.Committed {
		logger.Warn("stream aborted", zap.Error(err))
		_, _ = resp.Write([]byte("event: error\ndata: {}\n\n"))
		resp.Flush()
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusGatewayTimeout, msgTimeout)
	}
	return err
}

func (s *Server) keywords(c echo.Context) error {
	var req keywordsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgTextRequired)
	}
	if req.Text == nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgTextRequired)
	}
	if err := s.validateText(*req.Text, msgTextRequired); err != nil {
		return err
	}

	kws, err := s.analyzer.ExtractKeywords(c.Request().Context(), *req.Text)
	if errors.Is(err, pipeline.ErrBlocked) {
		return c.JSON(http.StatusOK, keywordsResponse{Keywords: []string{}})
	}
	if err != nil {
		telemetry.LoggerFrom(c.Request().Context(), s.logger).Error("keyword extraction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgKeywordsFailed})
	}
	return c.JSON(http.StatusOK, keywordsResponse{Keywords: kws})
}

// validateText rejects empty input and input over the rune limit
func (s *Server) validateText(text, missing string) error {
	if strings.TrimSpace(text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, missing)
	}
	if s.maxInput > 0 && utf8.RuneCountInString(text) > s.maxInput {
		return echo.NewHTTPError(http.StatusBadRequest, msgTextTooLong)
	}
	return nil
}

func (s *Server) withCeiling(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AnalysisTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
}
