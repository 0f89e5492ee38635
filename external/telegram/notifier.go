package telegram

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/platform/logging"
	"github.com/pingis-club/league-api/internal/platform/resilience"
	"github.com/pingis-club/league-api/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const defaultAPIBaseURL = "https://api.telegram.org"

var errTelegramTransient = crerr.New("telegram transient failure")

type NotifierConfig struct {
	Client         *fasthttp.Client
	APIBaseURL     string
	BotToken       string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Notifier delivers player notifications through the Telegram Bot API.
// An empty bot token turns every send into a no-op so local setups work
// without credentials.
type Notifier struct {
	client         *fasthttp.Client
	baseURL        string
	botToken       string
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewNotifier(cfg NotifierConfig) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Notifier{
		client:         client,
		baseURL:        baseURL,
		botToken:       strings.TrimSpace(cfg.BotToken),
		timeout:        timeout,
		maxRetries:     retries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

var _ usecase.Notifier = (*Notifier)(nil)

func (n *Notifier) NotifyResultSubmitted(ctx context.Context, to player.Player, from player.Player, m match.Match) error {
	return n.sendMessage(ctx, to, resultSubmittedText(from, m))
}

func (n *Notifier) NotifyResultConfirmed(ctx context.Context, to player.Player, from player.Player, m match.Match) error {
	return n.sendMessage(ctx, to, resultConfirmedText(from, to, m))
}

func (n *Notifier) NotifyResultRejected(ctx context.Context, to player.Player, from player.Player, m match.Match) error {
	return n.sendMessage(ctx, to, resultRejectedText(from))
}

func (n *Notifier) NotifyGameRequested(ctx context.Context, to player.Player, from player.Player) error {
	return n.sendMessage(ctx, to, gameRequestedText(from))
}

// resultSubmittedText puts the submitter's sets first regardless of which
// side the submitter is stored on.
func resultSubmittedText(from player.Player, m match.Match) string {
	fromSets, toSets := m.Score1, m.Score2
	if from.ID == m.Player2ID {
		fromSets, toSets = m.Score2, m.Score1
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(from.Name)
	_, _ = buf.WriteString(" reported ")
	_, _ = buf.WriteString(strconv.Itoa(fromSets))
	_, _ = buf.WriteString(":")
	_, _ = buf.WriteString(strconv.Itoa(toSets))
	_, _ = buf.WriteString(" against you. Confirm or reject the result in the league app.")
	return buf.String()
}

// resultConfirmedText shows the score from the submitter's side, matching
// the numbers they reported.
func resultConfirmedText(from player.Player, to player.Player, m match.Match) string {
	toSets, fromSets := m.Score1, m.Score2
	if to.ID == m.Player2ID {
		toSets, fromSets = m.Score2, m.Score1
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(from.Name)
	_, _ = buf.WriteString(" confirmed your ")
	_, _ = buf.WriteString(strconv.Itoa(toSets))
	_, _ = buf.WriteString(":")
	_, _ = buf.WriteString(strconv.Itoa(fromSets))
	_, _ = buf.WriteString(" result. Ratings are updated.")
	return buf.String()
}

func resultRejectedText(from player.Player) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(from.Name)
	_, _ = buf.WriteString(" rejected your reported result. Agree on the score and submit again.")
	return buf.String()
}

func gameRequestedText(from player.Player) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(from.Name)
	_, _ = buf.WriteString(" wants to play a league match with you. Open the league app to respond.")
	return buf.String()
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) sendMessage(ctx context.Context, to player.Player, text string) error {
	if n.botToken == "" {
		n.logger.DebugContext(ctx, "telegram notifier disabled, dropping message", "player_id", to.ID)
		return nil
	}
	if to.TelegramID == 0 {
		n.logger.DebugContext(ctx, "player has no telegram chat, dropping message", "player_id", to.ID)
		return nil
	}

	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			n.logger.WarnContext(ctx, "telegram circuit breaker rejected request", "state", n.breaker.State())
			return fmt.Errorf("%w: telegram is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(sendMessageRequest{ChatID: to.TelegramID, Text: text})
	if err != nil {
		return crerr.Wrap(err, "marshal sendMessage payload")
	}

	sendErr := n.execute(ctx, n.baseURL+"/bot"+n.botToken+"/sendMessage", body)
	if n.circuitEnabled {
		if sendErr != nil && stderrors.Is(sendErr, errTelegramTransient) {
			n.breaker.RecordFailure()
		} else {
			n.breaker.RecordSuccess()
		}
	}
	if sendErr != nil {
		n.logger.WarnContext(ctx, "telegram sendMessage failed", "player_id", to.ID, "error", sendErr)
		return sendErr
	}
	return nil
}

func (n *Notifier) execute(ctx context.Context, fullURL string, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()

		req.SetRequestURI(fullURL)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)

		err := n.client.DoTimeout(req, resp, n.timeout)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errTelegramTransient, err)
		} else {
			status := resp.StatusCode()
			apiErr := decodeAPIError(resp.Body())
			switch {
			case status >= 200 && status < 300 && apiErr == "":
				fasthttp.ReleaseRequest(req)
				fasthttp.ReleaseResponse(resp)
				return nil
			case isRetryableStatus(status):
				lastErr = fmt.Errorf("%w: telegram status=%d description=%s", errTelegramTransient, status, apiErr)
			default:
				fasthttp.ReleaseRequest(req)
				fasthttp.ReleaseResponse(resp)
				return fmt.Errorf("telegram status=%d description=%s", status, apiErr)
			}
		}
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		if attempt == n.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("telegram request failed")
	}
	return lastErr
}

// decodeAPIError returns the bot API error description, or "" when the
// payload reports ok or cannot be decoded.
func decodeAPIError(raw []byte) string {
	var parsed sendMessageResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	if parsed.OK {
		return ""
	}
	return strings.TrimSpace(parsed.Description)
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}
