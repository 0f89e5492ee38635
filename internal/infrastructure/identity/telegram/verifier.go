package telegram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/platform/logging"
	"github.com/pingis-club/league-api/internal/usecase"
)

const defaultMaxAge = 24 * time.Hour

// webAppDataKey is fixed by the Telegram WebApp signing scheme.
const webAppDataKey = "WebAppData"

type VerifierConfig struct {
	BotToken string
	MaxAge   time.Duration
	Logger   *logging.Logger
}

// Verifier authenticates Telegram Mini App initData strings. A valid
// signature also registers the player on first contact, so every verified
// principal maps to a stored player row.
type Verifier struct {
	secret  []byte
	maxAge  time.Duration
	players *usecase.PlayerService
	logger  *logging.Logger
	now     func() time.Time
}

func NewVerifier(cfg VerifierConfig, players *usecase.PlayerService) *Verifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	mac := hmac.New(sha256.New, []byte(webAppDataKey))
	mac.Write([]byte(strings.TrimSpace(cfg.BotToken)))

	return &Verifier{
		secret:  mac.Sum(nil),
		maxAge:  maxAge,
		players: players,
		logger:  logger,
		now:     time.Now,
	}
}

type initDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (player.Principal, error) {
	values, err := url.ParseQuery(token)
	if err != nil {
		return player.Principal{}, fmt.Errorf("%w: malformed init data", usecase.ErrUnauthorized)
	}

	providedHash := strings.TrimSpace(values.Get("hash"))
	if providedHash == "" {
		return player.Principal{}, fmt.Errorf("%w: init data is missing its signature", usecase.ErrUnauthorized)
	}
	values.Del("hash")

	if !hmac.Equal([]byte(providedHash), []byte(v.sign(values))) {
		return player.Principal{}, fmt.Errorf("%w: init data signature mismatch", usecase.ErrUnauthorized)
	}

	authDate, err := strconv.ParseInt(strings.TrimSpace(values.Get("auth_date")), 10, 64)
	if err != nil || authDate <= 0 {
		return player.Principal{}, fmt.Errorf("%w: init data auth_date is invalid", usecase.ErrUnauthorized)
	}
	if age := v.now().Sub(time.Unix(authDate, 0)); age > v.maxAge {
		return player.Principal{}, fmt.Errorf("%w: init data expired", usecase.ErrUnauthorized)
	}

	var user initDataUser
	if err := sonic.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return player.Principal{}, fmt.Errorf("%w: init data user payload is invalid", usecase.ErrUnauthorized)
	}

	registered, err := v.players.RegisterByTelegram(ctx, usecase.RegisterPlayerInput{
		TelegramID: user.ID,
		Name:       displayName(user),
	})
	if err != nil {
		v.logger.WarnContext(ctx, "resolve player for verified init data failed", "telegram_id", user.ID, "error", err)
		return player.Principal{}, err
	}

	return player.Principal{
		PlayerID:   registered.ID,
		TelegramID: registered.TelegramID,
		Name:       registered.Name,
	}, nil
}

// sign computes the hex digest over the sorted key=value lines, which is
// how Telegram defines the data-check string.
func (v *Verifier) sign(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func displayName(user initDataUser) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	if username := strings.TrimSpace(user.Username); username != "" {
		return username
	}
	return "Player " + strconv.FormatInt(user.ID, 10)
}
