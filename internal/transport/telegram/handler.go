package telegram

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	operatorService "github.com/reshetovitsme/channel-relay/internal/modules/operator/service"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	pairService "github.com/reshetovitsme/channel-relay/internal/modules/pair/service"
	relayService "github.com/reshetovitsme/channel-relay/internal/modules/relay/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
)

// Submitter accepts inbound events for delivery.
type Submitter interface {
	Submit(ctx context.Context, event messageDomain.Event) error
}

// StatusProvider reports the relay summary shown by /status.
type StatusProvider interface {
	Status() relayService.Status
}

// Handler handles Telegram bot interactions
type Handler struct {
	cfg       *config.Config
	pairs     *pairService.Service
	operators *operatorService.Service
	submitter Submitter
	status    StatusProvider
}

// New creates a new Telegram handler
func New(cfg *config.Config, pairs *pairService.Service, operators *operatorService.Service, submitter Submitter, status StatusProvider) *Handler {
	return &Handler{
		cfg:       cfg,
		pairs:     pairs,
		operators: operators,
		submitter: submitter,
		status:    status,
	}
}

const helpText = `Available commands:
/help - Show this help message
/addpair <source> <destination> - Relay a channel into another (ids or @usernames)
/removepair <pair_id> - Remove a pair and its message mappings
/pairs - List all pairs
/enable <pair_id> - Resume relaying
/disable <pair_id> - Pause relaying
/keywords <pair_id> allow|block <k1,k2,...> - Keyword filter
/regex <pair_id> allow|block <pattern> [pattern...] - Regex filter
/timewindow <pair_id> allow|block <days> <HH:MM-HH:MM> [...] - Time window filter (days: mon-fri, sat,sun, all)
/media <pair_id> <kinds> - Forward only these kinds (text, photo, video, document, audio, animation, sticker, other)
/clearfilter <pair_id> [keywords|regex|timewindow|media|all] - Remove filters
/status - Show relay status

Example:
/addpair @news_source @news_mirror`

// Register attaches the channel post handler and the command handlers to b.
// Every command that changes or reveals configuration goes through Authorize.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandlerMatchFunc(isChannelUpdate, h.HandleUpdate)

	b.RegisterHandlerMatchFunc(matchCommand("start"), h.handleStart)
	b.RegisterHandlerMatchFunc(matchCommand("help"), h.handleHelp)

	authorized := map[string]bot.HandlerFunc{
		"addpair":     h.handleAddPair,
		"removepair":  h.handleRemovePair,
		"pairs":       h.handleListPairs,
		"enable":      h.handleEnable,
		"disable":     h.handleDisable,
		"keywords":    h.handleKeywords,
		"regex":       h.handleRegex,
		"timewindow":  h.handleTimeWindow,
		"media":       h.handleMedia,
		"clearfilter": h.handleClearFilter,
		"status":      h.handleStatus,
	}
	for name, handler := range authorized {
		b.RegisterHandlerMatchFunc(matchCommand(name), handler, h.Authorize)
	}
}

// matchCommand matches a message whose first word is /name, also in the
// /name@botname form Telegram uses in groups.
func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		fields := strings.Fields(update.Message.Text)
		if len(fields) == 0 {
			return false
		}
		cmd, _, _ := strings.Cut(fields[0], "@")
		return cmd == "/"+name
	}
}

// HandleUpdate turns channel posts and their edits into relay events
func (h *Handler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	event, ok := EventFrom(update)
	if !ok {
		return
	}

	if err := h.submitter.Submit(ctx, event); err != nil {
		slog.Error("Failed to submit channel post",
			"error", err,
			"kind", event.Kind,
			"source_id", event.Message.SourceID,
			"message_id", event.Message.MessageID,
		)
		return
	}

	slog.Debug("Channel post received",
		"kind", event.Kind,
		"source_id", event.Message.SourceID,
		"message_id", event.Message.MessageID,
		"media_kind", event.Message.MediaKind,
	)
}

func (h *Handler) reply(ctx context.Context, b *bot.Bot, update *models.Update, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	}); err != nil {
		slog.Error("Failed to send reply", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

func (h *Handler) replyError(ctx context.Context, b *bot.Bot, update *models.Update, action string, err error) {
	switch {
	case stdErrors.Is(err, errors.ErrNotFound):
		h.reply(ctx, b, update, "❌ Pair not found")
	case stdErrors.Is(err, errors.ErrConflict):
		h.reply(ctx, b, update, "❌ That source and destination are already paired")
	case stdErrors.Is(err, errors.ErrInvalidFilter):
		h.reply(ctx, b, update, fmt.Sprintf("❌ Invalid filter: %v", err))
	case stdErrors.Is(err, errors.ErrInvalidPair):
		h.reply(ctx, b, update, fmt.Sprintf("❌ Invalid pair: %v", err))
	default:
		slog.Error("Command failed", "action", action, "error", err)
		h.reply(ctx, b, update, fmt.Sprintf("❌ Failed to %s: %v", action, err))
	}
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message.From == nil {
		return
	}

	op, err := h.operators.Claim(update.Message.From.ID, update.Message.From.Username)
	if err != nil {
		if stdErrors.Is(err, errors.ErrUnauthorized) {
			h.reply(ctx, b, update, "❌ You are not authorized to use this bot.")
			return
		}
		h.replyError(ctx, b, update, "register operator", err)
		return
	}

	role := "operator"
	if op.IsOwner {
		role = "owner"
	}
	h.reply(ctx, b, update, fmt.Sprintf(`👋 Welcome to Channel Relay Bot!

I copy posts from source channels into destination channels, keeping edits and deletions in sync.
You are registered as %s. Add me as an administrator to both channels of every pair.

%s`, role, helpText))
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.reply(ctx, b, update, helpText)
}

func (h *Handler) handleAddPair(ctx context.Context, b *bot.Bot, update *models.Update) {
	parts := strings.Fields(update.Message.Text)
	if len(parts) < 3 {
		h.reply(ctx, b, update, "Usage: /addpair <source> <destination>\nExample: /addpair @news_source -1001234567890")
		return
	}

	sourceID, err := h.resolveChat(ctx, b, parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Failed to get channel info for %s: %v\nMake sure the bot is added to the channel as an administrator.", parts[1], err))
		return
	}
	destinationID, err := h.resolveChat(ctx, b, parts[2])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ Failed to get channel info for %s: %v\nMake sure the bot is added to the channel as an administrator.", parts[2], err))
		return
	}

	pair, err := h.pairs.Upsert(pairDomain.ChannelPair{
		SourceID:      sourceID,
		DestinationID: destinationID,
		Enabled:       true,
	})
	if err != nil {
		h.replyError(ctx, b, update, "add pair", err)
		return
	}

	slog.Info("Pair added", "pair_id", pair.ID, "source_id", sourceID, "destination_id", destinationID, "user_id", update.Message.From.ID)
	h.reply(ctx, b, update, fmt.Sprintf("✅ Pair #%d added: %d → %d", pair.ID, sourceID, destinationID))
}

func (h *Handler) resolveChat(ctx context.Context, b *bot.Bot, ref string) (int64, error) {
	id, username := parseChatRef(ref)
	if username == "" {
		return id, nil
	}

	chat, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: username})
	if err != nil {
		return 0, err
	}
	return chat.ID, nil
}

func (h *Handler) handleRemovePair(ctx context.Context, b *bot.Bot, update *models.Update) {
	pairID, ok := h.pairArg(ctx, b, update, "Usage: /removepair <pair_id>")
	if !ok {
		return
	}

	if err := h.pairs.Remove(pairID); err != nil {
		h.replyError(ctx, b, update, "remove pair", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf("✅ Pair #%d removed", pairID))
}

func (h *Handler) handleListPairs(ctx context.Context, b *bot.Bot, update *models.Update) {
	pairs := h.pairs.All()
	if len(pairs) == 0 {
		h.reply(ctx, b, update, "📭 No pairs configured yet.\nUse /addpair to add one.")
		return
	}

	var text strings.Builder
	text.WriteString("📋 Channel Pairs:\n\n")
	for _, p := range pairs {
		status := "✅"
		if !p.Enabled {
			status = "⏸️"
		}
		text.WriteString(fmt.Sprintf("%s #%d %d → %d\n   Filters: %s\n\n",
			status, p.ID, p.SourceID, p.DestinationID, p.Filter.String()))
	}

	h.reply(ctx, b, update, text.String())
}

func (h *Handler) handleEnable(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.setEnabled(ctx, b, update, true)
}

func (h *Handler) handleDisable(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.setEnabled(ctx, b, update, false)
}

func (h *Handler) setEnabled(ctx context.Context, b *bot.Bot, update *models.Update, enabled bool) {
	usage := "Usage: /disable <pair_id>"
	if enabled {
		usage = "Usage: /enable <pair_id>"
	}
	pairID, ok := h.pairArg(ctx, b, update, usage)
	if !ok {
		return
	}

	if _, err := h.pairs.SetEnabled(pairID, enabled); err != nil {
		h.replyError(ctx, b, update, "update pair", err)
		return
	}

	if enabled {
		h.reply(ctx, b, update, fmt.Sprintf("▶️ Pair #%d enabled", pairID))
	} else {
		h.reply(ctx, b, update, fmt.Sprintf("⏸️ Pair #%d disabled", pairID))
	}
}

func (h *Handler) handleKeywords(ctx context.Context, b *bot.Bot, update *models.Update) {
	const usage = "Usage: /keywords <pair_id> allow|block <keyword1,keyword2,...>\nExample: /keywords 1 block ads,sponsored post"

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 4 {
		h.reply(ctx, b, update, usage)
		return
	}
	pairID, mode, ok := h.pairAndMode(ctx, b, update, parts, usage)
	if !ok {
		return
	}

	rule := &pairDomain.KeywordRule{Patterns: parseKeywords(parts[3:]), Mode: mode}
	h.updateFilter(ctx, b, update, pairID, func(cfg *pairDomain.FilterConfig) { cfg.Keyword = rule })
}

func (h *Handler) handleRegex(ctx context.Context, b *bot.Bot, update *models.Update) {
	const usage = "Usage: /regex <pair_id> allow|block <pattern> [pattern...]\nExample: /regex 1 allow ^#release"

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 4 {
		h.reply(ctx, b, update, usage)
		return
	}
	pairID, mode, ok := h.pairAndMode(ctx, b, update, parts, usage)
	if !ok {
		return
	}

	rule := &pairDomain.RegexRule{Patterns: parts[3:], Mode: mode}
	h.updateFilter(ctx, b, update, pairID, func(cfg *pairDomain.FilterConfig) { cfg.Regex = rule })
}

func (h *Handler) handleTimeWindow(ctx context.Context, b *bot.Bot, update *models.Update) {
	const usage = "Usage: /timewindow <pair_id> allow|block <days> <HH:MM-HH:MM> [<days> <HH:MM-HH:MM>...]\nExample: /timewindow 1 allow mon-fri 09:00-18:00"

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 5 {
		h.reply(ctx, b, update, usage)
		return
	}
	pairID, mode, ok := h.pairAndMode(ctx, b, update, parts, usage)
	if !ok {
		return
	}

	ranges, err := parseTimeRanges(parts[3:])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return
	}

	rule := &pairDomain.TimeWindowRule{Ranges: ranges, Mode: mode}
	h.updateFilter(ctx, b, update, pairID, func(cfg *pairDomain.FilterConfig) { cfg.TimeWindow = rule })
}

func (h *Handler) handleMedia(ctx context.Context, b *bot.Bot, update *models.Update) {
	const usage = "Usage: /media <pair_id> <kind> [kind...]\nExample: /media 1 text photo"

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 3 {
		h.reply(ctx, b, update, usage)
		return
	}
	pairID, err := parsePairID(parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return
	}
	kinds, err := parseMediaKinds(parts[2:])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return
	}

	rule := &pairDomain.MediaTypeRule{AllowedTypes: kinds}
	h.updateFilter(ctx, b, update, pairID, func(cfg *pairDomain.FilterConfig) { cfg.MediaType = rule })
}

func (h *Handler) handleClearFilter(ctx context.Context, b *bot.Bot, update *models.Update) {
	const usage = "Usage: /clearfilter <pair_id> [keywords|regex|timewindow|media|all]"

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, b, update, usage)
		return
	}
	pairID, err := parsePairID(parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return
	}
	rule := ""
	if len(parts) > 2 {
		rule = parts[2]
	}

	pair, err := h.pairs.Get(pairID)
	if err != nil {
		h.replyError(ctx, b, update, "clear filter", err)
		return
	}
	cfg, err := clearRule(pair.Filter, rule)
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return
	}
	if _, err := h.pairs.SetFilter(pairID, cfg); err != nil {
		h.replyError(ctx, b, update, "clear filter", err)
		return
	}

	h.reply(ctx, b, update, fmt.Sprintf("✅ Filters of pair #%d: %s", pairID, cfg.String()))
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	st := h.status.Status()

	text := fmt.Sprintf(`📊 Relay Status:

Pairs: %d (Enabled: %d)
Mapped messages: %d
Queued events: %d
Pairs with failures: %d
Alerts: %d
HTTP Port: %s
Storage: %s`,
		st.Pairs, st.EnabledPairs, st.Mappings, st.QueueDepth, len(st.Failures), st.Alerts, h.cfg.HTTPPort, h.cfg.DatabasePath)

	h.reply(ctx, b, update, text)
}

func (h *Handler) pairArg(ctx context.Context, b *bot.Bot, update *models.Update, usage string) (int64, bool) {
	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, b, update, usage)
		return 0, false
	}
	pairID, err := parsePairID(parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return 0, false
	}
	return pairID, true
}

func (h *Handler) pairAndMode(ctx context.Context, b *bot.Bot, update *models.Update, parts []string, usage string) (int64, pairDomain.Mode, bool) {
	pairID, err := parsePairID(parts[1])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ %v\n%s", err, usage))
		return 0, "", false
	}
	mode, err := parseMode(parts[2])
	if err != nil {
		h.reply(ctx, b, update, fmt.Sprintf("❌ mode must be allow or block\n%s", usage))
		return 0, "", false
	}
	return pairID, mode, true
}

func (h *Handler) updateFilter(ctx context.Context, b *bot.Bot, update *models.Update, pairID int64, mutate func(cfg *pairDomain.FilterConfig)) {
	pair, err := h.pairs.Get(pairID)
	if err != nil {
		h.replyError(ctx, b, update, "update filter", err)
		return
	}

	cfg := pair.Filter
	mutate(&cfg)

	updated, err := h.pairs.SetFilter(pairID, cfg)
	if err != nil {
		h.replyError(ctx, b, update, "update filter", err)
		return
	}

	slog.Info("Pair filter updated", "pair_id", pairID, "user_id", update.Message.From.ID)
	h.reply(ctx, b, update, fmt.Sprintf("✅ Filters of pair #%d: %s", pairID, updated.Filter.String()))
}
