package telegram

import (
	stdErrors "errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/samber/oops"
)

// classify maps Bot API failures onto the transport error taxonomy. Errors it
// does not recognize are returned unchanged and stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var tooMany *bot.TooManyRequestsError
	if stdErrors.As(err, &tooMany) {
		return &messageDomain.RateLimitedError{RetryAfter: time.Duration(tooMany.RetryAfter) * time.Second}
	}

	description := strings.ToLower(err.Error())
	switch {
	case stdErrors.Is(err, bot.ErrorForbidden), stdErrors.Is(err, bot.ErrorUnauthorized):
		return wrap(messageDomain.ErrPermissionDenied, err)
	case stdErrors.Is(err, bot.ErrorNotFound):
		return wrap(messageDomain.ErrUnreachable, err)
	case stdErrors.Is(err, bot.ErrorBadRequest):
		switch {
		case strings.Contains(description, "not modified"):
			return wrap(messageDomain.ErrNotModified, err)
		case strings.Contains(description, "message to edit not found"),
			strings.Contains(description, "message to delete not found"),
			strings.Contains(description, "message can't be edited"),
			strings.Contains(description, "message_id_invalid"):
			return wrap(messageDomain.ErrMessageGone, err)
		case strings.Contains(description, "not enough rights"),
			strings.Contains(description, "have no rights"),
			strings.Contains(description, "need administrator rights"):
			return wrap(messageDomain.ErrPermissionDenied, err)
		default:
			// A rejected request never succeeds on retry.
			return wrap(messageDomain.ErrUnreachable, err)
		}
	default:
		return err
	}
}

func wrap(kind, cause error) error {
	return oops.In("telegram").With("telegram_error", cause.Error()).Wrap(kind)
}
