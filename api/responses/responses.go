// Package responses renders the JSON envelopes every endpoint shares.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/preciousyou/precious-backend/pkg/errors"
	"github.com/preciousyou/precious-backend/pkg/logger"
	"github.com/preciousyou/precious-backend/pkg/types"
)

// clientMessageCodes are the codes whose operator message is safe to
// show to callers. Everything else renders the code's public message.
var clientMessageCodes = map[pkgerrors.Code]struct{}{
	pkgerrors.CodeValidation:   {},
	pkgerrors.CodeUnauthorized: {},
	pkgerrors.CodeForbidden:    {},
	pkgerrors.CodeNotFound:     {},
	pkgerrors.CodeConflict:     {},
	pkgerrors.CodeRateLimit:    {},
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Success(data))
}

// WriteError renders an application error with its mapped HTTP status
// and logs the full cause chain.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if _, ok := clientMessageCodes[typed.Code()]; ok && typed.Message() != "" {
		msg = typed.Message()
	}

	var details any
	if meta.DetailsAllowed {
		details = typed.Details()
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
		})
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, types.Failure(string(typed.Code()), msg, details))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
