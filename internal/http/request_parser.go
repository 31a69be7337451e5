package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"saldo/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are ignored; type mismatches become field errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return core.FieldError(field, fmt.Sprintf("must be %s", jsonKind(typeErr.Type.Kind().String())))
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return core.FieldError("body", "malformed JSON")
		case errors.Is(err, io.EOF):
			return core.FieldError("body", "request body is required")
		case errors.As(err, &maxErr):
			return core.FieldError("body", fmt.Sprintf("must not exceed %d bytes", maxErr.Limit))
		default:
			return core.FieldError("body", "invalid request body")
		}
	}
	if dec.More() {
		return core.FieldError("body", "must contain a single JSON object")
	}
	return nil
}

func jsonKind(kind string) string {
	switch kind {
	case "int", "int64", "int32":
		return "an integer"
	case "string":
		return "a string"
	case "struct", "map":
		return "an object"
	default:
		return "a " + kind
	}
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, core.FieldError("id", "must be a positive integer")
	}
	return id, nil
}

// parseListQuery decodes list filters from the query string. Every malformed
// parameter is reported at once.
func parseListQuery(q url.Values) (core.ListTransactionsInput, error) {
	in := core.ListTransactionsInput{
		Type:       strings.TrimSpace(q.Get("type")),
		Category:   strings.TrimSpace(q.Get("category")),
		Recurrence: strings.TrimSpace(q.Get("recurrence")),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	v := core.NewValidationError()

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("limit", "must be an integer")
		} else {
			in.Limit = &n
		}
	}
	in.Cursor = parseInt64(v, q, "cursor")
	in.MinAmount = parseInt64(v, q, "minAmount")
	in.MaxAmount = parseInt64(v, q, "maxAmount")
	in.StartDate = parseDate(v, q, "startDate")
	in.EndDate = parseDate(v, q, "endDate")

	if err := v.Err(); err != nil {
		return core.ListTransactionsInput{}, err
	}
	return in, nil
}

func parseInt64(v *core.ValidationError, q url.Values, key string) *int64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v.Add(key, "must be an integer")
		return nil
	}
	return &n
}

func parseDate(v *core.ValidationError, q url.Values, key string) *core.Date {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		v.Add(key, "must be a date (YYYY-MM-DD)")
		return nil
	}
	return &d
}
