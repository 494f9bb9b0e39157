package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"contas/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request")

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// amountText accepts an amount as a JSON string ("12,50") or number (12.5).
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	*a = amountText(b)
	return nil
}

func (a amountText) money(field string) (core.Money, error) {
	m, err := core.ParseAmount(string(a))
	if err != nil {
		return core.Money{}, core.Invalid(field, err)
	}
	return m, nil
}

// date parses YYYY-MM-DD, falling back to def when s is empty.
func date(field, s string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Invalid(field, core.ErrInvalidDate)
	}
	return d, nil
}

// optionalDate parses YYYY-MM-DD, leaving the zero date for empty input.
func optionalDate(field, s string) (core.Date, error) {
	return date(field, s, core.Date{})
}

// parseFilter reads the transaction filter shared by the list, summary and
// exports: from, to, kind, account_id, category, q and limit.
func parseFilter(q url.Values) (core.TransactionFilter, error) {
	var (
		f   core.TransactionFilter
		err error
	)
	if f.From, err = optionalDate("from", q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = optionalDate("to", q.Get("to")); err != nil {
		return f, err
	}
	if k := strings.TrimSpace(q.Get("kind")); k != "" {
		f.Kind = core.TxKind(strings.ToLower(k))
	}
	if v := strings.TrimSpace(q.Get("account_id")); v != "" {
		if f.AccountID, err = strconv.ParseInt(v, 10, 64); err != nil || f.AccountID <= 0 {
			return f, core.Invalid("account_id", errors.New("must be a positive integer"))
		}
	}
	f.Category = sanitizeInput(q.Get("category"))
	f.Text = sanitizeInput(q.Get("q"))
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, core.Invalid("limit", errors.New("must be a non-negative integer"))
		}
	}
	return f, f.Validate()
}

// pathID reads a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(name, errors.New("must be a positive integer"))
	}
	return id, nil
}

// sanitizeInput removes control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
