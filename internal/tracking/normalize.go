package tracking

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/BearBump/TrackHook/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalidPayload is returned for any body that cannot be turned into a
// valid envelope list. Nothing is processed in that case.
var ErrInvalidPayload = errors.New("invalid payload")

// maxStringDepth bounds how many times a JSON string may wrap another JSON value.
const maxStringDepth = 3

var emptyBody = json.RawMessage(`{"trackings":[]}`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("isodatetime", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseTimestamp(fl.Field().String())
		return ok
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize turns a raw webhook body into validated envelopes.
//
// Accepted shapes: an array of envelopes (an element's body may itself be a
// JSON-encoded string), a single envelope object, or a JSON string holding
// either of those.
func Normalize(raw []byte) ([]models.Envelope, error) {
	items, err := unwrap(raw, 0)
	if err != nil {
		return nil, err
	}

	out := make([]models.Envelope, 0, len(items))
	for i, item := range items {
		var env models.Envelope
		if err := json.Unmarshal(item, &env); err != nil {
			return nil, errors.Wrapf(ErrInvalidPayload, "envelope %d: %v", i, err)
		}
		if err := validate.Struct(env); err != nil {
			return nil, errors.Wrapf(ErrInvalidPayload, "envelope %d: %v", i, err)
		}
		out = append(out, env)
	}
	return out, nil
}

// unwrap resolves the outer shape into a list of raw envelope objects.
func unwrap(raw []byte, depth int) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.Wrap(ErrInvalidPayload, "empty body")
	}

	switch raw[0] {
	case '"':
		if depth >= maxStringDepth {
			return nil, errors.Wrap(ErrInvalidPayload, "too deeply encoded")
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(ErrInvalidPayload, "decode string body")
		}
		if !json.Valid([]byte(s)) {
			return nil, errors.Wrap(ErrInvalidPayload, "string body is not json")
		}
		return unwrap([]byte(s), depth+1)

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, errors.Wrap(ErrInvalidPayload, "decode array body")
		}
		out := make([]json.RawMessage, 0, len(elems))
		for _, el := range elems {
			out = append(out, decodeEnvelopeBody(el))
		}
		return out, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, errors.Wrap(ErrInvalidPayload, "decode object body")
		}
		if _, ok := obj["body"]; !ok {
			return nil, errors.Wrap(ErrInvalidPayload, "object without body")
		}
		return unwrap(append(append([]byte{'['}, raw...), ']'), depth)
	}

	return nil, errors.Wrap(ErrInvalidPayload, "unsupported body type")
}

// decodeEnvelopeBody parses a string-encoded body in place. A body string that
// is not JSON becomes an empty tracking list for that element only.
func decodeEnvelopeBody(el json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(el, &obj); err != nil {
		return el
	}
	body, ok := obj["body"]
	if !ok {
		return el
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '"' {
		return el
	}

	var s string
	if err := json.Unmarshal(body, &s); err != nil || !json.Valid([]byte(s)) {
		obj["body"] = emptyBody
	} else {
		obj["body"] = json.RawMessage(s)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return el
	}
	return b
}
