package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/pkg/mergepatch"
)

const bodyField = "body"

func readBody(c echo.Context) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// Bind decodes a JSON request body into dst with echo's binder. Members are
// matched by their exact JSON name, as in merge-patch documents; anything
// else is ignored.
func Bind(c echo.Context, dst interface{}) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return apperr.Unprocessable(bodyField, "corpo da requisição obrigatório")
	}
	data = exactMembers(data, reflect.TypeOf(dst))

	req := c.Request()
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.ContentLength = int64(len(data))
	if req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if err := c.Bind(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// Patch decodes a merge-patch body. An empty body yields an empty document
// so callers can answer 400 for "nothing to update".
func Patch(c echo.Context) (mergepatch.Document, error) {
	data, err := readBody(c)
	if err != nil {
		return nil, err
	}
	doc, err := mergepatch.Parse(data)
	if err != nil {
		if errors.Is(err, mergepatch.ErrNotObject) {
			return nil, apperr.Unprocessable(bodyField, "o corpo deve ser um objeto JSON")
		}
		return nil, apperr.Unprocessable(bodyField, "JSON inválido")
	}
	return doc, nil
}

func decodeError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnsupportedMediaType {
		return httpErr
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = bodyField
		}
		return apperr.Unprocessable(field, "tipo inválido")
	}
	return apperr.Unprocessable(bodyField, "JSON inválido")
}

// String reads an optional string member of a patch document. Explicit null
// is reported as nil; it is rejected when the member is required.
func String(doc mergepatch.Document, name string, required bool) (value *string, present bool, err error) {
	if required && doc.IsNull(name) {
		return nil, true, apperr.Unprocessable(name, "campo obrigatório")
	}
	value, present, err = doc.String(name)
	if err != nil {
		var fe *mergepatch.FieldError
		if errors.As(err, &fe) {
			return nil, true, apperr.Unprocessable(fe.Field, fe.Msg)
		}
		return nil, true, err
	}
	return value, present, nil
}

// Set assigns a patch member to an optional field when present.
func Set(doc mergepatch.Document, name string, dst **string) error {
	v, present, err := String(doc, name, false)
	if err != nil || !present {
		return err
	}
	*dst = v
	return nil
}

// SetRequired assigns a patch member to a required field when present.
func SetRequired(doc mergepatch.Document, name string, dst *string) error {
	v, present, err := String(doc, name, true)
	if err != nil || !present {
		return err
	}
	*dst = *v
	return nil
}
