package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ovozbot/finance-service/internal/models/errs"
)

// checkJSONDecodeError turns json decoding failures into 400-mappable
// errors with a message the bot can relay. Anything unrecognized is
// passed through untouched.
func checkJSONDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: field %q expects %s, got %q",
			errs.ErrInvalidRequest, typeErr.Field, typeErr.Type, typeErr.Value)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: malformed json at offset %d",
			errs.ErrInvalidRequest, syntaxErr.Offset)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: empty or truncated body", errs.ErrInvalidRequest)
	}

	return err
}
