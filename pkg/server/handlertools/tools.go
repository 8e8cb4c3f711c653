package handlertools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
)

var log = internal.GetLogger()

// IntFromQuery extracts a query string value and converts it to an int
// if it is not empty. If the value is empty, it returns 0.
func IntFromQuery[T ~int | int32 | int64](
	r *http.Request,
	param string,
) (T, error) {
	bitsize := 0

	p := r.URL.Query().Get(param)
	var pInt T
	if p != "" {
		switch any(pInt).(type) {
		case int:
		case int32:
			bitsize = 32
		case int64:
			bitsize = 64
		default:
			return 0, errors.New("unsupported type")
		}

		pInt, err := strconv.ParseInt(p, 10, bitsize)
		if err != nil {
			return 0, err
		}
		return T(pInt), nil
	}
	return 0, nil
}

// FloatFromQuery extracts a query string value and converts it to a float.
// If the value is empty, it returns defaultValue.
func FloatFromQuery[T ~float32 | ~float64](
	r *http.Request,
	param string,
	defaultValue T,
) (T, error) {
	p := r.URL.Query().Get(param)
	if p == "" {
		return defaultValue, nil
	}

	pFloat, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	return T(pFloat), nil
}

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// RenderError renders an error response.
func RenderError(w http.ResponseWriter, err error, status int) {
	if err.Error() == "http: request body too large" {
		status = http.StatusRequestEntityTooLarge
		err = fmt.Errorf(
			"request body too large. reduce the batch size of the records uploaded",
		)
	}

	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}

	if errors.Is(err, models.ErrBadRequest) {
		status = http.StatusBadRequest
	}

	http.Error(w, err.Error(), status)
}
