package client

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = common.New(common.KindUpstream, "server unavailable")

func kindOf(status int) common.Kind {
	switch status {
	case http.StatusConflict:
		return common.KindConflict
	case http.StatusUnauthorized:
		return common.KindUnauthorized
	case http.StatusBadRequest:
		return common.KindBadRequest
	case http.StatusNotFound:
		return common.KindNotFound
	case http.StatusBadGateway:
		return common.KindUpstream
	default:
		return common.KindInternal
	}
}

// decodeError turns a non-2xx response into a *common.Error. The body is
// expected to be {"message": ...}; the status text is used otherwise.
func decodeError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	return common.New(kindOf(resp.StatusCode), body.Message)
}
