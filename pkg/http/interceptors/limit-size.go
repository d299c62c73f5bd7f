package interceptors

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/splitpilot/splitpilot/pkg/http/wrappers"
	sbhttp "github.com/splitpilot/splitpilot/pkg/serverbase/http"
	sbhttpbase "github.com/splitpilot/splitpilot/pkg/serverbase/http/base"
)

// HttpServerLimitSizeInterceptor rejects bodies larger than maxBytes.
// Zero means no limit.
func HttpServerLimitSizeInterceptor(maxBytes int64) sbhttpbase.MiddlewareFunc {
	if maxBytes == 0 {
		return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
			next(request)
		}
	}

	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		contentLength := request.Request.Header.Get("Content-Length")
		if contentLength == "" {
			sbhttp.ReturnError(request.Writer, http.StatusLengthRequired, "Content length header is empty", nil)
			return
		}

		length, err := strconv.ParseInt(contentLength, 10, 64)
		if err != nil {
			sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "Failed to convert content length header to integer", err)
			return
		}

		if length > maxBytes {
			sbhttp.ReturnError(request.Writer, http.StatusRequestEntityTooLarge, fmt.Sprintf("Content length header is bigger than %d bytes", maxBytes), nil)
			return
		}

		next(request.WithBody(&wrappers.Request{
			Original: request.Request.Body,
			Reader:   io.LimitReader(request.Request.Body, length),
		}))
	}
}
