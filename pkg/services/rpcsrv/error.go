package rpcsrv

import (
	"net/http"

	"github.com/fracnft/fracnft/pkg/neorpc"
)

// abstractResult is what handleRequest produces: a single response or a
// batch of them.
type abstractResult interface {
	RunForErrors(f func(jsonErr *neorpc.Error))
}

// abstract is a server-side JSON-RPC response, Result is any of the
// result types from the result package.
type abstract struct {
	neorpc.Header
	Error  *neorpc.Error `json:"error,omitempty"`
	Result any           `json:"result,omitempty"`
}

// RunForErrors calls f if the response carries an error.
func (a abstract) RunForErrors(f func(jsonErr *neorpc.Error)) {
	if a.Error != nil {
		f(a.Error)
	}
}

type abstractBatch []abstract

// RunForErrors calls f for every failed response of the batch.
func (ab abstractBatch) RunForErrors(f func(jsonErr *neorpc.Error)) {
	for i := range ab {
		ab[i].RunForErrors(f)
	}
}

// httpCodes maps JSON-RPC error codes to HTTP statuses of single-request
// replies, everything else is 422.
var httpCodes = map[int64]int{
	neorpc.BadRequestCode:          http.StatusBadRequest,
	neorpc.InvalidRequestCode:      http.StatusUnprocessableEntity,
	neorpc.InvalidParamsCode:       http.StatusUnprocessableEntity,
	neorpc.MethodNotFoundCode:      http.StatusMethodNotAllowed,
	neorpc.InternalServerErrorCode: http.StatusInternalServerError,
}

func getHTTPCodeForError(respErr *neorpc.Error) int {
	if code, ok := httpCodes[respErr.Code]; ok {
		return code
	}
	return http.StatusUnprocessableEntity
}
