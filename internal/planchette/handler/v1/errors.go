package v1

import (
	"net/http"

	"github.com/kestrad/planchette/pkg/errorx"
)

// Planchette handler error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (planchette handler)
//   - XX: resource group (00=common, 01=plan, 02=run, 03=session, 04=history, 05=tool)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Common request errors (100xxx).
	ErrBind       = 100001
	ErrValidation = 100002

	// Plan execution errors (1001xx).
	ErrRequestEmpty = 100101
	ErrPlanGenerate = 100102
	ErrPlanExecute  = 100103
	ErrStreamRecv   = 100104

	// Run errors (1002xx).
	ErrRunNotFound = 100201
	ErrRunList     = 100202
	ErrRunResume   = 100203

	// Session errors (1003xx).
	ErrSessionNotFound = 100301
	ErrSessionList     = 100302
	ErrSessionDelete   = 100303

	// History errors (1004xx).
	ErrHistoryList = 100401

	// Tool errors (1005xx).
	ErrToolList = 100501
)

func init() {
	// Common.
	errorx.MustRegister(newCoder(ErrBind, http.StatusBadRequest, "Request body binding failed"))
	errorx.MustRegister(newCoder(ErrValidation, http.StatusBadRequest, "Request validation failed"))

	// Plan execution.
	errorx.MustRegister(newCoder(ErrRequestEmpty, http.StatusBadRequest, "Request text is required and must not be empty"))
	errorx.MustRegister(newCoder(ErrPlanGenerate, http.StatusUnprocessableEntity, "Failed to generate a plan for the request"))
	errorx.MustRegister(newCoder(ErrPlanExecute, http.StatusInternalServerError, "Plan execution failed"))
	errorx.MustRegister(newCoder(ErrStreamRecv, http.StatusInternalServerError, "Stream receive error"))

	// Run.
	errorx.MustRegister(newCoder(ErrRunNotFound, http.StatusNotFound, "Run not found"))
	errorx.MustRegister(newCoder(ErrRunList, http.StatusInternalServerError, "Failed to list runs"))
	errorx.MustRegister(newCoder(ErrRunResume, http.StatusConflict, "Run cannot be resumed"))

	// Session.
	errorx.MustRegister(newCoder(ErrSessionNotFound, http.StatusNotFound, "Session not found"))
	errorx.MustRegister(newCoder(ErrSessionList, http.StatusInternalServerError, "Failed to list sessions"))
	errorx.MustRegister(newCoder(ErrSessionDelete, http.StatusInternalServerError, "Failed to delete session"))

	// History.
	errorx.MustRegister(newCoder(ErrHistoryList, http.StatusInternalServerError, "Failed to list history"))

	// Tool.
	errorx.MustRegister(newCoder(ErrToolList, http.StatusInternalServerError, "Failed to list tools"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }
