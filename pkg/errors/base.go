package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	GRPCCode:  codes.OK,
	MessageEN: "Success",
	MessageZH: "成功",
})

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Bad request",
		MessageZH: "请求错误",
	})

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Invalid parameter",
		MessageZH: "参数无效",
	})

	// ErrValidationFailed indicates validation failure.
	ErrValidationFailed = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 4),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Validation failed",
		MessageZH: "验证失败",
	})
)

var (
	// ErrNotFound indicates the resource was not found.
	ErrNotFound = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryResource, 0),
		HTTP:      http.StatusNotFound,
		GRPCCode:  codes.NotFound,
		MessageEN: "Resource not found",
		MessageZH: "资源不存在",
	})

	// ErrAlreadyExists indicates a unique name or key is already taken.
	ErrAlreadyExists = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryConflict, 0),
		HTTP:      http.StatusConflict,
		GRPCCode:  codes.AlreadyExists,
		MessageEN: "Resource already exists",
		MessageZH: "资源已存在",
	})
)

var (
	// ErrInternal indicates an internal server error.
	ErrInternal = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Internal server error",
		MessageZH: "服务器内部错误",
	})

	// ErrDatabase indicates a database error.
	ErrDatabase = Register(&Errno{
		Code:      MakeCode(ServiceInfraDB, CategoryDatabase, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Database error",
		MessageZH: "数据库错误",
	})

	// ErrDBTransaction indicates a transaction could not be committed.
	ErrDBTransaction = Register(&Errno{
		Code:      MakeCode(ServiceInfraDB, CategoryDatabase, 1),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Aborted,
		MessageEN: "Database transaction failed",
		MessageZH: "数据库事务失败",
	})

	// ErrStream indicates the event stream could not be written.
	ErrStream = Register(&Errno{
		Code:      MakeCode(ServiceInfraCache, CategoryCache, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Unavailable,
		MessageEN: "Event stream error",
		MessageZH: "事件流错误",
	})

	// ErrRequestTimeout indicates the request deadline passed before it finished.
	ErrRequestTimeout = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryTimeout, 1),
		HTTP:      http.StatusRequestTimeout,
		GRPCCode:  codes.DeadlineExceeded,
		MessageEN: "Request timeout",
		MessageZH: "请求超时",
	})
)
