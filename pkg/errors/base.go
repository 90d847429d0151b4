package errors

import "net/http"

// Service codes (AA).
const (
	ServiceCommon = 0
	ServiceInfra  = 10
	ServiceRAG    = 20
	ServiceIngest = 21
)

// Category codes (BB).
const (
	CategorySuccess  = 0
	CategoryRequest  = 1
	CategoryNotFound = 4
	CategoryInternal = 7
	CategoryDatabase = 8
	CategoryCache    = 9
	CategoryUpstream = 10
	CategoryTimeout  = 11
	CategoryConfig   = 12
)

// MakeCode builds a 7-digit error code from service, category and sequence.
func MakeCode(service, category, seq int) int {
	return service*100000 + category*1000 + seq
}

// Common errors.
var (
	OK = &Errno{
		Code:    MakeCode(ServiceCommon, CategorySuccess, 0),
		HTTP:    http.StatusOK,
		Message: "Success",
	}

	ErrBadRequest = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Bad request",
	})

	ErrInvalidParam = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:    http.StatusBadRequest,
		Message: "Invalid parameter",
	})

	ErrValidationFailed = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryRequest, 2),
		HTTP:    http.StatusBadRequest,
		Message: "Validation failed",
	})

	ErrNotFound = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryNotFound, 0),
		HTTP:    http.StatusNotFound,
		Message: "Resource not found",
	})

	ErrRouteNotFound = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryNotFound, 1),
		HTTP:    http.StatusNotFound,
		Message: "Route not found",
	})

	ErrInternal = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Internal server error",
	})

	ErrTimeout = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryTimeout, 0),
		HTTP:    http.StatusGatewayTimeout,
		Message: "Request timeout",
	})

	ErrConfig = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryConfig, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Configuration error",
	})
)

// Infrastructure errors.
var (
	ErrDatabase = Register(&Errno{
		Code:    MakeCode(ServiceInfra, CategoryDatabase, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Database error",
	})

	ErrCache = Register(&Errno{
		Code:    MakeCode(ServiceInfra, CategoryCache, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Cache error",
	})

	ErrVectorStore = Register(&Errno{
		Code:    MakeCode(ServiceInfra, CategoryDatabase, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Vector store error",
	})

	ErrObjectStore = Register(&Errno{
		Code:    MakeCode(ServiceInfra, CategoryUpstream, 0),
		HTTP:    http.StatusBadGateway,
		Message: "Object storage error",
	})

	ErrModelBackend = Register(&Errno{
		Code:    MakeCode(ServiceInfra, CategoryUpstream, 1),
		HTTP:    http.StatusBadGateway,
		Message: "Model backend error",
	})
)

// Retrieval and chat errors.
var (
	ErrRetrieval = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Retrieval failed",
	})

	ErrGeneration = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryInternal, 1),
		HTTP:    http.StatusInternalServerError,
		Message: "Answer generation failed",
	})

	ErrTranscription = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryUpstream, 0),
		HTTP:    http.StatusBadGateway,
		Message: "Audio transcription failed",
	})

	ErrVideoUpload = Register(&Errno{
		Code:    MakeCode(ServiceRAG, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Error uploading video",
	})
)

// Ingestion errors.
var (
	ErrIngestion = Register(&Errno{
		Code:    MakeCode(ServiceIngest, CategoryInternal, 0),
		HTTP:    http.StatusInternalServerError,
		Message: "Ingestion failed",
	})

	ErrEmptyDocument = Register(&Errno{
		Code:    MakeCode(ServiceIngest, CategoryRequest, 0),
		HTTP:    http.StatusBadRequest,
		Message: "Document is empty",
	})

	ErrUnsupportedMedia = Register(&Errno{
		Code:    MakeCode(ServiceIngest, CategoryRequest, 1),
		HTTP:    http.StatusUnsupportedMediaType,
		Message: "Unsupported media type",
	})
)
