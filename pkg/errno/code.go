package errno

import "net/http"

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code       int
	HTTPStatus int
	Message    string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, HTTPStatus: http.StatusOK, Message: "Success"}

	ErrValidation   = &Errno{Code: 400, HTTPStatus: http.StatusBadRequest, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, HTTPStatus: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, HTTPStatus: http.StatusNotFound, Message: "Not found"}
	ErrConflict     = &Errno{Code: 409, HTTPStatus: http.StatusConflict, Message: "Conflict"}

	ErrInternalServer = &Errno{Code: 500, HTTPStatus: http.StatusInternalServerError, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, HTTPStatus: http.StatusInternalServerError, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, HTTPStatus: http.StatusInternalServerError, Message: "Unknown error"}

	// 上传相关错误码
	ErrMissingParam     = &Errno{Code: 20001, HTTPStatus: http.StatusBadRequest, Message: "Missing required parameter"}
	ErrFileNameIllegal  = &Errno{Code: 20002, HTTPStatus: http.StatusBadRequest, Message: "File name is illegal"}
	ErrFileSizeIllegal  = &Errno{Code: 20003, HTTPStatus: http.StatusBadRequest, Message: "File size is illegal"}
	ErrNotVideo         = &Errno{Code: 20004, HTTPStatus: http.StatusBadRequest, Message: "File uploaded is not a video"}
	ErrStorage          = &Errno{Code: 20006, HTTPStatus: http.StatusInternalServerError, Message: "Failed to upload video to storage"}
	ErrVideoIDRequired  = &Errno{Code: 20007, HTTPStatus: http.StatusBadRequest, Message: "Video ID is required"}
	ErrVideoNotFound    = &Errno{Code: 20008, HTTPStatus: http.StatusNotFound, Message: "Video not found"}
	ErrInvalidStatus    = &Errno{Code: 20009, HTTPStatus: http.StatusBadRequest, Message: "Invalid video status"}
	ErrInvalidSortField = &Errno{Code: 20010, HTTPStatus: http.StatusBadRequest, Message: "Invalid sort field"}
	ErrCorruptRecord    = &Errno{Code: 20011, HTTPStatus: http.StatusInternalServerError, Message: "Stored video record is corrupt"}

	// 转写相关错误码
	ErrInvalidTransition    = &Errno{Code: 20020, HTTPStatus: http.StatusConflict, Message: "Invalid status transition"}
	ErrAlreadyProcessing    = &Errno{Code: 20021, HTTPStatus: http.StatusConflict, Message: "Video is already being processed"}
	ErrTranscription        = &Errno{Code: 20022, HTTPStatus: http.StatusInternalServerError, Message: "Error transcribing video"}
	ErrTranscriptionTimeout = &Errno{Code: 20023, HTTPStatus: http.StatusInternalServerError, Message: "Transcription timed out"}
)
