package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Dataset and record errors of the annotation service.
var (
	// ErrBatchShape rejects a bulk call whose item count is out of bounds.
	ErrBatchShape = Register(New(MakeCode(ServiceLabelHub, CategoryRequest, 1),
		http.StatusBadRequest, codes.InvalidArgument, "Invalid batch size", "批量大小无效"))

	// ErrDuplicateRecordID rejects a batch repeating the same record id.
	ErrDuplicateRecordID = Register(New(MakeCode(ServiceLabelHub, CategoryRequest, 2),
		http.StatusBadRequest, codes.InvalidArgument, "Duplicated record id in batch", "批量中存在重复的记录 ID"))

	// ErrRecordsInvalid carries the per-position failures of a bulk call.
	ErrRecordsInvalid = Register(New(MakeCode(ServiceLabelHub, CategoryRequest, 3),
		http.StatusUnprocessableEntity, codes.InvalidArgument, "Records are not valid", "记录校验失败"))

	// ErrInvalidSchema rejects field, question, metadata or vector definitions.
	ErrInvalidSchema = Register(New(MakeCode(ServiceLabelHub, CategoryRequest, 4),
		http.StatusUnprocessableEntity, codes.InvalidArgument, "Invalid dataset schema", "数据集定义无效"))

	// ErrDatasetNotFound indicates the dataset does not exist.
	ErrDatasetNotFound = Register(New(MakeCode(ServiceLabelHub, CategoryResource, 1),
		http.StatusNotFound, codes.NotFound, "Dataset not found", "数据集不存在"))

	// ErrRecordNotFound indicates a record id does not resolve inside the dataset.
	ErrRecordNotFound = Register(New(MakeCode(ServiceLabelHub, CategoryResource, 2),
		http.StatusNotFound, codes.NotFound, "Record not found", "记录不存在"))

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = Register(New(MakeCode(ServiceLabelHub, CategoryResource, 3),
		http.StatusNotFound, codes.NotFound, "User not found", "用户不存在"))

	// ErrWorkspaceNotFound indicates the workspace does not exist.
	ErrWorkspaceNotFound = Register(New(MakeCode(ServiceLabelHub, CategoryResource, 4),
		http.StatusNotFound, codes.NotFound, "Workspace not found", "工作空间不存在"))

	// ErrDatasetNotReady rejects record creation in a draft dataset.
	ErrDatasetNotReady = Register(New(MakeCode(ServiceLabelHub, CategoryConflict, 1),
		http.StatusUnprocessableEntity, codes.FailedPrecondition, "Dataset is not ready", "数据集未发布"))

	// ErrDatasetAlreadyReady rejects schema edits that a published dataset cannot take.
	ErrDatasetAlreadyReady = Register(New(MakeCode(ServiceLabelHub, CategoryConflict, 2),
		http.StatusUnprocessableEntity, codes.FailedPrecondition, "Dataset is already published", "数据集已发布"))
)
