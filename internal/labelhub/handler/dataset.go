package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/biz"
	"github.com/kart-io/labelhub/internal/pkg/httputils"
	"github.com/kart-io/labelhub/pkg/utils/response"
)

// DatasetHandler handles dataset lifecycle and schema edits.
type DatasetHandler struct {
	svc *biz.DatasetService
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(svc *biz.DatasetService) *DatasetHandler {
	return &DatasetHandler{svc: svc}
}

// Create creates a draft dataset.
func (h *DatasetHandler) Create(c *gin.Context) {
	var req biz.CreateDatasetRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	dataset, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Created(dataset))
}

// Get returns a dataset with its schema.
func (h *DatasetHandler) Get(c *gin.Context) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	dataset, err := h.svc.Get(c.Request.Context(), datasetID)
	httputils.WriteResponse(c, err, dataset)
}

// Publish moves a draft dataset to ready.
func (h *DatasetHandler) Publish(c *gin.Context) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	dataset, err := h.svc.Publish(c.Request.Context(), datasetID)
	httputils.WriteResponse(c, err, dataset)
}

// AddField adds a record field.
func (h *DatasetHandler) AddField(c *gin.Context) {
	schemaEdit(c, h.svc.AddField)
}

// AddQuestion adds a question.
func (h *DatasetHandler) AddQuestion(c *gin.Context) {
	schemaEdit(c, h.svc.AddQuestion)
}

// AddMetadataProperty adds a metadata property.
func (h *DatasetHandler) AddMetadataProperty(c *gin.Context) {
	schemaEdit(c, h.svc.AddMetadataProperty)
}

// AddVectorSettings adds a named record vector.
func (h *DatasetHandler) AddVectorSettings(c *gin.Context) {
	schemaEdit(c, h.svc.AddVectorSettings)
}

// schemaEdit binds a request of type T for the dataset named by the path and
// hands it to add.
func schemaEdit[T, R any](c *gin.Context, add func(context.Context, uuid.UUID, *T) (R, error)) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	var req T
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	created, err := add(c.Request.Context(), datasetID, &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, response.Created(created))
}
