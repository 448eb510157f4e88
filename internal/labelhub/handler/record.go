package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/biz"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/internal/pkg/httputils"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/id"
	"github.com/kart-io/labelhub/pkg/utils/response"
)

// RecordHandler handles dataset records.
type RecordHandler struct {
	svc *biz.RecordService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *biz.RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// BulkRequest is the body of the bulk endpoints.
type BulkRequest struct {
	Items []*biz.RecordSpec `json:"items"`
}

// BulkResponse lists the resulting records in input order.
type BulkResponse struct {
	Items []*biz.RecordView `json:"items"`
}

// BulkCreate creates every item as a new record.
func (h *RecordHandler) BulkCreate(c *gin.Context) {
	h.bulk(c, h.svc.BulkCreate, true)
}

// BulkUpsert creates items without an id and updates the others.
func (h *RecordHandler) BulkUpsert(c *gin.Context) {
	h.bulk(c, h.svc.BulkUpsert, false)
}

type bulkFunc func(ctx context.Context, datasetID uuid.UUID, specs []*biz.RecordSpec, include store.Include) ([]*biz.RecordView, error)

func (h *RecordHandler) bulk(c *gin.Context, run bulkFunc, created bool) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	include, err := parseInclude(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	var req BulkRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	views, err := run(c.Request.Context(), datasetID, req.Items, include)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if created {
		httputils.WriteResponse(c, nil, response.Created(&BulkResponse{Items: views}))
		return
	}
	httputils.WriteResponse(c, nil, &BulkResponse{Items: views})
}

// List returns one page of dataset records.
func (h *RecordHandler) List(c *gin.Context) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	opts := biz.ListOptions{Status: model.RecordStatus(c.Query("status"))}
	if opts.Include, err = parseInclude(c); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if opts.Page, err = intQuery(c, "page"); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if opts.PageSize, err = intQuery(c, "page_size"); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	list, err := h.svc.List(c.Request.Context(), datasetID, opts)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	page, size := max(opts.Page, 1), opts.PageSize
	if size <= 0 {
		size = biz.DefaultPageSize
	}
	httputils.WriteResponse(c, nil, response.Page(list.Items, list.Total, page, size))
}

// Get returns one record.
func (h *RecordHandler) Get(c *gin.Context) {
	recordID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	include, err := parseInclude(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	view, err := h.svc.Get(c.Request.Context(), recordID, include)
	httputils.WriteResponse(c, err, view)
}

// Delete removes the records listed by the ids query parameter.
func (h *RecordHandler) Delete(c *gin.Context) {
	datasetID, err := uuidParam(c, "id")
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	ids, err := id.ParseUUIDList(c.Query("ids"))
	if err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithMessage(err.Error()), nil)
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), datasetID, ids)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"deleted": deleted})
}
