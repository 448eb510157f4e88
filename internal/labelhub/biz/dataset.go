package biz

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/kart-io/logger"
	"gorm.io/datatypes"

	"github.com/kart-io/labelhub/internal/labelhub/schema"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/utils/json"
	"github.com/kart-io/labelhub/pkg/validator"
)

// CreateDatasetRequest describes a new draft dataset.
type CreateDatasetRequest struct {
	WorkspaceID        uuid.UUID `json:"workspace_id" validate:"required"`
	Name               string    `json:"name" validate:"required,resourcename"`
	Guidelines         string    `json:"guidelines" validate:"max=10000"`
	AllowExtraMetadata bool      `json:"allow_extra_metadata"`
	MinSubmitted       int       `json:"min_submitted" validate:"omitempty,min=1"`
}

// CreateFieldRequest describes a record field.
type CreateFieldRequest struct {
	Name     string         `json:"name" validate:"required,resourcename"`
	Title    string         `json:"title" validate:"max=500"`
	Required bool           `json:"required"`
	Settings map[string]any `json:"settings"`
}

// CreateQuestionRequest describes a question. Settings carry the kind
// specific configuration, including its "type".
type CreateQuestionRequest struct {
	Name        string         `json:"name" validate:"required,resourcename"`
	Title       string         `json:"title" validate:"max=500"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Settings    map[string]any `json:"settings" validate:"required"`
}

// CreateMetadataPropertyRequest describes a metadata property.
type CreateMetadataPropertyRequest struct {
	Name         string         `json:"name" validate:"required,resourcename"`
	Title        string         `json:"title" validate:"max=500"`
	Settings     map[string]any `json:"settings" validate:"required"`
	AllowedRoles []string       `json:"allowed_roles" validate:"dive,oneof=owner admin annotator"`
}

// CreateVectorSettingsRequest describes a named record vector.
type CreateVectorSettingsRequest struct {
	Name       string `json:"name" validate:"required,resourcename"`
	Title      string `json:"title" validate:"max=500"`
	Dimensions int    `json:"dimensions" validate:"required,min=1,max=32768"`
}

// DatasetService handles dataset lifecycle and schema edits.
type DatasetService struct {
	store store.Factory
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(store store.Factory) *DatasetService {
	return &DatasetService{store: store}
}

func validate(req any) error {
	if errs := validator.StructWithLang(req, validator.LangEN); errs.HasErrors() {
		return errors.ErrValidationFailed.WithMessage(errs.Error()).WithDetails(errs.Errors)
	}
	return nil
}

// Create creates a draft dataset in an existing workspace.
func (s *DatasetService) Create(ctx context.Context, req *CreateDatasetRequest) (*model.Dataset, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.Workspaces().Get(ctx, req.WorkspaceID); err != nil {
		return nil, err
	}

	minSubmitted := req.MinSubmitted
	if minSubmitted == 0 {
		minSubmitted = 1
	}
	dataset := &model.Dataset{
		WorkspaceID:          req.WorkspaceID,
		Name:                 req.Name,
		Guidelines:           req.Guidelines,
		Status:               model.DatasetStatusDraft,
		DistributionStrategy: model.DistributionStrategyOverlap,
		MinSubmitted:         minSubmitted,
		AllowExtraMetadata:   req.AllowExtraMetadata,
	}
	if err := s.store.Datasets().Create(ctx, dataset); err != nil {
		return nil, err
	}
	return dataset, nil
}

// Get retrieves a dataset with its schema.
func (s *DatasetService) Get(ctx context.Context, id uuid.UUID) (*model.Dataset, error) {
	return s.store.Datasets().GetWithSchema(ctx, id)
}

// Publish makes a draft dataset ready for records. It needs at least one
// field and one required question.
func (s *DatasetService) Publish(ctx context.Context, id uuid.UUID) (*model.Dataset, error) {
	dataset, err := s.store.Datasets().GetWithSchema(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset.IsReady() {
		return nil, errors.ErrDatasetAlreadyReady.WithMessagef("dataset %q is already published", dataset.Name)
	}
	if len(dataset.Fields) == 0 {
		return nil, errors.ErrInvalidSchema.WithMessage("dataset cannot be published without fields")
	}
	required := false
	for _, q := range dataset.Questions {
		required = required || q.Required
	}
	if !required {
		return nil, errors.ErrInvalidSchema.WithMessage("dataset cannot be published without required questions")
	}
	if _, err := schema.NewRegistry(dataset); err != nil {
		return nil, errors.ErrInvalidSchema.WithMessage(err.Error())
	}

	if err := s.store.Datasets().UpdateStatus(ctx, id, model.DatasetStatusReady); err != nil {
		return nil, err
	}
	dataset.Status = model.DatasetStatusReady
	logger.Infow("Dataset published", "dataset_id", id.String(), "name", dataset.Name)
	return dataset, nil
}

func settingsJSON(settings map[string]any) (datatypes.JSON, error) {
	if settings == nil {
		return nil, nil
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, errors.ErrInvalidSchema.WithMessage(err.Error())
	}
	return data, nil
}

// AddField adds a text field. Fields can only be added to draft datasets.
func (s *DatasetService) AddField(ctx context.Context, datasetID uuid.UUID, req *CreateFieldRequest) (*model.Field, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	dataset, err := s.store.Datasets().Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset.IsReady() {
		return nil, errors.ErrDatasetAlreadyReady.WithMessage("fields cannot be added to a published dataset")
	}

	settings := req.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	if t, ok := settings["type"]; ok && t != "text" {
		return nil, errors.ErrInvalidSchema.WithMessagef("field type %v is not supported, expected text", t)
	}
	settings["type"] = "text"
	if _, ok := settings["use_markdown"]; !ok {
		settings["use_markdown"] = false
	}
	raw, err := settingsJSON(settings)
	if err != nil {
		return nil, err
	}

	field := &model.Field{
		DatasetID: datasetID,
		Name:      req.Name,
		Title:     titleOrName(req.Title, req.Name),
		Required:  req.Required,
		Settings:  raw,
	}
	if err := s.store.Datasets().CreateField(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

// AddQuestion adds a question after validating its settings against the
// question kind. Required questions can only be added to draft datasets.
func (s *DatasetService) AddQuestion(ctx context.Context, datasetID uuid.UUID, req *CreateQuestionRequest) (*model.Question, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	dataset, err := s.store.Datasets().GetWithSchema(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if dataset.IsReady() && req.Required {
		return nil, errors.ErrDatasetAlreadyReady.WithMessage("required questions cannot be added to a published dataset")
	}

	kind, _ := req.Settings["type"].(string)
	raw, err := settingsJSON(req.Settings)
	if err != nil {
		return nil, err
	}
	question := &model.Question{
		DatasetID:   datasetID,
		Name:        req.Name,
		Title:       titleOrName(req.Title, req.Name),
		Description: req.Description,
		Required:    req.Required,
		Type:        model.QuestionType(kind),
		Settings:    raw,
	}

	v, err := schema.NewAnswerValidator(question)
	if err != nil {
		return nil, errors.ErrInvalidSchema.WithMessage(err.Error())
	}
	if dep, ok := v.(schema.FieldDependent); ok {
		registry, err := schema.NewRegistry(dataset)
		if err != nil {
			return nil, errors.ErrInvalidSchema.WithMessage(err.Error())
		}
		if _, err := registry.FieldByName(dep.DependsOnField()); err != nil {
			if stderrors.Is(err, schema.ErrNameNotFound) {
				return nil, errors.ErrInvalidSchema.WithMessagef(
					"%s question needs an existing field, %q not found", kind, dep.DependsOnField())
			}
			return nil, err
		}
	}

	if err := s.store.Datasets().CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// AddMetadataProperty adds a metadata property after validating its settings.
func (s *DatasetService) AddMetadataProperty(ctx context.Context, datasetID uuid.UUID,
	req *CreateMetadataPropertyRequest,
) (*model.MetadataProperty, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.Datasets().Get(ctx, datasetID); err != nil {
		return nil, err
	}

	kind, _ := req.Settings["type"].(string)
	raw, err := settingsJSON(req.Settings)
	if err != nil {
		return nil, err
	}
	roles := req.AllowedRoles
	if len(roles) == 0 {
		roles = []string{string(model.UserRoleAdmin), string(model.UserRoleAnnotator)}
	}
	property := &model.MetadataProperty{
		DatasetID:    datasetID,
		Name:         req.Name,
		Title:        titleOrName(req.Title, req.Name),
		Type:         model.MetadataPropertyType(kind),
		Settings:     raw,
		AllowedRoles: datatypes.JSONSlice[string](roles),
	}
	if _, err := schema.NewMetadataValidator(property); err != nil {
		return nil, errors.ErrInvalidSchema.WithMessage(err.Error())
	}

	if err := s.store.Datasets().CreateMetadataProperty(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// AddVectorSettings adds a named record vector.
func (s *DatasetService) AddVectorSettings(ctx context.Context, datasetID uuid.UUID,
	req *CreateVectorSettingsRequest,
) (*model.VectorSettings, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.Datasets().Get(ctx, datasetID); err != nil {
		return nil, err
	}

	settings := &model.VectorSettings{
		DatasetID:  datasetID,
		Name:       req.Name,
		Title:      titleOrName(req.Title, req.Name),
		Dimensions: req.Dimensions,
	}
	if err := s.store.Datasets().CreateVectorSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func titleOrName(title, name string) string {
	if title == "" {
		return name
	}
	return title
}
