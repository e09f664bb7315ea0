package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"encrypted-notes/internal/domain"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/middleware"
	"encrypted-notes/internal/operation"
	"encrypted-notes/internal/seal"
	"encrypted-notes/internal/transaction"
	"encrypted-notes/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Ingest(ctx context.Context, txs []*transaction.Transaction) (*IngestResult, error) {
	args := m.Called(ctx, txs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IngestResult), args.Error(1)
}

func (m *MockService) Rebuild(ctx context.Context) (*IngestResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IngestResult), args.Error(1)
}

func (m *MockService) PutSpaceKey(ctx context.Context, space ids.SpaceID, key seal.SecretKey) (*IngestResult, error) {
	args := m.Called(ctx, space, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IngestResult), args.Error(1)
}

func (m *MockService) Checkpoint(ctx context.Context, space ids.SpaceID) ([]*operation.Encrypted, error) {
	args := m.Called(ctx, space)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*operation.Encrypted), args.Error(1)
}

func (m *MockService) Spaces(ctx context.Context) []domain.Space {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Space)
}

func (m *MockService) Notes(ctx context.Context, space ids.SpaceID, page, pageSize int) (*utils.Paginated[domain.Note], error) {
	args := m.Called(ctx, space, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*utils.Paginated[domain.Note]), args.Error(1)
}

func (m *MockService) Pages(ctx context.Context, space ids.SpaceID) ([]domain.Page, error) {
	args := m.Called(ctx, space)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Page), args.Error(1)
}

func (m *MockService) Files(ctx context.Context, space ids.SpaceID) ([]domain.File, error) {
	args := m.Called(ctx, space)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.File), args.Error(1)
}

func (m *MockService) Note(ctx context.Context, id ids.NoteID) (*domain.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockService) Settings(ctx context.Context) domain.UserSettings {
	args := m.Called(ctx)
	return args.Get(0).(domain.UserSettings)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zerolog.Nop()))
	handler.RegisterRoutes(router)
	return router
}

func perform(router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	tx := &transaction.Transaction{
		ID:      "tx-1",
		Variant: transaction.VariantExtV1,
		Type:    transaction.OperationType,
		Context: map[string][]byte{transaction.SpaceContextKey: {0x01}},
		Payload: []byte{0x02, 0x03},
	}
	body, err := json.Marshal(IngestRequest{Transactions: []*transaction.Transaction{tx}})
	require.NoError(t, err)

	mockService.On("Ingest", mock.Anything, mock.MatchedBy(func(txs []*transaction.Transaction) bool {
		return len(txs) == 1 && txs[0].ID == "tx-1" && bytes.Equal(txs[0].Payload, []byte{0x02, 0x03})
	})).Return(&IngestResult{
		Received: 1,
		Errors:   []error{apperrors.MissingSpaceKey(space.String()).WithTransaction("tx-1")},
	}, nil)

	w := perform(router, http.MethodPost, "/transactions", body)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Received int `json:"received"`
		Errors   []struct {
			Kind          string `json:"kind"`
			TransactionID string `json:"transaction_id"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Received)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "missing_space_key", resp.Errors[0].Kind)
	assert.Equal(t, "tx-1", resp.Errors[0].TransactionID)
	mockService.AssertExpectations(t)
}

func TestIngestHandlerRejectsEmptyBatch(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := perform(router, http.MethodPost, "/transactions", []byte(`{"transactions":[]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestShowNotesHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	note := domain.NewNote(space)
	page := utils.Paginate([]domain.Note{note}, 2, 5)
	mockService.On("Notes", mock.Anything, space, 2, 5).Return(&page, nil)

	w := perform(router, http.MethodGet, "/spaces/"+space.String()+"/notes?page=2&per_page=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_page":2`)
	mockService.AssertExpectations(t)
}

func TestShowNotesHandlerErrors(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := perform(router, http.MethodGet, "/spaces/not-an-id/notes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	space := ids.NewSpaceID()
	mockService.On("Notes", mock.Anything, space, 1, 10).Return(nil, apperrors.NotFound("space not found"))
	w = perform(router, http.MethodGet, "/spaces/"+space.String()+"/notes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShowNoteHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	note := domain.NewNote(ids.NewSpaceID())
	note.Body.Set(ids.NewSectionID(), domain.Section{Content: domain.Paragraph("hi")}, nil)
	mockService.On("Note", mock.Anything, note.ID).Return(&note, nil)

	w := perform(router, http.MethodGet, "/notes/"+note.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), note.ID.String())
	assert.Contains(t, w.Body.String(), `"hi"`)
}

func TestListHandlers(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	mockService.On("Spaces", mock.Anything).Return([]domain.Space{{ID: space, Title: "Home"}})
	mockService.On("Pages", mock.Anything, space).Return([]domain.Page{}, nil)
	mockService.On("Files", mock.Anything, space).Return([]domain.File{{ID: ids.NewFileID(), SpaceID: space, Name: "a.pdf"}}, nil)
	mockService.On("Settings", mock.Anything).Return(domain.UserSettings{DefaultSpace: &space})

	w := perform(router, http.MethodGet, "/spaces", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Home"`)

	w = perform(router, http.MethodGet, "/spaces/"+space.String()+"/pages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = perform(router, http.MethodGet, "/spaces/"+space.String()+"/files", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"a.pdf"`)

	w = perform(router, http.MethodGet, "/settings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"default_space":"`+space.String()+`"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestPutKeyHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	hexKey := strings.Repeat("0f", 32)
	key, err := seal.KeyFromHex(hexKey)
	require.NoError(t, err)
	mockService.On("PutSpaceKey", mock.Anything, space, key).Return(&IngestResult{Applied: 3}, nil)

	w := perform(router, http.MethodPut, "/spaces/"+space.String()+"/key", []byte(`{"key":"`+hexKey+`"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"applied":3`)

	w = perform(router, http.MethodPut, "/spaces/"+space.String()+"/key", []byte(`{"key":"abcd"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNumberOfCalls(t, "PutSpaceKey", 1)
}

func TestCheckpointHandler(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	key, err := seal.GenerateKey()
	require.NoError(t, err)
	enc, err := operation.SpaceSet(domain.Space{ID: space, Title: "Home"}).Encrypt(key)
	require.NoError(t, err)
	mockService.On("Checkpoint", mock.Anything, space).Return([]*operation.Encrypted{enc}, nil)

	w := perform(router, http.MethodPost, "/spaces/"+space.String()+"/checkpoint", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CheckpointResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, space, resp.Space)
	require.Len(t, resp.Operations, 1)

	decoded, err := operation.UnmarshalEncrypted(resp.Operations[0])
	require.NoError(t, err)
	op, err := operation.Decrypt(key, decoded)
	require.NoError(t, err)
	assert.Equal(t, operation.KindSpaceSet, op.Action().Kind())
}

func TestCheckpointHandlerMissingKey(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	space := ids.NewSpaceID()
	mockService.On("Checkpoint", mock.Anything, space).Return(nil, apperrors.MissingSpaceKey(space.String()))

	w := perform(router, http.MethodPost, "/spaces/"+space.String()+"/checkpoint", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
