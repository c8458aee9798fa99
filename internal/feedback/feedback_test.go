// Copyright (c) 2026 Bloomify. All rights reserved.

package feedback_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/feedback"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pointer"
)

// # Fakes

type update struct {
	sheet, cell, value string
}

type memoryTable struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	updates []update
	err     error
}

func newMemoryTable() *memoryTable {
	return &memoryTable{sheets: map[string][][]string{
		"Features": {
			{"Email", "Username", "Classify", "Suggest", "Generate"},
			{"alice@x.com", "alice", "great", "", ""},
			{"bob@x.com", "bob"},
		},
		"General": {
			{"Email", "Username", "Feedback", "Time"},
		},
	}}
}

func (m *memoryTable) Rows(_ context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sheets[sheet], nil
}

func (m *memoryTable) Append(_ context.Context, sheet string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sheets[sheet] = append(m.sheets[sheet], row)
	return nil
}

func (m *memoryTable) Update(_ context.Context, sheet, cell, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.updates = append(m.updates, update{sheet, cell, value})
	return nil
}

func newRecorder(table feedback.Table) *feedback.Recorder {
	return feedback.NewRecorder(table, "Features", "General", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Tests

/*
TestRecorder_RecordFeature writes the caller's cell in A1 notation.
*/
func TestRecorder_RecordFeature(t *testing.T) {
	table := newMemoryTable()
	recorder := newRecorder(table)
	ctx := context.Background()

	require.NoError(t, recorder.RecordFeature(ctx, feedback.Author{Email: "bob@x.com"}, "Suggest", "useful"))
	require.NoError(t, recorder.RecordFeature(ctx, feedback.Author{Email: "alice@x.com"}, "Generate", "slow"))

	assert.Equal(t, []update{
		{"Features", "D3", "useful"},
		{"Features", "E2", "slow"},
	}, table.updates)
}

/*
TestRecorder_RecordFeature_NotFound rejects unknown rows and columns without writing.
*/
func TestRecorder_RecordFeature_NotFound(t *testing.T) {
	table := newMemoryTable()
	recorder := newRecorder(table)
	ctx := context.Background()

	err := recorder.RecordFeature(ctx, feedback.Author{Email: "carol@x.com"}, "Suggest", "hi")
	assert.ErrorIs(t, err, feedback.ErrRowNotFound)

	err = recorder.RecordFeature(ctx, feedback.Author{Email: "bob@x.com"}, "Translate", "hi")
	assert.True(t, apperr.IsNotFound(err))

	err = recorder.RecordFeature(ctx, feedback.Author{Email: "bob@x.com"}, "Email", "alice@x.com")
	assert.ErrorIs(t, err, feedback.ErrColumnNotFound)

	err = recorder.RecordFeature(ctx, feedback.Author{Email: "bob@x.com"}, "Username", "alice")
	assert.ErrorIs(t, err, feedback.ErrColumnNotFound)

	assert.Empty(t, table.updates)
}

/*
TestRecorder_MatchesEmailColumnOnly ignores addresses typed into feedback cells.
*/
func TestRecorder_MatchesEmailColumnOnly(t *testing.T) {
	table := newMemoryTable()
	table.sheets["Features"] = [][]string{
		{"Email", "Username", "Classify", "Suggest", "Generate"},
		{"mallory@x.com", "mallory", "bob@x.com", "", ""},
		{"bob@x.com", "bob", "", "", ""},
	}
	recorder := newRecorder(table)
	ctx := context.Background()

	require.NoError(t, recorder.RecordFeature(ctx, feedback.Author{Email: "bob@x.com"}, "Suggest", "useful"))
	assert.Equal(t, []update{{"Features", "D3", "useful"}}, table.updates)

	status, err := recorder.Status(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, feedback.Status{}, *status)

	require.NoError(t, recorder.Enroll(ctx, "bob@x.com", "bob"))
	assert.Len(t, table.sheets["Features"], 3)
}

/*
TestRecorder_RecordGeneral appends a timestamped row.
*/
func TestRecorder_RecordGeneral(t *testing.T) {
	table := newMemoryTable()
	recorder := newRecorder(table)

	require.NoError(t, recorder.RecordGeneral(context.Background(), feedback.Author{Email: "alice@x.com", Username: "alice"}, "love it"))

	rows := table.sheets["General"]
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice@x.com", "alice", "love it"}, rows[1][:3])
	stamp, err := time.Parse(time.RFC3339, rows[1][3])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamp, 5*time.Second)
}

/*
TestRecorder_Status reports filled feature cells.
*/
func TestRecorder_Status(t *testing.T) {
	recorder := newRecorder(newMemoryTable())
	ctx := context.Background()

	status, err := recorder.Status(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, feedback.Status{Classify: true}, *status)

	status, err = recorder.Status(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, feedback.Status{}, *status)

	status, err = recorder.Status(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, feedback.Status{}, *status)
}

/*
TestRecorder_Enroll adds a row only once.
*/
func TestRecorder_Enroll(t *testing.T) {
	table := newMemoryTable()
	recorder := newRecorder(table)
	ctx := context.Background()

	require.NoError(t, recorder.Enroll(ctx, "carol@x.com", "carol"))
	require.NoError(t, recorder.Enroll(ctx, "carol@x.com", "carol"))
	require.NoError(t, recorder.Enroll(ctx, "alice@x.com", "alice"))

	rows := table.sheets["Features"]
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"carol@x.com", "carol", "", "", ""}, rows[3])
}

/*
TestRecorder_TableFailure surfaces as an upstream error.
*/
func TestRecorder_TableFailure(t *testing.T) {
	table := newMemoryTable()
	table.err = errors.New("quota exceeded")
	recorder := newRecorder(table)
	ctx := context.Background()

	for _, err := range []error{
		recorder.RecordGeneral(ctx, feedback.Author{Email: "alice@x.com"}, "x"),
		recorder.RecordFeature(ctx, feedback.Author{Email: "alice@x.com"}, "Suggest", "x"),
		recorder.Enroll(ctx, "alice@x.com", "alice"),
	} {
		assert.Equal(t, "EXTERNAL_SERVICE_ERROR", apperr.As(err).Code)
	}

	_, err := recorder.Status(ctx, "alice@x.com")
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", apperr.As(err).Code)
}

// # Handler

type staticUsers map[string]*auth.User

func (u staticUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

/*
TestHandler_Record routes General to the log and everything else to a cell.
*/
func TestHandler_Record(t *testing.T) {
	table := newMemoryTable()
	users := staticUsers{"u-bob": {ID: "u-bob", Email: "bob@x.com", Username: pointer.To("bob")}}
	routes := feedback.NewHandler(newRecorder(table), users).Routes()

	tests := []struct {
		name       string
		userID     string
		body       string
		wantStatus int
	}{
		{"anonymous", "", `{"column":"General","feedback":"hi"}`, http.StatusUnauthorized},
		{"empty_feedback", "u-bob", `{"column":"General","feedback":" "}`, http.StatusBadRequest},
		{"missing_column", "u-bob", `{"feedback":"hi"}`, http.StatusBadRequest},
		{"unknown_column", "u-bob", `{"column":"Translate","feedback":"hi"}`, http.StatusNotFound},
		{"general", "u-bob", `{"column":"General","feedback":"hi"}`, http.StatusNoContent},
		{"feature", "u-bob", `{"column":"Classify","feedback":"accurate"}`, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.userID != "" {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: tt.userID}))
			}
			recorder := httptest.NewRecorder()

			routes.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}

	assert.Len(t, table.sheets["General"], 2)
	assert.Equal(t, []update{{"Features", "C3", "accurate"}}, table.updates)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u-bob"}))
	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"classify":false,"suggest":false,"generate":false}}`, recorder.Body.String())
}
