// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package feedback records what users think of each feature in a spreadsheet.

Two tabs are used. The features tab has a header row ("Email", "Username",
"Classify", "Suggest", "Generate") and one row per user, whose cells are
overwritten with the latest opinion. The general tab is an append-only log of
free-text feedback.

Concurrent writes to the same cell are last-write-wins.
*/
package feedback

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

// ColumnGeneral routes feedback to the general log instead of a feature cell.
const ColumnGeneral = "General"

// Identity columns of the features sheet. Feedback never overwrites them.
const (
	ColumnEmail    = "Email"
	ColumnUsername = "Username"
)

// Feature columns reported by [Recorder.Status].
const (
	ColumnClassify = "Classify"
	ColumnSuggest  = "Suggest"
	ColumnGenerate = "Generate"
)

// MaxFeedbackLength bounds a single piece of feedback.
const MaxFeedbackLength = 5000

const serviceName = "Feedback sheet"

var (
	// ErrRowNotFound is returned when the user has no row on the features tab.
	ErrRowNotFound = apperr.NotFound("Feedback row")
	// ErrColumnNotFound is returned when the header has no such column.
	ErrColumnNotFound = apperr.NotFound("Feedback column")
)

// Table reads and writes one spreadsheet. Cells are addressed in A1 notation.
// Implemented by [SheetsTable].
type Table interface {
	Rows(ctx context.Context, sheet string) ([][]string, error)
	Append(ctx context.Context, sheet string, row []string) error
	Update(ctx context.Context, sheet, cell, value string) error
}

// Author identifies who left the feedback.
type Author struct {
	Email    string
	Username string
}

// Status reports which features the user has already reviewed.
type Status struct {
	Classify bool `json:"classify"`
	Suggest  bool `json:"suggest"`
	Generate bool `json:"generate"`
}

// Recorder writes feedback to the features and general tabs.
type Recorder struct {
	table        Table
	featureSheet string
	generalSheet string
	now          func() time.Time
	logger       *slog.Logger
}

// NewRecorder constructs a [Recorder] over the two named tabs.
func NewRecorder(table Table, featureSheet, generalSheet string, logger *slog.Logger) *Recorder {
	return &Recorder{
		table:        table,
		featureSheet: featureSheet,
		generalSheet: generalSheet,
		now:          time.Now,
		logger:       logger,
	}
}

// RecordGeneral appends [email, username, text, timestamp] to the general tab.
func (recorder *Recorder) RecordGeneral(ctx context.Context, author Author, text string) error {
	row := []string{author.Email, author.Username, text, recorder.now().UTC().Format(time.RFC3339)}
	if err := recorder.table.Append(ctx, recorder.generalSheet, row); err != nil {
		return apperr.ExternalService(serviceName, err)
	}

	recorder.logger.InfoContext(ctx, "feedback_general_recorded")
	return nil
}

/*
RecordFeature overwrites the author's cell in column with text.

Returns:
  - error: ErrRowNotFound, ErrColumnNotFound or EXTERNAL_SERVICE_ERROR
*/
func (recorder *Recorder) RecordFeature(ctx context.Context, author Author, column, text string) error {
	rows, err := recorder.table.Rows(ctx, recorder.featureSheet)
	if err != nil {
		return apperr.ExternalService(serviceName, err)
	}

	rowIndex := findRow(rows, author.Email)
	if rowIndex < 0 {
		return ErrRowNotFound
	}
	columnIndex := findColumn(rows, column)
	if columnIndex < 0 || column == ColumnEmail || column == ColumnUsername {
		return ErrColumnNotFound
	}

	if err := recorder.table.Update(ctx, recorder.featureSheet, cellName(columnIndex, rowIndex), text); err != nil {
		return apperr.ExternalService(serviceName, err)
	}

	recorder.logger.InfoContext(ctx, "feedback_feature_recorded", slog.String("column", column))
	return nil
}

// Status reports which feature cells of email are filled. A user without a row has reviewed nothing.
func (recorder *Recorder) Status(ctx context.Context, email string) (*Status, error) {
	rows, err := recorder.table.Rows(ctx, recorder.featureSheet)
	if err != nil {
		return nil, apperr.ExternalService(serviceName, err)
	}

	rowIndex := findRow(rows, email)
	if rowIndex < 0 {
		return &Status{}, nil
	}

	filled := func(column string) bool {
		columnIndex := findColumn(rows, column)
		row := rows[rowIndex]
		return columnIndex >= 0 && columnIndex < len(row) && strings.TrimSpace(row[columnIndex]) != ""
	}

	return &Status{
		Classify: filled(ColumnClassify),
		Suggest:  filled(ColumnSuggest),
		Generate: filled(ColumnGenerate),
	}, nil
}

// Enroll adds a blank features row for email unless one exists.
func (recorder *Recorder) Enroll(ctx context.Context, email, username string) error {
	rows, err := recorder.table.Rows(ctx, recorder.featureSheet)
	if err != nil {
		return apperr.ExternalService(serviceName, err)
	}
	if findRow(rows, email) >= 0 {
		return nil
	}

	if err := recorder.table.Append(ctx, recorder.featureSheet, []string{email, username, "", "", ""}); err != nil {
		return apperr.ExternalService(serviceName, err)
	}

	recorder.logger.InfoContext(ctx, "feedback_user_enrolled")
	return nil
}

// findRow returns the index of the first row whose Email cell is email, or -1.
// The header row is never a match. Sheets without an Email header keep addresses in column A.
func findRow(rows [][]string, email string) int {
	if email == "" {
		return -1
	}
	emailColumn := max(findColumn(rows, ColumnEmail), 0)
	for i := 1; i < len(rows); i++ {
		if emailColumn < len(rows[i]) && strings.EqualFold(strings.TrimSpace(rows[i][emailColumn]), email) {
			return i
		}
	}
	return -1
}

func findColumn(rows [][]string, column string) int {
	if len(rows) == 0 || column == "" {
		return -1
	}
	return slices.Index(rows[0], column)
}

// cellName converts zero-based indexes to A1 notation: (0,0) is "A1", (27,4) is "AB5".
func cellName(column, row int) string {
	var letters []byte
	for n := column + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters) + strconv.Itoa(row+1)
}
