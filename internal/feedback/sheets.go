// Copyright (c) 2026 Bloomify. All rights reserved.

package feedback

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig holds the service account allowed to edit the spreadsheet.
type SheetsConfig struct {
	SpreadsheetID string
	ClientEmail   string

	// PrivateKey is the PEM key. Escaped "\n" sequences, as found in env files, are accepted.
	PrivateKey string
}

// SheetsTable is a [Table] backed by the Google Sheets API.
type SheetsTable struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsTable authenticates as the service account and binds to one spreadsheet.
func NewSheetsTable(ctx context.Context, config SheetsConfig) (*SheetsTable, error) {
	credentials := &jwt.Config{
		Email:      config.ClientEmail,
		PrivateKey: []byte(strings.ReplaceAll(config.PrivateKey, `\n`, "\n")),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(credentials.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("feedback: sheets client init failed: %w", err)
	}
	return NewSheetsTableWithService(service, config.SpreadsheetID), nil
}

// NewSheetsTableWithService wraps an existing client.
func NewSheetsTableWithService(service *sheets.Service, spreadsheetID string) *SheetsTable {
	return &SheetsTable{service: service, spreadsheetID: spreadsheetID}
}

// Rows returns every populated row of sheet. Cells are rendered as text.
func (table *SheetsTable) Rows(ctx context.Context, sheet string) ([][]string, error) {
	response, err := table.service.Spreadsheets.Values.Get(table.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("feedback: read %s failed: %w", sheet, err)
	}

	rows := make([][]string, len(response.Values))
	for i, values := range response.Values {
		rows[i] = make([]string, len(values))
		for j, value := range values {
			rows[i][j] = fmt.Sprint(value)
		}
	}
	return rows, nil
}

// Append adds row after the last populated row of sheet.
func (table *SheetsTable) Append(ctx context.Context, sheet string, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := table.service.Spreadsheets.Values.
		Append(table.spreadsheetID, sheet+"!A1", &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("feedback: append to %s failed: %w", sheet, err)
	}
	return nil
}

// Update overwrites one cell.
func (table *SheetsTable) Update(ctx context.Context, sheet, cell, value string) error {
	_, err := table.service.Spreadsheets.Values.
		Update(table.spreadsheetID, sheet+"!"+cell, &sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("feedback: update %s!%s failed: %w", sheet, cell, err)
	}
	return nil
}
