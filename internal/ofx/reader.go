// Package ofx reads OFX/QFX bank statements into bulk-import records.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/service"
)

// Reader parses OFX/QFX files.
type Reader struct{}

// NewReader creates a new OFX reader.
func NewReader() *Reader {
	return &Reader{}
}

// preprocess fixes common formatting issues in OFX files.
func (r *Reader) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Read parses an OFX/QFX statement and converts each listed transaction
// into an import record bound to the given account and category. The sign
// of the OFX amount decides the transaction type; the stored amount is
// always the magnitude.
func (r *Reader) Read(reader io.Reader, accountID, categoryID string) ([]service.ImportRecord, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(r.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var records []service.ImportRecord
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				records = append(records, r.convert(ofxTx, accountID, categoryID))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				records = append(records, r.convert(ofxTx, accountID, categoryID))
			}
		}
	}

	slog.Info("parsed OFX file",
		"records", len(records),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return records, nil
}

func (r *Reader) convert(ofxTx ofxgo.Transaction, accountID, categoryID string) service.ImportRecord {
	// OFX uses negative amounts for debits.
	amount, _ := ofxTx.TrnAmt.Float64()
	txType := model.TypeIncome
	if amount < 0 {
		amount = -amount
		txType = model.TypeExpense
	}

	return service.ImportRecord{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: r.describe(ofxTx),
		Type:        txType,
		DateText:    ofxTx.DtPosted.Time.UTC().Format(time.RFC3339),
	}
}

// describe extracts the most useful description from OFX fields.
func (r *Reader) describe(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && name == "" {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}
