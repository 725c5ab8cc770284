package avatax

import (
	"strconv"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/taxline-service/internal/domain/taxline"
)

// EncodeCreateTransaction serializes a line set into the JSON body of a
// CreateTransaction call. Lines are numbered 1..N in line-set order; the
// line number is the reconciliation key for mapping engine responses back
// to source entities, so the ordering contract of the builder matters here.
func EncodeCreateTransaction(set *taxline.LineSet, companyCode, customerCode, currency string, date time.Time) []byte {
	var e jx.Encoder
	e.ObjStart()

	e.FieldStart("type")
	e.Str(set.DocumentType.String())
	e.FieldStart("companyCode")
	e.Str(companyCode)
	e.FieldStart("code")
	e.Str(set.OrderID)
	e.FieldStart("customerCode")
	e.Str(customerCode)
	e.FieldStart("date")
	e.Str(date.UTC().Format("2006-01-02"))
	e.FieldStart("currencyCode")
	e.Str(currency)

	e.FieldStart("lines")
	e.ArrStart()
	for i, line := range set.Lines {
		e.ObjStart()
		e.FieldStart("number")
		e.Str(strconv.Itoa(i + 1))
		e.FieldStart("itemCode")
		e.Str(line.SourceID)
		e.FieldStart("amount")
		e.Num(jx.Num(line.Amount.String()))
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		if line.TaxCode != "" {
			e.FieldStart("taxCode")
			e.Str(line.TaxCode)
		}
		if line.Description != "" {
			e.FieldStart("description")
			e.Str(line.Description)
		}
		e.ObjEnd()
	}
	e.ArrEnd()

	e.ObjEnd()
	return e.Bytes()
}

// SourceForLineNumber resolves an engine line number (1-based, as encoded
// by EncodeCreateTransaction) back to the originating entity ID.
// It returns false for numbers outside the encoded range.
func SourceForLineNumber(set *taxline.LineSet, number int) (string, bool) {
	if number < 1 || number > len(set.Lines) {
		return "", false
	}
	return set.Lines[number-1].SourceID, true
}
