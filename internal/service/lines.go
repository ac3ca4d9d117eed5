package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	return isoDate.MatchString(strings.TrimSpace(s))
}

// ValidateLines checks itemized lines and that total equals their sum.
// Records without lines are legacy and are not checked.
func ValidateLines(lines []entity.Line, total decimal.Decimal) error {
	if total.IsNegative() {
		return errorbank.BadRequest("total must not be negative")
	}
	if len(lines) == 0 {
		return nil
	}
	for i, l := range lines {
		if strings.TrimSpace(l.ArticleID) == "" {
			return errorbank.BadRequest(fmt.Sprintf("line %d: article id is required", i+1))
		}
		if l.Quantity <= 0 {
			return errorbank.BadRequest(fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		if l.Total.IsNegative() {
			return errorbank.BadRequest(fmt.Sprintf("line %d: total must not be negative", i+1))
		}
	}
	if sum := entity.SumLines(lines); !sum.Equal(total) {
		return errorbank.BadRequest("total does not match the sum of the lines",
			errorbank.WithDetail("expected", sum.String()),
			errorbank.WithDetail("got", total.String()),
		)
	}
	return nil
}

// ArticleLookup resolves an article by id.
type ArticleLookup func(ctx context.Context, id string) (entity.Article, error)

// SnapshotNames fills empty line names from the current article names.
// Names already present are kept: they were captured when the transaction
// happened.
func SnapshotNames(ctx context.Context, lines []entity.Line, lookup ArticleLookup) ([]entity.Line, error) {
	out := make([]entity.Line, len(lines))
	for i, l := range lines {
		l.ArticleID = strings.TrimSpace(l.ArticleID)
		if strings.TrimSpace(l.Name) == "" {
			a, err := lookup(ctx, l.ArticleID)
			if err != nil {
				if errorbank.Is(err, errorbank.KindNotFound) {
					return nil, errorbank.BadRequest("unknown article "+l.ArticleID, errorbank.WithDetail("line", i+1))
				}
				return nil, err
			}
			l.Name = a.Name
		}
		out[i] = l
	}
	return out, nil
}
